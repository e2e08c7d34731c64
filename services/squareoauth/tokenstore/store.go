package tokenstore

import (
	"context"
	"fmt"

	"github.com/BluCollarBookings/backend-server/lib/mystore"
	"github.com/BluCollarBookings/backend-server/lib/mytime"
)

//go:generate mockgen -source=store.go -package tokenstore -destination store_mock.go TokenStore
type TokenStore interface {
	Get(c context.Context, companyUID string) (TokenRecord, bool, error)
	Upsert(c context.Context, companyUID string, patch TokenPatch) error
	List(c context.Context) ([]TokenRecord, error)
}

type tokenStore struct {
	store mystore.Store[TokenRecord]
	nower mytime.Nower
}

func New(store mystore.Store[TokenRecord], nower mytime.Nower) *tokenStore {
	return &tokenStore{
		store: store,
		nower: nower,
	}
}

// CreateRecordUID derives the deterministic document key for a company.
func CreateRecordUID(companyUID string) string {
	return fmt.Sprintf("companies/%s/settings", companyUID)
}

func (s *tokenStore) Get(c context.Context, companyUID string) (TokenRecord, bool, error) {
	return s.store.Get(c, CreateRecordUID(companyUID))
}

// Upsert merges the patch into the company's record inside one transaction:
// concurrent readers never observe a partially written triple. Fields absent
// from the patch keep their stored value.
func (s *tokenStore) Upsert(c context.Context, companyUID string, patch TokenPatch) error {
	return s.store.RunInTransaction(c, func(c context.Context) error {
		uid := CreateRecordUID(companyUID)

		current, exists, err := s.store.Get(c, uid)
		if err != nil {
			return fmt.Errorf("error fetching token-record %s: %s", uid, err)
		}

		now := s.nower.Now()
		if !exists {
			current = TokenRecord{
				CompanyUID: companyUID,
				CreatedAt:  now,
			}
		}

		current.AccessToken = patch.AccessToken
		current.RefreshToken = patch.RefreshToken
		current.ExpiresAt = patch.ExpiresAt
		if patch.MerchantID != "" {
			current.MerchantID = patch.MerchantID
		}
		current.LastModified = &now

		err = s.store.Put(c, uid, current)
		if err != nil {
			return fmt.Errorf("error storing token-record %s: %s", uid, err)
		}

		return nil
	})
}

func (s *tokenStore) List(c context.Context) ([]TokenRecord, error) {
	return s.store.List(c)
}
