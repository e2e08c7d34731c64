package squareoauth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/BluCollarBookings/backend-server/lib/myerrors"
	"github.com/BluCollarBookings/backend-server/lib/mylog"
	"github.com/BluCollarBookings/backend-server/lib/mypublisher"
	"github.com/BluCollarBookings/backend-server/lib/mypubsub"
	"github.com/BluCollarBookings/backend-server/lib/mytime"
	"github.com/BluCollarBookings/backend-server/lib/myuuid"
	"github.com/BluCollarBookings/backend-server/services/squareoauth/squareclient"
	"github.com/BluCollarBookings/backend-server/services/squareoauth/squareevents"
	"github.com/BluCollarBookings/backend-server/services/squareoauth/tokenstore"
)

type service struct {
	params       Params
	tokenStore   tokenstore.TokenStore
	squareClient squareclient.Client
	nower        mytime.Nower
	uuider       myuuid.UUIDer
	logger       mylog.Logger
	publisher    mypublisher.Publisher
	subscriber   mypubsub.PubSub
}

func newService(params Params, tokenStore tokenstore.TokenStore, squareClient squareclient.Client, nower mytime.Nower, uuider myuuid.UUIDer, pub mypublisher.Publisher, subscriber mypubsub.PubSub) *service {
	return &service{
		params:       params,
		tokenStore:   tokenStore,
		squareClient: squareClient,
		nower:        nower,
		uuider:       uuider,
		logger:       mylog.New("squareoauth"),
		publisher:    pub,
		subscriber:   subscriber,
	}
}

func (s *service) CreateTopics(c context.Context) error {
	err := s.publisher.CreateTopic(c, squareevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", squareevents.TopicName, err)
	}

	return nil
}

// exchangeToken swaps an authorization code for a token triple and persists
// it for the company. Persistence is best-effort: the client already holds a
// valid authorization, so a store failure is logged but does not fail the
// exchange.
func (s *service) exchangeToken(c context.Context, companyUID string, code string) (tokenstore.TokenRecord, error) {
	s.logger.Log(c, companyUID, mylog.SeverityInfo, "Start token-exchange for company '%s'", companyUID)

	tokenResp, err := s.squareClient.ExchangeAuthorizationCode(c, code)
	if err != nil {
		if errors.Is(err, squareclient.ErrInsufficientScopes) {
			return tokenstore.TokenRecord{}, myerrors.NewAuthenticationError(err)
		}

		return tokenstore.TokenRecord{}, myerrors.NewInternalError(fmt.Errorf("error exchanging authorization-code: %s", err))
	}

	s.logger.Log(c, companyUID, mylog.SeverityDebug, "token-resp: access:%s, refresh:%s, expires-at:%s",
		mask(tokenResp.AccessToken), mask(tokenResp.RefreshToken), tokenResp.ExpiresAt)

	record := tokenstore.TokenRecord{
		CompanyUID:   companyUID,
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		ExpiresAt:    s.parseExpiry(c, companyUID, tokenResp.ExpiresAt),
		MerchantID:   tokenResp.MerchantID,
	}

	if companyUID != "" {
		err = s.tokenStore.Upsert(c, companyUID, tokenstore.TokenPatch{
			AccessToken:  record.AccessToken,
			RefreshToken: record.RefreshToken,
			ExpiresAt:    record.ExpiresAt,
			MerchantID:   record.MerchantID,
		})
		if err != nil {
			s.logger.Log(c, companyUID, mylog.SeverityError, "Error storing token-record for company '%s': %s", companyUID, err)
		}

		err = s.publisher.Publish(c, squareevents.TopicName, squareevents.TokenExchangeCompleted{
			CompanyUID: companyUID,
			MerchantID: record.MerchantID,
		})
		if err != nil {
			s.logger.Log(c, companyUID, mylog.SeverityError, "Error publishing event: %s", err)
		}
	}

	s.logger.Log(c, companyUID, mylog.SeverityInfo, "Completed token-exchange for company '%s'", companyUID)

	return record, nil
}

// refreshTokenRecord exchanges the stored refresh token for a new triple and
// persists it. Unlike the exchange path, a store failure fails the refresh:
// the caller proceeds without a token rather than with a stale one.
func (s *service) refreshTokenRecord(c context.Context, companyUID string, current tokenstore.TokenRecord) (tokenstore.TokenRecord, error) {
	s.logger.Log(c, companyUID, mylog.SeverityInfo, "Start token-refresh for company '%s'", companyUID)

	if current.RefreshToken == "" {
		return tokenstore.TokenRecord{}, myerrors.NewNotFoundError(fmt.Errorf("no refresh-token stored for company '%s'", companyUID))
	}

	tokenResp, err := s.squareClient.RefreshAccessToken(c, current.RefreshToken)
	if err != nil {
		return tokenstore.TokenRecord{}, myerrors.NewInternalError(fmt.Errorf("error refreshing token: %s", err))
	}

	s.logger.Log(c, companyUID, mylog.SeverityDebug, "refresh-token-resp: access:%s, refresh:%s, expires-at:%s",
		mask(tokenResp.AccessToken), mask(tokenResp.RefreshToken), tokenResp.ExpiresAt)

	newRecord := current
	newRecord.AccessToken = tokenResp.AccessToken
	newRecord.RefreshToken = tokenResp.RefreshToken
	newRecord.ExpiresAt = s.parseExpiry(c, companyUID, tokenResp.ExpiresAt)

	err = s.tokenStore.Upsert(c, companyUID, tokenstore.TokenPatch{
		AccessToken:  newRecord.AccessToken,
		RefreshToken: newRecord.RefreshToken,
		ExpiresAt:    newRecord.ExpiresAt,
	})
	if err != nil {
		return tokenstore.TokenRecord{}, myerrors.NewInternalError(fmt.Errorf("error storing refreshed token-record: %s", err))
	}

	err = s.publisher.Publish(c, squareevents.TopicName, squareevents.TokenRefreshCompleted{
		UID:        s.uuider.Create(),
		CompanyUID: companyUID,
	})
	if err != nil {
		s.logger.Log(c, companyUID, mylog.SeverityError, "Error publishing event: %s", err)
	}

	s.logger.Log(c, companyUID, mylog.SeverityInfo, "Completed token-refresh for company '%s'", companyUID)

	return newRecord, nil
}

func (s *service) getOauthStatus(c context.Context) ([]CompanyStatus, error) {
	records, err := s.tokenStore.List(c)
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error listing token-records: %s", err))
	}

	statuses := make([]CompanyStatus, 0, len(records))
	for _, record := range records {
		statuses = append(statuses, CompanyStatus{
			CompanyUID: record.CompanyUID,
			MerchantID: record.MerchantID,
			Connected:  record.AccessToken != "",
			ValidUntil: record.ExpiresAt,
		})
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].CompanyUID < statuses[j].CompanyUID
	})

	return statuses, nil
}

func (s *service) parseExpiry(c context.Context, companyUID string, expiresAt string) *time.Time {
	if expiresAt == "" {
		return nil
	}

	t, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil {
		s.logger.Log(c, companyUID, mylog.SeverityWarn, "Unparsable expires-at '%s': %s", expiresAt, err)
		return nil
	}

	return &t
}

func mask(token string) string {
	if len(token) <= 4 {
		return "****"
	}

	return token[:4] + "****"
}
