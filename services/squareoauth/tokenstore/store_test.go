package tokenstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/BluCollarBookings/backend-server/lib/mystore"
	"github.com/BluCollarBookings/backend-server/lib/mytime"
)

func TestTokenStore(t *testing.T) {
	c := context.TODO()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, cleanup, err := mystore.NewInMemoryStore[TokenRecord](c)
	assert.NoError(t, err)
	defer cleanup()

	nower := mytime.NewMockNower(ctrl)
	nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

	sut := New(store, nower)

	expiresAt := mytime.ExampleTime.Add(30 * 24 * time.Hour)

	t.Run("Get absent", func(t *testing.T) {
		_, exists, err := sut.Get(c, "tenant-1")
		assert.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Upsert creates record", func(t *testing.T) {
		err := sut.Upsert(c, "tenant-1", TokenPatch{
			AccessToken:  "AT1",
			RefreshToken: "RT1",
			ExpiresAt:    &expiresAt,
			MerchantID:   "M123",
		})
		assert.NoError(t, err)

		record, exists, err := sut.Get(c, "tenant-1")
		assert.NoError(t, err)
		assert.True(t, exists)
		assert.Equal(t, TokenRecord{
			CompanyUID:   "tenant-1",
			AccessToken:  "AT1",
			RefreshToken: "RT1",
			ExpiresAt:    &expiresAt,
			MerchantID:   "M123",
			CreatedAt:    mytime.ExampleTime,
			LastModified: &mytime.ExampleTime,
		}, record)
	})

	t.Run("Upsert is idempotent", func(t *testing.T) {
		before, _, err := sut.Get(c, "tenant-1")
		assert.NoError(t, err)

		err = sut.Upsert(c, "tenant-1", TokenPatch{
			AccessToken:  "AT1",
			RefreshToken: "RT1",
			ExpiresAt:    &expiresAt,
			MerchantID:   "M123",
		})
		assert.NoError(t, err)

		after, _, err := sut.Get(c, "tenant-1")
		assert.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("Upsert without merchant-id retains stored one", func(t *testing.T) {
		newExpiry := expiresAt.Add(30 * 24 * time.Hour)
		err := sut.Upsert(c, "tenant-1", TokenPatch{
			AccessToken:  "AT2",
			RefreshToken: "RT2",
			ExpiresAt:    &newExpiry,
		})
		assert.NoError(t, err)

		record, _, err := sut.Get(c, "tenant-1")
		assert.NoError(t, err)
		assert.Equal(t, "AT2", record.AccessToken)
		assert.Equal(t, "RT2", record.RefreshToken)
		assert.Equal(t, &newExpiry, record.ExpiresAt)
		assert.Equal(t, "M123", record.MerchantID)
		assert.Equal(t, mytime.ExampleTime, record.CreatedAt)
	})

	t.Run("Records for different companies do not interfere", func(t *testing.T) {
		err := sut.Upsert(c, "tenant-2", TokenPatch{
			AccessToken:  "OTHER",
			RefreshToken: "OTHER",
			ExpiresAt:    &expiresAt,
		})
		assert.NoError(t, err)

		record, _, err := sut.Get(c, "tenant-1")
		assert.NoError(t, err)
		assert.Equal(t, "AT2", record.AccessToken)
	})
}

func TestExpired(t *testing.T) {
	now := mytime.ExampleTime

	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.True(t, TokenRecord{ExpiresAt: &past}.Expired(now))
	assert.False(t, TokenRecord{ExpiresAt: &future}.Expired(now))
	assert.False(t, TokenRecord{}.Expired(now))

	// expiry comparison is timezone-insensitive
	inEast := past.In(time.FixedZone("UTC+10", 10*60*60))
	assert.True(t, TokenRecord{ExpiresAt: &inEast}.Expired(now))
}
