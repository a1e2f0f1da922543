package redis

import (
	"context"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepositIntentStore_RoundTrip(t *testing.T) {
	s, client := newTestClient(t)
	store := NewDepositIntentStore(client)
	ctx := context.Background()

	intent := &domain.DepositIntent{
		ExternalRef: "dep_1700000000",
		OwnerID:     uuid.New(),
		Currency:    "NGN",
		Amount:      decimal.RequireFromString("2500.75"),
		PaymentLink: "https://checkout.example/pay/abc",
		JournalID:   uuid.New(),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}

	require.NoError(t, store.Save(ctx, intent, time.Hour))
	assert.Equal(t, time.Hour, s.TTL(prefixIntent+intent.ExternalRef))

	got, err := store.Get(ctx, intent.ExternalRef)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, intent.OwnerID, got.OwnerID)
	assert.True(t, intent.Amount.Equal(got.Amount))
	assert.Equal(t, intent.JournalID, got.JournalID)

	require.NoError(t, store.Delete(ctx, intent.ExternalRef))
	got, err = store.Get(ctx, intent.ExternalRef)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestDepositIntentStore_Expiry(t *testing.T) {
	s, client := newTestClient(t)
	store := NewDepositIntentStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.DepositIntent{ExternalRef: "dep_2"}, time.Minute))
	s.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, "dep_2")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestDepositIntentStore_CorruptValue(t *testing.T) {
	s, client := newTestClient(t)
	store := NewDepositIntentStore(client)

	require.NoError(t, s.Set(prefixIntent+"dep_3", "{not json"))

	_, err := store.Get(context.Background(), "dep_3")
	assert.ErrorContains(t, err, "unmarshal deposit intent")
}

func TestDepositIntentStore_DeleteMissing(t *testing.T) {
	_, client := newTestClient(t)
	assert.NoError(t, NewDepositIntentStore(client).Delete(context.Background(), "nope"))
}
