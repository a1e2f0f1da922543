package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func begin(t *testing.T, s *Store) pgx.Tx {
	t.Helper()
	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	return tx
}

func TestTx_RollbackRestoresState(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	wallets := NewWalletRepo(s)
	journal := NewTransactionRepo(s)
	owner := uuid.New()

	tx := begin(t, s)
	w, err := wallets.GetOrCreate(ctx, tx, owner, "NGN")
	require.NoError(t, err)
	_, err = wallets.ApplyDelta(ctx, tx, owner, "NGN", decimal.NewFromInt(500), w.Version)
	require.NoError(t, err)
	require.NoError(t, journal.Create(ctx, tx, &domain.Transaction{ID: uuid.New(), ToOwnerID: &owner, Status: domain.TransactionStatusSuccessful}))
	require.NoError(t, tx.Rollback(ctx))

	got, err := wallets.GetByOwner(ctx, owner, "NGN")
	require.NoError(t, err)
	assert.Nil(t, got)

	items, total, err := journal.List(ctx, domain.TransactionFilter{OwnerID: owner})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestTx_RollbackRevertsBalanceAndVersion(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	wallets := NewWalletRepo(s)
	owner := uuid.New()

	tx := begin(t, s)
	_, err := wallets.GetOrCreate(ctx, tx, owner, "USD")
	require.NoError(t, err)
	_, err = wallets.ApplyDelta(ctx, tx, owner, "USD", decimal.NewFromInt(10), 0)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	tx = begin(t, s)
	_, err = wallets.ApplyDelta(ctx, tx, owner, "USD", decimal.NewFromInt(-4), 1)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	got, err := wallets.GetByOwner(ctx, owner, "USD")
	require.NoError(t, err)
	assert.Equal(t, "10", got.Balance.String())
	assert.Equal(t, int64(1), got.Version)
}

func TestTx_DoubleCloseIsTxClosed(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	tx := begin(t, s)
	require.NoError(t, tx.Commit(ctx))
	assert.ErrorIs(t, tx.Rollback(ctx), pgx.ErrTxClosed)
	assert.ErrorIs(t, tx.Commit(ctx), pgx.ErrTxClosed)

	_, err := NewWalletRepo(s).GetOrCreate(ctx, tx, uuid.New(), "NGN")
	assert.ErrorIs(t, err, pgx.ErrTxClosed)
}

func TestTx_ForeignTxRejected(t *testing.T) {
	ctx := context.Background()
	a, b := NewStore(), NewStore()

	tx := begin(t, a)
	defer tx.Rollback(ctx)

	_, err := NewWalletRepo(b).GetOrCreate(ctx, tx, uuid.New(), "NGN")
	assert.ErrorIs(t, err, errForeignTx)
}

func TestBegin_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStore().Begin(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalletRepo_ApplyDelta(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	wallets := NewWalletRepo(s)
	owner := uuid.New()

	require.NoError(t, wallets.Create(ctx, domain.NewWallet(owner, "NGN")))
	assert.ErrorIs(t, wallets.Create(ctx, domain.NewWallet(owner, "NGN")), domain.ErrWalletExists)

	tx := begin(t, s)
	defer tx.Rollback(ctx)

	w, err := wallets.ApplyDelta(ctx, tx, owner, "NGN", decimal.NewFromInt(100), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), w.Version)

	_, err = wallets.ApplyDelta(ctx, tx, owner, "NGN", decimal.NewFromInt(-1), 0)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	_, err = wallets.ApplyDelta(ctx, tx, owner, "NGN", decimal.NewFromInt(-101), 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	_, err = wallets.ApplyDelta(ctx, tx, owner, "EUR", decimal.NewFromInt(1), 0)
	assert.ErrorIs(t, err, domain.ErrWalletNotFound)

	w, err = wallets.ApplyDelta(ctx, tx, owner, "NGN", decimal.NewFromInt(-100), 1)
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())
}

func TestWalletRepo_ListByOwnerSorted(t *testing.T) {
	ctx := context.Background()
	wallets := NewWalletRepo(NewStore())
	owner := uuid.New()

	for _, c := range []string{"USD", "EUR", "NGN"} {
		require.NoError(t, wallets.Create(ctx, domain.NewWallet(owner, c)))
	}
	require.NoError(t, wallets.Create(ctx, domain.NewWallet(uuid.New(), "GBP")))

	list, err := wallets.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"EUR", "NGN", "USD"}, []string{list[0].Currency, list[1].Currency, list[2].Currency})
}

func TestWalletRepo_ConcurrentGetOrCreateYieldsOneWallet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	wallets := NewWalletRepo(s)
	owner := uuid.New()

	var wg sync.WaitGroup
	ids := make(chan uuid.UUID, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := s.Begin(ctx)
			if err != nil {
				return
			}
			w, err := wallets.GetOrCreate(ctx, tx, owner, "NGN")
			if err == nil {
				ids <- w.ID
			}
			_ = tx.Commit(ctx)
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[uuid.UUID]bool{}
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, 1)
}

func TestTransactionRepo_DuplicateReference(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	journal := NewTransactionRepo(s)
	owner := uuid.New()
	ref := "dep_1"

	pending := &domain.Transaction{ID: uuid.New(), Type: domain.TransactionTypeDeposit, ToOwnerID: &owner, Status: domain.TransactionStatusPending, ExternalRef: &ref}

	tx := begin(t, s)
	require.NoError(t, journal.Create(ctx, tx, pending))
	dup := &domain.Transaction{ID: uuid.New(), ToOwnerID: &owner, Status: domain.TransactionStatusSuccessful, ExternalRef: &ref}
	assert.ErrorIs(t, journal.Create(ctx, tx, dup), domain.ErrDuplicateReference)

	failed := &domain.Transaction{ID: uuid.New(), ToOwnerID: &owner, Status: domain.TransactionStatusFailed, ExternalRef: &ref}
	assert.NoError(t, journal.Create(ctx, tx, failed))

	reason := "declined"
	require.NoError(t, journal.UpdateStatus(ctx, tx, pending.ID, domain.TransactionStatusFailed, &reason))
	assert.NoError(t, journal.Create(ctx, tx, dup))
	require.NoError(t, tx.Commit(ctx))

	live, err := journal.GetByExternalRef(ctx, ref)
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.Equal(t, dup.ID, live.ID)

	old, err := journal.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, old.Status)
	assert.Equal(t, "declined", *old.FailureReason)
	assert.NotNil(t, old.ProcessedAt)
}

func TestTransactionRepo_UpdateStatusOnlyFromPending(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	journal := NewTransactionRepo(s)
	done := &domain.Transaction{ID: uuid.New(), Status: domain.TransactionStatusSuccessful}

	tx := begin(t, s)
	defer tx.Rollback(ctx)
	require.NoError(t, journal.Create(ctx, tx, done))

	assert.ErrorIs(t, journal.UpdateStatus(ctx, tx, done.ID, domain.TransactionStatusFailed, nil), domain.ErrInvalidStatusTransition)
	assert.ErrorIs(t, journal.UpdateStatus(ctx, tx, uuid.New(), domain.TransactionStatusFailed, nil), domain.ErrInvalidStatusTransition)
}

func TestTransactionRepo_ListNewestFirstPaged(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	journal := NewTransactionRepo(s)
	owner := uuid.New()
	deposit := domain.TransactionTypeDeposit

	tx := begin(t, s)
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		txn := &domain.Transaction{
			ID:            uuid.New(),
			Type:          domain.TransactionTypeDeposit,
			ToOwnerID:     &owner,
			DebitCurrency: "NGN", CreditCurrency: "NGN",
			Status:    domain.TransactionStatusSuccessful,
			CreatedAt: time.Now(),
		}
		ids = append(ids, txn.ID)
		require.NoError(t, journal.Create(ctx, tx, txn))
	}
	require.NoError(t, journal.Create(ctx, tx, &domain.Transaction{ID: uuid.New(), Type: domain.TransactionTypeWithdraw, FromOwnerID: &owner, Status: domain.TransactionStatusSuccessful}))
	require.NoError(t, tx.Commit(ctx))

	items, total, err := journal.List(ctx, domain.TransactionFilter{OwnerID: owner, Type: &deposit, Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, items, 2)
	assert.Equal(t, ids[2], items[0].ID)
	assert.Equal(t, ids[1], items[1].ID)

	items, _, err = journal.List(ctx, domain.TransactionFilter{OwnerID: owner, Type: &deposit, Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUserDirectory(t *testing.T) {
	ctx := context.Background()
	u := domain.User{ID: uuid.New(), Email: "Ada@Example.com", Name: "Ada", HomeCurrency: "ngn"}
	dir := NewUserDirectory(u)

	got, err := dir.GetByEmail(ctx, " ada@example.COM ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "NGN", got.HomeCurrency)

	got, err = dir.GetByID(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestReplayCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewReplayCache()
	now := time.Now()
	c.kv.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "ref", []byte("v"), time.Minute))
	got, _ := c.Get(ctx, "ref")
	assert.Equal(t, []byte("v"), got)

	now = now.Add(2 * time.Minute)
	got, _ = c.Get(ctx, "ref")
	assert.Nil(t, got)
}

func TestDepositIntentStore(t *testing.T) {
	ctx := context.Background()
	s := NewDepositIntentStore()
	intent := &domain.DepositIntent{
		ExternalRef: "dep_1",
		OwnerID:     uuid.New(),
		Currency:    "NGN",
		Amount:      decimal.RequireFromString("2500.75"),
	}

	require.NoError(t, s.Save(ctx, intent, time.Hour))
	got, err := s.Get(ctx, "dep_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, intent.OwnerID, got.OwnerID)
	assert.True(t, intent.Amount.Equal(got.Amount))

	require.NoError(t, s.Delete(ctx, "dep_1"))
	got, err = s.Get(ctx, "dep_1")
	assert.NoError(t, err)
	assert.Nil(t, got)
}
