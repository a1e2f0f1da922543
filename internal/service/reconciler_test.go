package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"wallet-ledger/internal/adapter/storage/memory"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testWebhookSecret = "flw-secret-hash"

type reconcilerTestDeps struct {
	svc      *DepositReconciler
	store    *memory.Store
	wallets  *memory.WalletRepo
	journal  *memory.TransactionRepo
	users    *memory.UserDirectory
	gateway  *mocks.MockPaymentGateway
	replays  *memory.ReplayCache
	intents  *memory.DepositIntentStore
	verifier *WebhookVerifier
	metrics  *Metrics
}

func setupReconciler(t *testing.T, users ...domain.User) *reconcilerTestDeps {
	ctrl := gomock.NewController(t)
	store := memory.NewStore()
	d := &reconcilerTestDeps{
		store:    store,
		wallets:  memory.NewWalletRepo(store),
		journal:  memory.NewTransactionRepo(store),
		users:    memory.NewUserDirectory(users...),
		gateway:  mocks.NewMockPaymentGateway(ctrl),
		replays:  memory.NewReplayCache(),
		intents:  memory.NewDepositIntentStore(),
		verifier: NewWebhookVerifier(testWebhookSecret, WebhookModeHash),
		metrics:  NewMetrics(prometheus.NewRegistry()),
	}
	d.svc = NewDepositReconciler(d.wallets, d.journal, d.users, store, d.gateway, d.verifier,
		d.replays, d.intents, ReconcilerOptions{ReplayTTL: time.Hour, IntentTTL: time.Hour, MaxRetries: 3},
		d.metrics, zerolog.Nop())
	return d
}

func chargeEvent(t *testing.T, event, ref, status, amount, currency, email string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"event": event,
		"data": map[string]any{
			"id":       json.Number("285959875"),
			"tx_ref":   ref,
			"flw_ref":  "FLW-MOCK-" + ref,
			"amount":   json.Number(amount),
			"currency": currency,
			"status":   status,
			"customer": map[string]any{"email": email},
		},
	})
	require.NoError(t, err)
	return body
}

func (d *reconcilerTestDeps) balance(t *testing.T, owner uuid.UUID, currency string) string {
	t.Helper()
	w, err := d.wallets.GetByOwner(context.Background(), owner, currency)
	require.NoError(t, err)
	if w == nil {
		return "none"
	}
	return w.Balance.String()
}

func (d *reconcilerTestDeps) initiate(t *testing.T, owner uuid.UUID, amount string) *domain.DepositIntent {
	t.Helper()
	d.gateway.EXPECT().InitiateCharge(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.ChargeRequest) (*ports.ChargeResult, error) {
			return &ports.ChargeResult{PaymentLink: "https://checkout.example/" + req.TxRef, ProviderRef: "FLW-" + req.TxRef}, nil
		})
	intent, err := d.svc.InitiateDeposit(context.Background(), ports.InitiateDepositRequest{OwnerID: owner, Currency: "NGN", Amount: dec(amount)})
	require.NoError(t, err)
	return intent
}

// ==================== Webhook ====================

func TestReconciler_WebhookCreditsOnceAcrossReplays(t *testing.T) {
	owner := uuid.New()
	d := setupReconciler(t, domain.User{ID: owner, Email: "ada@example.com", HomeCurrency: "NGN"})
	body := chargeEvent(t, EventChargeCompleted, "dep_1", ChargeSuccessful, "2500", "NGN", "ADA@example.com")
	sig := testWebhookSecret

	first, err := d.svc.ReconcileWebhook(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeCredited, first.Outcome)

	for i := 0; i < 3; i++ {
		res, err := d.svc.ReconcileWebhook(context.Background(), body, sig)
		require.NoError(t, err)
		assert.Equal(t, ports.OutcomeReplayed, res.Outcome)
		assert.Equal(t, first.Transaction.ID, res.Transaction.ID)
	}

	assert.Equal(t, "2500", d.balance(t, owner, "NGN"))
	assert.Equal(t, float64(3), testutil.ToFloat64(d.metrics.webhookOutcomes.WithLabelValues("replayed")))
}

func TestReconciler_ReplayWithoutCacheFallsBackToJournal(t *testing.T) {
	owner := uuid.New()
	d := setupReconciler(t, domain.User{ID: owner, Email: "ada@example.com"})
	body := chargeEvent(t, EventChargeCompleted, "dep_2", ChargeSuccessful, "100", "USD", "ada@example.com")

	_, err := d.svc.ReconcileWebhook(context.Background(), body, testWebhookSecret)
	require.NoError(t, err)

	d.svc.replays = memory.NewReplayCache()
	res, err := d.svc.ReconcileWebhook(context.Background(), body, testWebhookSecret)
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeReplayed, res.Outcome)
	assert.Equal(t, "100", d.balance(t, owner, "USD"))

	cached, err := d.svc.replays.Get(context.Background(), "dep_2")
	require.NoError(t, err)
	assert.NotNil(t, cached)
}

func TestReconciler_ConcurrentDeliveriesCreditOnce(t *testing.T) {
	owner := uuid.New()
	d := setupReconciler(t, domain.User{ID: owner, Email: "ada@example.com"})
	body := chargeEvent(t, EventChargeCompleted, "dep_3", ChargeSuccessful, "700", "NGN", "ada@example.com")

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.svc.ReconcileWebhook(context.Background(), body, testWebhookSecret)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	assert.Equal(t, "700", d.balance(t, owner, "NGN"))
	items, total, err := d.journal.List(context.Background(), domain.TransactionFilter{OwnerID: owner})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, domain.TransactionStatusSuccessful, items[0].Status)
}

func TestReconciler_BadSignature(t *testing.T) {
	d := setupReconciler(t)
	body := chargeEvent(t, EventChargeCompleted, "dep_4", ChargeSuccessful, "1", "NGN", "x@example.com")

	_, err := d.svc.ReconcileWebhook(context.Background(), body, "wrong")
	assertAppError(t, err, "SEC_002")

	_, err = d.svc.ReconcileWebhook(context.Background(), body, "")
	assertAppError(t, err, "SEC_002")
	assert.Equal(t, float64(2), testutil.ToFloat64(d.metrics.webhookOutcomes.WithLabelValues("rejected")))
}

func TestReconciler_Acknowledged(t *testing.T) {
	known := uuid.New()
	d := setupReconciler(t, domain.User{ID: known, Email: "ada@example.com"})

	tests := []struct {
		name string
		body []byte
	}{
		{"unknown customer", chargeEvent(t, EventChargeCompleted, "dep_5", ChargeSuccessful, "10", "NGN", "ghost@example.com")},
		{"other event", chargeEvent(t, "transfer.completed", "dep_6", ChargeSuccessful, "10", "NGN", "ada@example.com")},
		{"missing reference", chargeEvent(t, EventChargeCompleted, "", ChargeSuccessful, "10", "NGN", "ada@example.com")},
		{"zero amount", chargeEvent(t, EventChargeCompleted, "dep_7", ChargeSuccessful, "0", "NGN", "ada@example.com")},
		{"failed without pending entry", chargeEvent(t, EventChargeCompleted, "dep_8", "failed", "10", "NGN", "ada@example.com")},
		{"reference outside deposit namespace", chargeEvent(t, EventChargeCompleted, "order-9", ChargeSuccessful, "10", "NGN", "ada@example.com")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := d.svc.ReconcileWebhook(context.Background(), tt.body, testWebhookSecret)
			require.NoError(t, err)
			assert.Equal(t, ports.OutcomeIgnored, res.Outcome)
		})
	}
	assert.Equal(t, "none", d.balance(t, known, "NGN"))
}

func TestReconciler_ReferenceHeldByOtherEntryIsNotReplayed(t *testing.T) {
	ctx := context.Background()
	victim, other := uuid.New(), uuid.New()
	d := setupReconciler(t, domain.User{ID: victim, Email: "victim@example.com", HomeCurrency: "NGN"})
	ref := "dep_1700000000"

	// A client deposit cannot claim the provider reference.
	ledger := NewLedgerService(d.wallets, d.journal, d.users, &fixedRates{}, d.store, LedgerOptions{}, nil, zerolog.Nop())
	_, err := ledger.Deposit(ctx, ports.MovementRequest{OwnerID: other, Currency: "NGN", Amount: dec("1"), ExternalRef: ref})
	assertAppError(t, err, "LED_001")

	// An entry of another kind already holding it is a clash, not a replay.
	tx, err := d.store.Begin(ctx)
	require.NoError(t, err)
	fromWallet, toWallet := uuid.New(), uuid.New()
	held := ref
	require.NoError(t, d.journal.Create(ctx, tx, &domain.Transaction{
		ID:             uuid.New(),
		Type:           domain.TransactionTypeTransfer,
		FromWalletID:   &fromWallet,
		FromOwnerID:    &other,
		ToWalletID:     &toWallet,
		ToOwnerID:      &other,
		DebitAmount:    dec("1"),
		DebitCurrency:  "NGN",
		CreditAmount:   dec("1"),
		CreditCurrency: "NGN",
		Status:         domain.TransactionStatusSuccessful,
		ExternalRef:    &held,
		CreatedAt:      time.Now().UTC(),
	}))
	require.NoError(t, tx.Commit(ctx))

	body := chargeEvent(t, EventChargeCompleted, ref, ChargeSuccessful, "1000", "NGN", "victim@example.com")
	res, err := d.svc.ReconcileWebhook(ctx, body, testWebhookSecret)
	assertAppError(t, err, "LED_005")
	assert.Nil(t, res)
	assert.Equal(t, "none", d.balance(t, victim, "NGN"))

	cached, err := d.replays.Get(ctx, ref)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestReconciler_CachedNonDepositIsNotReplayed(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	d := setupReconciler(t, domain.User{ID: owner, Email: "ada@example.com", HomeCurrency: "NGN"})
	ref := "dep_1700000001"

	stale, err := json.Marshal(&domain.Transaction{ID: uuid.New(), Type: domain.TransactionTypeWithdraw, Status: domain.TransactionStatusSuccessful, ExternalRef: &ref})
	require.NoError(t, err)
	require.NoError(t, d.replays.Set(ctx, ref, stale, time.Hour))

	res, err := d.svc.ReconcileWebhook(ctx, chargeEvent(t, EventChargeCompleted, ref, ChargeSuccessful, "40", "NGN", "ada@example.com"), testWebhookSecret)
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeCredited, res.Outcome)
	assert.Equal(t, "40", d.balance(t, owner, "NGN"))
}

func TestReconciler_MalformedPayload(t *testing.T) {
	d := setupReconciler(t)

	_, err := d.svc.ReconcileWebhook(context.Background(), []byte(`{"event":`), testWebhookSecret)
	assertAppError(t, err, "LED_001")
}

func TestReconciler_InitiateThenWebhookSettlesPendingEntry(t *testing.T) {
	owner := uuid.New()
	d := setupReconciler(t, domain.User{ID: owner, Email: "ada@example.com", Name: "Ada"})
	intent := d.initiate(t, owner, "5000")

	assert.Regexp(t, `^dep_\d+_[0-9a-f]{8}$`, intent.ExternalRef)
	assert.Equal(t, "FLW-"+intent.ExternalRef, intent.ProviderRef)
	assert.Equal(t, "0", d.balance(t, owner, "NGN"))

	pending, err := d.journal.GetByID(context.Background(), intent.JournalID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusPending, pending.Status)

	// customer email on the event is irrelevant once the reference is known
	body := chargeEvent(t, EventChargeCompleted, intent.ExternalRef, ChargeSuccessful, "5000", "NGN", "")
	res, err := d.svc.ReconcileWebhook(context.Background(), body, testWebhookSecret)
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeCredited, res.Outcome)
	assert.Equal(t, intent.JournalID, res.Transaction.ID)

	settled, err := d.journal.GetByID(context.Background(), intent.JournalID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusSuccessful, settled.Status)
	assert.Equal(t, "5000", d.balance(t, owner, "NGN"))

	gone, err := d.intents.Get(context.Background(), intent.ExternalRef)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestReconciler_AmountMismatchSupersedesPendingEntry(t *testing.T) {
	owner := uuid.New()
	d := setupReconciler(t, domain.User{ID: owner, Email: "ada@example.com"})
	intent := d.initiate(t, owner, "5000")

	body := chargeEvent(t, EventChargeCompleted, intent.ExternalRef, ChargeSuccessful, "4000", "NGN", "ada@example.com")
	res, err := d.svc.ReconcileWebhook(context.Background(), body, testWebhookSecret)
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeCredited, res.Outcome)
	assert.NotEqual(t, intent.JournalID, res.Transaction.ID)
	assert.Equal(t, "4000", d.balance(t, owner, "NGN"))

	old, err := d.journal.GetByID(context.Background(), intent.JournalID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, old.Status)
	require.NotNil(t, old.FailureReason)
	assert.Contains(t, *old.FailureReason, "superseded")
}

func TestReconciler_FailedChargeMarksPendingFailed(t *testing.T) {
	owner := uuid.New()
	d := setupReconciler(t, domain.User{ID: owner, Email: "ada@example.com"})
	intent := d.initiate(t, owner, "300")

	body := chargeEvent(t, EventChargeCompleted, intent.ExternalRef, "failed", "300", "NGN", "ada@example.com")
	res, err := d.svc.ReconcileWebhook(context.Background(), body, testWebhookSecret)
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeFailed, res.Outcome)

	entry, err := d.journal.GetByID(context.Background(), intent.JournalID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, entry.Status)
	assert.Equal(t, "0", d.balance(t, owner, "NGN"))

	// a late success for the same reference still credits, on a fresh entry
	ok := chargeEvent(t, EventChargeCompleted, intent.ExternalRef, ChargeSuccessful, "300", "NGN", "ada@example.com")
	res, err = d.svc.ReconcileWebhook(context.Background(), ok, testWebhookSecret)
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeCredited, res.Outcome)
	assert.Equal(t, "300", d.balance(t, owner, "NGN"))
}

func TestReconciler_InitiateGatewayDown(t *testing.T) {
	owner := uuid.New()
	d := setupReconciler(t, domain.User{ID: owner, Email: "ada@example.com"})
	d.gateway.EXPECT().InitiateCharge(gomock.Any(), gomock.Any()).Return(nil, domain.ErrGatewayUnavailable)

	_, err := d.svc.InitiateDeposit(context.Background(), ports.InitiateDepositRequest{OwnerID: owner, Currency: "NGN", Amount: dec("10")})
	assertAppError(t, err, "LED_008")

	items, _, err := d.svc.ListDeposits(context.Background(), owner, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestReconciler_InitiateUnknownUser(t *testing.T) {
	d := setupReconciler(t)

	_, err := d.svc.InitiateDeposit(context.Background(), ports.InitiateDepositRequest{OwnerID: uuid.New(), Currency: "NGN", Amount: dec("10")})
	assertAppError(t, err, "LED_010")
}

// ==================== OTP ====================

func TestReconciler_ConfirmOTP(t *testing.T) {
	owner := uuid.New()
	d := setupReconciler(t, domain.User{ID: owner, Email: "ada@example.com"})
	intent := d.initiate(t, owner, "1500")

	d.gateway.EXPECT().ValidateCharge(gomock.Any(), intent.ProviderRef, "12345").Return(&ports.ChargeValidation{
		Successful: true, ProviderStatus: "successful", TxRef: intent.ExternalRef, Amount: dec("1500"), Currency: "NGN",
	}, nil)

	res, err := d.svc.ConfirmDepositOTP(context.Background(), ports.ConfirmOTPRequest{
		OwnerID: owner, ExternalRef: intent.ExternalRef, OTP: " 12345 ", Amount: dec("1500"),
	})
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.Equal(t, "1500", res.Destination.Balance.String())
	assert.Equal(t, intent.JournalID, res.Transaction.ID)

	// confirming again replays without calling the provider
	again, err := d.svc.ConfirmDepositOTP(context.Background(), ports.ConfirmOTPRequest{
		OwnerID: owner, ExternalRef: intent.ExternalRef, OTP: "12345", Amount: dec("1500"),
	})
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, "1500", d.balance(t, owner, "NGN"))
}

func TestReconciler_ConfirmOTP_ExplicitProviderRef(t *testing.T) {
	owner := uuid.New()
	d := setupReconciler(t, domain.User{ID: owner, Email: "ada@example.com"})
	intent := d.initiate(t, owner, "20")

	d.gateway.EXPECT().ValidateCharge(gomock.Any(), "FLW-OVERRIDE", "999").
		Return(&ports.ChargeValidation{Successful: true, Amount: dec("20"), Currency: "NGN"}, nil)

	_, err := d.svc.ConfirmDepositOTP(context.Background(), ports.ConfirmOTPRequest{
		OwnerID: owner, ExternalRef: intent.ExternalRef, ProviderRef: "FLW-OVERRIDE", OTP: "999", Amount: dec("20"),
	})
	require.NoError(t, err)
}

func TestReconciler_ConfirmOTP_Rejected(t *testing.T) {
	owner := uuid.New()
	d := setupReconciler(t, domain.User{ID: owner, Email: "ada@example.com"})
	intent := d.initiate(t, owner, "1500")

	d.gateway.EXPECT().ValidateCharge(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&ports.ChargeValidation{Successful: false, ProviderStatus: "failed", Message: "Invalid OTP"}, nil)

	_, err := d.svc.ConfirmDepositOTP(context.Background(), ports.ConfirmOTPRequest{
		OwnerID: owner, ExternalRef: intent.ExternalRef, OTP: "000", Amount: dec("1500"),
	})
	assertAppError(t, err, "LED_007")

	entry, err := d.journal.GetByID(context.Background(), intent.JournalID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, entry.Status)
	assert.Equal(t, "0", d.balance(t, owner, "NGN"))
}

func TestReconciler_ConfirmOTP_Errors(t *testing.T) {
	owner, stranger := uuid.New(), uuid.New()
	d := setupReconciler(t, domain.User{ID: owner, Email: "ada@example.com"})
	intent := d.initiate(t, owner, "1500")

	t.Run("gateway down keeps the deposit pending", func(t *testing.T) {
		d.gateway.EXPECT().ValidateCharge(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("dial tcp: timeout"))

		_, err := d.svc.ConfirmDepositOTP(context.Background(), ports.ConfirmOTPRequest{
			OwnerID: owner, ExternalRef: intent.ExternalRef, OTP: "1", Amount: dec("1500"),
		})
		assertAppError(t, err, "LED_008")

		entry, err := d.journal.GetByID(context.Background(), intent.JournalID)
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionStatusPending, entry.Status)
	})

	t.Run("amount mismatch", func(t *testing.T) {
		_, err := d.svc.ConfirmDepositOTP(context.Background(), ports.ConfirmOTPRequest{
			OwnerID: owner, ExternalRef: intent.ExternalRef, OTP: "1", Amount: dec("1499"),
		})
		assertAppError(t, err, "LED_001")
	})

	t.Run("another owner", func(t *testing.T) {
		_, err := d.svc.ConfirmDepositOTP(context.Background(), ports.ConfirmOTPRequest{
			OwnerID: stranger, ExternalRef: intent.ExternalRef, OTP: "1", Amount: dec("1500"),
		})
		assertAppError(t, err, "LED_010")
	})

	t.Run("unknown reference", func(t *testing.T) {
		_, err := d.svc.ConfirmDepositOTP(context.Background(), ports.ConfirmOTPRequest{
			OwnerID: owner, ExternalRef: "dep_missing", OTP: "1", Amount: dec("1500"),
		})
		assertAppError(t, err, "LED_010")
	})

	t.Run("missing otp", func(t *testing.T) {
		_, err := d.svc.ConfirmDepositOTP(context.Background(), ports.ConfirmOTPRequest{
			OwnerID: owner, ExternalRef: intent.ExternalRef, Amount: dec("1500"),
		})
		assertAppError(t, err, "LED_001")
	})
}

func TestReconciler_ConfirmOTP_IntentExpiredUsesPendingEntry(t *testing.T) {
	owner := uuid.New()
	d := setupReconciler(t, domain.User{ID: owner, Email: "ada@example.com"})
	intent := d.initiate(t, owner, "80")
	require.NoError(t, d.intents.Delete(context.Background(), intent.ExternalRef))

	// without the intent the reference doubles as the provider reference
	d.gateway.EXPECT().ValidateCharge(gomock.Any(), intent.ExternalRef, "4321").
		Return(&ports.ChargeValidation{Successful: true}, nil)

	res, err := d.svc.ConfirmDepositOTP(context.Background(), ports.ConfirmOTPRequest{
		OwnerID: owner, ExternalRef: intent.ExternalRef, OTP: "4321", Amount: dec("80"),
	})
	require.NoError(t, err)
	assert.Equal(t, "80", res.Destination.Balance.String())
}

// ==================== Storage failures ====================

func TestReconciler_StorageFailureAsksForRedelivery(t *testing.T) {
	ctrl := gomock.NewController(t)
	journal := mocks.NewMockTransactionRepository(ctrl)
	replays := mocks.NewMockReplayCache(ctrl)
	svc := NewDepositReconciler(
		mocks.NewMockWalletRepository(ctrl), journal, mocks.NewMockUserDirectory(ctrl),
		mocks.NewMockDBTransactor(ctrl), mocks.NewMockPaymentGateway(ctrl),
		NewWebhookVerifier(testWebhookSecret, WebhookModeHash), replays, mocks.NewMockDepositIntentStore(ctrl),
		ReconcilerOptions{}, nil, zerolog.Nop(),
	)
	body := chargeEvent(t, EventChargeCompleted, "dep_9", ChargeSuccessful, "10", "NGN", "ada@example.com")

	replays.EXPECT().Get(gomock.Any(), "dep_9").Return(nil, errors.New("redis down"))
	journal.EXPECT().GetByExternalRef(gomock.Any(), "dep_9").Return(nil, errors.New("connection refused"))

	_, err := svc.ReconcileWebhook(context.Background(), body, testWebhookSecret)
	assertAppError(t, err, "SYS_002")
}

func TestReconciler_ListDeposits(t *testing.T) {
	owner := uuid.New()
	d := setupReconciler(t, domain.User{ID: owner, Email: "ada@example.com"})
	d.initiate(t, owner, "1")
	d.initiate(t, owner, "2")
	d.initiate(t, owner, "3")

	items, total, err := d.svc.ListDeposits(context.Background(), owner, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, domain.TransactionTypeDeposit, it.Type)
		assert.Equal(t, domain.TransactionStatusPending, it.Status)
	}

	_, _, err = d.svc.ListDeposits(context.Background(), uuid.Nil, 1, 20)
	assertAppError(t, err, "LED_001")
}
