package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Provider event and status values the reconciler acts on.
const (
	EventChargeCompleted = "charge.completed"
	ChargeSuccessful     = "successful"
)

// ReconcilerOptions tunes the deposit reconciler.
type ReconcilerOptions struct {
	ReplayTTL  time.Duration // how long a reconciled result stays in the replay cache
	IntentTTL  time.Duration // how long a deposit intent waits for confirmation
	MaxRetries int           // credit restarts allowed on concurrent modification
}

// DepositReconciler implements ports.DepositService.
type DepositReconciler struct {
	wallets    ports.WalletRepository
	journal    ports.TransactionRepository
	users      ports.UserDirectory
	transactor ports.DBTransactor
	gateway    ports.PaymentGateway
	verifier   ports.WebhookVerifier
	replays    ports.ReplayCache
	intents    ports.DepositIntentStore
	opts       ReconcilerOptions
	metrics    *Metrics
	log        zerolog.Logger

	inflight singleflight.Group
	now      func() time.Time
}

// NewDepositReconciler creates a new DepositReconciler.
func NewDepositReconciler(
	wallets ports.WalletRepository,
	journal ports.TransactionRepository,
	users ports.UserDirectory,
	transactor ports.DBTransactor,
	gateway ports.PaymentGateway,
	verifier ports.WebhookVerifier,
	replays ports.ReplayCache,
	intents ports.DepositIntentStore,
	opts ReconcilerOptions,
	metrics *Metrics,
	log zerolog.Logger,
) *DepositReconciler {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &DepositReconciler{
		wallets:    wallets,
		journal:    journal,
		users:      users,
		transactor: transactor,
		gateway:    gateway,
		verifier:   verifier,
		replays:    replays,
		intents:    intents,
		opts:       opts,
		metrics:    metrics,
		log:        log,
		now:        time.Now,
	}
}

// webhookEvent is the subset of a Flutterwave charge event the ledger reads.
type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID       json.Number         `json:"id"`
		TxRef    string              `json:"tx_ref"`
		FlwRef   string              `json:"flw_ref"`
		Amount   decimal.NullDecimal `json:"amount"`
		Currency string              `json:"currency"`
		Status   string              `json:"status"`
		Customer struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

// confirmation is a provider-confirmed payment awaiting its credit.
type confirmation struct {
	ref      string
	amount   decimal.Decimal
	currency string
	email    string
	owner    *uuid.UUID // known owner; resolved from the reference when nil
}

// InitiateDeposit creates a hosted payment, records a PENDING deposit and
// stores the intent until the provider confirms it.
func (s *DepositReconciler) InitiateDeposit(ctx context.Context, req ports.InitiateDepositRequest) (*domain.DepositIntent, error) {
	if req.OwnerID == uuid.Nil {
		return nil, apperror.ErrInvalidRequest("owner is required")
	}
	cur, err := requireCurrency(req.Currency)
	if err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidRequest("amount must be greater than zero")
	}

	user, err := s.users.GetByID(ctx, req.OwnerID)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("resolve user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("User")
	}

	now := s.now().UTC()
	ref := domain.NewDepositReference(now)

	charge, err := s.gateway.InitiateCharge(ctx, ports.ChargeRequest{
		TxRef:         ref,
		Amount:        req.Amount,
		Currency:      cur,
		CustomerEmail: user.Email,
		CustomerName:  user.Name,
	})
	if err != nil {
		return nil, apperror.ErrGatewayUnavailable(err)
	}

	entry, err := s.recordPending(ctx, req.OwnerID, cur, req.Amount, ref, now)
	if err != nil {
		return nil, apperror.ErrStorageFailure(err)
	}

	intent := &domain.DepositIntent{
		ExternalRef: ref,
		OwnerID:     req.OwnerID,
		Currency:    cur,
		Amount:      req.Amount,
		ProviderRef: charge.ProviderRef,
		PaymentLink: charge.PaymentLink,
		JournalID:   entry.ID,
		CreatedAt:   now,
	}
	if err := s.intents.Save(ctx, intent, s.opts.IntentTTL); err != nil {
		s.log.Warn().Err(err).Str("tx_ref", ref).Msg("failed to store deposit intent, pending entry remains")
	}

	s.log.Info().
		Str("tx_ref", ref).
		Str("owner_id", req.OwnerID.String()).
		Str("amount", req.Amount.String()).
		Str("currency", cur).
		Msg("deposit initiated")
	return intent, nil
}

func (s *DepositReconciler) recordPending(ctx context.Context, ownerID uuid.UUID, currency string, amount decimal.Decimal, ref string, now time.Time) (*domain.Transaction, error) {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	w, err := s.wallets.GetOrCreate(ctx, tx, ownerID, currency)
	if err != nil {
		return nil, fmt.Errorf("ensure wallet: %w", err)
	}

	owner, walletID, extRef := ownerID, w.ID, ref
	entry := &domain.Transaction{
		ID:             uuid.New(),
		Type:           domain.TransactionTypeDeposit,
		ToWalletID:     &walletID,
		ToOwnerID:      &owner,
		DebitAmount:    amount,
		DebitCurrency:  currency,
		CreditAmount:   amount,
		CreditCurrency: currency,
		FeeAmount:      decimal.Zero,
		Status:         domain.TransactionStatusPending,
		ExternalRef:    &extRef,
		CreatedAt:      now,
	}
	if err := s.journal.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("record pending deposit: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return entry, nil
}

// ReconcileWebhook authenticates and applies one provider delivery. Only a
// storage failure asks the provider to redeliver.
func (s *DepositReconciler) ReconcileWebhook(ctx context.Context, rawBody []byte, signature string) (*ports.ReconcileResult, error) {
	if !s.verifier.Verify(rawBody, signature) {
		s.metrics.observeWebhook("rejected")
		s.log.Warn().Int("body_bytes", len(rawBody)).Msg("webhook signature mismatch")
		return nil, apperror.ErrInvalidSignature()
	}

	var ev webhookEvent
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		s.metrics.observeWebhook("malformed")
		return nil, apperror.ErrInvalidRequest("malformed webhook payload").WithCause(err)
	}

	ref := strings.TrimSpace(ev.Data.TxRef)
	log := s.log.With().Str("tx_ref", ref).Str("event", ev.Event).Str("provider_id", ev.Data.ID.String()).Logger()

	if ev.Event != EventChargeCompleted || ref == "" {
		log.Info().Msg("webhook event ignored")
		return s.outcome(&ports.ReconcileResult{Outcome: ports.OutcomeIgnored, ExternalRef: ref}), nil
	}
	if !domain.IsDepositReference(ref) {
		log.Warn().Msg("tx_ref outside the deposit namespace ignored")
		return s.outcome(&ports.ReconcileResult{Outcome: ports.OutcomeIgnored, ExternalRef: ref}), nil
	}

	if !strings.EqualFold(ev.Data.Status, ChargeSuccessful) {
		res, err := s.markFailed(ctx, ref, "provider reported "+strings.ToLower(ev.Data.Status))
		if err != nil {
			return nil, err
		}
		return s.outcome(res), nil
	}

	if !ev.Data.Amount.Valid || !ev.Data.Amount.Decimal.IsPositive() {
		log.Warn().Msg("successful charge without a positive amount ignored")
		return s.outcome(&ports.ReconcileResult{Outcome: ports.OutcomeIgnored, ExternalRef: ref}), nil
	}

	res, err := s.credit(ctx, confirmation{
		ref:      ref,
		amount:   ev.Data.Amount.Decimal,
		currency: domain.NormalizeCurrency(ev.Data.Currency),
		email:    strings.TrimSpace(ev.Data.Customer.Email),
	})
	if err != nil {
		return nil, err
	}
	return s.outcome(res), nil
}

func (s *DepositReconciler) outcome(res *ports.ReconcileResult) *ports.ReconcileResult {
	s.metrics.observeWebhook(string(res.Outcome))
	return res
}

// credit collapses concurrent confirmations of one reference in this process.
func (s *DepositReconciler) credit(ctx context.Context, c confirmation) (*ports.ReconcileResult, error) {
	v, err, _ := s.inflight.Do(c.ref, func() (interface{}, error) {
		return s.creditConfirmed(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ports.ReconcileResult), nil
}

// creditConfirmed applies a confirmed payment exactly once per reference.
func (s *DepositReconciler) creditConfirmed(ctx context.Context, c confirmation) (*ports.ReconcileResult, error) {
	log := s.log.With().Str("tx_ref", c.ref).Logger()

	if cached, err := s.replays.Get(ctx, c.ref); err != nil {
		log.Warn().Err(err).Msg("replay cache lookup failed, falling through to journal")
	} else if cached != nil {
		txn := &domain.Transaction{}
		if err := json.Unmarshal(cached, txn); err == nil && txn.IsProviderDeposit() {
			return &ports.ReconcileResult{Outcome: ports.OutcomeReplayed, ExternalRef: c.ref, Transaction: txn}, nil
		}
		log.Warn().Msg("unusable replay cache entry ignored")
	}

	existing, err := s.journal.GetByExternalRef(ctx, c.ref)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("lookup %s: %w", c.ref, err))
	}
	if existing != nil && existing.Status == domain.TransactionStatusSuccessful {
		if !existing.IsProviderDeposit() {
			return nil, s.referenceClash(log, existing)
		}
		s.remember(ctx, existing)
		return &ports.ReconcileResult{Outcome: ports.OutcomeReplayed, ExternalRef: c.ref, Transaction: existing}, nil
	}

	owner, currency, err := s.resolveOwner(ctx, c, existing)
	if err != nil {
		return nil, err
	}
	if owner == uuid.Nil {
		log.Warn().Str("customer_email", c.email).Msg("deposit for unknown customer discarded")
		return &ports.ReconcileResult{Outcome: ports.OutcomeIgnored, ExternalRef: c.ref}, nil
	}
	if c.currency == "" {
		c.currency = currency
	}

	var entry *domain.Transaction
	for attempt := 0; ; attempt++ {
		entry, err = s.applyCredit(ctx, owner, c)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrConcurrencyConflict) && attempt < s.opts.MaxRetries && ctx.Err() == nil {
			continue
		}
		if errors.Is(err, domain.ErrDuplicateReference) || errors.Is(err, domain.ErrInvalidStatusTransition) {
			done, lerr := s.journal.GetByExternalRef(ctx, c.ref)
			if lerr != nil {
				return nil, apperror.ErrStorageFailure(lerr)
			}
			if done == nil || !done.IsProviderDeposit() || done.Status != domain.TransactionStatusSuccessful {
				return nil, s.referenceClash(log, done)
			}
			log.Info().Msg("concurrent delivery already credited")
			return &ports.ReconcileResult{Outcome: ports.OutcomeReplayed, ExternalRef: c.ref, Transaction: done}, nil
		}
		log.Error().Err(err).Msg("deposit credit failed")
		return nil, apperror.ErrStorageFailure(err)
	}

	s.remember(ctx, entry)
	if err := s.intents.Delete(ctx, c.ref); err != nil {
		log.Warn().Err(err).Msg("failed to drop deposit intent")
	}

	log.Info().
		Str("tx_id", entry.ID.String()).
		Str("owner_id", owner.String()).
		Str("amount", c.amount.String()).
		Str("currency", c.currency).
		Msg("deposit credited")
	return &ports.ReconcileResult{Outcome: ports.OutcomeCredited, ExternalRef: c.ref, Transaction: entry}, nil
}

// resolveOwner finds the wallet owner from the pending entry, then the
// intent, then the customer email. A zero owner means nobody matched.
func (s *DepositReconciler) resolveOwner(ctx context.Context, c confirmation, pending *domain.Transaction) (uuid.UUID, string, error) {
	if c.owner != nil {
		return *c.owner, c.currency, nil
	}
	if pending != nil && pending.Status == domain.TransactionStatusPending && pending.IsProviderDeposit() {
		return *pending.ToOwnerID, pending.CreditCurrency, nil
	}

	intent, err := s.intents.Get(ctx, c.ref)
	if err != nil {
		s.log.Warn().Err(err).Str("tx_ref", c.ref).Msg("deposit intent lookup failed")
	}
	if intent != nil {
		return intent.OwnerID, intent.Currency, nil
	}

	if c.email == "" {
		return uuid.Nil, "", nil
	}
	user, err := s.users.GetByEmail(ctx, c.email)
	if err != nil {
		return uuid.Nil, "", apperror.ErrStorageFailure(fmt.Errorf("resolve customer: %w", err))
	}
	if user == nil {
		return uuid.Nil, "", nil
	}
	return user.ID, user.HomeCurrency, nil
}

// applyCredit credits the wallet and settles the journal in one storage
// transaction. A pending entry that matches the confirmation is flipped to
// SUCCESSFUL; one that does not is failed and superseded by a new entry.
func (s *DepositReconciler) applyCredit(ctx context.Context, owner uuid.UUID, c confirmation) (*domain.Transaction, error) {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	current, err := s.journal.GetByExternalRefInTx(ctx, tx, c.ref)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", c.ref, err)
	}
	if current != nil && (current.Status == domain.TransactionStatusSuccessful || !current.IsProviderDeposit()) {
		return nil, fmt.Errorf("credit %s: %w", c.ref, domain.ErrDuplicateReference)
	}

	w, err := s.wallets.GetOrCreate(ctx, tx, owner, c.currency)
	if err != nil {
		return nil, fmt.Errorf("ensure wallet: %w", err)
	}
	if w, err = s.wallets.ApplyDelta(ctx, tx, owner, c.currency, c.amount, w.Version); err != nil {
		return nil, fmt.Errorf("credit wallet: %w", err)
	}

	now := s.now().UTC()
	var entry *domain.Transaction
	if current != nil && pendingMatches(current, owner, c) {
		if err := s.journal.UpdateStatus(ctx, tx, current.ID, domain.TransactionStatusSuccessful, nil); err != nil {
			return nil, fmt.Errorf("settle pending deposit: %w", err)
		}
		entry = current
		entry.Status = domain.TransactionStatusSuccessful
		entry.ProcessedAt = &now
	} else {
		if current != nil {
			reason := fmt.Sprintf("superseded by provider confirmation of %s %s", c.amount, c.currency)
			if err := s.journal.UpdateStatus(ctx, tx, current.ID, domain.TransactionStatusFailed, &reason); err != nil {
				return nil, fmt.Errorf("supersede pending deposit: %w", err)
			}
		}
		ownerID, walletID, ref := owner, w.ID, c.ref
		entry = &domain.Transaction{
			ID:             uuid.New(),
			Type:           domain.TransactionTypeDeposit,
			ToWalletID:     &walletID,
			ToOwnerID:      &ownerID,
			DebitAmount:    c.amount,
			DebitCurrency:  c.currency,
			CreditAmount:   c.amount,
			CreditCurrency: c.currency,
			FeeAmount:      decimal.Zero,
			Status:         domain.TransactionStatusSuccessful,
			ExternalRef:    &ref,
			CreatedAt:      now,
			ProcessedAt:    &now,
		}
		if err := s.journal.Create(ctx, tx, entry); err != nil {
			return nil, fmt.Errorf("record deposit: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return entry, nil
}

// referenceClash reports a provider reference held by an entry that is not
// a provider deposit. Nothing is credited.
func (s *DepositReconciler) referenceClash(log zerolog.Logger, holder *domain.Transaction) error {
	ev := log.Error()
	if holder != nil {
		ev = ev.Str("holder_tx_id", holder.ID.String()).Str("holder_type", string(holder.Type)).Str("holder_status", string(holder.Status))
	}
	ev.Msg("provider reference held by another journal entry, deposit not credited")
	return apperror.ErrDuplicateReference()
}

func pendingMatches(pending *domain.Transaction, owner uuid.UUID, c confirmation) bool {
	return pending.Status == domain.TransactionStatusPending &&
		pending.Type == domain.TransactionTypeDeposit &&
		pending.ToOwnerID != nil && *pending.ToOwnerID == owner &&
		pending.CreditCurrency == c.currency &&
		pending.CreditAmount.Equal(c.amount)
}

// markFailed flips the pending entry for ref to FAILED. Anything else is
// acknowledged without effect.
func (s *DepositReconciler) markFailed(ctx context.Context, ref, reason string) (*ports.ReconcileResult, error) {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	pending, err := s.journal.GetByExternalRefInTx(ctx, tx, ref)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("lookup %s: %w", ref, err))
	}
	if pending == nil || pending.Status != domain.TransactionStatusPending {
		return &ports.ReconcileResult{Outcome: ports.OutcomeIgnored, ExternalRef: ref}, nil
	}

	if err := s.journal.UpdateStatus(ctx, tx, pending.ID, domain.TransactionStatusFailed, &reason); err != nil {
		if errors.Is(err, domain.ErrInvalidStatusTransition) {
			return &ports.ReconcileResult{Outcome: ports.OutcomeIgnored, ExternalRef: ref}, nil
		}
		return nil, apperror.ErrStorageFailure(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("commit tx: %w", err))
	}

	if err := s.intents.Delete(ctx, ref); err != nil {
		s.log.Warn().Err(err).Str("tx_ref", ref).Msg("failed to drop deposit intent")
	}

	now := s.now().UTC()
	pending.Status = domain.TransactionStatusFailed
	pending.FailureReason = &reason
	pending.ProcessedAt = &now

	s.log.Info().Str("tx_ref", ref).Str("reason", reason).Msg("pending deposit marked failed")
	return &ports.ReconcileResult{Outcome: ports.OutcomeFailed, ExternalRef: ref, Transaction: pending}, nil
}

// ConfirmDepositOTP validates an OTP with the provider and credits the
// deposit on success.
func (s *DepositReconciler) ConfirmDepositOTP(ctx context.Context, req ports.ConfirmOTPRequest) (*ports.LedgerResult, error) {
	ref := strings.TrimSpace(req.ExternalRef)
	if req.OwnerID == uuid.Nil || ref == "" || strings.TrimSpace(req.OTP) == "" {
		return nil, apperror.ErrInvalidRequest("owner, reference and otp are required")
	}
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidRequest("amount must be greater than zero")
	}
	if !domain.IsDepositReference(ref) {
		return nil, apperror.ErrNotFound("Deposit")
	}

	existing, err := s.journal.GetByExternalRef(ctx, ref)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("lookup %s: %w", ref, err))
	}
	if existing != nil && existing.Status == domain.TransactionStatusSuccessful {
		if !existing.IsProviderDeposit() || !existing.InvolvesOwner(req.OwnerID) {
			return nil, apperror.ErrNotFound("Deposit")
		}
		return s.ledgerResult(ctx, req.OwnerID, &ports.ReconcileResult{Outcome: ports.OutcomeReplayed, ExternalRef: ref, Transaction: existing})
	}

	var (
		owner       uuid.UUID
		currency    string
		amount      decimal.Decimal
		providerRef string
	)
	intent, err := s.intents.Get(ctx, ref)
	if err != nil {
		s.log.Warn().Err(err).Str("tx_ref", ref).Msg("deposit intent lookup failed")
	}
	switch {
	case intent != nil:
		owner, currency, amount, providerRef = intent.OwnerID, intent.Currency, intent.Amount, intent.ProviderRef
	case existing != nil && existing.Type == domain.TransactionTypeDeposit && existing.ToOwnerID != nil:
		owner, currency, amount = *existing.ToOwnerID, existing.CreditCurrency, existing.CreditAmount
	default:
		return nil, apperror.ErrNotFound("Deposit")
	}

	if owner != req.OwnerID {
		return nil, apperror.ErrNotFound("Deposit")
	}
	if !amount.Equal(req.Amount) {
		return nil, apperror.ErrInvalidRequest("amount does not match the deposit")
	}

	if p := strings.TrimSpace(req.ProviderRef); p != "" {
		providerRef = p
	}
	if providerRef == "" {
		providerRef = ref
	}

	validation, err := s.gateway.ValidateCharge(ctx, providerRef, strings.TrimSpace(req.OTP))
	if err != nil {
		return nil, apperror.ErrGatewayUnavailable(err)
	}
	if !validation.Successful {
		msg := validation.Message
		if msg == "" {
			msg = "charge " + validation.ProviderStatus
		}
		if _, ferr := s.markFailed(ctx, ref, "otp rejected: "+msg); ferr != nil {
			s.log.Error().Err(ferr).Str("tx_ref", ref).Msg("failed to mark rejected deposit")
		}
		return nil, apperror.ErrDepositRejected(msg)
	}

	if validation.Amount.IsPositive() {
		amount = validation.Amount
	}
	if validation.Currency != "" {
		currency = validation.Currency
	}

	res, err := s.credit(ctx, confirmation{ref: ref, amount: amount, currency: currency, owner: &owner})
	if err != nil {
		return nil, err
	}
	return s.ledgerResult(ctx, owner, res)
}

func (s *DepositReconciler) ledgerResult(ctx context.Context, owner uuid.UUID, res *ports.ReconcileResult) (*ports.LedgerResult, error) {
	if res.Transaction == nil {
		return nil, apperror.InternalError(fmt.Errorf("deposit %s settled without a journal entry", res.ExternalRef))
	}
	w, err := s.wallets.GetByOwner(ctx, owner, res.Transaction.CreditCurrency)
	if err != nil {
		return nil, apperror.ErrStorageFailure(err)
	}
	return &ports.LedgerResult{
		Transaction: res.Transaction,
		Destination: w,
		Replayed:    res.Outcome == ports.OutcomeReplayed,
	}, nil
}

// ListDeposits returns an owner's deposit entries, newest first.
func (s *DepositReconciler) ListDeposits(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]domain.Transaction, int64, error) {
	if ownerID == uuid.Nil {
		return nil, 0, apperror.ErrInvalidRequest("owner is required")
	}
	deposit := domain.TransactionTypeDeposit
	items, total, err := s.journal.List(ctx, domain.TransactionFilter{
		OwnerID:  ownerID,
		Type:     &deposit,
		Page:     page,
		PageSize: pageSize,
	}.Normalize())
	if err != nil {
		return nil, 0, apperror.ErrStorageFailure(err)
	}
	return items, total, nil
}

// remember caches a settled entry for fast replays. Best-effort.
func (s *DepositReconciler) remember(ctx context.Context, txn *domain.Transaction) {
	payload, err := json.Marshal(txn)
	if err != nil {
		return
	}
	if err := s.replays.Set(ctx, txn.Reference(), payload, s.opts.ReplayTTL); err != nil {
		s.log.Warn().Err(err).Str("tx_ref", txn.Reference()).Msg("failed to cache reconciled deposit")
	}
}
