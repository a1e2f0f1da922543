package service

import (
	"context"
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
)

const (
	opDeposit  = "deposit"
	opWithdraw = "withdraw"
	opTransfer = "transfer"
	opConvert  = "convert"
)

// LedgerOptions tunes the orchestrator.
type LedgerOptions struct {
	FeeRate    decimal.Decimal // fraction of the amount charged on transfers and conversions
	MaxRetries int             // protocol restarts allowed on concurrent modification
	Scale      int32           // decimal places kept on amounts
}

// LedgerServiceImpl implements ports.LedgerService.
type LedgerServiceImpl struct {
	wallets    ports.WalletRepository
	journal    ports.TransactionRepository
	users      ports.UserDirectory
	rates      ports.RateProvider
	transactor ports.DBTransactor
	opts       LedgerOptions
	metrics    *Metrics
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	wallets ports.WalletRepository,
	journal ports.TransactionRepository,
	users ports.UserDirectory,
	rates ports.RateProvider,
	transactor ports.DBTransactor,
	opts LedgerOptions,
	metrics *Metrics,
	log zerolog.Logger,
) *LedgerServiceImpl {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Scale <= 0 {
		opts.Scale = 8
	}
	return &LedgerServiceImpl{
		wallets:    wallets,
		journal:    journal,
		users:      users,
		rates:      rates,
		transactor: transactor,
		opts:       opts,
		metrics:    metrics,
		log:        log,
	}
}

// leg is one side of a movement.
type leg struct {
	owner    uuid.UUID
	currency string
}

// movement is a validated money movement. A nil from is a pure credit and a
// nil to is a pure debit.
type movement struct {
	op          string
	kind        domain.TransactionType
	from        *leg
	to          *leg
	amount      decimal.Decimal
	fee         decimal.Decimal
	credit      decimal.Decimal
	rate        *decimal.Decimal
	externalRef *string
}

func (m *movement) debit() decimal.Decimal {
	return m.amount.Add(m.fee)
}

// sameWallet reports a transfer whose source and destination are one wallet.
func (m *movement) sameWallet() bool {
	return m.from != nil && m.to != nil && *m.from == *m.to
}

func (m *movement) actor() uuid.UUID {
	if m.from != nil {
		return m.from.owner
	}
	return m.to.owner
}

// entry builds the journal row. Single-wallet movements carry the amount on
// both sides.
func (m *movement) entry(src, dst *domain.Wallet, status domain.TransactionStatus, reason *string) *domain.Transaction {
	now := time.Now().UTC()
	t := &domain.Transaction{
		ID:            uuid.New(),
		Type:          m.kind,
		FeeAmount:     m.fee,
		Rate:          m.rate,
		Status:        status,
		ExternalRef:   m.externalRef,
		FailureReason: reason,
		CreatedAt:     now,
	}
	if status != domain.TransactionStatusPending {
		t.ProcessedAt = &now
	}
	if m.from != nil {
		owner := m.from.owner
		t.FromOwnerID = &owner
		t.DebitAmount = m.debit()
		t.DebitCurrency = m.from.currency
		if src != nil {
			id := src.ID
			t.FromWalletID = &id
		}
	}
	if m.to != nil {
		owner := m.to.owner
		t.ToOwnerID = &owner
		t.CreditAmount = m.credit
		t.CreditCurrency = m.to.currency
		if dst != nil {
			id := dst.ID
			t.ToWalletID = &id
		}
	}
	if m.from == nil {
		t.DebitAmount, t.DebitCurrency = t.CreditAmount, t.CreditCurrency
	}
	if m.to == nil {
		t.CreditAmount, t.CreditCurrency = t.DebitAmount, t.DebitCurrency
	}
	return t
}

// CreateWallet opens an empty wallet. An existing (owner, currency) pair is
// rejected.
func (s *LedgerServiceImpl) CreateWallet(ctx context.Context, ownerID uuid.UUID, currency string) (*domain.Wallet, error) {
	if ownerID == uuid.Nil {
		return nil, apperror.ErrInvalidRequest("owner is required")
	}
	cur, err := requireCurrency(currency)
	if err != nil {
		return nil, err
	}

	w := domain.NewWallet(ownerID, cur)
	if err := s.wallets.Create(ctx, w); err != nil {
		return nil, ledgerError(err)
	}

	s.log.Info().Str("owner_id", ownerID.String()).Str("currency", cur).Msg("wallet created")
	return w, nil
}

// ListWallets returns every wallet of an owner.
func (s *LedgerServiceImpl) ListWallets(ctx context.Context, ownerID uuid.UUID) ([]domain.Wallet, error) {
	wallets, err := s.wallets.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return wallets, nil
}

// Deposit credits an owner's wallet, creating it on first credit.
func (s *LedgerServiceImpl) Deposit(ctx context.Context, req ports.MovementRequest) (*ports.LedgerResult, error) {
	m, err := s.single(opDeposit, domain.TransactionTypeDeposit, req)
	if err != nil {
		return nil, err
	}
	m.to = &leg{owner: req.OwnerID, currency: domain.NormalizeCurrency(req.Currency)}
	m.credit = m.amount
	return s.execute(ctx, m)
}

// Withdraw debits an owner's existing wallet.
func (s *LedgerServiceImpl) Withdraw(ctx context.Context, req ports.MovementRequest) (*ports.LedgerResult, error) {
	m, err := s.single(opWithdraw, domain.TransactionTypeWithdraw, req)
	if err != nil {
		return nil, err
	}
	m.from = &leg{owner: req.OwnerID, currency: domain.NormalizeCurrency(req.Currency)}
	return s.execute(ctx, m)
}

func (s *LedgerServiceImpl) single(op string, kind domain.TransactionType, req ports.MovementRequest) (*movement, error) {
	if req.OwnerID == uuid.Nil {
		return nil, apperror.ErrInvalidRequest("owner is required")
	}
	if _, err := requireCurrency(req.Currency); err != nil {
		return nil, err
	}
	if err := s.requireAmount(req.Amount); err != nil {
		return nil, err
	}
	ref, err := clientRef(req.ExternalRef)
	if err != nil {
		return nil, err
	}
	return &movement{
		op:          op,
		kind:        kind,
		amount:      req.Amount,
		fee:         decimal.Zero,
		externalRef: ref,
	}, nil
}

// Transfer moves funds to another user, converting when the destination
// currency differs from the source.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*ports.LedgerResult, error) {
	if req.SenderID == uuid.Nil || req.RecipientID == uuid.Nil {
		return nil, apperror.ErrInvalidRequest("sender and recipient are required")
	}
	srcCur, err := requireCurrency(req.SourceCurrency)
	if err != nil {
		return nil, err
	}
	if err := s.requireAmount(req.Amount); err != nil {
		return nil, err
	}
	ref, err := clientRef(req.ExternalRef)
	if err != nil {
		return nil, err
	}

	recipient, err := s.users.GetByID(ctx, req.RecipientID)
	if err != nil {
		return nil, apperror.ErrStorageFailure(fmt.Errorf("resolve recipient: %w", err))
	}
	if recipient == nil {
		return nil, apperror.ErrNotFound("Recipient")
	}

	dstCur, err := s.destinationCurrency(ctx, recipient, srcCur, req.DestCurrency)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, &movement{
		op:          opTransfer,
		kind:        domain.TransactionTypeTransfer,
		from:        &leg{owner: req.SenderID, currency: srcCur},
		to:          &leg{owner: recipient.ID, currency: dstCur},
		amount:      req.Amount,
		fee:         s.fee(req.Amount),
		externalRef: ref,
	})
}

// destinationCurrency picks the requested currency, else the recipient's
// wallet in the source currency, else the recipient's home currency.
func (s *LedgerServiceImpl) destinationCurrency(ctx context.Context, recipient *domain.User, sourceCurrency, requested string) (string, error) {
	if cur := domain.NormalizeCurrency(requested); cur != "" {
		return cur, nil
	}
	w, err := s.wallets.GetByOwner(ctx, recipient.ID, sourceCurrency)
	if err != nil {
		return "", ledgerError(err)
	}
	if w != nil {
		return sourceCurrency, nil
	}
	if home := domain.NormalizeCurrency(recipient.HomeCurrency); home != "" {
		return home, nil
	}
	return sourceCurrency, nil
}

// Convert moves funds between two wallets of the same owner.
func (s *LedgerServiceImpl) Convert(ctx context.Context, req ports.ConvertRequest) (*ports.LedgerResult, error) {
	if req.OwnerID == uuid.Nil {
		return nil, apperror.ErrInvalidRequest("owner is required")
	}
	from, err := requireCurrency(req.FromCurrency)
	if err != nil {
		return nil, err
	}
	to, err := requireCurrency(req.ToCurrency)
	if err != nil {
		return nil, err
	}
	if from == to {
		return nil, apperror.ErrInvalidRequest("source and target currencies must differ")
	}
	if err := s.requireAmount(req.Amount); err != nil {
		return nil, err
	}

	return s.execute(ctx, &movement{
		op:     opConvert,
		kind:   domain.TransactionTypeConversion,
		from:   &leg{owner: req.OwnerID, currency: from},
		to:     &leg{owner: req.OwnerID, currency: to},
		amount: req.Amount,
		fee:    s.fee(req.Amount),
	})
}

// ListTransactions returns an owner's journal, newest first.
func (s *LedgerServiceImpl) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int64, error) {
	if filter.OwnerID == uuid.Nil {
		return nil, 0, apperror.ErrInvalidRequest("owner is required")
	}
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, 0, apperror.ErrInvalidRequest(fmt.Sprintf("unknown transaction type %q", *filter.Type))
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, apperror.ErrInvalidRequest(fmt.Sprintf("unknown transaction status %q", *filter.Status))
	}

	items, total, err := s.journal.List(ctx, filter.Normalize())
	if err != nil {
		return nil, 0, ledgerError(err)
	}
	return items, total, nil
}

// execute runs the engine protocol for m: replay check, source pre-check,
// pricing, then commit attempts. A concurrent modification restarts the
// commit up to MaxRetries times.
func (s *LedgerServiceImpl) execute(ctx context.Context, m *movement) (res *ports.LedgerResult, err error) {
	started := time.Now()
	defer func() { s.metrics.observeOperation(m.op, started, err) }()

	if replayed, rerr := s.replay(ctx, m); rerr != nil || replayed != nil {
		if rerr != nil {
			return nil, ledgerError(rerr)
		}
		return replayed, nil
	}

	if m.from != nil {
		src, gerr := s.wallets.GetByOwner(ctx, m.from.owner, m.from.currency)
		if gerr != nil {
			return nil, ledgerError(gerr)
		}
		if src == nil {
			return nil, apperror.ErrWalletNotFound()
		}
		if !src.Covers(m.debit()) {
			return nil, apperror.ErrInsufficientFunds()
		}
	}

	if perr := s.price(ctx, m); perr != nil {
		return nil, perr
	}

	for attempt := 0; ; attempt++ {
		result, debited, cerr := s.commit(ctx, m)
		if cerr == nil {
			s.log.Info().
				Str("tx_id", result.Transaction.ID.String()).
				Str("type", string(m.kind)).
				Str("amount", m.amount.String()).
				Int("attempt", attempt+1).
				Msg(m.op + " committed")
			return result, nil
		}

		if errors.Is(cerr, domain.ErrConcurrencyConflict) && attempt < s.opts.MaxRetries && ctx.Err() == nil {
			s.metrics.observeRetry(m.op)
			s.log.Debug().Err(cerr).Str("op", m.op).Int("attempt", attempt+1).Msg("concurrent modification, restarting")
			continue
		}

		if errors.Is(cerr, domain.ErrDuplicateReference) {
			if replayed, rerr := s.replay(ctx, m); rerr == nil && replayed != nil {
				return replayed, nil
			}
		} else if debited {
			s.compensate(ctx, m, cerr)
		}

		if errors.Is(cerr, domain.ErrConcurrencyConflict) {
			s.log.Warn().Err(cerr).Str("op", m.op).Int("attempts", attempt+1).Msg("retry budget exhausted")
			return nil, apperror.ErrConflict(cerr)
		}
		return nil, ledgerError(cerr)
	}
}

// commit applies both legs and the journal entry in one storage transaction.
// debited reports whether the debit leg had been applied when it failed.
func (s *LedgerServiceImpl) commit(ctx context.Context, m *movement) (*ports.LedgerResult, bool, error) {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var src, dst *domain.Wallet
	if m.from != nil {
		src, err = s.wallets.GetByOwnerInTx(ctx, tx, m.from.owner, m.from.currency)
		if err != nil {
			return nil, false, fmt.Errorf("load source wallet: %w", err)
		}
		if src == nil {
			return nil, false, fmt.Errorf("source wallet %s: %w", m.from.currency, domain.ErrWalletNotFound)
		}
		if !src.Covers(m.debit()) {
			return nil, false, fmt.Errorf("debit %s %s: %w", m.debit(), m.from.currency, domain.ErrInsufficientFunds)
		}
	}
	if m.to != nil && !m.sameWallet() {
		if dst, err = s.wallets.GetOrCreate(ctx, tx, m.to.owner, m.to.currency); err != nil {
			return nil, false, fmt.Errorf("ensure destination wallet: %w", err)
		}
	}

	debited := false
	if src != nil {
		// A transfer into the same wallet nets out to the fee.
		delta := m.debit().Neg()
		if m.sameWallet() {
			delta = m.credit.Sub(m.debit())
		}
		if !delta.IsZero() {
			if src, err = s.wallets.ApplyDelta(ctx, tx, m.from.owner, m.from.currency, delta, src.Version); err != nil {
				return nil, false, fmt.Errorf("debit leg: %w", err)
			}
			debited = true
		}
	}
	if m.sameWallet() {
		dst = src
	} else if dst != nil {
		if dst, err = s.wallets.ApplyDelta(ctx, tx, m.to.owner, m.to.currency, m.credit, dst.Version); err != nil {
			return nil, debited, fmt.Errorf("credit leg: %w", err)
		}
	}

	entry := m.entry(src, dst, domain.TransactionStatusSuccessful, nil)
	if err := s.journal.Create(ctx, tx, entry); err != nil {
		return nil, debited, fmt.Errorf("record journal entry: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, debited, fmt.Errorf("commit tx: %w", err)
	}
	return &ports.LedgerResult{Transaction: entry, Source: src, Destination: dst}, false, nil
}

// compensate records a FAILED entry for a movement whose storage transaction
// was rolled back after its debit leg. The write outlives ctx cancellation.
func (s *LedgerServiceImpl) compensate(ctx context.Context, m *movement, cause error) {
	s.metrics.observeCompensation(m.op)
	ctx = context.WithoutCancel(ctx)

	reason := failureReason(cause)
	entry := m.entry(nil, nil, domain.TransactionStatusFailed, &reason)

	logFailure := func(err error) {
		s.log.Error().Err(err).Str("op", m.op).Str("reason", reason).Msg("failed to record reversed operation")
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		logFailure(err)
		return
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := s.journal.Create(ctx, tx, entry); err != nil {
		logFailure(err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		logFailure(err)
		return
	}

	s.log.Warn().
		Str("tx_id", entry.ID.String()).
		Str("op", m.op).
		Str("reason", reason).
		Msg("operation reversed after debit")
}

// replay returns the recorded result for m's external reference, nil when
// the reference is unused, or ErrDuplicateReference when another operation
// holds it.
func (s *LedgerServiceImpl) replay(ctx context.Context, m *movement) (*ports.LedgerResult, error) {
	if m.externalRef == nil {
		return nil, nil
	}
	existing, err := s.journal.GetByExternalRef(ctx, *m.externalRef)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	if existing.Type != m.kind || existing.Status != domain.TransactionStatusSuccessful || !existing.InvolvesOwner(m.actor()) {
		return nil, fmt.Errorf("reference %s: %w", *m.externalRef, domain.ErrDuplicateReference)
	}

	res := &ports.LedgerResult{Transaction: existing, Replayed: true}
	if existing.FromOwnerID != nil && m.from != nil {
		if res.Source, err = s.wallets.GetByOwner(ctx, *existing.FromOwnerID, existing.DebitCurrency); err != nil {
			return nil, err
		}
	}
	if existing.ToOwnerID != nil && m.to != nil {
		if res.Destination, err = s.wallets.GetByOwner(ctx, *existing.ToOwnerID, existing.CreditCurrency); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// price fills in the rate and the credited amount.
func (s *LedgerServiceImpl) price(ctx context.Context, m *movement) error {
	if m.to == nil {
		return nil
	}
	if m.from == nil || m.from.currency == m.to.currency {
		m.credit = m.amount
		return nil
	}

	rate, err := s.rates.Rate(ctx, m.from.currency, m.to.currency)
	s.metrics.observeRateLookup(err)
	if err != nil {
		return apperror.ErrConversionUnavailable(err)
	}
	if !rate.IsPositive() {
		return apperror.ErrConversionUnavailable(fmt.Errorf("rate %s->%s is %s: %w", m.from.currency, m.to.currency, rate, domain.ErrRateUnavailable))
	}

	m.rate = &rate
	m.credit = m.amount.Mul(rate).Round(s.opts.Scale)
	if !m.credit.IsPositive() {
		return apperror.ErrInvalidRequest("amount too small to convert")
	}
	return nil
}

func (s *LedgerServiceImpl) fee(amount decimal.Decimal) decimal.Decimal {
	if !s.opts.FeeRate.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(s.opts.FeeRate).Round(s.opts.Scale)
}

func (s *LedgerServiceImpl) requireAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidRequest("amount must be greater than zero")
	}
	if !amount.Equal(amount.Round(s.opts.Scale)) {
		return apperror.ErrInvalidRequest(fmt.Sprintf("amount has more than %d decimal places", s.opts.Scale))
	}
	return nil
}

func requireCurrency(code string) (string, error) {
	cur := domain.NormalizeCurrency(code)
	if cur == "" {
		return "", apperror.ErrInvalidRequest("currency is required")
	}
	return cur, nil
}

// clientRef trims a caller's idempotency key. The provider deposit
// namespace is reserved for the deposit reconciler.
func clientRef(ref string) (*string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	if domain.IsDepositReference(ref) {
		return nil, apperror.ErrInvalidRequest(fmt.Sprintf("reference prefix %q is reserved", domain.DepositReferencePrefix))
	}
	return &ref, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient funds"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return "concurrent modification"
	case errors.Is(err, domain.ErrWalletNotFound):
		return "wallet not found"
	}
	return err.Error()
}

// ledgerError maps storage sentinels onto application errors. Anything
// unrecognised is a retryable storage failure.
func ledgerError(err error) error {
	if appErr, ok := apperror.As(err); ok {
		return appErr
	}
	switch {
	case errors.Is(err, domain.ErrWalletNotFound):
		return apperror.ErrWalletNotFound().WithCause(err)
	case errors.Is(err, domain.ErrWalletExists):
		return apperror.ErrWalletExists().WithCause(err)
	case errors.Is(err, domain.ErrInsufficientFunds):
		return apperror.ErrInsufficientFunds().WithCause(err)
	case errors.Is(err, domain.ErrDuplicateReference):
		return apperror.ErrDuplicateReference().WithCause(err)
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return apperror.ErrConflict(err)
	case errors.Is(err, domain.ErrRateUnavailable):
		return apperror.ErrConversionUnavailable(err)
	case errors.Is(err, domain.ErrGatewayUnavailable):
		return apperror.ErrGatewayUnavailable(err)
	}
	return apperror.ErrStorageFailure(err)
}
