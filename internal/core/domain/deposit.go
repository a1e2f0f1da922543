package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositIntent is the transient record of a deposit awaiting provider
// confirmation. The journal entry supersedes it once confirmed.
type DepositIntent struct {
	ExternalRef string          `json:"external_ref"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	Currency    string          `json:"currency"`
	Amount      decimal.Decimal `json:"amount"`
	ProviderRef string          `json:"provider_ref,omitempty"`
	PaymentLink string          `json:"payment_link,omitempty"`
	JournalID   uuid.UUID       `json:"journal_id"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DepositReferencePrefix marks references minted for provider deposits.
// Client-supplied references may not use it.
const DepositReferencePrefix = "dep_"

// NewDepositReference builds a provider tx_ref: dep_<unix-millis>_<suffix>.
func NewDepositReference(now time.Time) string {
	return fmt.Sprintf("%s%d_%s", DepositReferencePrefix, now.UnixMilli(), uuid.NewString()[:8])
}

// IsDepositReference reports whether ref is in the provider deposit namespace.
func IsDepositReference(ref string) bool {
	return strings.HasPrefix(ref, DepositReferencePrefix)
}

// IsProviderDeposit reports whether t was recorded for a provider deposit,
// as opposed to a client operation that happens to share its reference.
func (t *Transaction) IsProviderDeposit() bool {
	return t.Type == TransactionTypeDeposit &&
		t.FromWalletID == nil &&
		t.ToOwnerID != nil &&
		t.ExternalRef != nil && IsDepositReference(*t.ExternalRef)
}
