package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionWalletCreate    AuditAction = "WALLET_CREATE"
	AuditActionDeposit         AuditAction = "DEPOSIT"
	AuditActionWithdraw        AuditAction = "WITHDRAW"
	AuditActionTransfer        AuditAction = "TRANSFER"
	AuditActionConvert         AuditAction = "CONVERT"
	AuditActionDepositInitiate AuditAction = "DEPOSIT_INITIATE"
	AuditActionDepositConfirm  AuditAction = "DEPOSIT_CONFIRM"
	AuditActionWebhookRejected AuditAction = "WEBHOOK_REJECTED"
)

// AuditLog records a single audited action.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	UserID       *uuid.UUID  `json:"user_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
