package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog records successful ledger writes and rejected webhook deliveries.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		action, resourceType := mapPathToAction(c.FullPath(), c.Request.Method, status)
		if action == "" {
			return
		}

		var userID *uuid.UUID
		if id, ok := UserID(c); ok {
			userID = &id
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"request_id": c.GetString(CtxRequestID),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			UserID:       userID,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.GetString(CtxResourceID),
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}

func mapPathToAction(route, method string, status int) (domain.AuditAction, string) {
	if route == "/api/v1/webhooks/flutterwave" && status == http.StatusUnauthorized {
		return domain.AuditActionWebhookRejected, "webhook"
	}
	if status < 200 || status >= 300 || method != http.MethodPost {
		return "", ""
	}
	switch route {
	case "/api/v1/wallets":
		return domain.AuditActionWalletCreate, "wallet"
	case "/api/v1/wallets/deposit":
		return domain.AuditActionDeposit, "transaction"
	case "/api/v1/wallets/withdraw":
		return domain.AuditActionWithdraw, "transaction"
	case "/api/v1/transfers":
		return domain.AuditActionTransfer, "transaction"
	case "/api/v1/conversions":
		return domain.AuditActionConvert, "transaction"
	case "/api/v1/deposits":
		return domain.AuditActionDepositInitiate, "deposit"
	case "/api/v1/deposits/confirm-otp":
		return domain.AuditActionDepositConfirm, "transaction"
	}
	return "", ""
}
