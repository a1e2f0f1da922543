package handler

import (
	"context"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles wallet endpoints.
type WalletHandler struct {
	ledger ports.LedgerService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledger ports.LedgerService) *WalletHandler {
	return &WalletHandler{ledger: ledger}
}

// Create handles POST /api/v1/wallets.
func (h *WalletHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateWalletRequest
	if !bindJSON(c, &req) {
		return
	}

	wallet, err := h.ledger.CreateWallet(c.Request.Context(), userID, req.Currency)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, wallet.ID.String())
	response.Created(c, dto.NewWalletResponse(wallet))
}

// List handles GET /api/v1/wallets.
func (h *WalletHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	wallets, err := h.ledger.ListWallets(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewWalletListResponse(wallets))
}

// Deposit handles POST /api/v1/wallets/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	h.move(c, h.ledger.Deposit)
}

// Withdraw handles POST /api/v1/wallets/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	h.move(c, h.ledger.Withdraw)
}

type movementFunc func(ctx context.Context, req ports.MovementRequest) (*ports.LedgerResult, error)

func (h *WalletHandler) move(c *gin.Context, op movementFunc) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.MovementRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := op(c.Request.Context(), ports.MovementRequest{
		OwnerID:     userID,
		Currency:    req.Currency,
		Amount:      req.Amount,
		ExternalRef: req.Reference,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, result.Transaction.ID.String())
	written(c, result.Replayed, dto.NewLedgerResultResponse(result))
}
