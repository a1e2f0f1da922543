package handler

import (
	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransferHandler handles transfers, conversions and the journal.
type TransferHandler struct {
	ledger ports.LedgerService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(ledger ports.LedgerService) *TransferHandler {
	return &TransferHandler{ledger: ledger}
}

// Transfer handles POST /api/v1/transfers.
func (h *TransferHandler) Transfer(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.TransferRequest
	if !bindJSON(c, &req) {
		return
	}
	recipient, err := uuid.Parse(req.RecipientID)
	if err != nil {
		response.Error(c, apperror.Validation("recipient_id must be a UUID"))
		return
	}

	result, err := h.ledger.Transfer(c.Request.Context(), ports.TransferRequest{
		SenderID:       userID,
		RecipientID:    recipient,
		SourceCurrency: req.SourceCurrency,
		DestCurrency:   req.DestinationCurrency,
		Amount:         req.Amount,
		ExternalRef:    req.Reference,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, result.Transaction.ID.String())
	written(c, result.Replayed, dto.NewLedgerResultResponse(result))
}

// Convert handles POST /api/v1/conversions.
func (h *TransferHandler) Convert(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.ConvertRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.ledger.Convert(c.Request.Context(), ports.ConvertRequest{
		OwnerID:      userID,
		FromCurrency: req.FromCurrency,
		ToCurrency:   req.ToCurrency,
		Amount:       req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, result.Transaction.ID.String())
	response.Created(c, dto.NewLedgerResultResponse(result))
}

// ListTransactions handles GET /api/v1/transactions.
func (h *TransferHandler) ListTransactions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var q dto.TransactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	filter := domain.TransactionFilter{
		OwnerID:  userID,
		Currency: q.Currency,
		Page:     q.Page,
		PageSize: q.Limit,
	}
	if q.Type != "" {
		t := domain.TransactionType(q.Type)
		filter.Type = &t
	}
	if q.Status != "" {
		s := domain.TransactionStatus(q.Status)
		filter.Status = &s
	}
	filter = filter.Normalize()

	items, total, err := h.ledger.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, dto.NewTransactionListResponse(items), total, filter.Page, filter.PageSize)
}
