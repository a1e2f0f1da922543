package handler

import (
	"io"
	"strconv"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HeaderWebhookSignature carries the provider's webhook secret hash.
const HeaderWebhookSignature = "verif-hash"

// DepositHandler handles hosted deposits and provider webhooks.
type DepositHandler struct {
	deposits ports.DepositService
	log      zerolog.Logger
}

// NewDepositHandler creates a new DepositHandler.
func NewDepositHandler(deposits ports.DepositService, log zerolog.Logger) *DepositHandler {
	return &DepositHandler{deposits: deposits, log: log}
}

// Initiate handles POST /api/v1/deposits.
func (h *DepositHandler) Initiate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.InitiateDepositRequest
	if !bindJSON(c, &req) {
		return
	}

	intent, err := h.deposits.InitiateDeposit(c.Request.Context(), ports.InitiateDepositRequest{
		OwnerID:  userID,
		Currency: req.Currency,
		Amount:   req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, intent.ExternalRef)
	response.Created(c, dto.NewDepositIntentResponse(intent))
}

// List handles GET /api/v1/deposits.
func (h *DepositHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(domain.DefaultPageSize)))
	norm := domain.TransactionFilter{Page: page, PageSize: limit}.Normalize()

	items, total, err := h.deposits.ListDeposits(c.Request.Context(), userID, norm.Page, norm.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, dto.NewTransactionListResponse(items), total, norm.Page, norm.PageSize)
}

// ConfirmOTP handles POST /api/v1/deposits/confirm-otp.
func (h *DepositHandler) ConfirmOTP(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.ConfirmOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.deposits.ConfirmDepositOTP(c.Request.Context(), ports.ConfirmOTPRequest{
		OwnerID:     userID,
		ExternalRef: req.Reference,
		ProviderRef: req.ProviderRef,
		OTP:         req.OTP,
		Amount:      req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, result.Transaction.ID.String())
	response.OK(c, dto.NewLedgerResultResponse(result))
}

// Webhook handles POST /api/v1/webhooks/flutterwave. The raw body is passed
// through untouched for signature checks. Only a bad signature or a
// retryable failure is answered with an error; everything else is
// acknowledged so the provider stops redelivering.
func (h *DepositHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.Validation("cannot read request body"))
		return
	}

	result, err := h.deposits.ReconcileWebhook(c.Request.Context(), body, c.GetHeader(HeaderWebhookSignature))
	if err != nil {
		appErr, ok := apperror.As(err)
		if !ok || appErr.Retryable || appErr.Is(apperror.ErrInvalidSignature()) {
			response.Error(c, err)
			return
		}
		h.log.Warn().Err(err).Msg("webhook delivery acknowledged without effect")
		response.OK(c, dto.WebhookAckResponse{Outcome: string(ports.OutcomeIgnored)})
		return
	}

	if result.Transaction != nil {
		c.Set(middleware.CtxResourceID, result.Transaction.ID.String())
	}
	response.OK(c, dto.WebhookAckResponse{Outcome: string(result.Outcome), Reference: result.ExternalRef})
}
