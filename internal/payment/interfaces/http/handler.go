package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	loandomain "github.com/wyfcoding/loanloey/internal/loan/domain"
	"github.com/wyfcoding/loanloey/internal/payment/application"
	"github.com/wyfcoding/loanloey/internal/payment/domain"
	"github.com/wyfcoding/loanloey/pkg/logger"
	"github.com/wyfcoding/loanloey/pkg/middleware"
	"github.com/wyfcoding/loanloey/pkg/response"
)

// PaymentHandler 负责处理还款工作流相关的 HTTP 请求
type PaymentHandler struct {
	svc             *application.PaymentService
	loc             *time.Location
	maxReceiptBytes int64
}

func NewPaymentHandler(svc *application.PaymentService, loc *time.Location, maxReceiptBytes int64) *PaymentHandler {
	return &PaymentHandler{svc: svc, loc: loc, maxReceiptBytes: maxReceiptBytes}
}

// RegisterRoutes 注册路由，审核与回执解密仅限管理员
func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	router.POST("/loans/:id/payments", h.Submit)
	router.GET("/loans/:id/payments", h.ListByLoan)
	router.POST("/payments/:id/decision", adminOnly, h.Decide)
	router.GET("/admin/payments/:id/receipt", adminOnly, h.Receipt)
}

type paymentResponse struct {
	PaymentID   uint64 `json:"payment_id"`
	LoanID      uint64 `json:"loan_id"`
	Status      string `json:"status"`
	Timeliness  string `json:"timeliness"`
	SubmittedAt string `json:"submitted_at"`
	DecidedAt   string `json:"decided_at,omitempty"`
}

func (h *PaymentHandler) paymentResponse(p *domain.Payment) paymentResponse {
	resp := paymentResponse{
		PaymentID:   p.ID,
		LoanID:      p.LoanID,
		Status:      string(p.Status),
		Timeliness:  string(p.Timeliness),
		SubmittedAt: p.SubmittedAt.In(h.loc).Format(time.RFC3339),
	}
	if p.DecidedAt != nil {
		resp.DecidedAt = p.DecidedAt.In(h.loc).Format(time.RFC3339)
	}
	return resp
}

// Submit 上传还款回执（multipart 字段 receipt）
func (h *PaymentHandler) Submit(c *gin.Context) {
	loanID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid loan id")
		return
	}

	header, err := c.FormFile("receipt")
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "receipt file is required")
		return
	}
	if header.Size > h.maxReceiptBytes {
		response.ErrorWithStatus(c, http.StatusRequestEntityTooLarge, "receipt exceeds maximum size")
		return
	}

	file, err := header.Open()
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "cannot read receipt file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxReceiptBytes))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "cannot read receipt file")
		return
	}

	payment, err := h.svc.SubmitReceipt(c.Request.Context(), loanID, data)
	if err != nil {
		logger.Error(c.Request.Context(), "receipt submission failed", "loan_id", loanID, "error", err)
		h.writeError(c, err)
		return
	}

	response.Created(c, h.paymentResponse(payment))
}

// ListByLoan 贷款回执列表，最近提交的在前
func (h *PaymentHandler) ListByLoan(c *gin.Context) {
	loanID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid loan id")
		return
	}

	payments, err := h.svc.ListByLoan(c.Request.Context(), loanID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, h.paymentResponse(p))
	}
	response.Success(c, out)
}

type decisionRequest struct {
	Action string `json:"action" binding:"required"`
}

// Decide 审核回执
func (h *PaymentHandler) Decide(c *gin.Context) {
	paymentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid payment id")
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	action, err := domain.ParseAction(req.Action)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	payment, err := h.svc.Decide(c.Request.Context(), paymentID, action)
	if err != nil {
		logger.Error(c.Request.Context(), "payment decision failed", "payment_id", paymentID, "action", action, "error", err)
		h.writeError(c, err)
		return
	}

	if sess, ok := middleware.SessionFromContext(c); ok {
		logger.Info(c.Request.Context(), "payment decided", "payment_id", paymentID, "action", action, "admin_id", sess.UserID)
	}

	response.Success(c, h.paymentResponse(payment))
}

// Receipt 解密并返回回执原文，仅审核侧可用
func (h *PaymentHandler) Receipt(c *gin.Context) {
	paymentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid payment id")
		return
	}

	data, err := h.svc.OpenReceipt(c.Request.Context(), paymentID)
	if err != nil {
		logger.Error(c.Request.Context(), "opening receipt failed", "payment_id", paymentID, "error", err)
		h.writeError(c, err)
		return
	}

	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

func (h *PaymentHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyReceipt), errors.Is(err, domain.ErrInvalidAction):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrPaymentNotFound), errors.Is(err, loandomain.ErrLoanNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyDecided), errors.Is(err, loandomain.ErrLoanAlreadyComplete):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error())
	default:
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error())
	}
}
