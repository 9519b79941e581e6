package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/loanloey/internal/loan/application"
	"github.com/wyfcoding/loanloey/internal/loan/domain"
	"github.com/wyfcoding/loanloey/pkg/logger"
	"github.com/wyfcoding/loanloey/pkg/response"
)

// DueDateLayout 贷款到期时间的请求格式
const DueDateLayout = "2006-01-02 15:04"

// LoanHandler 负责处理贷款账本相关的 HTTP 请求
type LoanHandler struct {
	svc *application.LoanService
	loc *time.Location
}

func NewLoanHandler(svc *application.LoanService, loc *time.Location) *LoanHandler {
	return &LoanHandler{svc: svc, loc: loc}
}

// RegisterRoutes 注册路由，adminOnly 中间件保护管理员视图
func (h *LoanHandler) RegisterRoutes(router *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	router.POST("/loans/quote", h.Quote)
	router.POST("/loans", h.Apply)
	router.GET("/users/:id/loans", h.ListByUser)
	router.GET("/users/:id/outstanding", h.Outstanding)
	router.GET("/users/:id/borrowed-total", h.LifetimeTotal)
	router.GET("/admin/outstanding", adminOnly, h.OutstandingAll)
}

type loanRequest struct {
	UserID        uint64  `json:"user_id"`
	InitialAmount float64 `json:"initial_amount" binding:"required"`
	DueDateTime   string  `json:"due_date_time" binding:"required"`
}

type loanResponse struct {
	LoanID        uint64 `json:"loan_id,omitempty"`
	InitialAmount string `json:"initial_amount"`
	InterestRate  string `json:"interest_rate"`
	Interest      string `json:"interest"`
	Total         string `json:"total"`
	DueDateTime   string `json:"due_date_time"`
	Status        string `json:"status,omitempty"`
}

func (h *LoanHandler) termsResponse(t domain.Terms, dueAt time.Time) loanResponse {
	return loanResponse{
		InitialAmount: t.Principal.StringFixed(2),
		InterestRate:  t.Rate.String(),
		Interest:      t.Interest.StringFixed(2),
		Total:         t.Total.StringFixed(2),
		DueDateTime:   dueAt.In(h.loc).Format(DueDateLayout),
	}
}

func (h *LoanHandler) loanResponse(l *domain.Loan) loanResponse {
	return loanResponse{
		LoanID:        l.ID,
		InitialAmount: l.Principal.StringFixed(2),
		InterestRate:  l.InterestRate.String(),
		Interest:      l.Interest.StringFixed(2),
		Total:         l.Total.StringFixed(2),
		DueDateTime:   l.DueAt.In(h.loc).Format(DueDateLayout),
		Status:        string(l.Status),
	}
}

// Quote 贷款报价
func (h *LoanHandler) Quote(c *gin.Context) {
	var req loanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	dueAt, err := time.ParseInLocation(DueDateLayout, req.DueDateTime, h.loc)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid due_date_time, expected format "+DueDateLayout)
		return
	}

	terms, err := h.svc.Quote(decimal.NewFromFloat(req.InitialAmount), dueAt)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, h.termsResponse(terms, dueAt))
}

// Apply 贷款申请
func (h *LoanHandler) Apply(c *gin.Context) {
	var req loanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "user_id is required")
		return
	}

	dueAt, err := time.ParseInLocation(DueDateLayout, req.DueDateTime, h.loc)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid due_date_time, expected format "+DueDateLayout)
		return
	}

	loan, err := h.svc.Apply(c.Request.Context(), application.ApplyLoanCommand{
		UserID:    req.UserID,
		Principal: decimal.NewFromFloat(req.InitialAmount),
		DueAt:     dueAt,
	})
	if err != nil {
		logger.Error(c.Request.Context(), "loan application failed", "user_id", req.UserID, "error", err)
		h.writeError(c, err)
		return
	}

	response.Created(c, h.loanResponse(loan))
}

// ListByUser 用户贷款列表
func (h *LoanHandler) ListByUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid user id")
		return
	}

	loans, err := h.svc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		logger.Error(c.Request.Context(), "listing loans failed", "user_id", userID, "error", err)
		h.writeError(c, err)
		return
	}

	out := make([]loanResponse, 0, len(loans))
	for _, l := range loans {
		out = append(out, h.loanResponse(l))
	}
	response.Success(c, out)
}

// Outstanding 用户未结清总额
func (h *LoanHandler) Outstanding(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid user id")
		return
	}

	total, err := h.svc.TotalOutstanding(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"total_loan": total.StringFixed(2)})
}

// LifetimeTotal 用户历史借款总额
func (h *LoanHandler) LifetimeTotal(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid user id")
		return
	}

	total, err := h.svc.TotalLifetime(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"total_loan": total.StringFixed(2)})
}

// OutstandingAll 平台未结清总额
func (h *LoanHandler) OutstandingAll(c *gin.Context) {
	total, err := h.svc.TotalOutstandingAll(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"total_loan": total.StringFixed(2)})
}

func (h *LoanHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidDueDate):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrLoanNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrLoanAlreadyComplete):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error())
	default:
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error())
	}
}
