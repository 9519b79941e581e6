package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/loanloey/internal/risk/application"
	"github.com/wyfcoding/loanloey/pkg/logger"
	"github.com/wyfcoding/loanloey/pkg/response"
)

// RiskHandler 负责处理风险评级查询
type RiskHandler struct {
	svc *application.RiskService
}

func NewRiskHandler(svc *application.RiskService) *RiskHandler {
	return &RiskHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *RiskHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/users/:id/risk", h.LevelFor)
}

// LevelFor 用户当前风险评级
func (h *RiskHandler) LevelFor(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid user id")
		return
	}

	level, err := h.svc.LevelFor(c.Request.Context(), userID)
	if err != nil {
		logger.Error(c.Request.Context(), "reading risk level failed", "user_id", userID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, gin.H{"risk_level": string(level)})
}
