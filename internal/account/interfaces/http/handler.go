package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/loanloey/internal/account/application"
	"github.com/wyfcoding/loanloey/internal/account/domain"
	"github.com/wyfcoding/loanloey/pkg/logger"
	"github.com/wyfcoding/loanloey/pkg/response"
)

// AccountHandler 负责处理账户生命周期相关的 HTTP 请求
type AccountHandler struct {
	svc *application.AccountService
}

func NewAccountHandler(svc *application.AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// RegisterRoutes 注册路由，adminOnly 中间件保护管理员视图
func (h *AccountHandler) RegisterRoutes(router *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	router.POST("/signup", h.Signup)
	router.POST("/admin/signup", h.CreateAdmin)
	router.POST("/login", h.Login)
	router.POST("/logout", h.Logout)
	router.GET("/users/:id", h.GetProfile)
	router.PUT("/users/:id", h.UpdateProfile)
	router.DELETE("/users/:id", h.DeleteAccount)
	router.GET("/admin/users", adminOnly, h.Overview)
}

type signupRequest struct {
	Username      string `json:"username" binding:"required"`
	Password      string `json:"password" binding:"required"`
	FirstName     string `json:"first_name" binding:"required"`
	LastName      string `json:"last_name" binding:"required"`
	NationalID    string `json:"id_card" binding:"required"`
	DOB           string `json:"dob"`
	Phone         string `json:"phone_no" binding:"required"`
	Address       string `json:"address"`
	BankName      string `json:"bank_name"`
	BankAccountNo string `json:"bank_acc_no"`
	AdminSecret   string `json:"admin_secret"`
}

func (r signupRequest) command() application.SignupCommand {
	return application.SignupCommand{
		Username:      r.Username,
		Password:      r.Password,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		NationalID:    r.NationalID,
		DOB:           r.DOB,
		Phone:         r.Phone,
		Address:       r.Address,
		BankName:      r.BankName,
		BankAccountNo: r.BankAccountNo,
	}
}

type updateProfileRequest struct {
	FirstName     string `json:"first_name" binding:"required"`
	LastName      string `json:"last_name" binding:"required"`
	NationalID    string `json:"id_card" binding:"required"`
	DOB           string `json:"dob"`
	Phone         string `json:"phone_no" binding:"required"`
	Address       string `json:"address"`
	BankName      string `json:"bank_name"`
	BankAccountNo string `json:"bank_acc_no"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Signup 注册普通用户
func (h *AccountHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.svc.Signup(c.Request.Context(), req.command())
	if err != nil {
		logger.Error(c.Request.Context(), "signup failed", "username", req.Username, "error", err)
		h.writeError(c, err)
		return
	}

	response.Created(c, user)
}

// CreateAdmin 注册管理员
func (h *AccountHandler) CreateAdmin(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.svc.CreateAdmin(c.Request.Context(), req.command(), req.AdminSecret)
	if err != nil {
		logger.Error(c.Request.Context(), "admin signup failed", "username", req.Username, "error", err)
		h.writeError(c, err)
		return
	}

	response.Created(c, user)
}

// Login 登录并签发会话令牌
func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	session, user, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"token":   session.Token,
		"user_id": user.ID,
		"role":    string(user.Role),
	})
}

// Logout 吊销会话令牌
func (h *AccountHandler) Logout(c *gin.Context) {
	token := c.GetHeader("Authorization")
	if token == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "missing Authorization header")
		return
	}

	if err := h.svc.Logout(c.Request.Context(), token); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// GetProfile 查询用户资料
func (h *AccountHandler) GetProfile(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.svc.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateProfile 更新用户资料
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.svc.UpdateProfile(c.Request.Context(), userID, application.UpdateProfileCommand{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		NationalID:    req.NationalID,
		DOB:           req.DOB,
		Phone:         req.Phone,
		Address:       req.Address,
		BankName:      req.BankName,
		BankAccountNo: req.BankAccountNo,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, user)
}

// DeleteAccount 注销账户
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.svc.DeleteAccount(c.Request.Context(), userID); err != nil {
		logger.Error(c.Request.Context(), "account deletion failed", "user_id", userID, "error", err)
		h.writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// Overview 后台用户看板
func (h *AccountHandler) Overview(c *gin.Context) {
	rows, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, rows)
}

func (h *AccountHandler) writeError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		response.ErrorWithStatus(c, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.ErrorWithStatus(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrInvalidAdminSecret):
		response.ErrorWithStatus(c, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrSessionNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUsernameTaken), errors.Is(err, domain.ErrOutstandingDebt):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error())
	default:
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error())
	}
}
