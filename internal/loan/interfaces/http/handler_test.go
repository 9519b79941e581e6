package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wyfcoding/loanloey/internal/loan/application"
	"github.com/wyfcoding/loanloey/internal/loan/domain"
	"github.com/wyfcoding/loanloey/internal/loan/infrastructure/persistence/mysql"
	"github.com/wyfcoding/loanloey/pkg/middleware"
)

const adminToken = "admin-token"

// staticSessionResolver maps fixed tokens to sessions for handler tests.
type staticSessionResolver map[string]*middleware.Session

func (r staticSessionResolver) Resolve(ctx context.Context, token string) (*middleware.Session, error) {
	if sess, ok := r[token]; ok {
		return sess, nil
	}
	return nil, errors.New("session not found")
}

func setupRouter(t *testing.T, now time.Time) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(&mysql.LoanModel{}))

	pricer := domain.NewPricer(domain.NewFixedRatePolicy(decimal.NewFromFloat(0.02)), decimal.NewFromInt(1000))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := application.NewLoanService(mysql.NewLoanRepository(gdb), pricer, nil, nil, nil, logger).
		WithClock(func() time.Time { return now })

	adminOnly := middleware.RequireRole(staticSessionResolver{
		adminToken: {UserID: 99, Role: "admin"},
	}, "admin")

	r := gin.New()
	NewLoanHandler(svc, time.UTC).RegisterRoutes(r.Group("/api/v1"), adminOnly)
	return r
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestQuoteEndpoint(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	router := setupRouter(t, now)

	w := postJSON(t, router, "/api/v1/loans/quote", gin.H{
		"initial_amount": 1000,
		"due_date_time":  "2026-04-01 12:00",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Interest string `json:"interest"`
			Total    string `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "20.00", body.Data.Interest)
	assert.Equal(t, "1020.00", body.Data.Total)
}

func TestQuoteRejectsLowAmount(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	router := setupRouter(t, now)

	w := postJSON(t, router, "/api/v1/loans/quote", gin.H{
		"initial_amount": 500,
		"due_date_time":  "2026-04-01 12:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuoteRejectsBadDateFormat(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	router := setupRouter(t, now)

	w := postJSON(t, router, "/api/v1/loans/quote", gin.H{
		"initial_amount": 1000,
		"due_date_time":  "01/04/2026",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplyAndListEndpoints(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	router := setupRouter(t, now)

	w := postJSON(t, router, "/api/v1/loans", gin.H{
		"user_id":        1,
		"initial_amount": 2000,
		"due_date_time":  "2026-04-01 12:00",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/1/loans", nil)
	list := httptest.NewRecorder()
	router.ServeHTTP(list, req)
	require.Equal(t, http.StatusOK, list.Code)

	var body struct {
		Data []struct {
			LoanID      uint64 `json:"loan_id"`
			Status      string `json:"status"`
			DueDateTime string `json:"due_date_time"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "pending", body.Data[0].Status)
	assert.Equal(t, "2026-04-01 12:00", body.Data[0].DueDateTime)
}

func TestApplyRequiresUserID(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	router := setupRouter(t, now)

	w := postJSON(t, router, "/api/v1/loans", gin.H{
		"initial_amount": 2000,
		"due_date_time":  "2026-04-01 12:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOutstandingEndpoint(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	router := setupRouter(t, now)

	w := postJSON(t, router, "/api/v1/loans", gin.H{
		"user_id":        1,
		"initial_amount": 1000,
		"due_date_time":  "2026-04-01 12:00",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/1/outstanding", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Data struct {
			TotalLoan string `json:"total_loan"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "1020.00", body.Data.TotalLoan)
}

func TestAdminOutstandingRequiresAdminSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	router := setupRouter(t, now)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/outstanding", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/outstanding", nil)
	req.Header.Set("Authorization", adminToken)
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusOK, res.Code)
}
