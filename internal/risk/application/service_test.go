package application

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	loandomain "github.com/wyfcoding/loanloey/internal/loan/domain"
	loanmysql "github.com/wyfcoding/loanloey/internal/loan/infrastructure/persistence/mysql"
	paymentdomain "github.com/wyfcoding/loanloey/internal/payment/domain"
	paymentmysql "github.com/wyfcoding/loanloey/internal/payment/infrastructure/persistence/mysql"
	"github.com/wyfcoding/loanloey/internal/risk/domain"
	riskmysql "github.com/wyfcoding/loanloey/internal/risk/infrastructure/persistence/mysql"
)

// memoryCache records cached levels so tests can assert refresh behaviour.
type memoryCache struct {
	mu     sync.Mutex
	levels map[uint64]domain.Level
}

func newMemoryCache() *memoryCache {
	return &memoryCache{levels: make(map[uint64]domain.Level)}
}

func (c *memoryCache) Get(ctx context.Context, userID uint64) (domain.Level, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	level, ok := c.levels[userID]
	return level, ok, nil
}

func (c *memoryCache) Set(ctx context.Context, userID uint64, level domain.Level) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.levels[userID] = level
	return nil
}

// recordingWriter captures persisted levels.
type recordingWriter struct {
	mu     sync.Mutex
	levels map[uint64]domain.Level
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{levels: make(map[uint64]domain.Level)}
}

func (w *recordingWriter) SaveLevel(ctx context.Context, userID uint64, level domain.Level) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.levels[userID] = level
	return nil
}

type RiskServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	loans    loandomain.LoanRepository
	payments paymentdomain.PaymentRepository
	cache    *memoryCache
	writer   *recordingWriter
	svc      *RiskService
	now      time.Time
}

func (suite *RiskServiceTestSuite) SetupTest() {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(suite.T(), err, "failed to open test database")

	sqlDB, err := gdb.DB()
	require.NoError(suite.T(), err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(suite.T(), gdb.AutoMigrate(&loanmysql.LoanModel{}, &paymentmysql.PaymentModel{}))

	suite.db = gdb
	suite.loans = loanmysql.NewLoanRepository(gdb)
	suite.payments = paymentmysql.NewPaymentRepository(gdb)
	suite.cache = newMemoryCache()
	suite.writer = newRecordingWriter()
	suite.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	reader := riskmysql.NewSnapshotReader(gdb, 3).
		WithClock(func() time.Time { return suite.now })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	suite.svc = NewRiskService(reader, suite.writer, suite.cache, domain.DefaultRule, logger)
}

func (suite *RiskServiceTestSuite) createLoan(userID uint64, dueAt time.Time, status loandomain.LoanStatus) *loandomain.Loan {
	principal := decimal.NewFromInt(2000)
	loan := loandomain.NewLoan(userID, loandomain.Terms{
		Principal: principal,
		Rate:      decimal.NewFromFloat(0.02),
		Interest:  decimal.NewFromInt(40),
		Total:     decimal.NewFromInt(2040),
	}, dueAt, suite.now)
	loan.Status = status
	require.NoError(suite.T(), suite.loans.Create(context.Background(), loan))
	return loan
}

func (suite *RiskServiceTestSuite) TestCleanUserIsGreen() {
	suite.createLoan(1, suite.now.Add(30*24*time.Hour), loandomain.LoanStatusPending)

	level, err := suite.svc.LevelFor(context.Background(), 1)
	suite.Require().NoError(err)
	suite.Equal(domain.LevelGreen, level)
	suite.Equal(domain.LevelGreen, suite.writer.levels[1])
}

func (suite *RiskServiceTestSuite) TestOverdueStatusIsRed() {
	suite.createLoan(1, suite.now.Add(-time.Hour), loandomain.LoanStatusOverdue)

	level, err := suite.svc.LevelFor(context.Background(), 1)
	suite.Require().NoError(err)
	suite.Equal(domain.LevelRed, level)
}

func (suite *RiskServiceTestSuite) TestPendingPastDueCountsAsOverdue() {
	// The overdue transition has not been persisted yet, but the clock says
	// the loan is past due.
	suite.createLoan(1, suite.now.Add(-time.Hour), loandomain.LoanStatusPending)

	level, err := suite.svc.LevelFor(context.Background(), 1)
	suite.Require().NoError(err)
	suite.Equal(domain.LevelRed, level)
}

func (suite *RiskServiceTestSuite) TestNearDueLoanIsYellow() {
	suite.createLoan(1, suite.now.Add(48*time.Hour), loandomain.LoanStatusPending)

	level, err := suite.svc.LevelFor(context.Background(), 1)
	suite.Require().NoError(err)
	suite.Equal(domain.LevelYellow, level)
}

func (suite *RiskServiceTestSuite) TestFarDueLoanStaysGreen() {
	suite.createLoan(1, suite.now.Add(10*24*time.Hour), loandomain.LoanStatusPending)

	level, err := suite.svc.LevelFor(context.Background(), 1)
	suite.Require().NoError(err)
	suite.Equal(domain.LevelGreen, level)
}

func (suite *RiskServiceTestSuite) TestRejectedPaymentIsYellow() {
	loan := suite.createLoan(1, suite.now.Add(30*24*time.Hour), loandomain.LoanStatusPending)

	payment := paymentdomain.NewPayment(loan.ID, paymentdomain.Receipt{
		Ciphertext: []byte("sealed"),
		WrappedKey: []byte("wrapped"),
	}, paymentdomain.TimelinessInTime, suite.now)
	suite.Require().NoError(suite.payments.Create(context.Background(), payment))

	ok, err := suite.payments.TransitionStatus(context.Background(), payment.ID,
		paymentdomain.PaymentStatusWaiting, paymentdomain.PaymentStatusRejected, suite.now)
	suite.Require().NoError(err)
	suite.Require().True(ok)

	level, err := suite.svc.LevelFor(context.Background(), 1)
	suite.Require().NoError(err)
	suite.Equal(domain.LevelYellow, level)
}

func (suite *RiskServiceTestSuite) TestRecomputeRefreshesCache() {
	suite.createLoan(1, suite.now.Add(30*24*time.Hour), loandomain.LoanStatusPending)
	suite.Require().NoError(suite.svc.Recompute(context.Background(), 1))
	suite.Equal(domain.LevelGreen, suite.cache.levels[1])

	// Ledger turns sour; recompute replaces the cached level.
	suite.createLoan(1, suite.now.Add(-time.Hour), loandomain.LoanStatusOverdue)
	suite.Require().NoError(suite.svc.Recompute(context.Background(), 1))
	suite.Equal(domain.LevelRed, suite.cache.levels[1])
}

func (suite *RiskServiceTestSuite) TestLevelForServesFromCache() {
	// Stale cache entry is returned as-is without touching the ledger.
	suite.Require().NoError(suite.cache.Set(context.Background(), 7, domain.LevelYellow))

	level, err := suite.svc.LevelFor(context.Background(), 7)
	suite.Require().NoError(err)
	suite.Equal(domain.LevelYellow, level)
}

func TestRiskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RiskServiceTestSuite))
}
