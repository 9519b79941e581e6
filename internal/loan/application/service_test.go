package application

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wyfcoding/loanloey/internal/loan/domain"
	"github.com/wyfcoding/loanloey/internal/loan/infrastructure/persistence/mysql"
)

type LoanServiceTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo domain.LoanRepository
	svc  *LoanService
	now  time.Time
}

func (suite *LoanServiceTestSuite) SetupTest() {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(suite.T(), err, "failed to open test database")

	sqlDB, err := gdb.DB()
	require.NoError(suite.T(), err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(suite.T(), gdb.AutoMigrate(&mysql.LoanModel{}))

	suite.db = gdb
	suite.repo = mysql.NewLoanRepository(gdb)
	suite.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	pricer := domain.NewPricer(domain.NewFixedRatePolicy(decimal.NewFromFloat(0.02)), decimal.NewFromInt(1000))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	suite.svc = NewLoanService(suite.repo, pricer, nil, nil, nil, logger).
		WithClock(func() time.Time { return suite.now })
}

func (suite *LoanServiceTestSuite) apply(userID uint64, principal int64, dueAt time.Time) *domain.Loan {
	loan, err := suite.svc.Apply(context.Background(), ApplyLoanCommand{
		UserID:    userID,
		Principal: decimal.NewFromInt(principal),
		DueAt:     dueAt,
	})
	require.NoError(suite.T(), err)
	return loan
}

func (suite *LoanServiceTestSuite) TestApplyCreatesPendingLoan() {
	loan := suite.apply(1, 1000, suite.now.Add(30*24*time.Hour))

	suite.Equal(domain.LoanStatusPending, loan.Status)
	suite.Equal("20.00", loan.Interest.StringFixed(2))
	suite.Equal("1020.00", loan.Total.StringFixed(2))
	suite.NotZero(loan.ID)

	found, err := suite.repo.FindByID(context.Background(), loan.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.LoanStatusPending, found.Status)
	suite.Equal("1020.00", found.Total.StringFixed(2))
}

func (suite *LoanServiceTestSuite) TestApplyRejectsLowPrincipal() {
	_, err := suite.svc.Apply(context.Background(), ApplyLoanCommand{
		UserID:    1,
		Principal: decimal.NewFromInt(500),
		DueAt:     suite.now.Add(time.Hour),
	})
	suite.ErrorIs(err, domain.ErrInvalidAmount)
}

func (suite *LoanServiceTestSuite) TestListMarksOverdueLazily() {
	loan := suite.apply(1, 2000, suite.now.Add(time.Hour))

	// Still pending right before the due date.
	loans, err := suite.svc.ListByUser(context.Background(), 1)
	suite.Require().NoError(err)
	suite.Require().Len(loans, 1)
	suite.Equal(domain.LoanStatusPending, loans[0].Status)

	// Past the due date the listing flips it to overdue and persists.
	suite.now = suite.now.Add(2 * time.Hour)
	loans, err = suite.svc.ListByUser(context.Background(), 1)
	suite.Require().NoError(err)
	suite.Equal(domain.LoanStatusOverdue, loans[0].Status)

	found, err := suite.repo.FindByID(context.Background(), loan.ID)
	suite.Require().NoError(err)
	suite.Equal(domain.LoanStatusOverdue, found.Status)
}

func (suite *LoanServiceTestSuite) TestOverdueTransitionTouchesUpdatedAt() {
	loan := suite.apply(1, 2000, suite.now.Add(time.Minute))

	stale := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.Require().NoError(suite.db.Model(&mysql.LoanModel{}).
		Where("id = ?", loan.ID).
		Update("updated_at", stale).Error)

	ok, err := suite.repo.TransitionStatus(context.Background(), loan.ID,
		[]domain.LoanStatus{domain.LoanStatusPending}, domain.LoanStatusOverdue)
	suite.Require().NoError(err)
	suite.Require().True(ok)

	var model mysql.LoanModel
	suite.Require().NoError(suite.db.First(&model, loan.ID).Error)
	suite.True(model.UpdatedAt.After(stale.Add(time.Hour)))
}

func (suite *LoanServiceTestSuite) TestOverdueDetectionIsIdempotent() {
	suite.apply(1, 2000, suite.now.Add(time.Minute))
	suite.now = suite.now.Add(time.Hour)

	for i := 0; i < 3; i++ {
		loans, err := suite.svc.ListByUser(context.Background(), 1)
		suite.Require().NoError(err)
		suite.Equal(domain.LoanStatusOverdue, loans[0].Status)
	}
}

func (suite *LoanServiceTestSuite) TestCompleteLoanNeverResurrected() {
	loan := suite.apply(1, 2000, suite.now.Add(time.Minute))

	ok, err := suite.repo.TransitionStatus(context.Background(), loan.ID,
		[]domain.LoanStatus{domain.LoanStatusPending}, domain.LoanStatusComplete)
	suite.Require().NoError(err)
	suite.Require().True(ok)

	// Past due, but complete loans are left alone.
	suite.now = suite.now.Add(time.Hour)
	loans, err := suite.svc.ListByUser(context.Background(), 1)
	suite.Require().NoError(err)
	suite.Equal(domain.LoanStatusComplete, loans[0].Status)
}

func (suite *LoanServiceTestSuite) TestTotalsExcludeCompleteLoans() {
	first := suite.apply(1, 1000, suite.now.Add(24*time.Hour))
	suite.apply(1, 3000, suite.now.Add(24*time.Hour))
	suite.apply(2, 5000, suite.now.Add(24*time.Hour))

	ok, err := suite.repo.TransitionStatus(context.Background(), first.ID,
		[]domain.LoanStatus{domain.LoanStatusPending}, domain.LoanStatusComplete)
	suite.Require().NoError(err)
	suite.Require().True(ok)

	outstanding, err := suite.svc.TotalOutstanding(context.Background(), 1)
	suite.Require().NoError(err)
	suite.Equal("3060.00", outstanding.StringFixed(2))

	lifetime, err := suite.svc.TotalLifetime(context.Background(), 1)
	suite.Require().NoError(err)
	suite.Equal("4080.00", lifetime.StringFixed(2))

	all, err := suite.svc.TotalOutstandingAll(context.Background())
	suite.Require().NoError(err)
	suite.Equal("8160.00", all.StringFixed(2))
}

func (suite *LoanServiceTestSuite) TestTotalsZeroWithoutLoans() {
	outstanding, err := suite.svc.TotalOutstanding(context.Background(), 42)
	suite.Require().NoError(err)
	suite.True(outstanding.IsZero())
}

func TestLoanServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LoanServiceTestSuite))
}
