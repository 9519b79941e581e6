package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	accountapp "github.com/wyfcoding/loanloey/internal/account/application"
	accountmemory "github.com/wyfcoding/loanloey/internal/account/infrastructure/persistence/memory"
	accountmysql "github.com/wyfcoding/loanloey/internal/account/infrastructure/persistence/mysql"
	accountredis "github.com/wyfcoding/loanloey/internal/account/infrastructure/persistence/redis"
	accounthttp "github.com/wyfcoding/loanloey/internal/account/interfaces/http"
	loanapp "github.com/wyfcoding/loanloey/internal/loan/application"
	loandomain "github.com/wyfcoding/loanloey/internal/loan/domain"
	loanmessaging "github.com/wyfcoding/loanloey/internal/loan/infrastructure/messaging"
	loanmysql "github.com/wyfcoding/loanloey/internal/loan/infrastructure/persistence/mysql"
	loanhttp "github.com/wyfcoding/loanloey/internal/loan/interfaces/http"
	paymentapp "github.com/wyfcoding/loanloey/internal/payment/application"
	paymentcrypto "github.com/wyfcoding/loanloey/internal/payment/infrastructure/crypto"
	paymentmessaging "github.com/wyfcoding/loanloey/internal/payment/infrastructure/messaging"
	paymentmysql "github.com/wyfcoding/loanloey/internal/payment/infrastructure/persistence/mysql"
	paymenthttp "github.com/wyfcoding/loanloey/internal/payment/interfaces/http"
	riskapp "github.com/wyfcoding/loanloey/internal/risk/application"
	riskdomain "github.com/wyfcoding/loanloey/internal/risk/domain"
	riskcache "github.com/wyfcoding/loanloey/internal/risk/infrastructure/cache"
	riskmysql "github.com/wyfcoding/loanloey/internal/risk/infrastructure/persistence/mysql"
	riskhttp "github.com/wyfcoding/loanloey/internal/risk/interfaces/http"
	"github.com/wyfcoding/loanloey/pkg/cache"
	"github.com/wyfcoding/loanloey/pkg/config"
	"github.com/wyfcoding/loanloey/pkg/db"
	"github.com/wyfcoding/loanloey/pkg/logger"
	"github.com/wyfcoding/loanloey/pkg/metrics"
	"github.com/wyfcoding/loanloey/pkg/middleware"
	"github.com/wyfcoding/loanloey/pkg/mq"

	accountdomain "github.com/wyfcoding/loanloey/internal/account/domain"
	paymentdomain "github.com/wyfcoding/loanloey/internal/payment/domain"
)

var configPath = flag.String("config", "configs/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. 初始化配置
	var cfg config.Config
	if err := config.Load(*configPath, &cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 初始化日志
	if err := logger.Init(cfg.Logger); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Error("invalid timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	// 3. 初始化指标
	m := metrics.New(cfg.ServiceName)
	if cfg.Metrics.Enabled {
		go m.ExposeHTTP(cfg.Metrics.Port)
	}

	// 4. 初始化基础设施
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}

	// Auto Migrate (仅用于开发方便)
	if cfg.Environment == "dev" {
		if err := database.AutoMigrate(&accountmysql.UserModel{}, &loanmysql.LoanModel{}, &paymentmysql.PaymentModel{}); err != nil {
			slog.Error("failed to migrate database", "error", err)
		}
	}

	// Redis（可选）
	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.New(cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			slog.Error("failed to init redis", "error", err)
			os.Exit(1)
		}
	}

	// Kafka（可选）
	var producer *mq.KafkaProducer
	if cfg.Kafka.Enabled {
		producer, err = mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			slog.Error("failed to init kafka producer", "error", err)
			os.Exit(1)
		}
	}

	// 回执加密
	vault, err := paymentcrypto.NewReceiptVault(cfg.Receipts.PrivateKeyPath, cfg.Receipts.PublicKeyPath)
	if err != nil {
		slog.Error("failed to init receipt vault", "error", err)
		os.Exit(1)
	}

	// 5. 初始化仓储
	loanRepo := loanmysql.NewLoanRepository(database.DB)
	paymentRepo := paymentmysql.NewPaymentRepository(database.DB)
	userRepo := accountmysql.NewUserRepository(database.DB)

	var sessionRepo accountdomain.SessionRepository
	var levelCache riskdomain.LevelCache
	if redisCache != nil {
		sessionRepo = accountredis.NewSessionRepository(redisCache)
		levelCache = riskcache.NewLevelCache(redisCache, time.Duration(cfg.Risk.CacheTTL)*time.Second)
	} else {
		sessionRepo = accountmemory.NewSessionRepository()
		levelCache = riskcache.NewNoopCache()
	}

	var loanPublisher loandomain.EventPublisher
	var paymentPublisher paymentdomain.EventPublisher
	if producer != nil {
		loanPublisher = loanmessaging.NewKafkaPublisher(producer)
		paymentPublisher = paymentmessaging.NewKafkaPublisher(producer)
	} else {
		loanPublisher = loanmessaging.NewNoopPublisher()
		paymentPublisher = paymentmessaging.NewNoopPublisher()
	}

	// 6. 初始化应用服务
	var policy loandomain.RatePolicy
	if cfg.Loan.RatePolicy == "tiered" {
		policy = loandomain.NewTieredRatePolicy()
	} else {
		policy = loandomain.NewFixedRatePolicy(decimal.NewFromFloat(cfg.Loan.FixedRate))
	}
	pricer := loandomain.NewPricer(policy, decimal.NewFromInt(cfg.Loan.MinPrincipal))

	riskSvc := riskapp.NewRiskService(
		riskmysql.NewSnapshotReader(database.DB, cfg.Risk.NearDueDays),
		riskmysql.NewLevelWriter(database.DB),
		levelCache,
		riskdomain.RuleByName(cfg.Risk.Rule),
		slog.Default(),
	)
	loanSvc := loanapp.NewLoanService(loanRepo, pricer, loanPublisher, riskSvc, m, slog.Default())
	paymentSvc := paymentapp.NewPaymentService(paymentRepo, loanRepo, vault, paymentPublisher, loanPublisher, riskSvc, database, m, slog.Default())
	accountSvc := accountapp.NewAccountService(userRepo, sessionRepo, loanSvc, loanRepo, paymentRepo, database, m, slog.Default(),
		cfg.Admin.SignupSecretHash, time.Duration(cfg.Admin.SessionTTL)*time.Second)

	// 7. 初始化接口层
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(), middleware.Recovery(), middleware.Metrics(m))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	adminOnly := middleware.RequireRole(accounthttp.NewSessionResolver(accountSvc), string(accountdomain.RoleAdmin))

	api := r.Group("/api/v1")
	loanhttp.NewLoanHandler(loanSvc, loc).RegisterRoutes(api, adminOnly)
	paymenthttp.NewPaymentHandler(paymentSvc, loc, cfg.Receipts.MaxSizeMB*1024*1024).RegisterRoutes(api, adminOnly)
	riskhttp.NewRiskHandler(riskSvc).RegisterRoutes(api)
	accounthttp.NewAccountHandler(accountSvc).RegisterRoutes(api, adminOnly)

	// 8. 启动服务
	g, ctx := errgroup.WithContext(context.Background())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// 9. 优雅关闭
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down server...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}

		if producer != nil {
			if err := producer.Close(); err != nil {
				slog.Error("closing kafka producer failed", "error", err)
			}
		}
		if redisCache != nil {
			if err := redisCache.Close(); err != nil {
				slog.Error("closing redis failed", "error", err)
			}
		}
		return database.Close()
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}
