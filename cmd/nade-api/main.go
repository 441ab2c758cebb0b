package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/nade-api/api/swagger"
	"github.com/noah-isme/nade-api/internal/handler"
	"github.com/noah-isme/nade-api/internal/repository"
	"github.com/noah-isme/nade-api/internal/service"
	"github.com/noah-isme/nade-api/pkg/cache"
	"github.com/noah-isme/nade-api/pkg/config"
	"github.com/noah-isme/nade-api/pkg/export"
	"github.com/noah-isme/nade-api/pkg/jobs"
	"github.com/noah-isme/nade-api/pkg/logger"
	"github.com/noah-isme/nade-api/pkg/mail"
)

// @title NADE API
// @version 1.0.0
// @description Registro e acompanhamento de ocorrências do Núcleo de Apoio Disciplinar Escolar (NADE)
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.DBDriver, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			logr.Warn("store close failed", zap.Error(err))
		}
	}()

	metrics := service.NewMetricsService()
	checks := map[string]handler.Pinger{cfg.DBDriver: st.ping}

	var cacheRepo service.CacheRepository
	if cfg.Dashboard.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
			checks["redis"] = redisRepo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cacheRepo != nil)

	sender, err := mail.New(cfg.Mail, cfg.Env, logr)
	if err != nil {
		return err
	}
	mailer := service.NewMailService(sender, metrics, jobs.Config{
		Workers:    cfg.Mail.Workers,
		MaxRetries: cfg.Mail.Retries,
		Logger:     logr,
	})
	mailer.Start(ctx)
	defer mailer.Stop()

	validate := validator.New()
	authSvc := service.NewAuthService(st.users, mailer, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		ResetTokenTTL:     cfg.Auth.ResetTokenTTL,
		ResetURL:          cfg.Auth.ResetURL,
		BcryptCost:        cfg.Auth.BcryptCost,
		LogResetLinks:     cfg.Env == config.EnvDevelopment,
	})
	studentSvc := service.NewStudentService(st.students, cacheSvc, validate, logr)
	userSvc := service.NewUserService(st.users, validate, logr, cfg.Auth.BcryptCost)
	occurrenceSvc := service.NewOccurrenceService(st.occurrences, st.students, cacheSvc, metrics, validate, logr)
	dashboardSvc := service.NewDashboardService(st.occurrences, cacheSvc, logr, service.DashboardServiceConfig{
		CacheTTL:    cfg.Dashboard.CacheTTL,
		TopTypes:    cfg.Dashboard.TopTypes,
		RecentLimit: cfg.Dashboard.RecentLimit,
	})
	reportSvc := service.NewReportService(st.occurrences, export.NewPDFExporter(), export.NewCSVExporter(), export.NewXLSXExporter("Ocorrências"), metrics, logr, service.ReportServiceConfig{
		Header: cfg.Reports.HeaderLines,
	})

	router := newRouter(cfg, logr, authSvc, metrics, handlers{
		auth:        handler.NewAuthHandler(authSvc),
		students:    handler.NewStudentHandler(studentSvc),
		occurrences: handler.NewOccurrenceHandler(occurrenceSvc),
		users:       handler.NewUserHandler(userSvc),
		dashboard:   handler.NewDashboardHandler(dashboardSvc),
		reports:     handler.NewReportHandler(reportSvc),
		ops:         handler.NewMetricsHandler(metrics, checks, logr),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
