// cmd/intake-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	awsclients "loan-intake/internal/common/aws"
	"loan-intake/internal/common/config"
	"loan-intake/internal/common/database"
	httpclient "loan-intake/internal/common/http"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/observability"
	"loan-intake/internal/common/ratelimit"
	"loan-intake/internal/common/supabase"
	"loan-intake/internal/server"
	"loan-intake/pkg/registry"

	assemblesubmission "loan-intake/internal/intake/assemble-submission"
	fileintake "loan-intake/internal/intake/file-intake"
	"loan-intake/internal/intake/pipeline"
	rendersummarypdf "loan-intake/internal/intake/render-summary-pdf"
	repattribution "loan-intake/internal/intake/rep-attribution"
	sendnotification "loan-intake/internal/intake/send-notification"
	storeapplication "loan-intake/internal/intake/store-application"
	validateapplicationdata "loan-intake/internal/intake/validate-application-data"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting intake server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("storeDriver", cfg.Store.Driver),
	)

	ctx := context.Background()

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("stage metrics disabled", zap.Error(err))
	}
	defer func() { _ = obs.Shutdown(context.Background()) }()

	// --- Persistence gateway ---
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		zapLog.Fatal("store init failed", zap.Error(err))
	}
	defer closeStore()
	zapLog.Info("Store initialized", zap.String("driver", cfg.Store.Driver))

	// --- Rep directory ---
	directory, err := registry.LoadRegistry(cfg.Reps.DirectoryPath)
	if err != nil {
		zapLog.Fatal("rep directory load failed", zap.String("path", cfg.Reps.DirectoryPath), zap.Error(err))
	}
	zapLog.Info("Rep directory loaded", zap.Int("reps", directory.Len()))

	// --- Optional rate limiter ---
	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		rdb := database.NewRedis(cfg.Database.Redis)
		defer rdb.Close()
		if err := rdb.Ping(ctx); err != nil {
			zapLog.Warn("redis unreachable, rate limiter will fail open", zap.Error(err))
		}
		limiter = ratelimit.New(rdb.Client, cfg.RateLimit.Requests, config.GetDuration(cfg.RateLimit.Window), log)
	}

	// --- Stages ---
	reps := repattribution.NewHandler(directory, repattribution.NewSigner(cfg.Reps.SigningSecret), log)
	files := fileintake.NewHandler(cfg.Server.UploadDir, store, log)

	stages := pipeline.Stages{
		Attribution: reps,
		Validator:   validateapplicationdata.NewHandler(log),
		Assembler:   assemblesubmission.NewHandler(log),
		Storer:      storeapplication.NewHandler(store, log),
		Files:       files,
	}
	if cfg.PDF.Enabled {
		stages.Renderer = rendersummarypdf.NewHandler(rendersummarypdf.DefaultConfig(), log)
	}
	if notifier, err := newNotifier(ctx, cfg, log); err != nil {
		zapLog.Fatal("notifier init failed", zap.Error(err))
	} else {
		stages.Notifier = notifier
	}

	srv := server.New(server.Options{
		BaseURL:        cfg.Server.BaseURL,
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
	}, server.Dependencies{
		Pipeline: pipeline.New(stages, store, obs, log),
		Store:    store,
		Reps:     reps,
		Files:    files,
		Limiter:  limiter,
	}, log)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := srv.Router()
	if err != nil {
		zapLog.Fatal("router init failed", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", httpServer.Addr), zap.String("baseUrl", cfg.Server.BaseURL))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Intake server stopped gracefully")
}

func openStore(ctx context.Context, cfg *config.Config) (storeapplication.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pg, err := database.OpenPostgres(ctx, cfg.Database.Postgres)
		if err != nil {
			return nil, nil, err
		}
		store := storeapplication.NewPostgresStore(pg.DB, cfg.Store.ApplicationsTable, cfg.Store.FilesTable)
		if err := store.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return store, func() { pg.Close() }, nil

	default:
		client, err := supabase.New(supabase.Config{
			URL:        cfg.Store.Supabase.URL,
			APIKey:     cfg.Store.Supabase.ServiceRole,
			HTTPClient: httpclient.NewClient(config.GetDuration(cfg.Store.Timeout), cfg.App.Name),
		})
		if err != nil {
			return nil, nil, err
		}
		store := storeapplication.NewSupabaseStore(client, cfg.Store.ApplicationsTable, cfg.Store.FilesTable)
		return store, func() {}, nil
	}
}

// newNotifier returns nil when neither email nor SMS is enabled.
func newNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) (*sendnotification.Handler, error) {
	n := cfg.Notifications
	if !n.Email.Enabled && !n.SMS.Enabled {
		return nil, nil
	}

	ncfg := &sendnotification.Config{
		EmailEnabled:  n.Email.Enabled,
		Provider:      n.Email.Provider,
		FromEmail:     n.Email.FromEmail,
		TeamAddress:   n.Email.TeamAddress,
		SubjectPrefix: n.Email.SubjectPrefix,
		SMSEnabled:    n.SMS.Enabled,
		TeamPhone:     n.SMS.TeamPhone,
		BaseURL:       cfg.Server.BaseURL,
		Timeout:       config.GetDuration(n.Timeout),
	}

	var deps sendnotification.Dependencies
	if n.Email.Enabled {
		switch n.Email.Provider {
		case config.EmailProviderSES:
			sesClient, err := awsclients.NewSESClient(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.ConfigurationSet)
			if err != nil {
				return nil, err
			}
			deps.SESClient = sesClient
		default:
			smtp := cfg.Integrations.SMTP
			deps.Mailer = sendnotification.NewSMTPMailer(smtp.Host, smtp.Port, smtp.Username, smtp.Password)
		}
	}
	if n.SMS.Enabled {
		snsClient, err := awsclients.NewSNSClient(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SMSSenderID)
		if err != nil {
			return nil, err
		}
		deps.SNSClient = snsClient
	}

	return sendnotification.NewHandler(ncfg, deps, log), nil
}
