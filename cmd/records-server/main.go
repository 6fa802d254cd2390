package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/patientdocs/api/internal/config"
	"github.com/patientdocs/api/internal/domain/accounting"
	"github.com/patientdocs/api/internal/domain/billing"
	"github.com/patientdocs/api/internal/domain/catalog"
	"github.com/patientdocs/api/internal/domain/dlreport"
	"github.com/patientdocs/api/internal/domain/document"
	"github.com/patientdocs/api/internal/domain/encounter"
	"github.com/patientdocs/api/internal/domain/patient"
	"github.com/patientdocs/api/internal/domain/prescription"
	"github.com/patientdocs/api/internal/platform/access"
	"github.com/patientdocs/api/internal/platform/auth"
	"github.com/patientdocs/api/internal/platform/db"
	"github.com/patientdocs/api/internal/platform/mail"
	"github.com/patientdocs/api/internal/platform/middleware"
	"github.com/patientdocs/api/internal/platform/render"
	"github.com/patientdocs/api/internal/platform/upload"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "records-server",
		Short: "Clinic patient records API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the records API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Shared infrastructure
	renderer, err := render.New()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse templates")
	}

	store, err := upload.NewDiskStore(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open upload store")
	}

	var mailer mail.Mailer = mail.NopMailer{}
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	} else {
		logger.Warn().Msg("SMTP_HOST not set, outgoing mail is disabled")
	}

	nonces := auth.NewNonces(cfg.NonceSecret, cfg.NonceTTL)

	txRunner := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M", fmt.Sprintf("%d", cfg.MaxUploadBytes+(1<<20))))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", auth.NonceHeader},
	}))

	// Health endpoints stay outside the authenticated groups.
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Auth middleware
	var authMW echo.MiddlewareFunc
	if cfg.IsDev() {
		authMW = auth.DevAuthMiddleware()
	} else {
		authMW = auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
		})
	}

	// API groups
	apiV1 := e.Group("/api/v1", authMW, middleware.Audit(logger))
	fragments := e.Group("/fragments", authMW, middleware.Audit(logger))

	apiV1.GET("/nonce", auth.IssueHandler(nonces))

	// Encounters and appointments
	encounterRepo := encounter.NewPgRepository(pool)
	encounterSvc := encounter.NewService(encounterRepo)
	checker := access.NewChecker(encounterSvc, cfg.AccessCacheTTL)
	encounterHandler := encounter.NewHandler(encounterSvc, checker, renderer, cfg.DebugMode)
	encounterHandler.RegisterRoutes(apiV1, fragments, nonces)

	// Patients
	patientRepo := patient.NewPgRepository(pool)
	patientSvc := patient.NewService(patientRepo)
	patientHandler := patient.NewHandler(patientSvc, checker, renderer, cfg.DebugMode)
	patientHandler.RegisterRoutes(apiV1, fragments, nonces)

	// Prescriptions
	prescriptionRepo := prescription.NewPgRepository(pool)
	prescriptionSvc := prescription.NewService(prescriptionRepo)
	prescriptionHandler := prescription.NewHandler(prescriptionSvc, renderer, cfg.DebugMode)
	prescriptionHandler.RegisterRoutes(apiV1, fragments, nonces)

	// Documents, consultations, templates, medical reports
	documentRepo := document.NewPgRepository(pool)
	documentSvc := document.NewService(documentRepo, store, txRunner)
	documentHandler := document.NewHandler(documentSvc, cfg.DebugMode)
	documentHandler.RegisterRoutes(apiV1, fragments, nonces)

	// Medication dictionary and exam orders
	catalogRepo := catalog.NewPgRepository(pool)
	catalogSvc := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(catalogSvc, renderer, cfg.DebugMode)
	catalogHandler.RegisterRoutes(apiV1, fragments, nonces)

	// Bills and invoices
	billingRepo := billing.NewPgRepository(pool)
	billingSvc := billing.NewService(billingRepo, renderer, mailer, txRunner, cfg.ClinicName)
	billingHandler := billing.NewHandler(billingSvc, cfg.DebugMode)
	billingHandler.RegisterRoutes(apiV1, fragments, nonces)

	// Accounting ledger
	accountingRepo := accounting.NewPgRepository(pool)
	accountingSvc := accounting.NewService(accountingRepo)
	accountingHandler := accounting.NewHandler(accountingSvc, renderer, cfg.DebugMode)
	accountingHandler.RegisterRoutes(apiV1, fragments, nonces)

	// Driver license medical reports
	dlreportRepo := dlreport.NewPgRepository(pool)
	dlreportSvc := dlreport.NewService(dlreportRepo, store)
	dlreportHandler := dlreport.NewHandler(dlreportSvc, renderer, cfg.DebugMode)
	dlreportHandler.RegisterRoutes(apiV1, fragments, nonces)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
