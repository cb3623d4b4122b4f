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

	"github.com/epitrack/epitrack/internal/config"
	"github.com/epitrack/epitrack/internal/domain/caze"
	"github.com/epitrack/epitrack/internal/domain/clinicalvisit"
	"github.com/epitrack/epitrack/internal/domain/contact"
	"github.com/epitrack/epitrack/internal/domain/disease"
	"github.com/epitrack/epitrack/internal/domain/document"
	"github.com/epitrack/epitrack/internal/domain/event"
	"github.com/epitrack/epitrack/internal/domain/person"
	"github.com/epitrack/epitrack/internal/domain/region"
	"github.com/epitrack/epitrack/internal/domain/report"
	"github.com/epitrack/epitrack/internal/domain/sample"
	"github.com/epitrack/epitrack/internal/domain/task"
	"github.com/epitrack/epitrack/internal/domain/treatment"
	"github.com/epitrack/epitrack/internal/domain/user"
	"github.com/epitrack/epitrack/internal/domain/visit"
	"github.com/epitrack/epitrack/internal/platform/auth"
	"github.com/epitrack/epitrack/internal/platform/db"
	"github.com/epitrack/epitrack/internal/platform/middleware"
	"github.com/epitrack/epitrack/internal/platform/notification"
	"github.com/epitrack/epitrack/internal/platform/sharesync"
	"github.com/epitrack/epitrack/internal/platform/surveillance"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "epitrack-server",
		Short: "Epidemiological case consolidation and classification server",
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
		Short: "Start the case engine API server",
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
			schema, _ := cmd.Flags().GetString("schema")
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
			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "public", "Target schema for migrations")
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
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
			statuses, err := migrator.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
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
	statusCmd.Flags().String("schema", "public", "Target schema for migrations")
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Repositories
	caseRepo := caze.NewRepoPG(pool)
	personRepo := person.NewRepoPG(pool)
	contactRepo := contact.NewRepoPG(pool)
	sampleRepo := sample.NewRepoPG(pool)
	taskRepo := task.NewRepoPG(pool)
	treatmentRepo := treatment.NewRepoPG(pool)
	clinicalVisitRepo := clinicalvisit.NewRepoPG(pool)
	visitRepo := visit.NewRepoPG(pool)
	documentRepo := document.NewRepoPG(pool)
	eventRepo := event.NewRepoPG(pool)
	reportRepo := report.NewRepoPG(pool)
	regionRepo := region.NewRepoPG(pool)
	userRepo := user.NewRepoPG(pool)

	// Collaborators
	var shareQueue *sharesync.Queue
	if cfg.ShareSyncEnabled {
		shareQueue = sharesync.NewQueue(
			sharesync.NewLogSyncer(logger),
			time.Duration(cfg.ShareSyncDelaySeconds)*time.Second,
			logger,
		)
		defer shareQueue.Close()
	}

	visitSvc := visit.NewService(visitRepo, logger)
	caseSvc := caze.NewService(caze.Deps{
		Cases:          caseRepo,
		Persons:        person.NewService(personRepo),
		Contacts:       contactRepo,
		Samples:        sampleRepo,
		Tasks:          taskRepo,
		Treatments:     treatmentRepo,
		ClinicalVisits: clinicalVisitRepo,
		Visits:         visitRepo,
		VisitService:   visitSvc,
		Documents:      documentRepo,
		Events:         eventRepo,
		Reports:        report.NewService(reportRepo),
		Districts:      regionRepo,
		Users:          userRepo,
		Rules:          caze.DefaultRules{},
		DiseaseCfg:     disease.DefaultConfiguration(cfg.DefaultFollowUpDays),
		Notifier:       notification.NewLogNotifier(logger),
		Surveillance:   surveillance.NewLogGateway(logger),
		ShareSync:      shareQueue,
		TxRunner:       db.NewPoolTxRunner(pool),
		Cfg:            cfg,
		Log:            logger,
	})

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOriginList(),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", db.HealthHandler(pool))

	api := e.Group("/api/v1")
	api.Use(auth.Middleware([]byte(cfg.JWTSecret)))
	caze.NewHandler(caseSvc, userRepo).RegisterRoutes(api)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
