package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/fmuoria/resmo/internal/api"
	"github.com/fmuoria/resmo/internal/assistant"
	"github.com/fmuoria/resmo/internal/auth"
	"github.com/fmuoria/resmo/internal/config"
	"github.com/fmuoria/resmo/internal/events"
	"github.com/fmuoria/resmo/internal/export"
	"github.com/fmuoria/resmo/internal/ingestion"
	"github.com/fmuoria/resmo/internal/llm"
	"github.com/fmuoria/resmo/internal/lock"
	resmomail "github.com/fmuoria/resmo/internal/mail"
	"github.com/fmuoria/resmo/internal/objectstore"
	"github.com/fmuoria/resmo/internal/skillcheck"
	"github.com/fmuoria/resmo/internal/storage"
	"github.com/fmuoria/resmo/internal/telemetry"
	"github.com/fmuoria/resmo/internal/workflow"
)

const serviceName = "resmo"

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func registerTracing(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) error {
	shutdown, err := telemetry.InitTracer(context.Background(), serviceName, cfg.OTELCollectorURL, logger)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			shutdown(ctx)
			return nil
		},
	})
	return nil
}

func newGateway(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (llm.Gateway, error) {
	ctx := context.Background()

	var gateway llm.Gateway
	switch cfg.AIProvider {
	case "gemini":
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		gateway = client
	default:
		client, err := llm.NewVertexAIClient(ctx, llm.VertexConfig{
			ProjectID:       cfg.GoogleCloudProject,
			Location:        cfg.GoogleCloudLocation,
			Model:           cfg.Model,
			CredentialsFile: cfg.GoogleCredentialsPath,
		})
		if err != nil {
			return nil, err
		}
		gateway = client
	}

	logger.Info("AI gateway ready", zap.String("provider", cfg.AIProvider), zap.String("model", cfg.Model))
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error { return gateway.Close() },
	})
	return gateway, nil
}

func newRepository(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (storage.Repository, error) {
	repo, err := openRepository(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error { return repo.Close() },
	})
	return repo, nil
}

func openRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Repository, error) {
	var repo storage.Repository
	switch cfg.StoreDriver {
	case "postgres":
		pg, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{DSN: cfg.DatabaseURL})
		if err != nil {
			return nil, err
		}
		if err := storage.RunMigrations(ctx, pg.Pool(), storage.Migrations(), logger); err != nil {
			pg.Close()
			return nil, err
		}
		repo = pg
	default:
		repo = storage.NewMemoryRepository()
	}

	if cfg.SeedOnStart {
		if err := seedRepository(ctx, repo, cfg.SeedFile, logger); err != nil {
			repo.Close()
			return nil, err
		}
	}

	logger.Info("candidate store ready", zap.String("driver", cfg.StoreDriver))
	return repo, nil
}

func seedRepository(ctx context.Context, repo storage.Repository, seedFile string, logger *zap.Logger) error {
	now := time.Now()
	candidates, err := storage.DefaultSeed(now)
	if seedFile != "" {
		candidates, err = storage.LoadSeedFile(seedFile, now)
	}
	if err != nil {
		return err
	}
	_, err = storage.Seed(ctx, repo, candidates, logger)
	return err
}

func newLocker(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (lock.Locker, error) {
	if cfg.LockDriver != "redis" {
		return lock.NewMemoryLocker(), nil
	}

	client, err := lock.NewRedisClient(context.Background(), cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error { return client.Close() },
	})
	return lock.NewRedisLocker(client, cfg.LockTTL.Duration, logger), nil
}

func newPublisher(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (events.Publisher, error) {
	var publisher events.Publisher
	switch cfg.EventsDriver {
	case "nats":
		p, err := events.NewNATSPublisher(cfg.NATSURL, 5*time.Second, logger)
		if err != nil {
			return nil, err
		}
		publisher = p
	case "amqp":
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return nil, err
		}
		publisher = p
	default:
		publisher = events.NewLogPublisher(logger)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error { return publisher.Close() },
	})
	return publisher, nil
}

func newBlobStore(cfg *config.Config) (objectstore.Store, error) {
	if cfg.BlobDriver == "s3" {
		return objectstore.NewS3Store(context.Background(), objectstore.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return objectstore.NewLocalStore(cfg.UploadsDir), nil
}

// newMail returns the outgoing sender and, with Gmail configured, the inbox
// used for application imports.
func newMail(cfg *config.Config, logger *zap.Logger) (resmomail.Sender, workflow.Inbox, error) {
	if cfg.MailDriver != "gmail" {
		return resmomail.NewLogSender(logger), nil, nil
	}

	client, err := resmomail.NewGmailClient(context.Background(), cfg.GmailCredentialsPath, cfg.GmailTokenPath, cfg.MailFrom, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, client, nil
}

func newExtractor(cfg *config.Config) *ingestion.Extractor {
	return ingestion.NewExtractor(ingestion.NewPopplerRenderer(cfg.PDFToPPMPath))
}

func newSessionStore(cfg *config.Config) *skillcheck.SessionStore {
	return skillcheck.NewSessionStore(cfg.SkillCheckTTL.Duration, time.Now)
}

func newAuthService(cfg *config.Config, repo storage.Repository) *auth.Service {
	return auth.NewService(cfg.AuthPassword, repo, auth.DefaultSessionTTL, time.Now)
}

type engineParams struct {
	fx.In

	Config    *config.Config
	Logger    *zap.Logger
	Repo      storage.Repository
	Locker    lock.Locker
	Assistant *assistant.Assistant
	Extractor *ingestion.Extractor
	Blobs     objectstore.Store
	Publisher events.Publisher
	Sender    resmomail.Sender
	Inbox     workflow.Inbox
	Sessions  *skillcheck.SessionStore
}

func newEngine(p engineParams) *workflow.Engine {
	return workflow.New(workflow.Deps{
		Repo:      p.Repo,
		Locker:    p.Locker,
		Assistant: p.Assistant,
		Extractor: p.Extractor,
		Blobs:     p.Blobs,
		Publisher: p.Publisher,
		Sender:    p.Sender,
		Inbox:     p.Inbox,
		Sessions:  p.Sessions,
		Logger:    p.Logger,
		AITimeout: p.Config.AITimeout.Duration,
		MailFrom:  p.Config.MailFrom,
	})
}

func newAPIServer(engine *workflow.Engine, authService *auth.Service, repo storage.Repository, logger *zap.Logger) *api.Server {
	return api.NewServer(engine, authService, repo, logger)
}

func registerHTTPServer(lc fx.Lifecycle, cfg *config.Config, server *api.Server, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
			}
			logger.Info("starting Resmo", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down server")
			return srv.Shutdown(ctx)
		},
	})
}

func main() {
	initConfig := flag.Bool("init-config", false, "write a default config file and exit")
	gmailAuth := flag.Bool("gmail-auth", false, "authorize Gmail access and store the token")
	exportPath := flag.String("export", "", "write the pipeline report to this .xlsx path and exit")
	flag.Parse()

	switch {
	case *exportPath != "":
		if err := runExport(*exportPath); err != nil {
			log.Fatal(err)
		}
		return
	case *initConfig:
		if err := writeDefaultConfig(); err != nil {
			log.Fatal(err)
		}
		return
	case *gmailAuth:
		if err := authorizeGmail(); err != nil {
			log.Fatal(err)
		}
		return
	}

	app := fx.New(
		fx.Provide(
			config.Load,
			newLogger,
			newGateway,
			newRepository,
			newLocker,
			newPublisher,
			newBlobStore,
			newMail,
			newExtractor,
			newSessionStore,
			newAuthService,
			assistant.New,
			newEngine,
			newAPIServer,
		),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Invoke(registerTracing, registerHTTPServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}

	<-app.Done()

	if err := app.Stop(context.Background()); err != nil {
		log.Fatal(err)
	}
}

func writeDefaultConfig() error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := config.DefaultConfig().SaveTo(path); err != nil {
		return err
	}
	fmt.Printf("Wrote default config to %s\n", path)
	return nil
}

func runExport(outputPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	return exportPipeline(context.Background(), cfg, outputPath, time.Now(), logger)
}

// exportPipeline writes the pipeline workbook for every stored candidate.
func exportPipeline(ctx context.Context, cfg *config.Config, outputPath string, now time.Time, logger *zap.Logger) error {
	repo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	candidates, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if err := export.ExportToExcel(candidates, outputPath, now); err != nil {
		return err
	}
	logger.Info("pipeline report exported", zap.String("path", outputPath), zap.Int("candidates", len(candidates)))
	return nil
}

func authorizeGmail() error {
	cfg, err := config.LoadUnvalidated()
	if err != nil {
		return err
	}
	if cfg.GmailCredentialsPath == "" {
		return fmt.Errorf("set GMAIL_CREDENTIALS to the OAuth client credentials file")
	}
	return resmomail.Authorize(context.Background(), cfg.GmailCredentialsPath, cfg.GmailTokenPath, os.Stdin, os.Stdout)
}
