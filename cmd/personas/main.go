package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/dmoraru/personas/internal/ai"
	"github.com/dmoraru/personas/internal/config"
	"github.com/dmoraru/personas/internal/filestore"
	"github.com/dmoraru/personas/internal/handler"
	"github.com/dmoraru/personas/internal/ingest"
	"github.com/dmoraru/personas/internal/job"
	"github.com/dmoraru/personas/internal/middleware"
	"github.com/dmoraru/personas/internal/model"
	"github.com/dmoraru/personas/internal/repo"
	"github.com/dmoraru/personas/internal/retrieval"
	"github.com/dmoraru/personas/internal/schedule"
	"github.com/dmoraru/personas/internal/seed"
	"github.com/dmoraru/personas/internal/service"
	"github.com/dmoraru/personas/internal/worker"

	"github.com/google/uuid"
)

const embedConcurrency = 8

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "personas",
		Short: "personas backend server",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the personas server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := setup(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg, db)
		},
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "install the built-in personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := setup(configPath)
			if err != nil {
				return err
			}
			return seed.Run(context.Background(), repo.NewPersonaRepo(db), cfg.DataDir)
		},
	}

	var ingestPersona string
	var ingestTypes string
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "rebuild a persona's collections synchronously",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ingestPersona == "" {
				return fmt.Errorf("--persona is required")
			}
			cfg, db, err := setup(configPath)
			if err != nil {
				return err
			}
			return runIngest(cfg, db, ingestPersona, ingestTypes)
		},
	}
	ingestCmd.Flags().StringVar(&ingestPersona, "persona", "", "persona slug to ingest")
	ingestCmd.Flags().StringVar(&ingestTypes, "types", "", "comma separated collection types, empty means all")

	rootCmd.AddCommand(runCmd, seedCmd, ingestCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func setup(configPath string) (*config.Config, *sql.DB, error) {
	if configPath == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

	db, err := repo.Open(cfg.DBDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := repo.ApplyMigrations(db); err != nil {
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return cfg, db, nil
}

// reloadFanout propagates an ingestion reload to both caches: the retriever
// cache picks up new collections, the answer cache drops stale answers.
type reloadFanout struct {
	cache   *retrieval.Cache
	queries *service.QueryService
}

func (r *reloadFanout) Reload(personaID string) {
	r.cache.Reload(personaID)
	if r.queries != nil {
		r.queries.InvalidateAnswers()
	}
}

func buildGenerators(entries []config.AIProviderEntry) (ai.IGenerator, error) {
	items := make([]ai.GeneratorEntry, 0, len(entries))
	for _, entry := range entries {
		provider, err := ai.NewProvider(entry.Provider, entry.Args)
		if err != nil {
			return nil, fmt.Errorf("init synthesis provider %s: %w", entry.Provider, err)
		}
		items = append(items, ai.GeneratorEntry{
			Name:      entry.Provider + "/" + entry.Model,
			Generator: ai.NewGenerator(provider, entry.Model),
		})
	}
	return ai.NewGroupGenerator(items), nil
}

func buildEmbedders(entries []config.AIProviderEntry) (ai.IEmbedder, error) {
	items := make([]ai.EmbedderEntry, 0, len(entries))
	for _, entry := range entries {
		provider, err := ai.NewEmbedProvider(entry.Provider, entry.Args)
		if err != nil {
			return nil, fmt.Errorf("init embedding provider %s: %w", entry.Provider, err)
		}
		items = append(items, ai.EmbedderEntry{
			Name:     entry.Provider + "/" + entry.Model,
			Embedder: ai.NewEmbedder(provider, entry.Model),
		})
	}
	return ai.NewGroupEmbedder(items), nil
}

func runServer(cfg *config.Config, db *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("data_dir", cfg.DataDir),
		zap.String("file_store", cfg.FileStore.Type),
	)

	personaRepo := repo.NewPersonaRepo(db)
	jobRepo := repo.NewIngestionJobRepo(db)
	vectorRepo := repo.NewVectorRepo(db)
	sourceRepo := repo.NewDataSourceRepo(db)
	embedCacheRepo := repo.NewEmbeddingCacheRepo(db)

	generator, err := buildGenerators(cfg.AI.Synthesis)
	if err != nil {
		return err
	}
	embedderChain, err := buildEmbedders(cfg.AI.Embedding)
	if err != nil {
		return err
	}
	embedder := ingest.NewCachedEmbedder(embedderChain, embedCacheRepo)

	retrieverCache, err := retrieval.NewCache(personaRepo, vectorRepo, embedder, cfg.Retrieval)
	if err != nil {
		return fmt.Errorf("init retriever cache: %w", err)
	}
	searcher := retrieval.NewSearcher(retrieverCache)
	synthesizer := ai.NewSynthesizer(generator, time.Duration(cfg.AI.TimeoutSeconds)*time.Second)
	queryService := service.NewQueryService(personaRepo, searcher, synthesizer,
		time.Duration(cfg.AI.AnswerCacheTTL)*time.Minute)

	embedPool, err := ants.NewPool(embedConcurrency)
	if err != nil {
		return fmt.Errorf("init embed pool: %w", err)
	}
	defer embedPool.Release()
	pipeline := ingest.NewPipeline(vectorRepo, embedder, embedPool, cfg.DataDir, cfg.Retrieval)

	reloader := &reloadFanout{cache: retrieverCache, queries: queryService}
	runner := worker.NewRunner(jobRepo, personaRepo, pipeline, reloader,
		time.Duration(cfg.Worker.SoftLimitMinutes)*time.Minute)
	dispatcher, err := worker.NewDispatcher(cfg.Worker.PoolSize, runner, personaRepo)
	if err != nil {
		return fmt.Errorf("init dispatcher: %w", err)
	}
	defer dispatcher.Close()

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	var mirror filestore.Store
	if cfg.FileStore.Mirror != nil {
		mirror, err = filestore.New(*cfg.FileStore.Mirror)
		if err != nil {
			return fmt.Errorf("init mirror store: %w", err)
		}
	}

	authService := service.NewAuthService(cfg.AdminPassword, []byte(cfg.JWTSecret),
		time.Hour*time.Duration(cfg.JWTTTLHours))
	personaService := service.NewPersonaService(personaRepo, sourceRepo, vectorRepo, retrieverCache, cfg.DataDir)
	uploadService := service.NewUploadService(store, mirror, sourceRepo, personaRepo)
	ingestionService := service.NewIngestionService(jobRepo, personaRepo, vectorRepo, dispatcher)

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewStaleJobSweeper(jobRepo, personaRepo,
		time.Duration(cfg.Worker.HardLimitMinutes)*time.Minute), cfg.Jobs.StaleJobSweepSpec); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(embedCacheRepo,
		cfg.Jobs.EmbedCacheMaxAgeDays), cfg.Jobs.EmbedCacheCleanSpec); err != nil {
		return err
	}

	deps := handler.RouterDeps{
		Auth:            handler.NewAuthHandler(authService),
		Personas:        handler.NewPersonaHandler(personaService),
		Ingestion:       handler.NewIngestionHandler(ingestionService),
		Uploads:         handler.NewUploadHandler(uploadService, cfg.MaxUploadBytes),
		Query:           handler.NewQueryHandler(queryService),
		JWTSecret:       []byte(cfg.JWTSecret),
		APIKey:          cfg.APIKey,
		RateLimitWindow: time.Duration(cfg.RateLimitSecond) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

// runIngest rebuilds the requested collections in process, through the same
// ledger the server uses, so progress and status stay visible over the API.
func runIngest(cfg *config.Config, db *sql.DB, personaID string, typeList string) error {
	ctx := context.Background()

	personaRepo := repo.NewPersonaRepo(db)
	jobRepo := repo.NewIngestionJobRepo(db)
	vectorRepo := repo.NewVectorRepo(db)
	embedCacheRepo := repo.NewEmbeddingCacheRepo(db)

	if _, err := personaRepo.Get(ctx, personaID); err != nil {
		return err
	}
	types := model.AllCollectionTypes()
	if typeList != "" {
		types = types[:0]
		for _, raw := range strings.Split(typeList, ",") {
			ctype, ok := model.ParseCollectionType(strings.TrimSpace(raw))
			if !ok {
				return fmt.Errorf("unknown collection type %q", raw)
			}
			types = append(types, ctype)
		}
	}

	embedderChain, err := buildEmbedders(cfg.AI.Embedding)
	if err != nil {
		return err
	}
	embedder := ingest.NewCachedEmbedder(embedderChain, embedCacheRepo)
	retrieverCache, err := retrieval.NewCache(personaRepo, vectorRepo, embedder, cfg.Retrieval)
	if err != nil {
		return fmt.Errorf("init retriever cache: %w", err)
	}

	embedPool, err := ants.NewPool(embedConcurrency)
	if err != nil {
		return fmt.Errorf("init embed pool: %w", err)
	}
	defer embedPool.Release()
	pipeline := ingest.NewPipeline(vectorRepo, embedder, embedPool, cfg.DataDir, cfg.Retrieval)
	runner := worker.NewRunner(jobRepo, personaRepo, pipeline,
		&reloadFanout{cache: retrieverCache},
		time.Duration(cfg.Worker.SoftLimitMinutes)*time.Minute)

	active, err := jobRepo.CountActive(ctx, personaID)
	if err != nil {
		return err
	}
	if active > 0 {
		return fmt.Errorf("persona has %d active ingestion jobs", active)
	}

	batchID := uuid.NewString()
	now := time.Now().UnixMilli()
	jobs := make([]*model.IngestionJob, 0, len(types))
	for _, ctype := range types {
		jobs = append(jobs, &model.IngestionJob{
			ID:             uuid.NewString(),
			PersonaID:      personaID,
			BatchID:        batchID,
			CollectionType: ctype,
			Status:         model.JobStatusPending,
			Ctime:          now,
		})
	}
	if err := jobRepo.CreateBatch(ctx, jobs); err != nil {
		return err
	}
	if err := personaRepo.UpdateStatus(ctx, personaID, model.PersonaStatusIngesting); err != nil {
		return err
	}
	for _, j := range jobs {
		runner.Run(ctx, j)
	}

	status := "done"
	for _, j := range jobs {
		refreshed, err := jobRepo.Get(ctx, j.ID)
		if err != nil {
			return err
		}
		if refreshed.Status != model.JobStatusCompleted {
			status = "failed"
		}
	}
	logutil.GetLogger(ctx).Info("ingestion finished",
		zap.String("persona", personaID),
		zap.String("batch_id", batchID),
		zap.String("result", status))
	if status != "done" {
		return fmt.Errorf("one or more ingestion jobs failed, check ingestion status for details")
	}
	return nil
}
