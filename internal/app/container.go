package app

import (
	"context"
	"log"
	"time"

	"jobradar/internal/config"
	"jobradar/internal/database"
	dbpostgres "jobradar/internal/database/postgres"
	"jobradar/internal/discovery"
	"jobradar/internal/enrich"
	"jobradar/internal/enrich/openai"
	"jobradar/internal/export"
	"jobradar/internal/export/notion"
	"jobradar/internal/fitness"
	"jobradar/internal/infrastructure/cache"
	"jobradar/internal/ingest"
	"jobradar/internal/pkg/jwt"
	"jobradar/internal/profile"
	"jobradar/internal/quota"
	"jobradar/internal/repository"
	"jobradar/internal/scraper"
	"jobradar/internal/usecase"
	"jobradar/internal/ws"
)

const crawlUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// Container wires configuration, infrastructure and services once, for all
// three binaries.
type Container struct {
	Config config.Config
	DB     database.DB
	Cache  *cache.Redis
	Logger *log.Logger

	JWT jwt.Service
	Hub *ws.Hub

	Runner    *ingest.Runner
	ExportSvc *export.Service

	AuthUC    usecase.AuthUsecase
	JobsUC    usecase.JobListUsecase
	SourcesUC usecase.SourceUsecase
	RunsUC    usecase.RunUsecase
}

func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	redisCache := cache.NewRedis(logger)

	jobRepo := repository.NewPostgresJobRepository(db)
	sourceRepo := repository.NewPostgresSourceRepository(db)
	profileRepo := repository.NewPostgresProfileRepository(db)
	relevanceRepo := repository.NewPostgresRelevanceRepository(db)
	enrichmentRepo := repository.NewPostgresEnrichmentRepository(db)
	quotaRepo := repository.NewPostgresQuotaRepository(db)

	ledger := quota.NewLedger(quotaRepo)
	upserter := ingest.NewUpserter(jobRepo, ledger, cfg.Ingest.MaxNewJobsPerDay)

	greenhouse := scraper.NewGreenhouseClient(cfg.Ingest.RequestTimeout)
	lever := scraper.NewLeverClient(cfg.Ingest.RequestTimeout)

	runner := ingest.NewRunner(cfg.Ingest, sourceRepo, upserter, ledger, greenhouse, lever, logger)

	var profileStage ingest.ProfileStage
	if cfg.Profile.CVPath != "" {
		profileStage = profile.NewService(profileRepo, relevanceRepo, cfg.Profile.CVPath, logger)
	}

	var enrichStage ingest.EnrichStage
	if cfg.Enrich.Enabled {
		model, err := openai.NewClient(cfg.Enrich.APIKey, cfg.Enrich.Model, cfg.Enrich.BaseURL, cfg.Ingest.RequestTimeout)
		if err != nil {
			return nil, err
		}
		enrichStage = enrich.NewService(enrichmentRepo, model, cfg.Enrich.Limit, logger)
	}

	scoreStage := fitness.NewService(jobRepo, profileRepo, relevanceRepo, 0, logger)

	var exportSvc *export.Service
	var exportStage ingest.ExportStage
	if cfg.Export.Enabled {
		board, err := notion.NewClient(cfg.Export.NotionToken, cfg.Export.NotionVersion, cfg.Export.NotionDataSource, cfg.Ingest.RequestTimeout)
		if err != nil {
			return nil, err
		}
		exportSvc = export.NewService(relevanceRepo, profileRepo, board, cfg.Export.FitMin, cfg.Export.SyncLimit, logger)
		exportStage = exportSvc
	}

	runner.WithStages(profileStage, enrichStage, scoreStage, exportStage)

	hub := ws.NewHub(logger)
	go hub.Run()
	runner.WithNotifier(ws.NewRunNotifier(hub))

	finder := discovery.NewCareersFinder(crawlUserAgent, cfg.Ingest.RequestTimeout)
	headless := discovery.NewHeadlessFetcher(cfg.Ingest.RequestTimeout)
	prober := discovery.NewClientProber(greenhouse, lever)
	discoverySvc := discovery.NewService(sourceRepo, finder, headless, prober, logger)

	jwtSvc := jwt.NewHMACService(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiresIn,
		cfg.JWT.RefreshExpiresIn,
	)

	c := &Container{
		Config:    cfg,
		DB:        db,
		Cache:     redisCache,
		Logger:    logger,
		JWT:       jwtSvc,
		Hub:       hub,
		Runner:    runner,
		ExportSvc: exportSvc,
		AuthUC:    usecase.NewAuthService(cfg.JWT.AdminKey, jwtSvc),
		JobsUC:    usecase.NewJobListService(jobRepo, redisCache),
		SourcesUC: usecase.NewSourceService(sourceRepo, discoverySvc, redisCache),
		RunsUC:    usecase.NewRunService(runner, redisCache, 30*time.Minute, logger),
	}
	return c, nil
}

func (c *Container) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
