package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"biomarket-backend/internal/artifacts"
	"biomarket-backend/internal/collect"
	"biomarket-backend/internal/geo"
	"biomarket-backend/internal/llm"
	einollm "biomarket-backend/internal/llm/eino"
	"biomarket-backend/internal/llm/ollama"
	"biomarket-backend/internal/llm/openai"
	"biomarket-backend/internal/macro"
	"biomarket-backend/internal/operators"
	"biomarket-backend/internal/reference"
	"biomarket-backend/internal/reports"
	"biomarket-backend/internal/risks"
	"biomarket-backend/internal/services/health"
	"biomarket-backend/internal/shared/config"
	"biomarket-backend/internal/shared/httpx"
	"biomarket-backend/internal/shared/server"
	"biomarket-backend/internal/shared/storage/db"
	"biomarket-backend/internal/shared/storage/object"
	localstore "biomarket-backend/internal/shared/storage/object/local"
	s3store "biomarket-backend/internal/shared/storage/object/s3"
	"biomarket-backend/internal/stats"
	"biomarket-backend/internal/synthesis"
)

// App holds shared dependencies.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	Store     object.ObjectStore
	Collector *collect.Collector
	Engine    *synthesis.Engine
	Reports   *reports.Service
	Artifacts *artifacts.Writer
	Health    *health.Service
}

// Build wires every dependency and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	collector := BuildCollector(cfg, sqlDB)

	completer, pinger, err := buildLLM(cfg.LLM)
	if err != nil {
		return nil, err
	}
	catalog := llm.NewModelCatalog(cfg.LLM.Model, cfg.LLM.AllowedModels)
	engine := synthesis.NewEngine(llm.WithRetry(completer), catalog, cfg.LLM.Timeout)

	writer := artifacts.NewWriter(buildSink(cfg.ArtifactSink, store, sqlDB), 0)
	svc := reports.NewService(collector, engine, writer)
	healthSvc := health.NewService(pinger, catalog)

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Store:     store,
		Collector: collector,
		Engine:    engine,
		Reports:   svc,
		Artifacts: writer,
		Health:    healthSvc,
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:        cfg,
		ReportHandler: reports.NewHandler(svc),
		Health:        healthSvc,
	})
	return app, nil
}

// BuildCollector wires the open-data sources and the offline datasets. A nil
// database leaves the statistics series empty.
func BuildCollector(cfg config.Config, sqlDB *sql.DB) *collect.Collector {
	src := cfg.Sources
	// each source applies its own deadline; the transport timeout only backstops the longest
	transportTimeout := longest(src.GeoTimeout, src.RiskTimeout, src.MacroTimeout)
	hc := httpx.New(transportTimeout, httpx.WithLimiter(httpx.NewLimiter(src.RPS, src.Burst)))

	ref, err := reference.Load(cfg.ReferenceDataPath)
	if err != nil {
		log.Printf("bootstrap: reference dataset unavailable, continuing without it: %v", err)
		ref = reference.Empty()
	}

	return &collect.Collector{
		Geo:       geo.NewClient(hc, src.GeoURL, src.GeoTimeout),
		Risks:     risks.NewAggregator(hc, src.GeorisquesURL, src.RiskTimeout, ref),
		Stats:     stats.NewAggregator(sqlDB, src.StatsTimeout),
		Macro:     macro.NewClient(hc, src.WorldBankURL, src.MacroTimeout),
		Operators: operators.LoadOrEmpty(cfg.OperatorsDataPath),
		Reference: ref,
	}
}

func longest(ds ...time.Duration) time.Duration {
	var out time.Duration
	for _, d := range ds {
		if d > out {
			out = d
		}
	}
	return out
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; statistics and postgres artifacts disabled")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; continuing without it: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildSink(kind string, store object.ObjectStore, sqlDB *sql.DB) artifacts.Sink {
	objectSink := &artifacts.ObjectSink{Store: store}
	switch kind {
	case "none":
		return nil
	case "postgres", "both":
		if sqlDB == nil {
			log.Printf("bootstrap: ARTIFACT_SINK=%s without database; using object store only", kind)
			return objectSink
		}
		pg := &artifacts.PGSink{DB: sqlDB}
		if kind == "both" {
			return artifacts.Multi{objectSink, pg}
		}
		return pg
	default:
		return objectSink
	}
}

// buildLLM returns the completion backend and the probe used by /health.
func buildLLM(cfg config.LLMConfig) (llm.Completer, llm.Pinger, error) {
	switch cfg.Provider {
	case "none":
		return llm.Disabled{}, llm.Disabled{}, nil
	case "openai":
		client, err := openai.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	case "eino":
		// eino has no listing endpoint; the same OpenAI-compatible base answers /models.
		probe, err := openai.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		return einollm.NewClient(cfg.BaseURL, cfg.APIKey), probe, nil
	default:
		client := ollama.NewClient(cfg.OllamaURL, cfg.Timeout)
		return client, client, nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
