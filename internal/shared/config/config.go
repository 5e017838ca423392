package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string   `yaml:"port"`
	Env             string   `yaml:"env"`
	LogLevel        string   `yaml:"log_level"`
	CORSAllowOrigin []string `yaml:"cors_allow_origins"`
	DatabaseURL     string   `yaml:"database_url"`

	ObjectStoreType string `yaml:"object_store"`
	LocalStoreDir   string `yaml:"local_store_dir"`
	AWSRegion       string `yaml:"aws_region"`
	S3Bucket        string `yaml:"s3_bucket"`
	S3Prefix        string `yaml:"s3_prefix"`
	SSEKMSKeyID     string `yaml:"sse_kms_key_id"`
	ArtifactSink    string `yaml:"artifact_sink"`

	LLM     LLMConfig     `yaml:"llm"`
	Sources SourcesConfig `yaml:"sources"`

	OperatorsDataPath string `yaml:"operators_data_path"`
	ReferenceDataPath string `yaml:"reference_data_path"`

	AnalyzeRate  float64 `yaml:"analyze_rate"`
	AnalyzeBurst int     `yaml:"analyze_burst"`
}

// LLMConfig selects the completion backend and the models callers may request.
type LLMConfig struct {
	Provider      string        `yaml:"provider"`
	Model         string        `yaml:"model"`
	AllowedModels []string      `yaml:"allowed_models"`
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	OllamaURL     string        `yaml:"ollama_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

// SourcesConfig covers the remote open-data endpoints.
type SourcesConfig struct {
	GeoURL        string        `yaml:"geo_url"`
	GeorisquesURL string        `yaml:"georisques_url"`
	WorldBankURL  string        `yaml:"world_bank_url"`
	GeoTimeout    time.Duration `yaml:"geo_timeout"`
	RiskTimeout   time.Duration `yaml:"risk_timeout"`
	MacroTimeout  time.Duration `yaml:"macro_timeout"`
	StatsTimeout  time.Duration `yaml:"stats_timeout"`
	RPS           float64       `yaml:"rps"`
	Burst         int           `yaml:"burst"`
}

// Defaults returns the baseline configuration before files and env are applied.
func Defaults() Config {
	return Config{
		Port:            "8080",
		Env:             "dev",
		LogLevel:        "info",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		ObjectStoreType: "local",
		LocalStoreDir:   "./data",
		ArtifactSink:    "object",
		LLM: LLMConfig{
			Provider:  "ollama",
			Model:     "deepseek-r1:8b",
			OllamaURL: "http://localhost:11434",
			Timeout:   60 * time.Second,
		},
		Sources: SourcesConfig{
			GeoURL:        "https://geo.api.gouv.fr/communes",
			GeorisquesURL: "https://www.georisques.gouv.fr/api/v1",
			WorldBankURL:  "https://api.worldbank.org/v2",
			GeoTimeout:    10 * time.Second,
			RiskTimeout:   10 * time.Second,
			MacroTimeout:  15 * time.Second,
			StatsTimeout:  10 * time.Second,
			RPS:           10,
			Burst:         5,
		},
		OperatorsDataPath: "./data/operateurs-locaux.json",
		ReferenceDataPath: "./data/donnees-bio.json",
		AnalyzeRate:       0.5,
		AnalyzeBurst:      5,
	}
}

// Load reads configuration from defaults, an optional YAML file and environment variables.
// Environment variables win over the file.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			log.Printf("config file %s ignored: %v", path, err)
		}
	}
	applyEnv(&cfg)

	cfg.Env = normalizeEnv(cfg.Env)
	cfg.ObjectStoreType = normalizeStoreType(cfg.ObjectStoreType)
	cfg.ArtifactSink = normalizeSink(cfg.ArtifactSink)
	cfg.LLM.Provider = normalizeProvider(cfg.LLM.Provider)
	cfg.LLM.Timeout = clampLLMTimeout(cfg.LLM.Timeout, cfg.Sources)

	if cfg.Env == "production" && cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	return cfg
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Env = getEnv("ENV", cfg.Env)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	if raw := os.Getenv("CORS_ALLOW_ORIGINS"); raw != "" {
		cfg.CORSAllowOrigin = splitAndTrim(raw)
	}
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)

	cfg.ObjectStoreType = getEnv("OBJECT_STORE", cfg.ObjectStoreType)
	cfg.LocalStoreDir = getEnv("LOCAL_STORE_DIR", cfg.LocalStoreDir)
	cfg.AWSRegion = getEnv("AWS_REGION", cfg.AWSRegion)
	cfg.S3Bucket = getEnv("S3_BUCKET", cfg.S3Bucket)
	cfg.S3Prefix = getEnv("S3_PREFIX", cfg.S3Prefix)
	cfg.SSEKMSKeyID = getEnv("SSE_KMS_KEY_ID", cfg.SSEKMSKeyID)
	cfg.ArtifactSink = getEnv("ARTIFACT_SINK", cfg.ArtifactSink)

	cfg.LLM.Provider = getEnv("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	if raw := os.Getenv("LLM_ALLOWED_MODELS"); raw != "" {
		cfg.LLM.AllowedModels = splitAndTrim(raw)
	}
	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = getEnv("OPENAI_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.OllamaURL = getEnv("OLLAMA_URL", cfg.LLM.OllamaURL)
	cfg.LLM.Timeout = getDuration("LLM_TIMEOUT", cfg.LLM.Timeout)

	cfg.Sources.GeoURL = getEnv("GEO_API_URL", cfg.Sources.GeoURL)
	cfg.Sources.GeorisquesURL = getEnv("GEORISQUES_API_URL", cfg.Sources.GeorisquesURL)
	cfg.Sources.WorldBankURL = getEnv("WORLD_BANK_API_URL", cfg.Sources.WorldBankURL)
	cfg.Sources.GeoTimeout = getDuration("GEO_TIMEOUT", cfg.Sources.GeoTimeout)
	cfg.Sources.RiskTimeout = getDuration("RISK_TIMEOUT", cfg.Sources.RiskTimeout)
	cfg.Sources.MacroTimeout = getDuration("MACRO_TIMEOUT", cfg.Sources.MacroTimeout)
	cfg.Sources.StatsTimeout = getDuration("STATS_TIMEOUT", cfg.Sources.StatsTimeout)
	cfg.Sources.RPS = getFloat("OUTBOUND_RPS", cfg.Sources.RPS)
	cfg.Sources.Burst = getInt("OUTBOUND_BURST", cfg.Sources.Burst)

	cfg.OperatorsDataPath = getEnv("OPERATORS_DATA_PATH", cfg.OperatorsDataPath)
	cfg.ReferenceDataPath = getEnv("REFERENCE_DATA_PATH", cfg.ReferenceDataPath)
	cfg.AnalyzeRate = getFloat("ANALYZE_RATE", cfg.AnalyzeRate)
	cfg.AnalyzeBurst = getInt("ANALYZE_BURST", cfg.AnalyzeBurst)
}

// clampLLMTimeout keeps the completion budget >= the geo and risk timeouts.
func clampLLMTimeout(llmTimeout time.Duration, src SourcesConfig) time.Duration {
	floor := src.GeoTimeout
	if src.RiskTimeout > floor {
		floor = src.RiskTimeout
	}
	if llmTimeout < floor {
		log.Printf("LLM_TIMEOUT %s below source timeout %s, raising", llmTimeout, floor)
		return floor
	}
	return llmTimeout
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	// bare integers are seconds
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Printf("config env %s invalid duration %q", key, raw)
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config env %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config env %s invalid float: %v", key, err)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeSink(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "both":
		return "both"
	case "none", "off":
		return "none"
	default:
		return "object"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "eino", "openai-compatible":
		return "eino"
	case "none", "off":
		return "none"
	default:
		return "ollama"
	}
}
