package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	LLM      LLMConfig
	Dialogue DialogueConfig
	Catalog  CatalogConfig
	Session  SessionConfig
}

// LLMConfig selects the provider and model explicitly so interpretation
// results are reproducible given the same inputs.
type LLMConfig struct {
	Provider    string
	Model       string
	Timeout     time.Duration
	MaxAttempts int
	RetryBase   time.Duration
}

type DialogueConfig struct {
	MaxTurns   int
	SessionTTL time.Duration
}

type CatalogConfig struct {
	Source      string // builtin | file | postgres | s3
	Path        string
	DatabaseURL string
	CacheTTL    time.Duration
	S3          S3Config
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Object    string
	UseSSL    bool
}

type SessionConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port: *port,
		Env:  env,
		LLM: LLMConfig{
			Provider:    firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_PROVIDER")), "fake"),
			Model:       firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_MODEL")), "gemini-2.0-flash"),
			Timeout:     durationEnv("LLM_TIMEOUT", 45*time.Second),
			MaxAttempts: intEnv("LLM_MAX_ATTEMPTS", 3),
			RetryBase:   durationEnv("LLM_RETRY_BASE", 300*time.Millisecond),
		},
		Dialogue: DialogueConfig{
			MaxTurns:   intEnv("DIALOGUE_MAX_TURNS", 5),
			SessionTTL: durationEnv("DIALOGUE_SESSION_TTL", 30*time.Minute),
		},
		Catalog: CatalogConfig{
			Source:      firstNonEmpty(strings.TrimSpace(os.Getenv("CATALOG_SOURCE")), "builtin"),
			Path:        strings.TrimSpace(os.Getenv("CATALOG_PATH")),
			DatabaseURL: strings.TrimSpace(os.Getenv("CATALOG_DATABASE_URL")),
			CacheTTL:    durationEnv("CATALOG_CACHE_TTL", 30*time.Second),
			S3:          loadS3Config(),
		},
		Session: SessionConfig{
			RedisAddr:     strings.TrimSpace(os.Getenv("SESSION_REDIS_ADDR")),
			RedisPassword: os.Getenv("SESSION_REDIS_PASSWORD"),
			RedisDB:       intEnv("SESSION_REDIS_DB", 0),
		},
	}, nil
}

func loadS3Config() S3Config {
	return S3Config{
		Endpoint:  strings.TrimSpace(os.Getenv("CATALOG_S3_ENDPOINT")),
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("CATALOG_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("CATALOG_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("CATALOG_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("CATALOG_S3_BUCKET")), "flowsmith-catalog"),
		Object:    firstNonEmpty(strings.TrimSpace(os.Getenv("CATALOG_S3_OBJECT")), "catalog.json"),
		UseSSL:    boolEnv("CATALOG_S3_USE_SSL", false),
	}
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func intEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func boolEnv(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
