package shared

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv         string        `yaml:"app_env"`
	HTTPAddr       string        `yaml:"http_addr"`
	MetricsAddr    string        `yaml:"metrics_addr"`
	Timezone       string        `yaml:"timezone"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`

	// artifacts: "fs" reads ArtifactDir, "mysql" reads the model_artifacts table
	ArtifactSource string `yaml:"artifact_source"`
	ArtifactDir    string `yaml:"artifact_dir"`
	MySQLDSN       string `yaml:"mysql_dsn"`
	VectorizerName string `yaml:"vectorizer_name"`
	ClassifierName string `yaml:"classifier_name"`
	EncoderName    string `yaml:"encoder_name"`

	// a non-empty ClassifierURL replaces the local artifacts with a remote model server
	ClassifierURL string `yaml:"classifier_url"`
	ClassifierKey string `yaml:"classifier_key"`
	ClassifierRPS int    `yaml:"classifier_rps"`

	RedisAddr string        `yaml:"redis_addr"`
	RedisDB   int           `yaml:"redis_db"`
	RedisPass string        `yaml:"redis_password"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	CacheSize int           `yaml:"cache_size"`

	Workers int `yaml:"workers"`
}

func Defaults() Config {
	return Config{
		AppEnv:         "prod",
		HTTPAddr:       ":8080",
		Timezone:       "Asia/Jakarta",
		RequestTimeout: 60 * time.Second,
		MaxUploadBytes: 32 << 20,
		ArtifactSource: "fs",
		ArtifactDir:    "./artifacts",
		MySQLDSN:       "root:root@tcp(localhost:3306)/sentiment?parseTime=true",
		VectorizerName: "tfidf_vectorizer.json",
		ClassifierName: "logistic_regression.json",
		EncoderName:    "label_encoder.json",
		ClassifierRPS:  5,
		CacheTTL:       15 * time.Minute,
		CacheSize:      64,
		Workers:        4,
	}
}

// Load starts from Defaults, overlays the YAML file named by CONFIG_FILE (if any),
// then applies environment variables.
func Load() (Config, error) {
	c := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := c.overlayFile(path); err != nil {
			return Config{}, err
		}
	}
	c.overlayEnv()
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	if c.ClassifierURL != "" && c.ClassifierKey == "" {
		log.Warn().Msg("CLASSIFIER_API_KEY is empty")
	}
	return c, nil
}

func (c *Config) overlayFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) overlayEnv() {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c.AppEnv = env("APP_ENV", c.AppEnv)
	c.HTTPAddr = env("HTTP_ADDR", c.HTTPAddr)
	c.MetricsAddr = env("METRICS_ADDR", c.MetricsAddr)
	c.Timezone = env("TZ_NAME", c.Timezone)
	c.RequestTimeout = time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", int(c.RequestTimeout.Seconds()))) * time.Second
	c.MaxUploadBytes = int64(atoi("MAX_UPLOAD_BYTES", int(c.MaxUploadBytes)))
	c.ArtifactSource = env("ARTIFACT_SOURCE", c.ArtifactSource)
	c.ArtifactDir = env("ARTIFACT_DIR", c.ArtifactDir)
	c.MySQLDSN = env("MYSQL_DSN", c.MySQLDSN)
	c.VectorizerName = env("ARTIFACT_VECTORIZER", c.VectorizerName)
	c.ClassifierName = env("ARTIFACT_CLASSIFIER", c.ClassifierName)
	c.EncoderName = env("ARTIFACT_ENCODER", c.EncoderName)
	c.ClassifierURL = env("CLASSIFIER_URL", c.ClassifierURL)
	c.ClassifierKey = env("CLASSIFIER_API_KEY", c.ClassifierKey)
	c.ClassifierRPS = atoi("CLASSIFIER_RPS", c.ClassifierRPS)
	c.RedisAddr = env("REDIS_ADDR", c.RedisAddr)
	c.RedisPass = env("REDIS_PASSWORD", c.RedisPass)
	c.RedisDB = atoi("REDIS_DB", c.RedisDB)
	c.CacheTTL = time.Duration(atoi("CACHE_TTL_SECONDS", int(c.CacheTTL.Seconds()))) * time.Second
	c.CacheSize = atoi("CACHE_SIZE", c.CacheSize)
	c.Workers = atoi("CLASSIFY_WORKERS", c.Workers)
}

func (c *Config) validate() error {
	switch c.ArtifactSource {
	case "fs", "mysql":
	default:
		return fmt.Errorf("ARTIFACT_SOURCE must be fs or mysql, got %q", c.ArtifactSource)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return nil
}

// Location resolves the configured timezone. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
