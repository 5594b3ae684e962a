// Package config reads the process environment exactly once at startup into
// an explicit Config that is passed into each component. Components take no
// ambient state.
package config

import (
	"time"

	"forensia/internal/util"
)

type Config struct {
	Debug bool
	Port  string

	DatabaseURL    string
	MigrationsPath string

	Queue     Queue
	Objects   Objects
	Auth      Auth
	Narrative Narrative
	Report    Report
}

// Queue holds the RabbitMQ connection settings.
type Queue struct {
	User     string
	Password string
	Host     string
	Port     string
}

// Objects holds the S3-compatible object storage settings. Evidence images,
// the report logo and compiled artifacts all live in one bucket.
type Objects struct {
	Region         string
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
}

// Auth holds the external-issuer verification settings.
type Auth struct {
	JWKSURL        string
	MasterAPIKey   string
	MasterUserID   int64
	MasterUserRole string
}

// Narrative holds the text-generation service settings. An empty APIKey means
// the feature is intentionally disabled.
type Narrative struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Report holds document-compilation settings.
type Report struct {
	LogoKey             string
	MaxConcurrentBuilds int64
}

// Load builds the Config from the environment. Call util.LoadEnv first.
func Load() *Config {
	return &Config{
		Debug: util.GetEnvBool("DEBUG", false),
		Port:  util.GetEnvString("PORT", "8080"),

		DatabaseURL:    util.GetEnv("DATABASE_URL"),
		MigrationsPath: util.GetEnvString("MIGRATIONS_PATH", "file://migrations"),

		Queue: Queue{
			User:     util.GetEnv("RABBITMQ_USER"),
			Password: util.GetEnv("RABBITMQ_PASSWORD"),
			Host:     util.GetEnv("RABBITMQ_HOST"),
			Port:     util.GetEnvString("RABBITMQ_PORT", "5672"),
		},
		Objects: Objects{
			Region:         util.GetEnv("AWS_REGION"),
			Endpoint:       util.GetEnv("AWS_ENDPOINT"),
			PublicEndpoint: util.GetEnv("AWS_PUBLIC_ENDPOINT"),
			AccessKey:      util.GetEnv("AWS_ACCESS_KEY"),
			SecretKey:      util.GetEnv("AWS_SECRET_KEY"),
			Bucket:         util.GetEnv("AWS_BUCKET"),
		},
		Auth: Auth{
			JWKSURL:        util.GetEnv("AUTH_URL"),
			MasterAPIKey:   util.GetEnv("MASTER_API_KEY"),
			MasterUserID:   int64(util.GetEnvInt("MASTER_USER_ID", 0)),
			MasterUserRole: util.GetEnv("MASTER_USER_ROLE"),
		},
		Narrative: Narrative{
			APIKey:  util.GetEnv("GEMINI_API_KEY"),
			Model:   util.GetEnvString("GEMINI_MODEL", "gemini-1.5-flash-latest"),
			BaseURL: util.GetEnvString("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			Timeout: util.GetEnvDuration("GEMINI_TIMEOUT", 30*time.Second),
		},
		Report: Report{
			LogoKey:             util.GetEnvString("REPORT_LOGO_KEY", "assets/logo.png"),
			MaxConcurrentBuilds: int64(util.GetEnvInt("REPORT_PARALLEL_BUILDS", 2)),
		},
	}
}
