package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"jasmine-api"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// PostgreSQL (profile store, read-only for the engine)
	DatabaseDriver                string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                  string        `env:"DB_HOST" env-default:""`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"jasmine"`
	DatabaseSSLMode               string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Redis (ranked page cache)
	RedisHost         string        `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort         int           `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword     string        `env:"REDIS_PASSWORD" env-default:""`
	RedisDB           int           `env:"REDIS_DB" env-default:"0"`
	MatchPageCacheTTL time.Duration `env:"MATCH_PAGE_CACHE_TTL" env-default:"60s"`

	// Kafka producer (match events for notification/analytics consumers)
	KafkaBrokers         []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic     string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"match-events"`
	KafkaProducerEnabled bool     `env:"KAFKA_PRODUCER_ENABLED" env-default:"true"`
	KafkaBatchSize       int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout    int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks    int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression     string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Tracing
	TracingEnabled      bool   `env:"TRACING_ENABLED" env-default:"false"`
	TracingOTLPEndpoint string `env:"TRACING_OTLP_ENDPOINT" env-default:""`

	// Preference normalization
	PreferenceAgeMin int `env:"PREFERENCE_AGE_MIN" env-default:"18"`
	PreferenceAgeMax int `env:"PREFERENCE_AGE_MAX" env-default:"40"`

	// Scoring policy. Weights must sum to 1; the aggregator renormalizes if
	// operators override a subset.
	AgeGraceYears       int     `env:"SCORE_AGE_GRACE_YEARS" env-default:"2"`
	WeightAge           float64 `env:"SCORE_WEIGHT_AGE" env-default:"0.25"`
	WeightLocation      float64 `env:"SCORE_WEIGHT_LOCATION" env-default:"0.15"`
	WeightCommunity     float64 `env:"SCORE_WEIGHT_COMMUNITY" env-default:"0.15"`
	WeightEducation     float64 `env:"SCORE_WEIGHT_EDUCATION" env-default:"0.10"`
	WeightProfession    float64 `env:"SCORE_WEIGHT_PROFESSION" env-default:"0.10"`
	WeightDiet          float64 `env:"SCORE_WEIGHT_DIET" env-default:"0.10"`
	WeightHabits        float64 `env:"SCORE_WEIGHT_HABITS" env-default:"0.10"`
	WeightMaritalStatus float64 `env:"SCORE_WEIGHT_MARITAL_STATUS" env-default:"0.05"`
	HardFailAge         bool    `env:"SCORE_HARD_FAIL_AGE" env-default:"true"`
	HardFailLocation    bool    `env:"SCORE_HARD_FAIL_LOCATION" env-default:"true"`
	HardFailMarital     bool    `env:"SCORE_HARD_FAIL_MARITAL_STATUS" env-default:"true"`
	HardFailHabits      bool    `env:"SCORE_HARD_FAIL_HABITS" env-default:"true"`

	// Candidate discovery
	FinderWorkerCount      int           `env:"FINDER_WORKER_COUNT" env-default:"32"`
	FinderCandidateTimeout time.Duration `env:"FINDER_CANDIDATE_TIMEOUT" env-default:"200ms"`
	FinderPoolLimit        int           `env:"FINDER_POOL_LIMIT" env-default:"5000"`
	FinderDefaultPageSize  int           `env:"FINDER_DEFAULT_PAGE_SIZE" env-default:"20"`
	FinderMaxPageSize      int           `env:"FINDER_MAX_PAGE_SIZE" env-default:"100"`
}
