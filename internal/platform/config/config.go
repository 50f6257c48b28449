package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration. FromEnv keeps main lean.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// OwnerID is the deployer principal granted the admin role at startup.
	OwnerID string

	PostgresDSN string
	Redis       RedisConfig
	Kafka       KafkaConfig
	Graph       GraphConfig

	Voting VotingConfig
}

// RedisConfig controls the reputation score cache. Empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ScoreTTL     time.Duration
}

// KafkaConfig controls the audit event stream. Empty brokers disable it and
// events stay in the in-process sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// GraphConfig controls the Neo4j trust-graph projection. Empty URI disables it.
type GraphConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// VotingConfig carries the proposal window parameters.
type VotingConfig struct {
	Delay  time.Duration // voteStart = now + Delay
	Period time.Duration // voteEnd = voteStart + Period
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:          getEnv("FIDES_ADDR", ":8080"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     getEnv("JWT_ISSUER", "fides"),
		JWTAudience:   getEnv("JWT_AUDIENCE", "fides-api"),
		OwnerID:       os.Getenv("FIDES_OWNER_ID"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			ScoreTTL:     getEnvDuration("REPUTATION_CACHE_TTL", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Topic: getEnv("KAFKA_AUDIT_TOPIC", "fides.audit.events"),
		},
		Graph: GraphConfig{
			URI:      os.Getenv("NEO4J_URI"),
			Username: os.Getenv("NEO4J_USERNAME"),
			Password: os.Getenv("NEO4J_PASSWORD"),
			Database: os.Getenv("NEO4J_DATABASE"),
		},
		Voting: VotingConfig{
			Delay:  getEnvDuration("VOTING_DELAY", 24*time.Hour),
			Period: getEnvDuration("VOTING_PERIOD", 72*time.Hour),
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
