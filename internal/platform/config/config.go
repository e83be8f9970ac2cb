package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names the registry storage substrate.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
	BackendMongo    Backend = "mongo"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	JWTSigningKey   string
	JWTIssuer       string
	JWTAudience     string
	AdminAPIToken   string

	Lottery  LotteryConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Mongo    MongoConfig
	Kafka    KafkaConfig
}

// LotteryConfig selects the registry revision, policies and backend.
type LotteryConfig struct {
	Revision         string
	Store            Backend
	RequireInit      bool
	InitPolicy       string
	CompletionPolicy string
	Oracles          []string
	MaxParticipants  uint32
	TxTimeout        time.Duration
	AuditBuffer      int

	// AuditOpsSampleRate is the fraction of operations-category audit
	// events kept. Compliance and security events are never sampled.
	AuditOpsSampleRate float64
}

type PostgresConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
}

type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

const devSigningKey = "dev-secret-key-change-in-production"

// Load reads an optional .env file and then builds the config from the
// environment. Variables already set in the environment win over the file.
func Load(envFiles ...string) (Server, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Server{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var p parser
	cfg := Server{
		Addr:            p.str("LOTELLAR_ADDR", ":8080"),
		LogLevel:        p.str("LOG_LEVEL", "info"),
		LogFormat:       p.str("LOG_FORMAT", "json"),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 15*time.Second),
		// Use a default for development - should be overridden in production
		JWTSigningKey: p.str("JWT_SIGNING_KEY", devSigningKey),
		JWTIssuer:     p.str("JWT_ISSUER", "lotellar"),
		JWTAudience:   p.str("JWT_AUDIENCE", "lotellar-api"),
		AdminAPIToken: os.Getenv("ADMIN_API_TOKEN"),
		Lottery: LotteryConfig{
			Revision:           p.str("LOTTERY_REVISION", "v2"),
			Store:              Backend(p.str("LOTTERY_STORE", string(BackendMemory))),
			RequireInit:        p.boolean("LOTTERY_REQUIRE_INIT", false),
			InitPolicy:         p.str("LOTTERY_INIT_POLICY", "once"),
			CompletionPolicy:   p.str("LOTTERY_COMPLETION_POLICY", "creator"),
			Oracles:            p.list("LOTTERY_ORACLES"),
			MaxParticipants:    uint32(p.uint("LOTTERY_MAX_PARTICIPANTS", 100, 32)),
			TxTimeout:          p.duration("LOTTERY_TX_TIMEOUT", 5*time.Second),
			AuditBuffer:        int(p.uint("AUDIT_BUFFER", 1024, 31)),
			AuditOpsSampleRate: p.float("AUDIT_OPS_SAMPLE_RATE", 1),
		},
		Postgres: PostgresConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: int(p.uint("DATABASE_MAX_OPEN_CONNS", 10, 31)),
			MaxIdleConns: int(p.uint("DATABASE_MAX_IDLE_CONNS", 5, 31)),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     int(p.uint("REDIS_POOL_SIZE", 10, 31)),
			MinIdleConns: int(p.uint("REDIS_MIN_IDLE_CONNS", 2, 31)),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Mongo: MongoConfig{
			URI:      os.Getenv("MONGO_URI"),
			Database: p.str("MONGO_DATABASE", "lotellar"),
		},
		Kafka: KafkaConfig{
			Brokers:    p.list("KAFKA_BROKERS"),
			AuditTopic: p.str("KAFKA_AUDIT_TOPIC", "lottery-audit"),
		},
	}
	if err := errors.Join(p.errs...); err != nil {
		return Server{}, err
	}
	if err := cfg.validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (c Server) validate() error {
	var errs []error
	switch c.Lottery.Store {
	case BackendMemory:
	case BackendPostgres:
		if c.Postgres.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis store"))
		}
	case BackendMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo store"))
		}
	default:
		errs = append(errs, fmt.Errorf("LOTTERY_STORE %q must be one of memory, postgres, redis, mongo", c.Lottery.Store))
	}
	if c.Lottery.MaxParticipants == 0 {
		errs = append(errs, errors.New("LOTTERY_MAX_PARTICIPANTS must be positive"))
	}
	if c.Lottery.AuditOpsSampleRate < 0 || c.Lottery.AuditOpsSampleRate > 1 {
		errs = append(errs, errors.New("AUDIT_OPS_SAMPLE_RATE must be between 0 and 1"))
	}
	if c.Lottery.TxTimeout <= 0 {
		errs = append(errs, errors.New("LOTTERY_TX_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// parser collects every malformed variable so one run reports them all.
type parser struct {
	errs []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) boolean(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (p *parser) uint(key string, def uint64, bits int) uint64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, bits)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (p *parser) list(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
