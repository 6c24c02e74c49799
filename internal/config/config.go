package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BrokerAWS      = "aws"
	BrokerRabbitMQ = "rabbitmq"
	BrokerMemory   = "memory"

	GigStoreDynamoDB = "dynamodb"
	GigStorePostgres = "postgres"
	GigStoreMemory   = "memory"

	SenderSMTP = "smtp"
	SenderFake = "fake"
)

type Config struct {
	Env string

	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	ShutdownWait     time.Duration

	// Broker
	Broker string

	AWSRegion          string
	AWSEndpoint        string // localstack or other emulator
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	SNSTopicARN          string
	SQSQueueURL          string
	SQSDLQURL            string
	SQSWaitTime          time.Duration
	SQSVisibilityTimeout time.Duration

	RabbitURL        string
	RabbitExchange   string
	RabbitQueue      string
	RabbitRoutingKey string
	RabbitRetryDelay time.Duration

	// Gig directory
	GigStore      string
	DynamoDBTable string
	DatabaseURL   string
	GigsSeedFile  string
	GigCacheTTL   time.Duration

	// Redis
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Email / SMTP
	EmailSender  string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPTimeout  time.Duration
	SMTPInsecure bool

	EmailIdempotencyTTL time.Duration
	EmailClaimLease     time.Duration

	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration

	// Worker
	MaxReceives       int
	WorkerConcurrency int
	WorkerIdleWait    time.Duration
	WorkerInProc      bool

	// Purchase
	PublishMaxRetries        int
	PublishRetryInitialDelay time.Duration
	CardExpiryYearMin        int
	CardExpiryYearMax        int

	// Rate limiting
	RLEnabled bool
	RLIPLimit int
	RLWindow  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Env = getEnvFirst([]string{"APP_ENV", "ENV"}, "dev")

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTPReadTimeout = getDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	cfg.HTTPWriteTimeout = getDuration("HTTP_WRITE_TIMEOUT", 20*time.Second)
	cfg.HTTPIdleTimeout = getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)
	cfg.ShutdownWait = getDuration("SHUTDOWN_WAIT", 10*time.Second)

	cfg.Broker = strings.ToLower(getEnv("BROKER", BrokerMemory))

	cfg.AWSRegion = getEnv("AWS_REGION", "eu-west-1")
	cfg.AWSEndpoint = getEnv("AWS_ENDPOINT", "")
	cfg.AWSAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AWSSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")

	cfg.SNSTopicARN = getEnv("SNS_TOPIC_ARN", "")
	cfg.SQSQueueURL = getEnv("SQS_QUEUE_URL", "")
	cfg.SQSDLQURL = getEnv("SQS_DLQ_URL", "")
	cfg.SQSWaitTime = getDuration("SQS_WAIT_TIME", 20*time.Second)
	cfg.SQSVisibilityTimeout = getDuration("SQS_VISIBILITY_TIMEOUT", 30*time.Second)

	cfg.RabbitURL = getEnv("RABBIT_URL", "")
	cfg.RabbitExchange = getEnv("RABBIT_EXCHANGE", "gig.tickets")
	cfg.RabbitQueue = getEnv("RABBIT_QUEUE", "ticket-notifications.q")
	cfg.RabbitRoutingKey = getEnv("RABBIT_ROUTING_KEY", "ticket.purchased")
	cfg.RabbitRetryDelay = getDuration("RABBIT_RETRY_DELAY", 10*time.Second)

	cfg.GigStore = strings.ToLower(getEnv("GIG_STORE", GigStoreMemory))
	cfg.DynamoDBTable = getEnv("DYNAMODB_TABLE", "gig")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	cfg.GigsSeedFile = getEnv("GIGS_SEED_FILE", "")
	cfg.GigCacheTTL = getDuration("GIG_CACHE_TTL", 5*time.Minute)

	cfg.RedisEnabled = getBool("REDIS_ENABLED", false)
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = getInt("REDIS_DB", 0)

	cfg.EmailSender = strings.ToLower(getEnv("EMAIL_SENDER", SenderFake))
	cfg.SMTPHost = getEnv("SMTP_HOST", "")
	cfg.SMTPPort = getInt("SMTP_PORT", 587)
	cfg.SMTPUsername = getEnv("SMTP_USERNAME", "")
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SMTPFrom = getEnv("SMTP_FROM", cfg.SMTPUsername)
	cfg.SMTPTimeout = getDuration("SMTP_TIMEOUT", 10*time.Second)
	cfg.SMTPInsecure = getBool("SMTP_INSECURE", false)

	cfg.EmailIdempotencyTTL = getDuration("EMAIL_IDEMPOTENCY_TTL", 7*24*time.Hour)
	cfg.EmailClaimLease = getDuration("EMAIL_CLAIM_LEASE", cfg.SQSVisibilityTimeout)

	cfg.BreakerMaxFailures = getInt("BREAKER_MAX_FAILURES", 5)
	cfg.BreakerResetTimeout = getDuration("BREAKER_RESET_TIMEOUT", 30*time.Second)

	cfg.MaxReceives = getInt("MAX_RECEIVES", 5)
	cfg.WorkerConcurrency = getInt("WORKER_CONCURRENCY", 1)
	cfg.WorkerIdleWait = getDuration("WORKER_IDLE_WAIT", 1*time.Second)
	cfg.WorkerInProc = getBool("WORKER_INPROC", cfg.Broker == BrokerMemory)

	cfg.PublishMaxRetries = getInt("PUBLISH_MAX_RETRIES", 2)
	cfg.PublishRetryInitialDelay = getDuration("PUBLISH_RETRY_INITIAL_DELAY", 100*time.Millisecond)
	cfg.CardExpiryYearMin = getInt("CARD_EXPIRY_YEAR_MIN", 2018)
	cfg.CardExpiryYearMax = getInt("CARD_EXPIRY_YEAR_MAX", 2024)

	cfg.RLEnabled = getBool("RL_ENABLED", false)
	cfg.RLIPLimit = getInt("RL_IP_LIMIT", 60)
	cfg.RLWindow = getDuration("RL_IP_WINDOW", 1*time.Minute)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SQS rejects long polls above 20 seconds.
const maxSQSWaitTime = 20 * time.Second

func (c *Config) validate() error {
	switch c.Broker {
	case BrokerAWS:
		if c.SNSTopicARN == "" || c.SQSQueueURL == "" {
			return fmt.Errorf("aws broker selected but missing SNS_TOPIC_ARN or SQS_QUEUE_URL")
		}
		if c.SQSWaitTime < 0 || c.SQSWaitTime > maxSQSWaitTime {
			return fmt.Errorf("SQS_WAIT_TIME %s out of range [0s, %s]", c.SQSWaitTime, maxSQSWaitTime)
		}
	case BrokerRabbitMQ:
		if c.RabbitURL == "" {
			return fmt.Errorf("rabbitmq broker selected but missing RABBIT_URL")
		}
	case BrokerMemory:
	default:
		return fmt.Errorf("unknown BROKER %q (want aws, rabbitmq or memory)", c.Broker)
	}

	switch c.GigStore {
	case GigStoreDynamoDB, GigStoreMemory:
	case GigStorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("postgres gig store selected but missing DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown GIG_STORE %q (want dynamodb, postgres or memory)", c.GigStore)
	}

	if c.EmailSender == SenderSMTP && c.SMTPHost == "" {
		return fmt.Errorf("smtp sender selected but missing SMTP_HOST")
	}
	if c.CardExpiryYearMin > c.CardExpiryYearMax {
		return fmt.Errorf("CARD_EXPIRY_YEAR_MIN (%d) > CARD_EXPIRY_YEAR_MAX (%d)", c.CardExpiryYearMin, c.CardExpiryYearMax)
	}

	// Guard: prevent the classic "REDIS_ADDR=localhost:6379 OTHER=..." parsing issue
	if strings.Contains(c.RedisAddr, " ") {
		return fmt.Errorf("bad REDIS_ADDR (contains spaces): %q", c.RedisAddr)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvFirst(keys []string, def string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return def
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n := def
	_, _ = fmt.Sscanf(v, "%d", &n)
	if n < 0 {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
