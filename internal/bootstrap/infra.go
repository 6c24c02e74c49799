package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"

	"github.com/baechuer/gig-tickets/internal/application/notify"
	"github.com/baechuer/gig-tickets/internal/application/purchase"
	"github.com/baechuer/gig-tickets/internal/circuitbreaker"
	"github.com/baechuer/gig-tickets/internal/config"
	"github.com/baechuer/gig-tickets/internal/domain"
	"github.com/baechuer/gig-tickets/internal/infrastructure/awsclient"
	rediscache "github.com/baechuer/gig-tickets/internal/infrastructure/caching/redis"
	infraemail "github.com/baechuer/gig-tickets/internal/infrastructure/email"
	gigcache "github.com/baechuer/gig-tickets/internal/infrastructure/gigs/cache"
	gigdynamo "github.com/baechuer/gig-tickets/internal/infrastructure/gigs/dynamodb"
	gigmem "github.com/baechuer/gig-tickets/internal/infrastructure/gigs/memory"
	gigpg "github.com/baechuer/gig-tickets/internal/infrastructure/gigs/postgres"
	"github.com/baechuer/gig-tickets/internal/infrastructure/idempotency"
	brokermem "github.com/baechuer/gig-tickets/internal/infrastructure/messaging/memory"
	rmq "github.com/baechuer/gig-tickets/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/gig-tickets/internal/infrastructure/messaging/sns"
	"github.com/baechuer/gig-tickets/internal/infrastructure/messaging/sqs"
)

const memoryTopic = "purchases"

// infra holds the clients shared by the API and the worker. Cleanup runs in
// reverse order of acquisition.
type infra struct {
	cfg *config.Config
	lg  zerolog.Logger

	cleanupFns []func()

	awsCfg *aws.Config
	redis  *rediscache.Client
	rabbit *rmq.Session
	topo   rmq.Topology
	memory *brokermem.Broker
	fake   *infraemail.FakeSender
}

func newInfra(cfg *config.Config, lg zerolog.Logger) *infra {
	return &infra{cfg: cfg, lg: lg}
}

func (in *infra) onCleanup(fn func()) {
	in.cleanupFns = append(in.cleanupFns, fn)
}

func (in *infra) cleanup() {
	runCleanup(in.cleanupFns)
	in.cleanupFns = nil
}

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

func (in *infra) aws(ctx context.Context) (aws.Config, error) {
	if in.awsCfg != nil {
		return *in.awsCfg, nil
	}
	c, err := awsclient.Load(ctx, awsclient.Options{
		Region:          in.cfg.AWSRegion,
		Endpoint:        in.cfg.AWSEndpoint,
		AccessKeyID:     in.cfg.AWSAccessKeyID,
		SecretAccessKey: in.cfg.AWSSecretAccessKey,
	})
	if err != nil {
		return aws.Config{}, err
	}
	in.awsCfg = &c
	return c, nil
}

// redisClient returns nil when Redis is disabled.
func (in *infra) redisClient(ctx context.Context) (*rediscache.Client, error) {
	if !in.cfg.RedisEnabled {
		return nil, nil
	}
	if in.redis != nil {
		return in.redis, nil
	}
	c, err := rediscache.New(ctx, rediscache.Options{
		Addr:     in.cfg.RedisAddr,
		Password: in.cfg.RedisPassword,
		DB:       in.cfg.RedisDB,
	})
	if err != nil {
		return nil, err
	}
	in.redis = c
	in.onCleanup(func() { _ = c.Close() })
	in.lg.Info().Str("addr", in.cfg.RedisAddr).Int("db", in.cfg.RedisDB).Msg("redis connected")
	return c, nil
}

func (in *infra) rabbitSession() (*rmq.Session, error) {
	if in.rabbit != nil {
		return in.rabbit, nil
	}
	s := rmq.NewSession(in.cfg.RabbitURL)
	topo := rmq.Topology{
		Exchange:   in.cfg.RabbitExchange,
		Queue:      in.cfg.RabbitQueue,
		RoutingKey: in.cfg.RabbitRoutingKey,
		RetryDelay: in.cfg.RabbitRetryDelay,
	}

	ch, err := s.Open()
	if err != nil {
		return nil, err
	}
	err = topo.Declare(ch)
	_ = ch.Close()
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	in.rabbit = s
	in.topo = topo
	in.onCleanup(func() { _ = s.Close() })
	in.lg.Info().Str("exchange", topo.Exchange).Str("queue", topo.Queue).Msg("rabbitmq topology declared")
	return s, nil
}

func (in *infra) memoryBroker() *brokermem.Broker {
	if in.memory == nil {
		in.memory = brokermem.NewBroker(memoryTopic, in.cfg.SQSVisibilityTimeout)
	}
	return in.memory
}

func (in *infra) publisher(ctx context.Context) (purchase.EventPublisher, error) {
	switch in.cfg.Broker {
	case config.BrokerAWS:
		c, err := in.aws(ctx)
		if err != nil {
			return nil, err
		}
		return sns.NewPublisherFromConfig(c, in.cfg.SNSTopicARN, in.lg), nil
	case config.BrokerRabbitMQ:
		s, err := in.rabbitSession()
		if err != nil {
			return nil, err
		}
		p := rmq.NewPublisher(s.Open, in.topo, in.lg)
		in.onCleanup(func() { _ = p.Close() })
		return p, nil
	case config.BrokerMemory:
		return in.memoryBroker(), nil
	default:
		return nil, fmt.Errorf("unknown broker %q", in.cfg.Broker)
	}
}

func (in *infra) queue(ctx context.Context) (notify.Queue, error) {
	switch in.cfg.Broker {
	case config.BrokerAWS:
		c, err := in.aws(ctx)
		if err != nil {
			return nil, err
		}
		return sqs.NewQueueFromConfig(c, sqs.Config{
			QueueURL:          in.cfg.SQSQueueURL,
			DLQURL:            in.cfg.SQSDLQURL,
			WaitTime:          in.cfg.SQSWaitTime,
			VisibilityTimeout: in.cfg.SQSVisibilityTimeout,
		}, in.lg), nil
	case config.BrokerRabbitMQ:
		s, err := in.rabbitSession()
		if err != nil {
			return nil, err
		}
		q := rmq.NewQueue(s.Open, in.topo, in.lg)
		in.onCleanup(func() { _ = q.Close() })
		return q, nil
	case config.BrokerMemory:
		return in.memoryBroker(), nil
	default:
		return nil, fmt.Errorf("unknown broker %q", in.cfg.Broker)
	}
}

func (in *infra) gigDirectory(ctx context.Context) (purchase.GigDirectory, error) {
	var dir purchase.GigDirectory

	switch in.cfg.GigStore {
	case config.GigStoreDynamoDB:
		c, err := in.aws(ctx)
		if err != nil {
			return nil, err
		}
		dir = gigdynamo.NewFromConfig(c, in.cfg.DynamoDBTable)
	case config.GigStorePostgres:
		pg, err := in.postgresDirectory(ctx)
		if err != nil {
			return nil, err
		}
		dir = pg
	case config.GigStoreMemory:
		gigs, err := in.seedGigs(true)
		if err != nil {
			return nil, err
		}
		dir = gigmem.New(gigs)
	default:
		return nil, fmt.Errorf("unknown gig store %q", in.cfg.GigStore)
	}

	rc, err := in.redisClient(ctx)
	if err != nil {
		return nil, err
	}
	if rc != nil && in.cfg.GigCacheTTL > 0 {
		return gigcache.New(dir, rc, in.cfg.GigCacheTTL, in.lg), nil
	}
	return dir, nil
}

func (in *infra) postgresDirectory(ctx context.Context) (*gigpg.Directory, error) {
	db, err := gigpg.Open(ctx, in.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	in.onCleanup(func() { _ = db.Close() })

	dir := gigpg.New(db)
	if err := dir.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	gigs, err := in.seedGigs(in.cfg.Env == "dev")
	if err != nil {
		return nil, err
	}
	if len(gigs) > 0 {
		if err := dir.Seed(ctx, gigs); err != nil {
			return nil, err
		}
		in.lg.Info().Int("gigs", len(gigs)).Msg("gig table seeded")
	}
	return dir, nil
}

// seedGigs reads GIGS_SEED_FILE when set, otherwise the bundled sample gigs
// if withDefaults is true.
func (in *infra) seedGigs(withDefaults bool) ([]domain.Gig, error) {
	if in.cfg.GigsSeedFile != "" {
		return gigmem.LoadFile(in.cfg.GigsSeedFile)
	}
	if withDefaults {
		return gigmem.Defaults(), nil
	}
	return nil, nil
}

func (in *infra) sender() notify.Sender {
	var s notify.Sender
	switch in.cfg.EmailSender {
	case config.SenderSMTP:
		s = infraemail.NewSMTPSender(infraemail.SMTPConfig{
			Host:     in.cfg.SMTPHost,
			Port:     in.cfg.SMTPPort,
			Username: in.cfg.SMTPUsername,
			Password: in.cfg.SMTPPassword,
			From:     in.cfg.SMTPFrom,
			Timeout:  in.cfg.SMTPTimeout,
			Insecure: in.cfg.SMTPInsecure,
		}, in.lg)
	default:
		in.fake = infraemail.NewFakeSender(in.lg)
		s = in.fake
	}

	cb := circuitbreaker.New(in.cfg.BreakerMaxFailures, in.cfg.BreakerResetTimeout, 1)
	return infraemail.NewBreakerSender(s, cb, in.lg)
}

func (in *infra) idempotencyStore(ctx context.Context) (notify.IdempotencyStore, error) {
	rc, err := in.redisClient(ctx)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		return idempotency.NewRedisStore(rc.GetRawClient(), in.lg), nil
	}
	in.lg.Warn().Msg("redis disabled: send deduplication is per-process only")
	return idempotency.NewMemoryStore(), nil
}
