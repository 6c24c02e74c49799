package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BrokerMemory, cfg.Broker)
	assert.Equal(t, GigStoreMemory, cfg.GigStore)
	assert.Equal(t, SenderFake, cfg.EmailSender)
	assert.Equal(t, 5, cfg.MaxReceives)
	assert.Equal(t, 2018, cfg.CardExpiryYearMin)
	assert.Equal(t, 2024, cfg.CardExpiryYearMax)
	assert.Equal(t, 7*24*time.Hour, cfg.EmailIdempotencyTTL)
	assert.Equal(t, cfg.SQSVisibilityTimeout, cfg.EmailClaimLease)
	assert.True(t, cfg.WorkerInProc, "memory broker runs the worker in-process by default")
}

func TestLoad_AWSRequiresTopicAndQueue(t *testing.T) {
	t.Setenv("BROKER", "aws")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SNS_TOPIC_ARN")

	t.Setenv("SNS_TOPIC_ARN", "arn:aws:sns:eu-west-1:000000000000:ticketPurchased")
	t.Setenv("SQS_QUEUE_URL", "http://localhost:4566/000000000000/ticketPurchased")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.WorkerInProc)
}

func TestLoad_SQSWaitTimeCapped(t *testing.T) {
	t.Setenv("BROKER", "aws")
	t.Setenv("SNS_TOPIC_ARN", "arn:aws:sns:eu-west-1:000000000000:ticketPurchased")
	t.Setenv("SQS_QUEUE_URL", "http://localhost:4566/000000000000/ticketPurchased")
	t.Setenv("SQS_WAIT_TIME", "21s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SQS_WAIT_TIME")

	t.Setenv("SQS_WAIT_TIME", "20s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, cfg.SQSWaitTime)
}

func TestLoad_RejectsUnknownBackends(t *testing.T) {
	t.Setenv("BROKER", "kafka")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("BROKER", "memory")
	t.Setenv("GIG_STORE", "mongo")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_PostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("GIG_STORE", "postgres")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_SMTPRequiresHost(t *testing.T) {
	t.Setenv("EMAIL_SENDER", "smtp")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ExpiryRangeOrdered(t *testing.T) {
	t.Setenv("CARD_EXPIRY_YEAR_MIN", "2030")
	t.Setenv("CARD_EXPIRY_YEAR_MAX", "2025")
	_, err := Load()
	assert.Error(t, err)
}

func TestGetBoolAndDuration(t *testing.T) {
	t.Setenv("X_BOOL", "yes")
	t.Setenv("X_DUR", "nonsense")

	assert.True(t, getBool("X_BOOL", false))
	assert.True(t, getBool("X_MISSING", true))
	assert.Equal(t, time.Second, getDuration("X_DUR", time.Second))
}
