package sqs

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog"

	"github.com/baechuer/gig-tickets/internal/domain"
)

type API interface {
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type Config struct {
	QueueURL string
	// DLQURL is optional; without it dead-lettering is left to the queue's redrive policy.
	DLQURL            string
	WaitTime          time.Duration
	VisibilityTimeout time.Duration
}

type Queue struct {
	api API
	cfg Config
	lg  zerolog.Logger
}

func NewQueue(api API, cfg Config, lg zerolog.Logger) *Queue {
	return &Queue{
		api: api,
		cfg: cfg,
		lg:  lg.With().Str("component", "sqs_queue").Logger(),
	}
}

func NewQueueFromConfig(awsCfg aws.Config, cfg Config, lg zerolog.Logger) *Queue {
	return NewQueue(sqs.NewFromConfig(awsCfg), cfg, lg)
}

// Receive long-polls for a single message.
func (q *Queue) Receive(ctx context.Context) (*domain.QueueMessage, error) {
	in := &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.cfg.QueueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     int32(q.cfg.WaitTime / time.Second),
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{
			types.MessageSystemAttributeNameApproximateReceiveCount,
		},
	}
	if q.cfg.VisibilityTimeout > 0 {
		in.VisibilityTimeout = int32(q.cfg.VisibilityTimeout / time.Second)
	}

	out, err := q.api.ReceiveMessage(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("sqs receive: %w", err)
	}
	if len(out.Messages) == 0 {
		return nil, nil
	}

	m := out.Messages[0]
	count, _ := strconv.Atoi(m.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)])
	if count <= 0 {
		count = 1
	}
	return &domain.QueueMessage{
		ID:            aws.ToString(m.MessageId),
		Body:          []byte(aws.ToString(m.Body)),
		ReceiptHandle: aws.ToString(m.ReceiptHandle),
		ReceiveCount:  count,
	}, nil
}

func (q *Queue) Delete(ctx context.Context, receiptHandle string) error {
	_, err := q.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.cfg.QueueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("sqs delete: %w", err)
	}
	return nil
}

// Release is a no-op: the message reappears when its visibility timeout lapses.
func (q *Queue) Release(ctx context.Context, msg domain.QueueMessage) error {
	return nil
}

// DeadLetter copies the message to the DLQ and then deletes it from the main queue.
func (q *Queue) DeadLetter(ctx context.Context, msg domain.QueueMessage, reason string) error {
	if q.cfg.DLQURL == "" {
		q.lg.Warn().
			Str("message_id", msg.ID).
			Str("reason", reason).
			Msg("no SQS_DLQ_URL configured; leaving message to the redrive policy")
		return nil
	}

	_, err := q.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.cfg.DLQURL),
		MessageBody: aws.String(string(msg.Body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"deadLetterReason": {DataType: aws.String("String"), StringValue: aws.String(reason)},
			"sourceMessageId":  {DataType: aws.String("String"), StringValue: aws.String(msg.ID)},
			"receiveCount":     {DataType: aws.String("Number"), StringValue: aws.String(strconv.Itoa(msg.ReceiveCount))},
		},
	})
	if err != nil {
		return fmt.Errorf("sqs send to dlq: %w", err)
	}
	return q.Delete(ctx, msg.ReceiptHandle)
}
