package sns

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/rs/zerolog"

	"github.com/baechuer/gig-tickets/internal/contracts"
	"github.com/baechuer/gig-tickets/internal/domain"
)

type API interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher puts purchase events on an SNS topic. SNS wraps them in its
// notification envelope on the way to subscribed queues.
type Publisher struct {
	api      API
	topicARN string
	fifo     bool
	lg       zerolog.Logger
}

func NewPublisher(api API, topicARN string, lg zerolog.Logger) *Publisher {
	return &Publisher{
		api:      api,
		topicARN: topicARN,
		fifo:     strings.HasSuffix(topicARN, ".fifo"),
		lg:       lg.With().Str("component", "sns_publisher").Logger(),
	}
}

func NewPublisherFromConfig(cfg aws.Config, topicARN string, lg zerolog.Logger) *Publisher {
	return NewPublisher(sns.NewFromConfig(cfg), topicARN, lg)
}

// Publish returns once SNS accepted the message. On FIFO topics the ticket id
// is the deduplication id, so a retried publish is not delivered twice.
func (p *Publisher) Publish(ctx context.Context, ev domain.PurchaseEvent) error {
	body, err := contracts.EncodePurchaseEvent(ev)
	if err != nil {
		return err
	}

	in := &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"ticketId": {DataType: aws.String("String"), StringValue: aws.String(ev.Ticket.ID)},
			"gig":      {DataType: aws.String("String"), StringValue: aws.String(ev.Gig.Slug)},
		},
	}
	if p.fifo {
		in.MessageGroupId = aws.String(ev.Gig.Slug)
		in.MessageDeduplicationId = aws.String(ev.Ticket.ID)
	}

	out, err := p.api.Publish(ctx, in)
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}

	p.lg.Debug().
		Str("ticket_id", ev.Ticket.ID).
		Str("message_id", aws.ToString(out.MessageId)).
		Msg("purchase event published")
	return nil
}
