package rabbitmq

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/baechuer/gig-tickets/internal/contracts"
	"github.com/baechuer/gig-tickets/internal/domain"
)

// Publisher sends purchase events to the topic exchange. Bodies are wrapped
// in the same notification envelope SNS uses, so consumers see one format
// whichever broker is configured.
type Publisher struct {
	topo Topology
	conf *confirmer
	now  func() time.Time
	lg   zerolog.Logger
}

func NewPublisher(open Opener, topo Topology, lg zerolog.Logger) *Publisher {
	return &Publisher{
		topo: topo,
		conf: newConfirmer(open, defaultPublishWait),
		now:  time.Now,
		lg:   lg.With().Str("component", "rabbitmq_publisher").Logger(),
	}
}

// Publish returns nil only after the broker confirmed the message.
// MessageId is the ticket id and stays stable across retries.
func (p *Publisher) Publish(ctx context.Context, ev domain.PurchaseEvent) error {
	body, err := contracts.EncodePurchaseEvent(ev)
	if err != nil {
		return err
	}
	now := p.now().UTC()
	env, err := contracts.WrapNotification(p.topo.Exchange, ev.Ticket.ID, body, now)
	if err != nil {
		return err
	}

	err = p.conf.publish(ctx, p.topo.Exchange, p.topo.RoutingKey, amqp.Publishing{
		MessageId:    ev.Ticket.ID,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Body:         env,
	})
	if err != nil {
		p.lg.Warn().Err(err).Str("ticket_id", ev.Ticket.ID).Msg("publish failed")
		return err
	}
	return nil
}

func (p *Publisher) Close() error {
	p.conf.close()
	return nil
}
