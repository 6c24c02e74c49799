package rabbitmq

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/baechuer/gig-tickets/internal/domain"
)

const (
	headerAttempt   = "x-attempt"
	headerDLQReason = "x-dlq-reason"
)

// Queue pulls one delivery at a time with basic.get. The receipt handle is
// the delivery tag, valid only on the channel that received it.
type Queue struct {
	open Opener
	topo Topology
	pub  *confirmer
	lg   zerolog.Logger

	mu       sync.Mutex
	ch       Channel
	inflight map[uint64]amqp.Delivery
}

func NewQueue(open Opener, topo Topology, lg zerolog.Logger) *Queue {
	return &Queue{
		open:     open,
		topo:     topo,
		pub:      newConfirmer(open, defaultPublishWait),
		lg:       lg.With().Str("component", "rabbitmq_queue").Logger(),
		inflight: map[uint64]amqp.Delivery{},
	}
}

// dropLocked forgets the channel; unacked deliveries return to the queue.
func (q *Queue) dropLocked() {
	if q.ch != nil {
		_ = q.ch.Close()
	}
	q.ch = nil
	q.inflight = map[uint64]amqp.Delivery{}
}

func (q *Queue) Receive(ctx context.Context) (*domain.QueueMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ch == nil {
		ch, err := q.open()
		if err != nil {
			return nil, err
		}
		q.ch = ch
	}

	d, ok, err := q.ch.Get(q.topo.Queue, false)
	if err != nil {
		q.dropLocked()
		return nil, fmt.Errorf("basic.get %s: %w", q.topo.Queue, err)
	}
	if !ok {
		return nil, nil
	}
	q.inflight[d.DeliveryTag] = d

	receives := getAttempt(d.Headers) + 1
	if d.Redelivered {
		receives++
	}
	id := d.MessageId
	if id == "" {
		id = strconv.FormatUint(d.DeliveryTag, 10)
	}
	return &domain.QueueMessage{
		ID:            id,
		Body:          d.Body,
		ReceiptHandle: strconv.FormatUint(d.DeliveryTag, 10),
		ReceiveCount:  receives,
	}, nil
}

func (q *Queue) take(receiptHandle string) (amqp.Delivery, error) {
	tag, err := strconv.ParseUint(receiptHandle, 10, 64)
	if err != nil {
		return amqp.Delivery{}, fmt.Errorf("bad receipt handle %q", receiptHandle)
	}
	d, ok := q.inflight[tag]
	if !ok || q.ch == nil {
		return amqp.Delivery{}, fmt.Errorf("receipt handle %q is not current", receiptHandle)
	}
	return d, nil
}

func (q *Queue) ackLocked(d amqp.Delivery) error {
	delete(q.inflight, d.DeliveryTag)
	if err := q.ch.Ack(d.DeliveryTag, false); err != nil {
		q.dropLocked()
		return fmt.Errorf("ack %d: %w", d.DeliveryTag, err)
	}
	return nil
}

func (q *Queue) Delete(ctx context.Context, receiptHandle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	d, err := q.take(receiptHandle)
	if err != nil {
		return err
	}
	return q.ackLocked(d)
}

// Release republishes to the retry queue with x-attempt bumped, then acks.
// If the republish fails the delivery is requeued instead.
func (q *Queue) Release(ctx context.Context, msg domain.QueueMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	d, err := q.take(msg.ReceiptHandle)
	if err != nil {
		return err
	}

	h := copyHeaders(d.Headers)
	h[headerAttempt] = int32(getAttempt(d.Headers) + 1)
	if perr := q.pub.publish(ctx, q.topo.RetryExchange(), d.RoutingKey, republish(d, h)); perr != nil {
		q.nackLocked(d)
		return fmt.Errorf("republish retry failed: %w", perr)
	}
	return q.ackLocked(d)
}

func (q *Queue) DeadLetter(ctx context.Context, msg domain.QueueMessage, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	d, err := q.take(msg.ReceiptHandle)
	if err != nil {
		return err
	}

	h := copyHeaders(d.Headers)
	h[headerDLQReason] = reason
	h[headerAttempt] = int32(msg.ReceiveCount)
	if perr := q.pub.publish(ctx, q.topo.DeadExchange(), d.RoutingKey, republish(d, h)); perr != nil {
		q.nackLocked(d)
		return fmt.Errorf("republish dlq failed: %w", perr)
	}
	q.lg.Error().Str("reason", reason).Str("message_id", msg.ID).Msg("sent to final DLQ")
	return q.ackLocked(d)
}

func (q *Queue) nackLocked(d amqp.Delivery) {
	delete(q.inflight, d.DeliveryTag)
	if err := q.ch.Nack(d.DeliveryTag, false, true); err != nil {
		q.lg.Warn().Err(err).Uint64("tag", d.DeliveryTag).Msg("nack failed")
		q.dropLocked()
	}
}

func (q *Queue) Close() error {
	q.mu.Lock()
	q.dropLocked()
	q.mu.Unlock()
	q.pub.close()
	return nil
}

func republish(d amqp.Delivery, h amqp.Table) amqp.Publishing {
	return amqp.Publishing{
		ContentType:   d.ContentType,
		Body:          d.Body,
		DeliveryMode:  amqp.Persistent,
		Timestamp:     time.Now(),
		Headers:       h,
		CorrelationId: d.CorrelationId,
		MessageId:     d.MessageId,
	}
}

func getAttempt(h amqp.Table) int {
	if h == nil {
		return 0
	}
	v, ok := h[headerAttempt]
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(t)
		return n
	default:
		return 0
	}
}

func copyHeaders(in amqp.Table) amqp.Table {
	out := amqp.Table{}
	for k, v := range in {
		out[k] = v
	}
	return out
}
