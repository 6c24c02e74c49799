package rabbitmq

import (
	"context"
	"errors"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type binding struct {
	queue, key, exchange string
}

// fakeChannel answers every publish with a confirm on the registered
// NotifyPublish channel. noConfirm simulates a broker that never answers.
type fakeChannel struct {
	mu sync.Mutex

	exchanges []string
	queues    map[string]amqp.Table
	bindings  []binding

	confirmMode bool
	confirmCh   chan amqp.Confirmation
	returnCh    chan amqp.Return

	nack       bool
	unroutable bool
	noConfirm  bool
	publishErr error
	published  []published
	tag        uint64

	deliveries []amqp.Delivery
	getErr     error
	acked      []uint64
	nacked     []uint64
	ackErr     error

	closed bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{queues: map[string]amqp.Table{}}
}

func (f *fakeChannel) opener() Opener {
	return func() (Channel, error) {
		f.mu.Lock()
		f.closed = false
		f.mu.Unlock()
		return f, nil
	}
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.exchanges = append(f.exchanges, name)
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.queues[name] = args
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	f.bindings = append(f.bindings, binding{queue: name, key: key, exchange: exchange})
	return nil
}

func (f *fakeChannel) Confirm(noWait bool) error {
	f.confirmMode = true
	return nil
}

func (f *fakeChannel) NotifyPublish(c chan amqp.Confirmation) chan amqp.Confirmation {
	f.confirmCh = c
	return c
}

func (f *fakeChannel) NotifyReturn(c chan amqp.Return) chan amqp.Return {
	f.returnCh = c
	return c
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	if !mandatory {
		return errors.New("expected mandatory publish")
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	f.tag++
	if f.unroutable {
		f.returnCh <- amqp.Return{ReplyCode: 312, ReplyText: "NO_ROUTE", Exchange: exchange, RoutingKey: key}
	}
	if !f.noConfirm {
		f.confirmCh <- amqp.Confirmation{DeliveryTag: f.tag, Ack: !f.nack}
	}
	return nil
}

func (f *fakeChannel) Get(queue string, autoAck bool) (amqp.Delivery, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return amqp.Delivery{}, false, f.getErr
	}
	if len(f.deliveries) == 0 {
		return amqp.Delivery{}, false, nil
	}
	d := f.deliveries[0]
	f.deliveries = f.deliveries[1:]
	return d, true, nil
}

func (f *fakeChannel) Ack(tag uint64, multiple bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ackErr != nil {
		return f.ackErr
	}
	f.acked = append(f.acked, tag)
	return nil
}

func (f *fakeChannel) Nack(tag uint64, multiple, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nacked = append(f.nacked, tag)
	return nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
