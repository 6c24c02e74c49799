package rabbitmq

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Topology names the exchanges and queues for one purchase-event subscription.
//
//	<Exchange>        topic, purchase events routed by RoutingKey to <Queue>
//	<Exchange>.retry  released messages wait in <Queue>.retry for RetryDelay,
//	                  then dead-letter back to <Exchange>
//	<Exchange>.dlx    terminal; bound to <Queue>.dlq
type Topology struct {
	Exchange   string
	Queue      string
	RoutingKey string
	RetryDelay time.Duration
}

func (t Topology) RetryExchange() string { return t.Exchange + ".retry" }
func (t Topology) RetryQueue() string    { return t.Queue + ".retry" }
func (t Topology) DeadExchange() string  { return t.Exchange + ".dlx" }
func (t Topology) DeadQueue() string     { return t.Queue + ".dlq" }

func (t Topology) retryDelay() time.Duration {
	if t.RetryDelay <= 0 {
		return 10 * time.Second
	}
	return t.RetryDelay
}

// Declare is idempotent as long as the existing resources were declared
// with the same arguments.
func (t Topology) Declare(ch Channel) error {
	for _, ex := range []string{t.Exchange, t.RetryExchange(), t.DeadExchange()} {
		if err := ch.ExchangeDeclare(ex, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("exchange declare (%s): %w", ex, err)
		}
	}

	mainArgs := amqp.Table{
		"x-dead-letter-exchange": t.DeadExchange(),
	}
	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, mainArgs); err != nil {
		return fmt.Errorf("main queue declare: %w", err)
	}
	if err := ch.QueueBind(t.Queue, t.RoutingKey, t.Exchange, false, nil); err != nil {
		return fmt.Errorf("main queue bind (%s): %w", t.RoutingKey, err)
	}

	retryArgs := amqp.Table{
		"x-message-ttl":          int64(t.retryDelay() / time.Millisecond),
		"x-dead-letter-exchange": t.Exchange,
	}
	if _, err := ch.QueueDeclare(t.RetryQueue(), true, false, false, false, retryArgs); err != nil {
		return fmt.Errorf("retry queue declare: %w", err)
	}
	if err := ch.QueueBind(t.RetryQueue(), "#", t.RetryExchange(), false, nil); err != nil {
		return fmt.Errorf("retry queue bind: %w", err)
	}

	if _, err := ch.QueueDeclare(t.DeadQueue(), true, false, false, false, nil); err != nil {
		return fmt.Errorf("dlq declare: %w", err)
	}
	if err := ch.QueueBind(t.DeadQueue(), "#", t.DeadExchange(), false, nil); err != nil {
		return fmt.Errorf("dlq bind: %w", err)
	}
	return nil
}
