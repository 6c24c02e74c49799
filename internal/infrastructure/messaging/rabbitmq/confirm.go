package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// publish reliability window
const defaultPublishWait = 2 * time.Second

var errConfirmTimeout = errors.New("publish wait timeout (no confirm/return)")

// confirmer publishes with mandatory=true on a confirm-mode channel and
// waits for the broker's verdict. A failed or timed-out channel is dropped
// and reopened on the next publish, which also resets the confirm sequence.
type confirmer struct {
	open Opener
	wait time.Duration

	mu        sync.Mutex
	ch        Channel
	confirmCh <-chan amqp.Confirmation
	returnCh  <-chan amqp.Return
}

func newConfirmer(open Opener, wait time.Duration) *confirmer {
	if wait <= 0 {
		wait = defaultPublishWait
	}
	return &confirmer{open: open, wait: wait}
}

func (c *confirmer) ensure() error {
	if c.ch != nil {
		return nil
	}
	ch, err := c.open()
	if err != nil {
		return err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("confirm mode: %w", err)
	}
	// Must be registered AFTER Confirm
	c.confirmCh = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	c.returnCh = ch.NotifyReturn(make(chan amqp.Return, 1))
	c.ch = ch
	return nil
}

func (c *confirmer) drop() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	c.ch, c.confirmCh, c.returnCh = nil, nil, nil
}

func (c *confirmer) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensure(); err != nil {
		return err
	}
	if err := c.ch.PublishWithContext(ctx, exchange, key, true, false, msg); err != nil {
		c.drop()
		return fmt.Errorf("publish %s/%s: %w", exchange, key, err)
	}

	timer := time.NewTimer(c.wait)
	defer timer.Stop()

	// An unroutable message is returned first and then acked, so keep
	// waiting for the confirm after a return.
	var returned error
	for {
		select {
		case r, ok := <-c.returnCh:
			if !ok {
				c.drop()
				return errors.New("channel closed before confirm")
			}
			returned = returnedErr(r)
		case conf, ok := <-c.confirmCh:
			if !ok {
				c.drop()
				return errors.New("channel closed before confirm")
			}
			if returned == nil {
				select {
				case r, ok := <-c.returnCh:
					if ok {
						returned = returnedErr(r)
					}
				default:
				}
			}
			if returned != nil {
				return returned
			}
			if !conf.Ack {
				return fmt.Errorf("publish nacked by broker (exchange=%q rk=%q)", exchange, key)
			}
			return nil
		case <-timer.C:
			c.drop()
			if returned != nil {
				return returned
			}
			return errConfirmTimeout
		case <-ctx.Done():
			c.drop()
			return ctx.Err()
		}
	}
}

func returnedErr(r amqp.Return) error {
	return fmt.Errorf("publish returned: reply=%d text=%q exchange=%q rk=%q",
		r.ReplyCode, r.ReplyText, r.Exchange, r.RoutingKey)
}

func (c *confirmer) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drop()
}
