package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/baechuer/gig-tickets/internal/contracts"
	"github.com/baechuer/gig-tickets/internal/domain"
	"github.com/baechuer/gig-tickets/internal/metrics"
)

type Outcome int

const (
	// OutcomeEmpty: the queue had nothing to deliver.
	OutcomeEmpty Outcome = iota
	// OutcomeProcessed: confirmation sent (or already sent) and delete attempted.
	OutcomeProcessed
	// OutcomeReleased: message left on the queue for redelivery.
	OutcomeReleased
	// OutcomeDeadLettered: message moved to the dead-letter destination.
	OutcomeDeadLettered
	// OutcomeReceiveFailed: the queue could not be read.
	OutcomeReceiveFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEmpty:
		return "empty"
	case OutcomeProcessed:
		return "processed"
	case OutcomeReleased:
		return "released"
	case OutcomeDeadLettered:
		return "dead_lettered"
	case OutcomeReceiveFailed:
		return "receive_failed"
	default:
		return "unknown"
	}
}

type PollerConfig struct {
	// MaxReceives is the number of deliveries after which a message is
	// dead-lettered. Zero disables the limit.
	MaxReceives int
	Concurrency int
	// IdleWait is slept after an empty poll. Long-polling queues can leave it zero.
	IdleWait time.Duration
	// MaxBackoff caps the wait after consecutive receive failures.
	MaxBackoff time.Duration
}

type Poller struct {
	queue   Queue
	handler Handler
	cfg     PollerConfig
	lg      zerolog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
}

func NewPoller(q Queue, h Handler, cfg PollerConfig, lg zerolog.Logger) *Poller {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	return &Poller{
		queue:   q,
		handler: h,
		cfg:     cfg,
		lg:      lg.With().Str("component", "notify_poller").Logger(),
	}
}

// PollOnce receives at most one message and drives it to completion:
// receive, decode, send, and delete only if the send succeeded.
func (p *Poller) PollOnce(ctx context.Context) (Outcome, error) {
	msg, err := p.queue.Receive(ctx)
	if err != nil {
		metrics.RecordPoll(OutcomeReceiveFailed.String())
		return OutcomeReceiveFailed, domain.ReceiveFailed(err)
	}
	if msg == nil {
		metrics.RecordPoll(OutcomeEmpty.String())
		return OutcomeEmpty, nil
	}

	start := time.Now()
	out, err := p.process(ctx, *msg)
	metrics.RecordMessageProcessing(time.Since(start))
	metrics.RecordPoll(out.String())
	return out, err
}

func (p *Poller) process(ctx context.Context, msg domain.QueueMessage) (Outcome, error) {
	lg := p.lg.With().Str("message_id", msg.ID).Int("receive_count", msg.ReceiveCount).Logger()

	if p.cfg.MaxReceives > 0 && msg.ReceiveCount > p.cfg.MaxReceives {
		return p.deadLetter(ctx, lg, msg, "max_receives_exceeded", nil)
	}

	ev, err := contracts.DecodePurchaseEvent(msg.Body)
	if err != nil {
		lg.Error().Err(err).Msg("undecodable message; leaving for redelivery")
		p.release(ctx, lg, msg)
		return OutcomeReleased, err
	}
	lg = lg.With().Str("ticket_id", ev.Ticket.ID).Logger()

	if err := p.handler.HandlePurchase(ctx, ev); err != nil {
		if isPermanent(err) {
			return p.deadLetter(ctx, lg, msg, "non_retriable", err)
		}
		lg.Warn().Err(err).Msg("confirmation not sent; leaving for redelivery")
		p.release(ctx, lg, msg)
		return OutcomeReleased, err
	}

	if err := p.queue.Delete(context.WithoutCancel(ctx), msg.ReceiptHandle); err != nil {
		metrics.RecordDeleteFailure()
		lg.Error().Err(err).Msg("delete failed after send; duplicate delivery expected")
		return OutcomeProcessed, domain.DeleteFailed(msg.ReceiptHandle, err)
	}

	lg.Info().Msg("message processed")
	return OutcomeProcessed, nil
}

func (p *Poller) release(ctx context.Context, lg zerolog.Logger, msg domain.QueueMessage) {
	if err := p.queue.Release(context.WithoutCancel(ctx), msg); err != nil {
		lg.Warn().Err(err).Msg("release failed; message returns after visibility timeout")
	}
}

func (p *Poller) deadLetter(ctx context.Context, lg zerolog.Logger, msg domain.QueueMessage, reason string, cause error) (Outcome, error) {
	if err := p.queue.DeadLetter(context.WithoutCancel(ctx), msg, reason); err != nil {
		lg.Error().Err(err).Str("reason", reason).Msg("dead-letter failed; leaving for redelivery")
		return OutcomeReleased, fmt.Errorf("dead-letter %s: %w", msg.ID, err)
	}
	metrics.RecordDeadLettered(reason)
	lg.Error().Err(cause).Str("reason", reason).Msg("sent to dead-letter queue")
	return OutcomeDeadLettered, cause
}

// Run polls until ctx is done. Receive failures back off exponentially,
// empty polls sleep IdleWait.
func (p *Poller) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		out, err := p.PollOnce(ctx)
		switch out {
		case OutcomeReceiveFailed:
			if ctx.Err() != nil {
				return
			}
			p.lg.Error().Err(err).Dur("backoff", backoff).Msg("queue receive failed; retrying")
			if !sleepOrDone(ctx, backoff) {
				return
			}
			backoff = minDur(backoff*2, p.cfg.MaxBackoff)
			continue
		case OutcomeEmpty:
			if p.cfg.IdleWait > 0 && !sleepOrDone(ctx, p.cfg.IdleWait) {
				return
			}
		}
		backoff = time.Second
	}
}

// Start launches Concurrency poll loops. It is a no-op when already running.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	if p.queue == nil || p.handler == nil {
		return errors.New("poller needs a queue and a handler")
	}

	runCtx, cancel := context.WithCancel(ctx)
	doneCh := make(chan struct{})
	p.cancel = cancel
	p.doneCh = doneCh
	p.running = true

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Run(runCtx)
		}()
	}
	go func() {
		wg.Wait()
		close(doneCh)
	}()

	p.lg.Info().
		Int("concurrency", p.cfg.Concurrency).
		Int("max_receives", p.cfg.MaxReceives).
		Msg("poller started")
	return nil
}

// Stop cancels the poll loops and waits for them to exit, bounded by ctx.
// A message interrupted mid-send is released, not deleted.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	cancel, doneCh := p.cancel, p.doneCh
	p.running = false
	p.mu.Unlock()

	cancel()

	select {
	case <-doneCh:
		p.lg.Info().Msg("poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
