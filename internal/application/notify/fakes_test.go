package notify

import (
	"context"
	"sync"
	"time"

	"github.com/baechuer/gig-tickets/internal/domain"
)

// ---- Fake Sender ----

type fakeSender struct {
	mu sync.Mutex

	sent []domain.EmailMessage
	// errs are returned in order, one per call; nil afterwards.
	errs  []error
	calls int
}

func (s *fakeSender) Send(ctx context.Context, msg domain.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return err
		}
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) Sent() []domain.EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.EmailMessage(nil), s.sent...)
}

func (s *fakeSender) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type permanentErr struct{}

func (permanentErr) Error() string   { return "mailbox does not exist" }
func (permanentErr) Permanent() bool { return true }

// ---- Fake Idempotency Store ----

type fakeIdem struct {
	mu sync.Mutex

	sent    map[string]time.Duration
	claimed map[string]bool

	seenErr  error
	claimErr error
	markErr  error

	releases []string
}

func newFakeIdem() *fakeIdem {
	return &fakeIdem{sent: map[string]time.Duration{}, claimed: map[string]bool{}}
}

func (s *fakeIdem) Seen(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seenErr != nil {
		return false, s.seenErr
	}
	_, ok := s.sent[key]
	return ok, nil
}

func (s *fakeIdem) Claim(ctx context.Context, key string, lease time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return false, s.claimErr
	}
	if _, ok := s.sent[key]; ok || s.claimed[key] {
		return false, nil
	}
	s.claimed[key] = true
	return true, nil
}

func (s *fakeIdem) MarkSent(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	delete(s.claimed, key)
	s.sent[key] = ttl
	return nil
}

func (s *fakeIdem) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases = append(s.releases, key)
	delete(s.claimed, key)
	return nil
}

// ---- Fake Queue ----

type fakeQueue struct {
	mu sync.Mutex

	pending    []domain.QueueMessage
	receiveErr error
	deleteErr  error
	deadErr    error

	deleted  []string
	released []string
	dead     map[string]string
}

func newFakeQueue(msgs ...domain.QueueMessage) *fakeQueue {
	return &fakeQueue{pending: msgs, dead: map[string]string{}}
}

func (q *fakeQueue) Receive(ctx context.Context) (*domain.QueueMessage, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.receiveErr != nil {
		return nil, q.receiveErr
	}
	if len(q.pending) == 0 {
		return nil, nil
	}
	m := q.pending[0]
	q.pending = q.pending[1:]
	return &m, nil
}

func (q *fakeQueue) Delete(ctx context.Context, receiptHandle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deleteErr != nil {
		return q.deleteErr
	}
	q.deleted = append(q.deleted, receiptHandle)
	return nil
}

func (q *fakeQueue) Release(ctx context.Context, msg domain.QueueMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.released = append(q.released, msg.ID)
	return nil
}

func (q *fakeQueue) DeadLetter(ctx context.Context, msg domain.QueueMessage, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deadErr != nil {
		return q.deadErr
	}
	q.dead[msg.ID] = reason
	return nil
}

func (q *fakeQueue) Deleted() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.deleted...)
}

func (q *fakeQueue) Released() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.released...)
}

func (q *fakeQueue) Dead() map[string]string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[string]string, len(q.dead))
	for k, v := range q.dead {
		out[k] = v
	}
	return out
}
