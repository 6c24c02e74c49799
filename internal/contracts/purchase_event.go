package contracts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/baechuer/gig-tickets/internal/domain"
)

// TicketPayload is the ticket as it travels on the topic.
// CreatedAt is Unix milliseconds.
type TicketPayload struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"createdAt"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Gig       string `json:"gig"`
}

type PurchaseEventPayload struct {
	Ticket TicketPayload `json:"ticket"`
	Gig    domain.Gig    `json:"gig"`
}

func ToPayload(ev domain.PurchaseEvent) PurchaseEventPayload {
	return PurchaseEventPayload{
		Ticket: TicketPayload{
			ID:        ev.Ticket.ID,
			CreatedAt: ev.Ticket.CreatedAt.UnixMilli(),
			Name:      ev.Ticket.Name,
			Email:     ev.Ticket.Email,
			Gig:       ev.Ticket.GigSlug,
		},
		Gig: ev.Gig,
	}
}

func (p PurchaseEventPayload) ToDomain() domain.PurchaseEvent {
	slug := p.Ticket.Gig
	if slug == "" {
		slug = p.Gig.Slug
	}
	return domain.PurchaseEvent{
		Ticket: domain.Ticket{
			ID:        p.Ticket.ID,
			CreatedAt: time.UnixMilli(p.Ticket.CreatedAt).UTC(),
			Name:      p.Ticket.Name,
			Email:     p.Ticket.Email,
			GigSlug:   slug,
		},
		Gig: p.Gig,
	}
}

// EncodePurchaseEvent renders the message body published to the topic.
func EncodePurchaseEvent(ev domain.PurchaseEvent) ([]byte, error) {
	b, err := json.Marshal(ToPayload(ev))
	if err != nil {
		return nil, fmt.Errorf("encode purchase event: %w", err)
	}
	return b, nil
}

// DecodePurchaseEvent parses a queue message body. The body is either the
// event itself or a topic notification whose Message field holds the event.
// Decoding is pure, so a redelivered message decodes the same way.
func DecodePurchaseEvent(body []byte) (domain.PurchaseEvent, error) {
	raw := bytes.TrimSpace(body)
	if len(raw) == 0 {
		return domain.PurchaseEvent{}, domain.MessageParseFailed(errors.New("empty body"))
	}

	if inner, ok, err := unwrapNotification(raw); err != nil {
		return domain.PurchaseEvent{}, domain.MessageParseFailed(err)
	} else if ok {
		raw = inner
	}

	var p PurchaseEventPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.PurchaseEvent{}, domain.MessageParseFailed(err)
	}
	if strings.TrimSpace(p.Ticket.ID) == "" {
		return domain.PurchaseEvent{}, domain.MessageParseFailed(errors.New("missing ticket.id"))
	}
	if strings.TrimSpace(p.Ticket.Email) == "" {
		return domain.PurchaseEvent{}, domain.MessageParseFailed(errors.New("missing ticket.email"))
	}
	return p.ToDomain(), nil
}
