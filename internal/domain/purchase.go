package domain

import "time"

// PurchaseRequest is a buyer submission that passed validation.
type PurchaseRequest struct {
	GigSlug            string
	Name               string
	Email              string
	CardNumber         string
	CardExpiryMonth    int
	CardExpiryYear     int
	CardCVC            string
	DisclaimerAccepted bool
}

// Ticket is created once per accepted purchase. ID doubles as the buyer's
// collection code and as the deduplication key for notifications.
type Ticket struct {
	ID        string
	CreatedAt time.Time
	Name      string
	Email     string
	GigSlug   string
}

func NewTicket(id string, now time.Time, req PurchaseRequest) Ticket {
	return Ticket{
		ID:        id,
		CreatedAt: now,
		Name:      req.Name,
		Email:     req.Email,
		GigSlug:   req.GigSlug,
	}
}

// PurchaseEvent is the payload placed on the topic.
type PurchaseEvent struct {
	Ticket Ticket
	Gig    Gig
}

// QueueMessage is one delivery from the queue. ReceiptHandle is only
// meaningful to the queue that produced it.
type QueueMessage struct {
	ID            string
	Body          []byte
	ReceiptHandle string
	ReceiveCount  int
}

type EmailMessage struct {
	To      string
	Subject string
	Text    string
}
