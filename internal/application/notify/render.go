package notify

import (
	"fmt"
	"strings"

	"github.com/baechuer/gig-tickets/internal/domain"
)

// RenderConfirmation builds the ticket email from the event alone.
func RenderConfirmation(ev domain.PurchaseEvent) domain.EmailMessage {
	band := ev.Gig.BandName
	city := ev.Gig.City

	var b strings.Builder
	fmt.Fprintf(&b, "Hey %s,\n", ev.Ticket.Name)
	fmt.Fprintf(&b, "you are going to see %s in %s!\n\n", band, city)
	fmt.Fprintf(&b, "This is the secret code that will unlock your enchanted time travel key: %s\n\n", ev.Ticket.ID)
	fmt.Fprintf(&b, "Collect the time-travel key at %s (%s).\n\n", ev.Gig.CollectionPoint, ev.Gig.CollectionTime)
	b.WriteString("See you there,\nTimelessness Team\n")

	return domain.EmailMessage{
		To:      ev.Ticket.Email,
		Subject: fmt.Sprintf("Your ticket for %s in %s", band, city),
		Text:    b.String(),
	}
}
