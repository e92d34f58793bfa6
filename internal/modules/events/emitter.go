package events

import (
	"log"
	"time"

	"cortate/internal/domain"

	"github.com/google/uuid"
)

// Event is the payload pushed to both booking parties whenever a
// booking changes status.
type Event struct {
	ID            string               `json:"id"`
	Type          string               `json:"type"`
	BookingID     int64                `json:"booking_id"`
	BookingNumber string               `json:"booking_number"`
	Status        domain.BookingStatus `json:"status"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// Emitter fans booking lifecycle events out to the client and the
// barber. Delivery is fire-and-forget: offline parties simply miss
// the push and pick the state up on their next fetch.
type Emitter struct {
	hub *Hub
}

func NewEmitter(hub *Hub) *Emitter {
	return &Emitter{hub: hub}
}

// BookingChanged pushes one event to both parties, addressed by
// their user ids.
func (e *Emitter) BookingChanged(b *domain.Booking, clientUserID, barberUserID int64, eventType string) {
	event := Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		Status:        b.Status,
		OccurredAt:    time.Now().UTC(),
	}

	clientOK := e.hub.SendToUser(clientUserID, event)
	barberOK := e.hub.SendToUser(barberUserID, event)

	log.Printf("event=%s booking=%s status=%s client_queued=%t barber_queued=%t",
		eventType, b.BookingNumber, b.Status, clientOK, barberOK)
}
