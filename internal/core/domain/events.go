package domain

// EventType defines the type of real-time event.
type EventType string

const (
	EventTicketCreated     EventType = "TICKET_CREATED"
	EventTicketClosed      EventType = "TICKET_CLOSED"
	EventTicketsReset      EventType = "TICKETS_RESET"
)

// Event is the payload sent over WebSocket.
type Event struct {
	Type     EventType   `json:"type"`
	Payload  interface{} `json:"payload,omitempty"`
	TicketID int64       `json:"ticketId,omitempty"`
}
