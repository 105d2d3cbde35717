package scheduling

import "context"

type StoreAPI interface {
	CreateTicket(ctx context.Context, t Ticket) (string, error)
	GetTicket(ctx context.Context, ticketID string) (Ticket, error)
	ListTickets(ctx context.Context, filter ListFilter) ([]Ticket, int, error)
	UpdateTicket(ctx context.Context, t Ticket) error
	UpdateProgress(ctx context.Context, t Ticket) error
	UpdateWorkPerformed(ctx context.Context, ticketID, text string) error
	DeleteTicket(ctx context.Context, ticketID string) error
}
