package repository

import (
	"context"

	"railwatch-service/internal/domain/entity"
)

// TicketRepository queries the external left-ticket source. Exactly one
// network round trip per call. Implementations return the parsed trains
// together with any transport or parse error; callers treat an error as
// "no availability" and only log it.
type TicketRepository interface {
	QueryLeftTickets(ctx context.Context, from, to, date string) ([]entity.TrainAvailability, error)
}
