package entity

import "time"

// Watch task status values
const (
	StatusStopped   = 0
	StatusActive    = 1
	StatusCompleted = 2
)

// WatchTask represents a user's standing seat-availability watch request
type WatchTask struct {
	ID             uint
	Username       string
	FromStation    string
	ToStation      string
	ViaStation     string // non-empty for transfer tasks
	TravelDate     string // YYYY-MM-DD, as sent upstream
	TrainTypes     string // comma-separated, informational only
	SeatTypes      string // comma-separated seat class names
	ReceiverEmail  string
	Status         int
	CreatedAt      time.Time
	LastCheckedAt  *time.Time // nil means never polled
	LastNotifiedAt *time.Time // nil means never matched
}

// IsTransfer reports whether the task is a two-leg itinerary
func (t *WatchTask) IsTransfer() bool {
	return t.ViaStation != ""
}
