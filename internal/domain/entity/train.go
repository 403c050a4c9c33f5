package entity

// SeatUnavailable is the upstream sentinel for a seat class that is not
// offered or sold out. Distinct from a numeric "0" of a real class.
const SeatUnavailable = "无"

// TrainAvailability is one parsed train row from a left-ticket query.
// Ephemeral: recomputed on every poll, never persisted.
type TrainAvailability struct {
	Code        string
	FromStation string
	ToStation   string
	DepartTime  string // HH:MM clock time within the queried leg
	ArriveTime  string // HH:MM clock time within the queried leg
	Seats       map[string]string
}

// FoundTicket is a train that satisfied at least one requested seat class
type FoundTicket struct {
	Code       string
	DepartTime string
	ArriveTime string
	Seats      []string // "class:remaining" pairs
}

// TransferPlan is a qualifying two-leg connection
type TransferPlan struct {
	First          FoundTicket
	Second         FoundTicket
	LayoverMinutes int
}
