package entity

import "time"

// AlertLog is the audit record of one delivered ticket alert
type AlertLog struct {
	ID          string    `bson:"_id,omitempty"`
	TaskID      uint      `bson:"taskId"`
	Receiver    string    `bson:"receiver"`
	Subject     string    `bson:"subject"`
	FromStation string    `bson:"fromStation"`
	ToStation   string    `bson:"toStation"`
	ViaStation  string    `bson:"viaStation,omitempty"`
	TravelDate  string    `bson:"travelDate"`
	MatchCount  int       `bson:"matchCount"`
	SentAt      time.Time `bson:"sentAt"`
}
