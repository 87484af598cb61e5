package domain

import "time"

// UsageLogEntry records one accepted user query.
type UsageLogEntry struct {
	ID        string    `json:"id" bson:"_id"`
	ActorID   string    `json:"actor_id" bson:"user_id"`
	IsGuest   bool      `json:"is_guest" bson:"is_guest"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// WeeklyStats is the response of the weekly usage reporter.
type WeeklyStats struct {
	Count int `json:"count"`
}
