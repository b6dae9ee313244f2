package entity

import "time"

const (
	MinRating     = 0
	MaxRating     = 10
	DefaultRating = 5
)

// History is the immutable record of one accepted completion handshake.
// Its id is the id of the room the handshake ran in.
type History struct {
	ID           string    `json:"id" firestore:"-"`
	RequesterID  string    `json:"requester_id" firestore:"requesterId"`
	CollectorID  string    `json:"collector_id" firestore:"collectorId"`
	Rating       int       `json:"rating" firestore:"rating"`
	CompletedAt  time.Time `json:"completed_at" firestore:"completedAt"`
	RequestTitle string    `json:"request_title" firestore:"requestTitle"`
	RequestImage string    `json:"request_image,omitempty" firestore:"requestImage,omitempty"`
	RequestID    string    `json:"request_id" firestore:"requestId"`
	RoomID       string    `json:"room_id" firestore:"roomId"`
}

// HistorySummary aggregates a collector's records.
type HistorySummary struct {
	Records          []*History `json:"records"`
	TotalCollections int        `json:"total_collections"`
	AverageRating    float64    `json:"average_rating"`
}
