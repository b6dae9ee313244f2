package entity

import "time"

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestCompleted RequestStatus = "completed"
	RequestHidden    RequestStatus = "hidden"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestCompleted, RequestHidden:
		return true
	}
	return false
}

// Request is a collection request posted by its owner (the requester).
type Request struct {
	ID          string        `json:"id" firestore:"-"`
	OwnerID     string        `json:"user_id" firestore:"userId"`
	Title       string        `json:"title" firestore:"title"`
	Description string        `json:"description" firestore:"description"`
	Location    string        `json:"location" firestore:"location"`
	ImageURL    string        `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
	Status      RequestStatus `json:"status" firestore:"status"`
	CreatedAt   time.Time     `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time     `json:"updated_at" firestore:"updatedAt"`
}
