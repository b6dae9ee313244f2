package entity

import "time"

type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

func (k MediaKind) Valid() bool {
	return k == MediaPhoto || k == MediaVideo
}

// Media is a reference to an object held by external media storage.
type Media struct {
	Kind MediaKind `json:"type" firestore:"type"`
	URL  string    `json:"url" firestore:"url"`
}

type Message struct {
	ID          string    `json:"message_id" firestore:"messageId"`
	SenderID    string    `json:"sender_id" firestore:"senderId"`
	RecipientID string    `json:"recipient_id" firestore:"recipientId"`
	Content     string    `json:"content" firestore:"content"`
	Media       *Media    `json:"media,omitempty" firestore:"media,omitempty"`
	Timestamp   time.Time `json:"timestamp" firestore:"timestamp"`
	// Read is nil on messages written before per-message read flags existed.
	Read *bool `json:"read,omitempty" firestore:"read,omitempty"`
}

func (m Message) HasReadFlag() bool {
	return m.Read != nil
}

func (m Message) IsRead() bool {
	return m.Read != nil && *m.Read
}

// Clone returns a copy that shares no pointers with m.
func (m Message) Clone() Message {
	out := m
	if m.Media != nil {
		media := *m.Media
		out.Media = &media
	}
	if m.Read != nil {
		read := *m.Read
		out.Read = &read
	}
	return out
}

func Bool(v bool) *bool {
	return &v
}
