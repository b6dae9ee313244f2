package entity

import "time"

// Room is one two-party conversation. The whole document, messages
// included, is the unit of mutual exclusion for every mutation.
type Room struct {
	ID                    string               `json:"id" firestore:"-"`
	Participants          []string             `json:"participants" firestore:"participants"`
	Messages              []Message            `json:"messages" firestore:"messages"`
	LastRead              map[string]time.Time `json:"last_read" firestore:"lastRead"`
	RequestID             string               `json:"request_id,omitempty" firestore:"requestId,omitempty"`
	Hidden                bool                 `json:"hidden" firestore:"hidden"`
	Deleted               bool                 `json:"deleted" firestore:"deleted"`
	CollectionCompleted   bool                 `json:"collection_completed" firestore:"collectionCompleted"`
	CollectionCompletedBy string               `json:"collection_completed_by,omitempty" firestore:"collectionCompletedBy,omitempty"`
	CollectionCompletedAt *time.Time           `json:"collection_completed_at,omitempty" firestore:"collectionCompletedAt,omitempty"`
	CollectionRejected    bool                 `json:"collection_rejected" firestore:"collectionRejected"`
	CollectionRejectedAt  *time.Time           `json:"collection_rejected_at,omitempty" firestore:"collectionRejectedAt,omitempty"`
	CreatedAt             time.Time            `json:"created_at" firestore:"createdAt"`
	UpdatedAt             time.Time            `json:"updated_at" firestore:"updatedAt"`
}

func NewRoom(id string, participantA, participantB, requestID string, now time.Time) *Room {
	return &Room{
		ID:           id,
		Participants: []string{participantA, participantB},
		Messages:     []Message{},
		LastRead: map[string]time.Time{
			participantA: now,
			participantB: now,
		},
		RequestID: requestID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (r *Room) HasParticipant(userID string) bool {
	for _, p := range r.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the first participant that is not userID, or ""
// when the user is alone in the room.
func (r *Room) OtherParticipant(userID string) string {
	for _, p := range r.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

func (r *Room) RemoveParticipant(userID string) {
	kept := r.Participants[:0]
	for _, p := range r.Participants {
		if p != userID {
			kept = append(kept, p)
		}
	}
	r.Participants = kept
}

func (r *Room) MessageIndex(messageID string) int {
	for i := range r.Messages {
		if r.Messages[i].ID == messageID {
			return i
		}
	}
	return -1
}

func (r *Room) LastMessage() *Message {
	if len(r.Messages) == 0 {
		return nil
	}
	latest := 0
	for i := 1; i < len(r.Messages); i++ {
		// ties keep the later array position
		if !r.Messages[i].Timestamp.Before(r.Messages[latest].Timestamp) {
			latest = i
		}
	}
	msg := r.Messages[latest]
	return &msg
}

func (r *Room) Visible() bool {
	return !r.Hidden && !r.Deleted
}

func (r *Room) Touch(now time.Time) {
	r.UpdatedAt = now
}

func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	out := *r
	out.Participants = append([]string(nil), r.Participants...)
	out.Messages = make([]Message, len(r.Messages))
	for i, m := range r.Messages {
		out.Messages[i] = m.Clone()
	}
	if r.LastRead != nil {
		out.LastRead = make(map[string]time.Time, len(r.LastRead))
		for k, v := range r.LastRead {
			out.LastRead[k] = v
		}
	}
	if r.CollectionCompletedAt != nil {
		t := *r.CollectionCompletedAt
		out.CollectionCompletedAt = &t
	}
	if r.CollectionRejectedAt != nil {
		t := *r.CollectionRejectedAt
		out.CollectionRejectedAt = &t
	}
	return &out
}
