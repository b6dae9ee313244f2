package chat

import (
	"sort"
	"time"

	"webugs/internal/domain/entity"
)

type ChatListItem struct {
	RoomID      string          `json:"room_id"`
	RequestID   string          `json:"request_id,omitempty"`
	OtherUser   entity.Profile  `json:"other_user"`
	LastMessage *entity.Message `json:"last_message,omitempty"`
	UnreadCount int             `json:"unread_count"`
	State       HandshakeState  `json:"state"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ChatList struct {
	Items       []ChatListItem `json:"items"`
	TotalUnread int            `json:"total_unread"`
}

// ListedInChatList excludes hidden and deleted rooms, and rooms mid-way
// through a not yet finalized completion.
func ListedInChatList(room *entity.Room) bool {
	if room.Hidden || room.Deleted {
		return false
	}
	if room.CollectionCompleted && !room.CollectionRejected {
		return false
	}
	return true
}

// BuildChatList projects the user's rooms into the sorted feed. profiles
// is keyed by user id; missing entries render as an unknown user.
// TotalUnread covers every visible room, including ones filtered out of the
// list while a completion is pending.
func BuildChatList(rooms []*entity.Room, userID string, profiles map[string]entity.Profile) *ChatList {
	list := &ChatList{Items: []ChatListItem{}}
	for _, room := range rooms {
		if room == nil || !room.HasParticipant(userID) {
			continue
		}
		if room.Visible() {
			list.TotalUnread += UnreadCount(room, userID)
		}
		if !ListedInChatList(room) {
			continue
		}
		otherID := room.OtherParticipant(userID)
		profile, ok := profiles[otherID]
		if !ok {
			profile = entity.UnknownProfile(otherID)
		}
		list.Items = append(list.Items, ChatListItem{
			RoomID:      room.ID,
			RequestID:   room.RequestID,
			OtherUser:   profile,
			LastMessage: room.LastMessage(),
			UnreadCount: UnreadCount(room, userID),
			State:       State(room),
			UpdatedAt:   room.UpdatedAt,
		})
	}
	sort.SliceStable(list.Items, func(i, j int) bool {
		if list.Items[i].UpdatedAt.Equal(list.Items[j].UpdatedAt) {
			return list.Items[i].RoomID < list.Items[j].RoomID
		}
		return list.Items[i].UpdatedAt.After(list.Items[j].UpdatedAt)
	})
	return list
}
