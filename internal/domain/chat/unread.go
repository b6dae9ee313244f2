package chat

import (
	"time"

	"webugs/internal/domain/entity"
)

// UnreadCount counts the messages userID has not read. Messages carrying a
// read flag use it (recipient == user && !read); legacy messages without
// the flag fall back to the room's lastRead mark for the user, treated as
// the epoch when absent.
func UnreadCount(room *entity.Room, userID string) int {
	if room == nil || userID == "" {
		return 0
	}
	lastRead, hasMark := room.LastRead[userID]
	if !hasMark {
		lastRead = time.Time{}
	}

	count := 0
	for i := range room.Messages {
		if isUnread(&room.Messages[i], userID, lastRead) {
			count++
		}
	}
	return count
}

func isUnread(m *entity.Message, userID string, lastRead time.Time) bool {
	if m.HasReadFlag() {
		return m.RecipientID == userID && !*m.Read
	}
	return m.SenderID != userID && m.Timestamp.After(lastRead)
}

// TotalUnread sums UnreadCount over the visible rooms userID participates in.
func TotalUnread(rooms []*entity.Room, userID string) int {
	total := 0
	for _, room := range rooms {
		if room == nil || !room.Visible() || !room.HasParticipant(userID) {
			continue
		}
		total += UnreadCount(room, userID)
	}
	return total
}

// UnreadMessageIDs lists the ids UnreadCount would count, in array order.
func UnreadMessageIDs(room *entity.Room, userID string) []string {
	if room == nil {
		return nil
	}
	lastRead := room.LastRead[userID]
	var ids []string
	for i := range room.Messages {
		if isUnread(&room.Messages[i], userID, lastRead) {
			ids = append(ids, room.Messages[i].ID)
		}
	}
	return ids
}
