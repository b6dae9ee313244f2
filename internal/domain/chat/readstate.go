package chat

import (
	"time"

	"webugs/internal/domain/entity"
)

// MarkRead flips the read flag of messageID when userID is its recipient and
// moves lastRead[userID] forward. It reports whether the message was found
// for this recipient. The whole message array is rewritten by the caller.
func MarkRead(room *entity.Room, messageID, userID string, now time.Time) bool {
	idx := room.MessageIndex(messageID)
	if idx < 0 {
		return false
	}
	msg := &room.Messages[idx]
	if msg.RecipientID != userID {
		return false
	}
	msg.Read = entity.Bool(true)
	advanceLastRead(room, userID, now)
	return true
}

// MarkAllRead marks every message addressed to userID as read, including
// legacy messages without a read flag, and returns how many changed.
func MarkAllRead(room *entity.Room, userID string, now time.Time) int {
	lastRead := room.LastRead[userID]
	changed := 0
	for i := range room.Messages {
		msg := &room.Messages[i]
		if !isUnread(msg, userID, lastRead) {
			continue
		}
		if msg.HasReadFlag() || msg.RecipientID == userID {
			msg.Read = entity.Bool(true)
		}
		changed++
	}
	advanceLastRead(room, userID, now)
	return changed
}

func advanceLastRead(room *entity.Room, userID string, now time.Time) {
	if room.LastRead == nil {
		room.LastRead = make(map[string]time.Time)
	}
	if prev, ok := room.LastRead[userID]; !ok || now.After(prev) {
		room.LastRead[userID] = now
	}
}
