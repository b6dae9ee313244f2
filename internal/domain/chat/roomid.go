package chat

import (
	"sort"
	"strings"
)

type RoomIDScheme string

const (
	// DeterministicRoomIDs derives the id from the participant pair (and
	// the bound request), so creation is idempotent.
	DeterministicRoomIDs RoomIDScheme = "deterministic"
	// GeneratedRoomIDs lets the store allocate ids; existing rooms are
	// found by query.
	GeneratedRoomIDs RoomIDScheme = "generated"
)

func ParseRoomIDScheme(s string) RoomIDScheme {
	if RoomIDScheme(s) == GeneratedRoomIDs {
		return GeneratedRoomIDs
	}
	return DeterministicRoomIDs
}

func DeterministicRoomID(userA, userB, requestID string) string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	id := strings.Join(ids, "_")
	if requestID != "" {
		id += "_" + requestID
	}
	return id
}

// RequestIDFromRoomID recovers the request bound into a deterministic room
// id for the pair. It returns "" when roomID is not derived from the pair or
// carries no request.
func RequestIDFromRoomID(roomID, userA, userB string) string {
	prefix := DeterministicRoomID(userA, userB, "") + "_"
	if !strings.HasPrefix(roomID, prefix) {
		return ""
	}
	return strings.TrimPrefix(roomID, prefix)
}

// SamePair reports whether participants are exactly userA and userB in any
// order.
func SamePair(participants []string, userA, userB string) bool {
	if len(participants) != 2 {
		return false
	}
	return (participants[0] == userA && participants[1] == userB) ||
		(participants[0] == userB && participants[1] == userA)
}
