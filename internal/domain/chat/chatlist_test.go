package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webugs/internal/domain/entity"
)

func TestBuildChatListFiltersAndSorts(t *testing.T) {
	unread := entity.Message{ID: "1", SenderID: "u2", RecipientID: "u1", Timestamp: base, Read: entity.Bool(false)}

	older := entity.NewRoom("older", "u1", "u2", "q1", base)
	older.Messages = []entity.Message{unread}
	newer := entity.NewRoom("newer", "u1", "u3", "q2", base.Add(time.Hour))
	hidden := entity.NewRoom("hidden", "u1", "u4", "q3", base.Add(2*time.Hour))
	hidden.Hidden = true
	pending := entity.NewRoom("pending", "u1", "u5", "q4", base.Add(3*time.Hour))
	pending.CollectionCompleted = true
	pending.Messages = []entity.Message{unread}
	reopened := entity.NewRoom("reopened", "u1", "u6", "q5", base.Add(30*time.Minute))
	reopened.CollectionCompleted = true
	reopened.CollectionRejected = true
	foreign := entity.NewRoom("foreign", "u8", "u9", "", base)

	profiles := map[string]entity.Profile{"u2": {UserID: "u2", Name: "Bora"}}
	list := BuildChatList([]*entity.Room{older, newer, hidden, pending, reopened, foreign}, "u1", profiles)

	require.Len(t, list.Items, 3)
	assert.Equal(t, "newer", list.Items[0].RoomID)
	assert.Equal(t, "reopened", list.Items[1].RoomID)
	assert.Equal(t, "older", list.Items[2].RoomID)
	assert.Equal(t, "Bora", list.Items[2].OtherUser.Name)
	assert.Equal(t, 1, list.Items[2].UnreadCount)
	assert.Equal(t, "u3", list.Items[0].OtherUser.UserID)
	assert.Equal(t, StateRejected, list.Items[1].State)
	// the pending room is not listed but its unread still counts
	assert.Equal(t, 2, list.TotalUnread)
}

func TestBuildChatListEmpty(t *testing.T) {
	list := BuildChatList(nil, "u1", nil)

	assert.NotNil(t, list.Items)
	assert.Zero(t, list.TotalUnread)
}
