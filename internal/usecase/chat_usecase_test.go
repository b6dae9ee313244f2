package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webugs/internal/adapter/repository/memory"
	"webugs/internal/domain/chat"
	"webugs/internal/domain/entity"
	"webugs/internal/infrastructure/ratelimit"
	"webugs/pkg/errors"
)

func TestCreateRoomIsIdempotent(t *testing.T) {
	f := newFixture(t, chat.DeterministicRoomIDs)

	first, err := f.chat.CreateRoom(as("u1"), "u1", "u2", "")
	require.NoError(t, err)
	assert.Equal(t, "u1_u2", first.ID)
	f.send(t, first.ID, "u1", "u2", "hello")

	second, err := f.chat.CreateRoom(as("u2"), "u2", "u1", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.Messages, 1)

	withRequest, err := f.chat.CreateRoom(as("u1"), "u1", "u2", "q1")
	require.NoError(t, err)
	assert.Equal(t, "u1_u2_q1", withRequest.ID)
}

func TestCreateRoomGeneratedIDs(t *testing.T) {
	f := newFixture(t, chat.GeneratedRoomIDs)

	first, err := f.chat.CreateRoom(as("u1"), "u1", "u2", "q1")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	again, err := f.chat.CreateRoom(as("u2"), "u2", "u1", "q1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	other, err := f.chat.CreateRoom(as("u1"), "u1", "u2", "q2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCreateRoomRejections(t *testing.T) {
	f := newFixture(t, chat.DeterministicRoomIDs)

	_, err := f.chat.CreateRoom(context.Background(), "u1", "u2", "")
	assert.True(t, errors.Is(err, errors.CodeUnauthenticated))

	_, err = f.chat.CreateRoom(as("u1"), "u1", "u1", "")
	assert.True(t, errors.Is(err, errors.CodeInvalidMessage))

	_, err = f.chat.CreateRoom(as("u1"), "u1", "", "")
	assert.True(t, errors.Is(err, errors.CodeInvalidMessage))

	_, err = f.chat.CreateRoom(as("u3"), "u1", "u2", "")
	assert.True(t, errors.Is(err, errors.CodeForbidden))
}

func TestSendMessageCreatesRoomOnFirstSend(t *testing.T) {
	f := newFixture(t, chat.DeterministicRoomIDs)

	msg := f.send(t, "u1_u2", "u1", "u2", "first")
	assert.Equal(t, "first", msg.Content)
	require.NotNil(t, msg.Read)
	assert.False(t, *msg.Read)

	room := f.room(t, "u1_u2")
	assert.ElementsMatch(t, []string{"u1", "u2"}, room.Participants)
	require.Len(t, room.Messages, 1)
	assert.Equal(t, msg.Timestamp, room.UpdatedAt)
}

func TestFirstSendBindsRequestFromRoomID(t *testing.T) {
	f := newFixture(t, chat.DeterministicRoomIDs)
	require.NoError(t, f.store.Requests().Create(context.Background(), &entity.Request{ID: "q1", OwnerID: "u1", Title: "Beetle"}))

	f.send(t, "u1_u2_q1", "u2", "u1", "hi")
	assert.Equal(t, "q1", f.room(t, "u1_u2_q1").RequestID)

	room, err := f.chat.CreateRoom(as("u2"), "u2", "u1", "q1")
	require.NoError(t, err)
	assert.Equal(t, "q1", room.RequestID)
	assert.Len(t, room.Messages, 1)

	_, err = f.completion.CompleteCollection(as("u2"), room.ID, "u2")
	require.NoError(t, err)
}

func TestFirstSendCarriesCallerRequest(t *testing.T) {
	f := newFixture(t, chat.GeneratedRoomIDs)

	_, err := f.chat.SendMessage(as("u2"), chat.MessageInput{RoomID: "r1", SenderID: "u2", RecipientID: "u1", Content: "hi", RequestID: "q7"})
	require.NoError(t, err)
	assert.Equal(t, "q7", f.room(t, "r1").RequestID)
}

func TestCreateRoomBindsRequestToExistingRoom(t *testing.T) {
	f := newFixture(t, chat.DeterministicRoomIDs)
	require.NoError(t, f.store.Requests().Create(context.Background(), &entity.Request{ID: "q1", OwnerID: "u1", Title: "Beetle"}))
	_, err := f.store.Rooms().Create(context.Background(), entity.NewRoom("u1_u2_q1", "u1", "u2", "", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	room, err := f.chat.CreateRoom(as("u1"), "u1", "u2", "q1")
	require.NoError(t, err)
	assert.Equal(t, "q1", room.RequestID)
	assert.Equal(t, "q1", f.room(t, "u1_u2_q1").RequestID)

	_, err = f.completion.CompleteCollection(as("u2"), room.ID, "u2")
	require.NoError(t, err)
}

func TestSendMessageRecipientMustBeParticipant(t *testing.T) {
	f := newFixture(t, chat.DeterministicRoomIDs)
	f.send(t, "u1_u2", "u2", "u1", "hello")

	_, err := f.chat.SendMessage(as("u2"), chat.MessageInput{RoomID: "u1_u2", SenderID: "u2", RecipientID: "u3", Content: "psst"})
	assert.True(t, errors.Is(err, errors.CodeInvalidMessage))

	room := f.room(t, "u1_u2")
	assert.Len(t, room.Messages, 1)
	assert.Equal(t, 1, chat.UnreadCount(room, "u1"))
}

func TestSendMessageValidation(t *testing.T) {
	f := newFixture(t, chat.DeterministicRoomIDs)
	f.send(t, "u1_u2", "u1", "u2", "hi")

	_, err := f.chat.SendMessage(as("u1"), chat.MessageInput{RoomID: "u1_u2", SenderID: "u1", RecipientID: "u2", Content: "  "})
	assert.True(t, errors.Is(err, errors.CodeInvalidMessage))

	_, err = f.chat.SendMessage(as("u1"), chat.MessageInput{RoomID: "", SenderID: "u1", RecipientID: "u2", Content: "x"})
	assert.True(t, errors.Is(err, errors.CodeInvalidMessage))

	_, err = f.chat.SendMessage(as("u3"), chat.MessageInput{RoomID: "u1_u2", SenderID: "u1", RecipientID: "u2", Content: "x"})
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = f.chat.SendMessage(as("u3"), chat.MessageInput{RoomID: "u1_u2", SenderID: "u3", RecipientID: "u2", Content: "x"})
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = f.chat.SendMessage(as("u1"), chat.MessageInput{RoomID: "u1_u2", SenderID: "u1", RecipientID: "u2", Content: chat.SentinelAccepted})
	assert.True(t, errors.Is(err, errors.CodeInvalidMessage))

	assert.Len(t, f.room(t, "u1_u2").Messages, 1)
}

func TestSendMessageRateLimited(t *testing.T) {
	f := newFixture(t, chat.DeterministicRoomIDs)
	f.chat.rateLimiter = nil
	f.send(t, "u1_u2", "u1", "u2", "free")

	f.chat.rateLimiter = newTightLimiter()
	f.send(t, "u1_u2", "u1", "u2", "one")
	_, err := f.chat.SendMessage(as("u1"), chat.MessageInput{RoomID: "u1_u2", SenderID: "u1", RecipientID: "u2", Content: "two"})
	assert.True(t, errors.Is(err, errors.CodeTooManyRequests))
}

func TestSendMediaMessage(t *testing.T) {
	f := newFixture(t, chat.DeterministicRoomIDs)
	in := chat.MessageInput{RoomID: "u1_u2", SenderID: "u1", RecipientID: "u2"}

	msg, err := f.chat.SendMediaMessage(as("u1"), in, entity.MediaPhoto, "image/jpeg", strings.NewReader("jpeg"))
	require.NoError(t, err)
	require.NotNil(t, msg.Media)
	assert.Equal(t, entity.MediaPhoto, msg.Media.Kind)
	assert.Equal(t, "https://storage.example/photo/1", msg.Media.URL)
	assert.Empty(t, msg.Content)
}

func TestSendMediaMessageUploadFailurePersistsNothing(t *testing.T) {
	f := newFixture(t, chat.DeterministicRoomIDs)
	f.uploader.err = errors.StoreUnavailable("bucket down", nil)

	_, err := f.chat.SendMediaMessage(as("u1"), chat.MessageInput{RoomID: "u1_u2", SenderID: "u1", RecipientID: "u2", Content: "look"}, entity.MediaVideo, "video/mp4", strings.NewReader("mp4"))
	require.Error(t, err)

	_, err = f.store.Rooms().GetByID(context.Background(), "u1_u2")
	assert.True(t, errors.Is(err, errors.CodeRoomNotFound))
}

func TestSendMediaMessageRemovesUploadWhenSendFails(t *testing.T) {
	f := newFixture(t, chat.DeterministicRoomIDs)
	f.store.FailNext(memory.OpRoomAppend, errors.StoreUnavailable("down", nil))

	_, err := f.chat.SendMediaMessage(as("u1"), chat.MessageInput{RoomID: "u1_u2", SenderID: "u1", RecipientID: "u2"}, entity.MediaPhoto, "image/png", strings.NewReader("png"))
	assert.True(t, errors.Is(err, errors.CodeStoreUnavailable))
	assert.Equal(t, []string{"https://storage.example/photo/1"}, f.uploader.deleted)
}

func TestSendMediaMessageRejectsBadKind(t *testing.T) {
	f := newFixture(t, chat.DeterministicRoomIDs)
	_, err := f.chat.SendMediaMessage(as("u1"), chat.MessageInput{RoomID: "u1_u2", SenderID: "u1", RecipientID: "u2"}, entity.MediaKind("audio"), "audio/mp3", strings.NewReader("x"))
	assert.True(t, errors.Is(err, errors.CodeInvalidMessage))
	assert.Zero(t, f.uploader.n)
}

func TestMarkReadAndTotalUnread(t *testing.T) {
	f := newFixture(t, chat.DeterministicRoomIDs)
	m1 := f.send(t, "u1_u2", "u1", "u2", "one")
	f.send(t, "u1_u2", "u1", "u2", "two")
	f.send(t, "u1_u3", "u1", "u3", "elsewhere")

	total, err := f.chat.TotalUnread(as("u2"), "u2")
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	room, err := f.chat.MarkRead(as("u2"), "u1_u2", m1.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, chat.UnreadCount(room, "u2"))

	changed, err := f.chat.MarkAllRead(as("u2"), "u1_u2", "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	total, err = f.chat.TotalUnread(as("u2"), "u2")
	require.NoError(t, err)
	assert.Zero(t, total)

	before := f.room(t, "u1_u2").UpdatedAt
	changed, err = f.chat.MarkAllRead(as("u2"), "u1_u2", "u2")
	require.NoError(t, err)
	assert.Zero(t, changed)
	assert.Equal(t, before, f.room(t, "u1_u2").UpdatedAt)
}

func TestMarkReadOnlyByRecipient(t *testing.T) {
	f := newFixture(t, chat.DeterministicRoomIDs)
	m1 := f.send(t, "u1_u2", "u1", "u2", "one")

	_, err := f.chat.MarkRead(as("u1"), "u1_u2", m1.ID, "u1")
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	_, err = f.chat.MarkRead(as("u1"), "u1_u2", m1.ID, "u2")
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = f.chat.MarkRead(as("u2"), "nope", m1.ID, "u2")
	assert.True(t, errors.Is(err, errors.CodeRoomNotFound))
}

func TestHideAndLeaveRoom(t *testing.T) {
	f := newFixture(t, chat.DeterministicRoomIDs)
	f.send(t, "u1_u2", "u1", "u2", "hi")

	require.NoError(t, f.chat.HideRoom(as("u2"), "u1_u2"))
	assert.True(t, f.room(t, "u1_u2").Hidden)

	require.NoError(t, f.chat.LeaveRoom(as("u1"), "u1_u2", "u1"))
	room := f.room(t, "u1_u2")
	assert.Equal(t, []string{"u2"}, room.Participants)

	require.NoError(t, f.chat.LeaveRoom(as("u2"), "u1_u2", "u2"))
	room = f.room(t, "u1_u2")
	assert.Empty(t, room.Participants)
	assert.True(t, room.Hidden)
	assert.False(t, room.Deleted)

	err := f.chat.LeaveRoom(as("u2"), "u1_u2", "u2")
	assert.True(t, errors.Is(err, errors.CodeForbidden))
}

func TestDeleteRoomIsNoOpUnlessCompleted(t *testing.T) {
	f := newFixture(t, chat.DeterministicRoomIDs)
	f.send(t, "u1_u2", "u1", "u2", "hi")

	deleted, err := f.chat.DeleteRoom(as("u1"), "u1_u2")
	require.NoError(t, err)
	assert.False(t, deleted)
	f.room(t, "u1_u2")
}

func TestGetRoomView(t *testing.T) {
	f := newFixture(t, chat.DeterministicRoomIDs)
	room := f.requestRoom(t, "q1")
	f.send(t, room.ID, "u2", "u1", "found it")
	_, err := f.completion.CompleteCollection(as("u2"), room.ID, "u2")
	require.NoError(t, err)

	view, err := f.chat.GetRoomView(as("u1"), room.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.StateCompletionPending, view.State)
	assert.Equal(t, "Collector", view.OtherUser.Name)
	assert.Equal(t, 2, view.UnreadCount)
	require.Len(t, view.Timeline, 3)
	assert.Equal(t, "date", view.Timeline[0].Type)
	assert.Equal(t, "2024년 6월 1일", view.Timeline[0].Date)
	require.NotNil(t, view.Prompt)
	assert.Equal(t, "u2", view.Prompt.CollectorID)
	assert.Equal(t, chat.SentinelCompletion, view.Prompt.Message.Content)
	assert.Equal(t, entity.DefaultRating, view.Prompt.DefaultRating)

	collectorView, err := f.chat.GetRoomView(as("u2"), room.ID)
	require.NoError(t, err)
	assert.Nil(t, collectorView.Prompt)
	assert.Equal(t, "Requester", collectorView.OtherUser.Name)

	_, err = f.chat.GetRoomView(as("u3"), room.ID)
	assert.True(t, errors.Is(err, errors.CodeForbidden))
}

func newTightLimiter() *ratelimit.RateLimiter {
	return ratelimit.NewRateLimiter(map[string]ratelimit.Limit{
		ratelimit.ActionSendMessage: {PerMinute: 1, Burst: 1},
	})
}
