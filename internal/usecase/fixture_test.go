package usecase

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"webugs/internal/adapter/repository/memory"
	"webugs/internal/domain/chat"
	"webugs/internal/domain/entity"
	"webugs/internal/infrastructure/ratelimit"
	"webugs/internal/session"
)

type recordingNotifier struct {
	mu      sync.Mutex
	lists   map[string][]*chat.ChatList
	totals  map[string][]int
	rooms   map[string][]*RoomView
	prompts map[string][]*CompletionPrompt
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		lists:   map[string][]*chat.ChatList{},
		totals:  map[string][]int{},
		rooms:   map[string][]*RoomView{},
		prompts: map[string][]*CompletionPrompt{},
	}
}

func (n *recordingNotifier) NotifyUnreadTotal(userID string, total int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.totals[userID] = append(n.totals[userID], total)
}

func (n *recordingNotifier) NotifyChatList(userID string, list *chat.ChatList) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lists[userID] = append(n.lists[userID], list)
}

func (n *recordingNotifier) NotifyRoom(userID string, view *RoomView) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rooms[userID] = append(n.rooms[userID], view)
}

func (n *recordingNotifier) NotifyCompletionPrompt(userID string, prompt *CompletionPrompt) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.prompts[userID] = append(n.prompts[userID], prompt)
}

func (n *recordingNotifier) listCount(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.lists[userID])
}

func (n *recordingNotifier) lastList(userID string) *chat.ChatList {
	n.mu.Lock()
	defer n.mu.Unlock()
	lists := n.lists[userID]
	if len(lists) == 0 {
		return nil
	}
	return lists[len(lists)-1]
}

func (n *recordingNotifier) lastTotal(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	totals := n.totals[userID]
	if len(totals) == 0 {
		return -1
	}
	return totals[len(totals)-1]
}

func (n *recordingNotifier) roomViews(userID string) []*RoomView {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*RoomView(nil), n.rooms[userID]...)
}

func (n *recordingNotifier) promptCount(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.prompts[userID])
}

type fakeUploader struct {
	mu      sync.Mutex
	err     error
	n       int
	deleted []string
}

func (u *fakeUploader) Upload(ctx context.Context, file io.Reader, contentType string, kind entity.MediaKind) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return "", u.err
	}
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	u.n++
	return fmt.Sprintf("https://storage.example/%s/%d", kind, u.n), nil
}

func (u *fakeUploader) Delete(ctx context.Context, fileURL string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deleted = append(u.deleted, fileURL)
	return nil
}

// steppingClock advances one second per reading so every stamp is unique.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	store      *memory.Store
	notifier   *recordingNotifier
	uploader   *fakeUploader
	chat       *ChatUseCase
	completion *CompletionUseCase
	chatList   *ChatListUseCase
	requests   *RequestUseCase
	history    *HistoryUseCase
}

func newFixture(t *testing.T, scheme chat.RoomIDScheme) *fixture {
	t.Helper()
	store := memory.NewStore()
	notifier := newRecordingNotifier()
	uploader := &fakeUploader{}

	var seq int
	var seqMu sync.Mutex
	codec := chat.NewCodec(&steppingClock{now: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}, func() string {
		seqMu.Lock()
		defer seqMu.Unlock()
		seq++
		return fmt.Sprintf("m%d", seq)
	})
	limiter := ratelimit.NewRateLimiter(map[string]ratelimit.Limit{
		ratelimit.ActionSendMessage: {PerMinute: 6000, Burst: 1000},
		ratelimit.ActionCreateRoom:  {PerMinute: 6000, Burst: 1000},
		ratelimit.ActionCompletion:  {PerMinute: 6000, Burst: 1000},
	})
	profiles := NewProfileResolver(store.Users(), 4, time.Minute)

	completion := NewCompletionUseCase(store.Rooms(), store.Requests(), store, notifier, codec, limiter)
	f := &fixture{
		store:      store,
		notifier:   notifier,
		uploader:   uploader,
		completion: completion,
		chat: NewChatUseCase(store.Rooms(), profiles, uploader, notifier, completion, codec, limiter, ChatConfig{
			RoomIDScheme: scheme,
			Locale:       chat.ParseLocale("ko-KR", "Asia/Seoul"),
		}),
		chatList: NewChatListUseCase(store.Rooms(), profiles, notifier),
		requests: NewRequestUseCase(store.Requests()),
		history:  NewHistoryUseCase(store.Histories()),
	}

	ctx := context.Background()
	for _, u := range []entity.User{{ID: "u1", Name: "Requester"}, {ID: "u2", Name: "Collector"}, {ID: "u3", Name: "Other"}} {
		user := u
		require.NoError(t, store.Users().Create(ctx, &user))
	}
	return f
}

func as(userID string) context.Context {
	return session.WithUser(context.Background(), userID)
}

// requestRoom sets up request q owned by u1 and the room u2 opened for it.
func (f *fixture) requestRoom(t *testing.T, requestID string) *entity.Room {
	t.Helper()
	require.NoError(t, f.store.Requests().Create(context.Background(), &entity.Request{ID: requestID, OwnerID: "u1", Title: "Beetle " + requestID, ImageURL: "https://img/" + requestID}))
	room, err := f.chat.CreateRoom(as("u2"), "u2", "u1", requestID)
	require.NoError(t, err)
	return room
}

func (f *fixture) send(t *testing.T, roomID, from, to, content string) *entity.Message {
	t.Helper()
	msg, err := f.chat.SendMessage(as(from), chat.MessageInput{RoomID: roomID, SenderID: from, RecipientID: to, Content: content})
	require.NoError(t, err)
	return msg
}

func (f *fixture) room(t *testing.T, roomID string) *entity.Room {
	t.Helper()
	room, err := f.store.Rooms().GetByID(context.Background(), roomID)
	require.NoError(t, err)
	return room
}
