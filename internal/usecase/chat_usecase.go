package usecase

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"webugs/internal/domain/chat"
	"webugs/internal/domain/entity"
	"webugs/internal/domain/repository"
	"webugs/internal/domain/service"
	"webugs/internal/infrastructure/ratelimit"
	"webugs/internal/session"
	"webugs/pkg/errors"
	"webugs/pkg/logger"
)

type ChatConfig struct {
	RoomIDScheme chat.RoomIDScheme
	Locale       chat.Locale
}

type ChatUseCase struct {
	roomRepo    repository.RoomRepository
	profiles    *ProfileResolver
	uploader    service.MediaUploader
	notifier    Notifier
	completion  *CompletionUseCase
	codec       *chat.Codec
	rateLimiter *ratelimit.RateLimiter
	config      ChatConfig
}

func NewChatUseCase(
	roomRepo repository.RoomRepository,
	profiles *ProfileResolver,
	uploader service.MediaUploader,
	notifier Notifier,
	completion *CompletionUseCase,
	codec *chat.Codec,
	rateLimiter *ratelimit.RateLimiter,
	config ChatConfig,
) *ChatUseCase {
	return &ChatUseCase{
		roomRepo:    roomRepo,
		profiles:    profiles,
		uploader:    uploader,
		notifier:    notifier,
		completion:  completion,
		codec:       codec,
		rateLimiter: rateLimiter,
		config:      config,
	}
}

// actAs checks that the session user is userID.
func actAs(ctx context.Context, userID string) error {
	uid, err := session.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	if userID != "" && uid != userID {
		return errors.Forbidden("You can only act on your own behalf", nil)
	}
	return nil
}

func (uc *ChatUseCase) allow(userID, action string) error {
	if uc.rateLimiter == nil {
		return nil
	}
	if ok, wait := uc.rateLimiter.Allow(userID, action); !ok {
		logger.Warn("%s rate limited: user %s must wait %v", action, userID, wait)
		return errors.TooManyRequests("Rate limit exceeded. Please wait " + wait.Round(time.Second).String())
	}
	return nil
}

// CreateRoom returns the room for the pair (and request), creating it when
// none exists yet. Repeated calls never create a second room.
func (uc *ChatUseCase) CreateRoom(ctx context.Context, participantA, participantB, requestID string) (*entity.Room, error) {
	uid, err := session.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if participantA == "" || participantB == "" {
		return nil, errors.InvalidMessage("both participants are required")
	}
	if participantA == participantB {
		return nil, errors.InvalidMessage("cannot open a chat with yourself")
	}
	if uid != participantA && uid != participantB {
		return nil, errors.Forbidden("You can only open chats you take part in", nil)
	}
	if err := uc.allow(uid, ratelimit.ActionCreateRoom); err != nil {
		return nil, err
	}

	now := uc.codec.Now()
	if uc.config.RoomIDScheme == chat.GeneratedRoomIDs {
		existing, err := uc.roomRepo.FindByParticipants(ctx, participantA, participantB, requestID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, errors.CodeNotFound) {
			logger.Error("CreateRoom Error: lookup failed: %v", err)
			return nil, err
		}
		room := entity.NewRoom("", participantA, participantB, requestID, now)
		if _, err := uc.roomRepo.Create(ctx, room); err != nil {
			logger.Error("CreateRoom Error: %v", err)
			return nil, err
		}
		return room, nil
	}

	id := chat.DeterministicRoomID(participantA, participantB, requestID)
	room := entity.NewRoom(id, participantA, participantB, requestID, now)
	created, err := uc.roomRepo.Create(ctx, room)
	if err != nil {
		logger.Error("CreateRoom Error: %v", err)
		return nil, err
	}
	if !created {
		return uc.bindRequest(ctx, id, requestID)
	}
	logger.Info("Chat room %s created for %s and %s", id, participantA, participantB)
	return room, nil
}

// bindRequest returns the existing room, recording requestID on it when an
// earlier first send created the room without one.
func (uc *ChatUseCase) bindRequest(ctx context.Context, roomID, requestID string) (*entity.Room, error) {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil || requestID == "" || room.RequestID != "" {
		return room, err
	}
	room, err = uc.roomRepo.Mutate(ctx, roomID, func(r *entity.Room) error {
		if r.RequestID == "" {
			r.RequestID = requestID
		}
		return nil
	})
	if err != nil {
		logger.LogRoomError(roomID, "bind request", err)
		return nil, err
	}
	return room, nil
}

// seedRequestID is the request a room created by this send is bound to:
// the caller's, or the one encoded in a deterministic room id.
func (uc *ChatUseCase) seedRequestID(in chat.MessageInput) string {
	if in.RequestID != "" || uc.config.RoomIDScheme == chat.GeneratedRoomIDs {
		return in.RequestID
	}
	return chat.RequestIDFromRoomID(in.RoomID, in.SenderID, in.RecipientID)
}

// SendMessage appends a text or media message, creating the room on the
// first send. The completion sentinel is routed into the handshake; the
// response sentinels can only be produced by RespondToCompletion.
func (uc *ChatUseCase) SendMessage(ctx context.Context, in chat.MessageInput) (*entity.Message, error) {
	if err := actAs(ctx, in.SenderID); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Media == nil {
		switch in.Content {
		case chat.SentinelCompletion:
			room, err := uc.completion.CompleteCollection(ctx, in.RoomID, in.SenderID)
			if err != nil {
				return nil, err
			}
			return lastSentinel(room, chat.SentinelCompletion), nil
		case chat.SentinelAccepted, chat.SentinelRejected:
			return nil, errors.InvalidMessage("this message is reserved for completion responses")
		}
	}
	if err := uc.allow(in.SenderID, ratelimit.ActionSendMessage); err != nil {
		return nil, err
	}

	existing, err := uc.roomRepo.GetByID(ctx, in.RoomID)
	switch {
	case err == nil:
		if err := chat.ValidateAppend(existing, entity.Message{SenderID: in.SenderID, RecipientID: in.RecipientID}); err != nil {
			return nil, err
		}
	case errors.Is(err, errors.CodeRoomNotFound):
	default:
		logger.Error("SendMessage Error: room %s lookup failed: %v", in.RoomID, err)
		return nil, err
	}

	msg, err := uc.codec.NewMessage(in)
	if err != nil {
		return nil, err
	}
	seed := entity.NewRoom(in.RoomID, in.SenderID, in.RecipientID, uc.seedRequestID(in), msg.Timestamp)
	if _, err := uc.roomRepo.Append(ctx, in.RoomID, msg, seed, msg.Timestamp); err != nil {
		logger.LogRoomError(in.RoomID, "send message", err)
		return nil, err
	}
	return &msg, nil
}

// SendMediaMessage uploads media first and sends only once the upload
// succeeded. A failed send removes the uploaded object again.
func (uc *ChatUseCase) SendMediaMessage(ctx context.Context, in chat.MessageInput, kind entity.MediaKind, contentType string, body io.Reader) (*entity.Message, error) {
	if err := actAs(ctx, in.SenderID); err != nil {
		return nil, err
	}
	pending := in
	pending.Media = &entity.Media{Kind: kind, URL: "pending"}
	if err := pending.Validate(); err != nil {
		return nil, err
	}
	if uc.uploader == nil {
		return nil, errors.Internal("Media storage is not configured", nil)
	}

	url, err := uc.uploader.Upload(ctx, body, contentType, kind)
	if err != nil {
		logger.Error("SendMediaMessage Error: upload failed: %v", err)
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, errors.Internal("Failed to upload media", err)
	}

	in.Media = &entity.Media{Kind: kind, URL: url}
	msg, err := uc.SendMessage(ctx, in)
	if err != nil {
		if delErr := uc.uploader.Delete(context.WithoutCancel(ctx), url); delErr != nil {
			logger.Warn("SendMediaMessage: could not remove orphaned upload %s: %v", url, delErr)
		}
		return nil, err
	}
	return msg, nil
}

// MarkRead flips the read flag of one message addressed to userID inside a
// single read-modify-write of the room.
func (uc *ChatUseCase) MarkRead(ctx context.Context, roomID, messageID, userID string) (*entity.Room, error) {
	if err := actAs(ctx, userID); err != nil {
		return nil, err
	}
	now := uc.codec.Now()
	room, err := uc.roomRepo.Mutate(ctx, roomID, func(room *entity.Room) error {
		if !room.HasParticipant(userID) {
			return errors.Forbidden("You are not a participant of this chat", nil)
		}
		if !chat.MarkRead(room, messageID, userID, now) {
			return errors.NotFound("Message", nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

var errNothingUnread = stderrors.New("nothing unread")

// MarkAllRead marks every unread message of userID as read. A room without
// unread messages is left untouched.
func (uc *ChatUseCase) MarkAllRead(ctx context.Context, roomID, userID string) (int, error) {
	if err := actAs(ctx, userID); err != nil {
		return 0, err
	}
	return uc.markAllRead(ctx, roomID, userID)
}

func (uc *ChatUseCase) markAllRead(ctx context.Context, roomID, userID string) (int, error) {
	now := uc.codec.Now()
	changed := 0
	_, err := uc.roomRepo.Mutate(ctx, roomID, func(room *entity.Room) error {
		if !room.HasParticipant(userID) {
			return errors.Forbidden("You are not a participant of this chat", nil)
		}
		if chat.UnreadCount(room, userID) == 0 {
			return errNothingUnread
		}
		changed = chat.MarkAllRead(room, userID, now)
		return nil
	})
	if stderrors.Is(err, errNothingUnread) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func (uc *ChatUseCase) HideRoom(ctx context.Context, roomID string) error {
	uid, err := session.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	now := uc.codec.Now()
	_, err = uc.roomRepo.Mutate(ctx, roomID, func(room *entity.Room) error {
		if !room.HasParticipant(uid) {
			return errors.Forbidden("You are not a participant of this chat", nil)
		}
		room.Hidden = true
		room.Touch(now)
		return nil
	})
	return err
}

// LeaveRoom hides the room and removes userID from it. Rooms are never
// physically removed here, even when nobody is left.
func (uc *ChatUseCase) LeaveRoom(ctx context.Context, roomID, userID string) error {
	if err := actAs(ctx, userID); err != nil {
		return err
	}
	now := uc.codec.Now()
	_, err := uc.roomRepo.Mutate(ctx, roomID, func(room *entity.Room) error {
		if !room.HasParticipant(userID) {
			return errors.Forbidden("You are not a participant of this chat", nil)
		}
		room.RemoveParticipant(userID)
		room.Hidden = true
		room.Touch(now)
		return nil
	})
	return err
}

// DeleteRoom physically removes a room whose completion was accepted. For
// any other room it does nothing and reports deleted=false.
func (uc *ChatUseCase) DeleteRoom(ctx context.Context, roomID string) (bool, error) {
	uid, err := session.CurrentUserID(ctx)
	if err != nil {
		return false, err
	}
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	if !room.HasParticipant(uid) {
		return false, errors.Forbidden("You are not a participant of this chat", nil)
	}
	if chat.State(room) != chat.StateAccepted {
		logger.Info("DeleteRoom: room %s is not completed, keeping it", roomID)
		return false, nil
	}
	if err := uc.roomRepo.Delete(ctx, roomID); err != nil {
		logger.LogRoomError(roomID, "delete", err)
		return false, err
	}
	return true, nil
}

// GetRoomView renders the room for the session user.
func (uc *ChatUseCase) GetRoomView(ctx context.Context, roomID string) (*RoomView, error) {
	uid, err := session.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(uid) {
		return nil, errors.Forbidden("You are not a participant of this chat", nil)
	}
	return uc.buildView(ctx, room, uid), nil
}

func (uc *ChatUseCase) buildView(ctx context.Context, room *entity.Room, viewerID string) *RoomView {
	otherID := room.OtherParticipant(viewerID)
	view := &RoomView{
		RoomID:       room.ID,
		RequestID:    room.RequestID,
		Participants: append([]string(nil), room.Participants...),
		OtherUser:    entity.UnknownProfile(otherID),
		Timeline:     chat.TimelineEntries(chat.BuildTimeline(room.Messages, uc.config.Locale)),
		UnreadCount:  chat.UnreadCount(room, viewerID),
		State:        chat.State(room),
		Hidden:       room.Hidden,
		Deleted:      room.Deleted,
		UpdatedAt:    room.UpdatedAt,
	}
	if otherID != "" && uc.profiles != nil {
		view.OtherUser = uc.profiles.Get(ctx, otherID)
	}
	if view.State == chat.StateCompletionPending && room.CollectionCompletedBy != viewerID {
		if msg := lastSentinel(room, chat.SentinelCompletion); msg != nil && chat.IsCompletionPrompt(*msg, viewerID) {
			view.Prompt = newCompletionPrompt(room, *msg)
		}
	}
	return view
}

// TotalUnread sums unread messages over the user's visible rooms.
func (uc *ChatUseCase) TotalUnread(ctx context.Context, userID string) (int, error) {
	if err := actAs(ctx, userID); err != nil {
		return 0, err
	}
	rooms, err := uc.roomRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return 0, err
	}
	return chat.TotalUnread(rooms, userID), nil
}

func lastSentinel(room *entity.Room, content string) *entity.Message {
	for i := len(room.Messages) - 1; i >= 0; i-- {
		if room.Messages[i].Content == content && room.Messages[i].Media == nil {
			msg := room.Messages[i].Clone()
			return &msg
		}
	}
	return nil
}
