package usecase

import (
	"context"

	"webugs/internal/domain/chat"
	"webugs/internal/domain/entity"
	"webugs/internal/domain/repository"
	"webugs/pkg/logger"
)

type ChatListUseCase struct {
	roomRepo repository.RoomRepository
	profiles *ProfileResolver
	notifier Notifier
}

func NewChatListUseCase(roomRepo repository.RoomRepository, profiles *ProfileResolver, notifier Notifier) *ChatListUseCase {
	return &ChatListUseCase{
		roomRepo: roomRepo,
		profiles: profiles,
		notifier: notifier,
	}
}

func (uc *ChatListUseCase) List(ctx context.Context, userID string) (*chat.ChatList, error) {
	if err := actAs(ctx, userID); err != nil {
		return nil, err
	}
	rooms, err := uc.roomRepo.ListByParticipant(ctx, userID)
	if err != nil {
		logger.Error("ListChats Error: %v", err)
		return nil, err
	}
	return uc.build(ctx, rooms, userID), nil
}

func (uc *ChatListUseCase) build(ctx context.Context, rooms []*entity.Room, userID string) *chat.ChatList {
	others := make([]string, 0, len(rooms))
	for _, room := range rooms {
		if chat.ListedInChatList(room) {
			others = append(others, room.OtherParticipant(userID))
		}
	}
	return chat.BuildChatList(rooms, userID, uc.profiles.Resolve(ctx, others))
}

// Watch keeps userID's chat list live: every batch snapshot is re-projected
// and pushed as a whole, and the unread badge is pushed whenever the total
// changes.
func (uc *ChatListUseCase) Watch(ctx context.Context, userID string) (*Subscription, error) {
	if err := actAs(ctx, userID); err != nil {
		return nil, err
	}
	stream, err := uc.roomRepo.WatchByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	sub := newSubscription(stream.Stop)
	lastTotal := -1

	sub.run(func() error {
		snap, err := stream.Next()
		if err != nil {
			return err
		}
		if sub.Stopped() {
			return nil
		}
		logger.Debug("Chat list snapshot for %s: %d rooms, %d changes", userID, len(snap.Rooms), len(snap.Changes))

		list := uc.build(ctx, snap.Rooms, userID)
		if sub.Stopped() {
			return nil
		}
		if uc.notifier == nil {
			return nil
		}
		uc.notifier.NotifyChatList(userID, list)
		if list.TotalUnread != lastTotal {
			lastTotal = list.TotalUnread
			uc.notifier.NotifyUnreadTotal(userID, list.TotalUnread)
		}
		return nil
	}, func(err error) {
		logger.Error("Chat list stream for %s failed: %v", userID, err)
	})
	return sub, nil
}
