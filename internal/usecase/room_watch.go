package usecase

import (
	"context"

	"webugs/internal/domain/chat"
	"webugs/pkg/logger"
)

// WatchRoom pushes a fresh RoomView to userID on every snapshot of the room
// and marks the user's unread messages read while the view is open. A
// failed mark-read is logged and retried with the next snapshot. A room that
// does not exist yet shows as empty and open; one that disappears after it
// was seen shows as deleted.
func (uc *ChatUseCase) WatchRoom(ctx context.Context, roomID, userID string) (*Subscription, error) {
	if err := actAs(ctx, userID); err != nil {
		return nil, err
	}
	stream, err := uc.roomRepo.Watch(ctx, roomID)
	if err != nil {
		return nil, err
	}

	sub := newSubscription(stream.Stop)
	writeCtx := context.WithoutCancel(ctx)
	seen := false

	sub.run(func() error {
		snap, err := stream.Next()
		if err != nil {
			return err
		}
		if sub.Stopped() {
			return nil
		}
		if !snap.Exists {
			if seen {
				uc.notifyRoom(userID, &RoomView{RoomID: roomID, Deleted: true, State: chat.StateAccepted})
				return nil
			}
			// not created yet; the first send will create it
			uc.notifyRoom(userID, &RoomView{
				RoomID:       roomID,
				Participants: []string{},
				Timeline:     []chat.TimelineEntry{},
				State:        chat.StateOpen,
			})
			return nil
		}
		seen = true
		room := snap.Room
		if !room.HasParticipant(userID) {
			return nil
		}
		view := uc.buildView(ctx, room, userID)
		if sub.Stopped() {
			return nil
		}
		uc.notifyRoom(userID, view)

		if view.UnreadCount > 0 && !room.Deleted {
			if _, err := uc.markAllRead(writeCtx, roomID, userID); err != nil {
				logger.Warn("Auto mark-read in room %s for %s failed, retrying on next snapshot: %v", roomID, userID, err)
			}
		}
		return nil
	}, func(err error) {
		logger.LogRoomError(roomID, "watch", err)
	})
	return sub, nil
}

func (uc *ChatUseCase) notifyRoom(userID string, view *RoomView) {
	if uc.notifier != nil {
		uc.notifier.NotifyRoom(userID, view)
	}
}
