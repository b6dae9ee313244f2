package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webugs/internal/domain/entity"
	"webugs/internal/domain/repository"
	"webugs/pkg/errors"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func msg(id, from, to string) entity.Message {
	return entity.Message{ID: id, SenderID: from, RecipientID: to, Content: id, Timestamp: t0, Read: entity.Bool(false)}
}

func TestAppendSeedsMissingRoom(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	rooms := store.Rooms()

	_, err := rooms.Append(ctx, "r1", msg("m1", "u1", "u2"), nil, t0)
	assert.True(t, errors.Is(err, errors.CodeRoomNotFound))

	seed := entity.NewRoom("", "u1", "u2", "", t0)
	room, err := rooms.Append(ctx, "r1", msg("m1", "u1", "u2"), seed, t0)
	require.NoError(t, err)
	assert.Equal(t, "r1", room.ID)
	assert.Len(t, room.Messages, 1)

	room, err = rooms.Append(ctx, "r1", msg("m2", "u2", "u1"), seed, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, room.Messages, 2)
	assert.Equal(t, t0.Add(time.Minute), room.UpdatedAt)
}

func TestAppendRejectsOutsiders(t *testing.T) {
	ctx := context.Background()
	rooms := NewStore().Rooms()
	_, err := rooms.Create(ctx, entity.NewRoom("r1", "u1", "u2", "", t0))
	require.NoError(t, err)

	_, err = rooms.Append(ctx, "r1", msg("m1", "u2", "u3"), nil, t0)
	assert.True(t, errors.Is(err, errors.CodeInvalidMessage))

	_, err = rooms.Append(ctx, "r1", msg("m1", "u3", "u1"), nil, t0)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	room, err := rooms.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, room.Messages)
}

func TestCreateKeepsExistingRoom(t *testing.T) {
	ctx := context.Background()
	rooms := NewStore().Rooms()

	created, err := rooms.Create(ctx, entity.NewRoom("r1", "u1", "u2", "q1", t0))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = rooms.Create(ctx, entity.NewRoom("r1", "u1", "u3", "", t0))
	require.NoError(t, err)
	assert.False(t, created)

	room, err := rooms.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "q1", room.RequestID)
}

func TestFindByParticipantsMatchesRequest(t *testing.T) {
	ctx := context.Background()
	rooms := NewStore().Rooms()
	_, err := rooms.Create(ctx, entity.NewRoom("", "u1", "u2", "q1", t0))
	require.NoError(t, err)

	room, err := rooms.FindByParticipants(ctx, "u2", "u1", "q1")
	require.NoError(t, err)
	assert.NotEmpty(t, room.ID)

	_, err = rooms.FindByParticipants(ctx, "u1", "u2", "")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestMutateErrorLeavesRoomUntouched(t *testing.T) {
	ctx := context.Background()
	rooms := NewStore().Rooms()
	_, err := rooms.Create(ctx, entity.NewRoom("r1", "u1", "u2", "", t0))
	require.NoError(t, err)

	_, err = rooms.Mutate(ctx, "r1", func(room *entity.Room) error {
		room.Hidden = true
		return errors.Conflict("nope")
	})
	require.Error(t, err)

	room, err := rooms.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, room.Hidden)
}

func TestFailNextInjectsOnce(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	rooms := store.Rooms()
	_, err := rooms.Create(ctx, entity.NewRoom("r1", "u1", "u2", "", t0))
	require.NoError(t, err)

	store.FailNext(OpRoomGet, errors.StoreUnavailable("down", nil))
	_, err = rooms.GetByID(ctx, "r1")
	assert.True(t, errors.Is(err, errors.CodeStoreUnavailable))

	_, err = rooms.GetByID(ctx, "r1")
	assert.NoError(t, err)
}

func TestRunInTxIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_, err := store.Rooms().Create(ctx, entity.NewRoom("r1", "u1", "u2", "q1", t0))
	require.NoError(t, err)
	require.NoError(t, store.Requests().Create(ctx, &entity.Request{ID: "q1", OwnerID: "u1", Title: "bug"}))

	err = store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		room, err := tx.GetRoom("r1")
		if err != nil {
			return err
		}
		room.Deleted = true
		if err := tx.SetRoom(room); err != nil {
			return err
		}
		if err := tx.SetRequestStatus("q1", entity.RequestCompleted); err != nil {
			return err
		}
		return errors.Internal("boom", nil)
	})
	require.Error(t, err)

	room, err := store.Rooms().GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, room.Deleted)
	req, err := store.Requests().GetByID(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, entity.RequestPending, req.Status)
}

func TestRunInTxCommits(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Requests().Create(ctx, &entity.Request{ID: "q1", OwnerID: "u1"}))

	write := func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.GetRequest("q1"); err != nil {
			return err
		}
		if err := tx.SetRequestStatus("q1", entity.RequestCompleted); err != nil {
			return err
		}
		return tx.CreateHistory(&entity.History{ID: "r1", RequesterID: "u1", CollectorID: "u2", Rating: 7, CompletedAt: t0})
	}
	require.NoError(t, store.RunInTx(ctx, write))

	h, err := store.Histories().GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 7, h.Rating)

	err = store.RunInTx(ctx, write)
	assert.True(t, errors.Is(err, errors.CodeConflict))
}

func TestTxRejectsReadAfterWrite(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Requests().Create(ctx, &entity.Request{ID: "q1", OwnerID: "u1"}))

	err := store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.SetRequestStatus("q1", entity.RequestHidden); err != nil {
			return err
		}
		_, err := tx.GetRequest("q1")
		return err
	})
	assert.True(t, errors.Is(err, errors.CodeInternal))
}

func TestRoomStream(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	rooms := store.Rooms()

	stream, err := rooms.Watch(ctx, "r1")
	require.NoError(t, err)

	snap, err := stream.Next()
	require.NoError(t, err)
	assert.False(t, snap.Exists)

	_, err = rooms.Append(ctx, "r1", msg("m1", "u1", "u2"), entity.NewRoom("", "u1", "u2", "", t0), t0)
	require.NoError(t, err)
	_, err = rooms.Append(ctx, "r1", msg("m2", "u1", "u2"), nil, t0)
	require.NoError(t, err)

	snap, err = stream.Next()
	require.NoError(t, err)
	require.True(t, snap.Exists)
	assert.Len(t, snap.Room.Messages, 2)

	require.NoError(t, rooms.Delete(ctx, "r1"))
	snap, err = stream.Next()
	require.NoError(t, err)
	assert.False(t, snap.Exists)

	stream.Stop()
	_, err = stream.Next()
	assert.ErrorIs(t, err, repository.ErrStreamClosed)
}

func TestRoomStreamStopUnblocksNext(t *testing.T) {
	store := NewStore()
	stream, err := store.Rooms().Watch(context.Background(), "r1")
	require.NoError(t, err)
	_, err = stream.Next()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := stream.Next()
		done <- err
	}()
	stream.Stop()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, repository.ErrStreamClosed)
	case <-time.After(time.Second):
		t.Fatal("Next did not return after Stop")
	}
}

func TestRoomStreamEndsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stream, err := NewStore().Rooms().Watch(ctx, "r1")
	require.NoError(t, err)
	_, err = stream.Next()
	require.NoError(t, err)

	cancel()
	_, err = stream.Next()
	assert.ErrorIs(t, err, repository.ErrStreamClosed)
}

func TestRoomSetStreamChanges(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	rooms := store.Rooms()
	_, err := rooms.Create(ctx, entity.NewRoom("r1", "u1", "u2", "", t0))
	require.NoError(t, err)

	stream, err := rooms.WatchByParticipant(ctx, "u1")
	require.NoError(t, err)
	defer stream.Stop()

	snap, err := stream.Next()
	require.NoError(t, err)
	require.Len(t, snap.Rooms, 1)
	require.Len(t, snap.Changes, 1)
	assert.Equal(t, repository.RoomAdded, snap.Changes[0].Kind)

	// rooms of other users do not produce a snapshot
	_, err = rooms.Create(ctx, entity.NewRoom("r9", "u3", "u4", "", t0))
	require.NoError(t, err)
	_, err = rooms.Create(ctx, entity.NewRoom("r2", "u1", "u3", "", t0.Add(time.Hour)))
	require.NoError(t, err)
	_, err = rooms.Append(ctx, "r1", msg("m1", "u2", "u1"), nil, t0.Add(2*time.Hour))
	require.NoError(t, err)

	snap, err = stream.Next()
	require.NoError(t, err)
	require.Len(t, snap.Rooms, 2)
	assert.Equal(t, "r1", snap.Rooms[0].ID)
	kinds := map[string]repository.ChangeKind{}
	for _, c := range snap.Changes {
		kinds[c.Room.ID] = c.Kind
	}
	assert.Equal(t, map[string]repository.ChangeKind{"r1": repository.RoomModified, "r2": repository.RoomAdded}, kinds)

	require.NoError(t, rooms.Delete(ctx, "r2"))
	snap, err = stream.Next()
	require.NoError(t, err)
	require.Len(t, snap.Changes, 1)
	assert.Equal(t, repository.RoomRemoved, snap.Changes[0].Kind)
	assert.Equal(t, "r2", snap.Changes[0].Room.ID)
}

func TestRequestsByOwnerAndStatus(t *testing.T) {
	ctx := context.Background()
	requests := NewStore().Requests()
	require.NoError(t, requests.Create(ctx, &entity.Request{ID: "a", OwnerID: "u1", CreatedAt: t0}))
	require.NoError(t, requests.Create(ctx, &entity.Request{ID: "b", OwnerID: "u1", CreatedAt: t0.Add(time.Hour)}))
	require.NoError(t, requests.Create(ctx, &entity.Request{ID: "c", OwnerID: "u2", CreatedAt: t0}))
	require.NoError(t, requests.UpdateStatus(ctx, "a", entity.RequestHidden))

	all, err := requests.ListByOwner(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)

	hidden, err := requests.ListByOwner(ctx, "u1", entity.RequestHidden)
	require.NoError(t, err)
	require.Len(t, hidden, 1)
	assert.Equal(t, "a", hidden[0].ID)

	err = requests.UpdateStatus(ctx, "zz", entity.RequestHidden)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}
