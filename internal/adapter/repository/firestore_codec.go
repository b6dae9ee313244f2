package repository

import (
	"fmt"
	"time"

	"webugs/internal/domain/entity"
)

// Room documents are decoded by hand instead of DataTo: older clients wrote
// timestamps as ISO strings and messages without a messageId, and DataTo
// rejects the first and silently drops the second.

func decodeRoom(id string, data map[string]interface{}) (*entity.Room, error) {
	room := &entity.Room{
		ID:                    id,
		Participants:          decodeStrings(data["participants"]),
		Messages:              []entity.Message{},
		LastRead:              map[string]time.Time{},
		RequestID:             stringField(data, "requestId"),
		Hidden:                boolField(data, "hidden"),
		Deleted:               boolField(data, "deleted"),
		CollectionCompleted:   boolField(data, "collectionCompleted"),
		CollectionCompletedBy: stringField(data, "collectionCompletedBy"),
		CollectionRejected:    boolField(data, "collectionRejected"),
	}

	var err error
	if room.CreatedAt, err = decodeTime(data["createdAt"]); err != nil {
		return nil, fmt.Errorf("room %s createdAt: %w", id, err)
	}
	if room.UpdatedAt, err = decodeTime(data["updatedAt"]); err != nil {
		return nil, fmt.Errorf("room %s updatedAt: %w", id, err)
	}
	if room.CollectionCompletedAt, err = decodeOptionalTime(data["collectionCompletedAt"]); err != nil {
		return nil, fmt.Errorf("room %s collectionCompletedAt: %w", id, err)
	}
	if room.CollectionRejectedAt, err = decodeOptionalTime(data["collectionRejectedAt"]); err != nil {
		return nil, fmt.Errorf("room %s collectionRejectedAt: %w", id, err)
	}

	if lastRead, ok := data["lastRead"].(map[string]interface{}); ok {
		for userID, raw := range lastRead {
			t, err := decodeTime(raw)
			if err != nil {
				return nil, fmt.Errorf("room %s lastRead[%s]: %w", id, userID, err)
			}
			room.LastRead[userID] = t
		}
	}

	if raw, ok := data["messages"].([]interface{}); ok {
		for i, item := range raw {
			fields, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("room %s message %d: unexpected %T", id, i, item)
			}
			msg, err := decodeMessage(fields, i)
			if err != nil {
				return nil, fmt.Errorf("room %s message %d: %w", id, i, err)
			}
			room.Messages = append(room.Messages, msg)
		}
	}

	if room.UpdatedAt.IsZero() {
		room.UpdatedAt = room.CreatedAt
		if last := room.LastMessage(); last != nil && last.Timestamp.After(room.UpdatedAt) {
			room.UpdatedAt = last.Timestamp
		}
	}
	return room, nil
}

func decodeMessage(data map[string]interface{}, index int) (entity.Message, error) {
	msg := entity.Message{
		ID:          stringField(data, "messageId"),
		SenderID:    stringField(data, "senderId"),
		RecipientID: stringField(data, "recipientId"),
		Content:     stringField(data, "content"),
	}
	if msg.ID == "" {
		msg.ID = fmt.Sprintf("legacy-%d", index)
	}
	ts, err := decodeTime(data["timestamp"])
	if err != nil {
		return msg, err
	}
	msg.Timestamp = ts
	if read, ok := data["read"].(bool); ok {
		msg.Read = entity.Bool(read)
	}
	if media, ok := data["media"].(map[string]interface{}); ok {
		msg.Media = &entity.Media{
			Kind: entity.MediaKind(stringField(media, "type")),
			URL:  stringField(media, "url"),
		}
	}
	return msg, nil
}

func decodeTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t.UTC(), nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, err
		}
		return parsed.UTC(), nil
	case int64:
		return time.UnixMilli(t).UTC(), nil
	case float64:
		return time.UnixMilli(int64(t)).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
}

func decodeOptionalTime(v interface{}) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	t, err := decodeTime(v)
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}

func decodeStrings(v interface{}) []string {
	raw, _ := v.([]interface{})
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func stringField(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return s
}

func boolField(data map[string]interface{}, key string) bool {
	b, _ := data[key].(bool)
	return b
}
