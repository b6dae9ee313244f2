package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"webugs/internal/domain/entity"
)

func msgAt(id string, ts time.Time) entity.Message {
	return entity.Message{ID: id, SenderID: "u1", RecipientID: "u2", Content: id, Timestamp: ts, Read: entity.Bool(false)}
}

func TestBuildTimelineGroupsByDay(t *testing.T) {
	locale := Locale{Location: time.UTC, Tag: language.English}
	d1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

	items := BuildTimeline([]entity.Message{
		msgAt("a", d1),
		msgAt("b", d1.Add(5*time.Minute)),
		msgAt("c", d2),
	}, locale)

	require.Len(t, items, 5)
	marker, ok := items[0].(DateMarker)
	require.True(t, ok)
	assert.Equal(t, "March 1, 2024", marker.Label)
	assert.Equal(t, "a", items[1].(MessageItem).Message.ID)
	assert.Equal(t, "b", items[2].(MessageItem).Message.ID)
	marker, ok = items[3].(DateMarker)
	require.True(t, ok)
	assert.Equal(t, "March 2, 2024", marker.Label)
	assert.Equal(t, "c", items[4].(MessageItem).Message.ID)
}

func TestBuildTimelineSortsStably(t *testing.T) {
	ts := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	input := []entity.Message{
		msgAt("late", ts.Add(time.Hour)),
		msgAt("tie-1", ts),
		msgAt("tie-2", ts),
	}

	items := BuildTimeline(input, Locale{Location: time.UTC})

	var ids []string
	for _, item := range items {
		if m, ok := item.(MessageItem); ok {
			ids = append(ids, m.Message.ID)
		}
	}
	assert.Equal(t, []string{"tie-1", "tie-2", "late"}, ids)
	assert.Equal(t, "late", input[0].ID, "input must not be reordered")
}

func TestBuildTimelineSkipsEmptyDays(t *testing.T) {
	d1 := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	d5 := time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC)

	items := BuildTimeline([]entity.Message{msgAt("a", d1), msgAt("b", d5)}, Locale{Location: time.UTC})

	markers := 0
	for _, item := range items {
		if _, ok := item.(DateMarker); ok {
			markers++
		}
	}
	assert.Equal(t, 2, markers)
}

func TestBuildTimelineCutsDaysInLocaleZone(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	locale := Locale{Location: seoul, Tag: language.Korean}
	// 14:30 and 15:30 UTC fall on different days in Seoul.
	first := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	second := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)

	items := BuildTimeline([]entity.Message{msgAt("a", first), msgAt("b", second)}, locale)

	require.Len(t, items, 4)
	assert.Equal(t, "2024년 3월 1일", items[0].(DateMarker).Label)
	assert.Equal(t, "2024년 3월 2일", items[2].(DateMarker).Label)
}

func TestBuildTimelineEmpty(t *testing.T) {
	assert.Empty(t, BuildTimeline(nil, Locale{}))
}

func TestParseLocaleFallsBack(t *testing.T) {
	locale := ParseLocale("not a tag!", "Nowhere/Zone")

	assert.Equal(t, time.UTC, locale.Location)
	assert.Equal(t, "January 2, 2006", locale.FormatDate(time.Date(2006, 1, 2, 12, 0, 0, 0, time.UTC)))
}

func TestTimelineEntries(t *testing.T) {
	ts := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := TimelineEntries(BuildTimeline([]entity.Message{msgAt("a", ts)}, Locale{Location: time.UTC}))

	require.Len(t, entries, 2)
	assert.Equal(t, "date", entries[0].Type)
	assert.Equal(t, "message", entries[1].Type)
	assert.Equal(t, "a", entries[1].Message.ID)
}
