package chat

import (
	"slices"
	"time"

	"golang.org/x/text/language"

	"webugs/internal/domain/entity"
)

// ChatItem is one row of a room timeline: either a MessageItem or a
// DateMarker. The unexported method seals the set of variants.
type ChatItem interface {
	chatItem()
}

type MessageItem struct {
	Message entity.Message
}

type DateMarker struct {
	Date  time.Time // midnight of the day in the locale's zone
	Label string
}

func (MessageItem) chatItem() {}
func (DateMarker) chatItem()  {}

// Locale controls how days are cut and labelled.
type Locale struct {
	Location *time.Location
	Tag      language.Tag
}

var supportedDateLocales = []language.Tag{
	language.English, // default when nothing matches
	language.Korean,
	language.Japanese,
}

var dateLayouts = map[language.Base]string{
	mustBase(language.Korean):   "2006년 1월 2일",
	mustBase(language.Japanese): "2006年1月2日",
	mustBase(language.English):  "January 2, 2006",
}

var dateMatcher = language.NewMatcher(supportedDateLocales)

func mustBase(t language.Tag) language.Base {
	b, _ := t.Base()
	return b
}

// ParseLocale builds a Locale from a BCP-47 tag and an IANA zone name,
// falling back to English and UTC.
func ParseLocale(tag, zone string) Locale {
	loc, err := time.LoadLocation(zone)
	if err != nil || zone == "" {
		loc = time.UTC
	}
	t, err := language.Parse(tag)
	if err != nil {
		t = language.English
	}
	return Locale{Location: loc, Tag: t}
}

func (l Locale) location() *time.Location {
	if l.Location == nil {
		return time.UTC
	}
	return l.Location
}

// FormatDate renders the day label for t.
func (l Locale) FormatDate(t time.Time) string {
	_, idx, _ := dateMatcher.Match(l.Tag)
	layout, ok := dateLayouts[mustBase(supportedDateLocales[idx])]
	if !ok {
		layout = "2006-01-02"
	}
	return t.In(l.location()).Format(layout)
}

func (l Locale) day(t time.Time) time.Time {
	y, m, d := t.In(l.location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, l.location())
}

// BuildTimeline sorts messages by timestamp (stable, so ties keep store
// order) and inserts a DateMarker before the first message of every
// calendar day. Days without messages get no marker. The input slice is
// not modified.
func BuildTimeline(messages []entity.Message, locale Locale) []ChatItem {
	if len(messages) == 0 {
		return []ChatItem{}
	}
	sorted := slices.Clone(messages)
	slices.SortStableFunc(sorted, func(a, b entity.Message) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	items := make([]ChatItem, 0, len(sorted)+4)
	var current time.Time
	for i, msg := range sorted {
		day := locale.day(msg.Timestamp)
		if i == 0 || !day.Equal(current) {
			items = append(items, DateMarker{Date: day, Label: locale.FormatDate(msg.Timestamp)})
			current = day
		}
		items = append(items, MessageItem{Message: msg})
	}
	return items
}

// TimelineEntry is the JSON shape of a ChatItem for the UI shell.
type TimelineEntry struct {
	Type    string          `json:"type"` // "message" or "date"
	Date    string          `json:"date,omitempty"`
	Message *entity.Message `json:"message,omitempty"`
}

func TimelineEntries(items []ChatItem) []TimelineEntry {
	out := make([]TimelineEntry, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case MessageItem:
			msg := v.Message
			out = append(out, TimelineEntry{Type: "message", Message: &msg})
		case DateMarker:
			out = append(out, TimelineEntry{Type: "date", Date: v.Label})
		}
	}
	return out
}
