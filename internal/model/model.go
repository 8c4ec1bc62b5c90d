package model

import "time"

// Day is one conference day. Every Event parsed while a day is current
// points at the same *Day.
type Day struct {
	// Index is 1-based, in document order.
	Index int `json:"index"`
	// Date is midnight of the day in the schedule's reference timezone.
	Date time.Time `json:"date"`
}

// TrackType classifies a track. Values match the normalized (accent-free,
// lowercase) text of the pentabarf <type> element.
type TrackType string

const (
	TrackConference    TrackType = "conference"
	TrackKeynote       TrackType = "keynote"
	TrackWorkshop      TrackType = "workshop"
	TrackAtelier       TrackType = "atelier"
	TrackLightningTalk TrackType = "lightningtalk"
	TrackTableRonde    TrackType = "tableronde"
	TrackOther         TrackType = "other"
)

// DefaultTrackType is used for empty or unrecognized <type> values.
const DefaultTrackType = TrackConference

var trackTypes = map[TrackType]struct{}{
	TrackConference:    {},
	TrackKeynote:       {},
	TrackWorkshop:      {},
	TrackAtelier:       {},
	TrackLightningTalk: {},
	TrackTableRonde:    {},
	TrackOther:         {},
}

// ParseTrackType reports whether s is exactly one of the known types.
func ParseTrackType(s string) (TrackType, bool) {
	t := TrackType(s)
	if _, ok := trackTypes[t]; !ok {
		return "", false
	}
	return t, true
}

// Track groups events. The parser reuses the same *Track for consecutive
// events with the same name and type.
type Track struct {
	Name string    `json:"name"`
	Type TrackType `json:"type"`
}

// Equal compares tracks by value.
func (t *Track) Equal(o *Track) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.Name == o.Name && t.Type == o.Type
}

type Person struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Link struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Event is a single scheduled talk, workshop or other session.
type Event struct {
	ID       int64  `json:"id"`
	Day      *Day   `json:"day"`
	RoomName string `json:"room_name,omitempty"`

	// StartTime / EndTime are zero when the schedule does not provide them.
	StartTime time.Time `json:"start_time,omitzero"`
	EndTime   time.Time `json:"end_time,omitzero"`

	Slug         string `json:"slug,omitempty"`
	Title        string `json:"title,omitempty"`
	SubTitle     string `json:"subtitle,omitempty"`
	AbstractText string `json:"abstract,omitempty"`
	Description  string `json:"description,omitempty"`

	Track   *Track   `json:"track"`
	Persons []Person `json:"persons"`
	Links   []Link   `json:"links"`
}

func (e *Event) HasStart() bool { return !e.StartTime.IsZero() }

func (e *Event) HasEnd() bool { return !e.EndTime.IsZero() }

// Duration returns EndTime - StartTime, or 0 if either is unset.
func (e *Event) Duration() time.Duration {
	if !e.HasStart() || !e.HasEnd() {
		return 0
	}
	return e.EndTime.Sub(e.StartTime)
}

// PersonNames returns the speakers' names in schedule order.
func (e *Event) PersonNames() []string {
	names := make([]string, 0, len(e.Persons))
	for _, p := range e.Persons {
		names = append(names, p.Name)
	}
	return names
}
