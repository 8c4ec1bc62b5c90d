package ics

import (
	"io"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	appLog "pentasched/internal/log"
	"pentasched/internal/model"
)

const defaultProdID = "-//pentasched//schedule export//EN"

// uidNamespace scopes the name-based UUIDs generated for events.
var uidNamespace = uuid.MustParse("2b1f0c7e-8f4e-5a57-9d55-6c0f5e2f7a11")

// ExportConfig controls calendar-level properties of an export.
type ExportConfig struct {
	// Name becomes X-WR-CALNAME.
	Name string
	// ProdID defaults to defaultProdID.
	ProdID string
	// Timezone is advertised as X-WR-TIMEZONE (e.g. "Europe/Paris").
	// Event times are always written in UTC.
	Timezone string
	// Now is used for DTSTAMP. If zero, time.Now() is used.
	Now time.Time
}

// Exporter accumulates parsed events into one VCALENDAR.
type Exporter struct {
	cal     *ical.Calendar
	stamp   time.Time
	count   int
	skipped int
}

// NewExporter creates an empty PUBLISH calendar.
func NewExporter(cfg ExportConfig) *Exporter {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)

	prodID := cfg.ProdID
	if prodID == "" {
		prodID = defaultProdID
	}
	cal.SetProductId(prodID)
	if cfg.Name != "" {
		cal.SetXWRCalName(cfg.Name)
	}
	if cfg.Timezone != "" {
		cal.SetXWRTimezone(cfg.Timezone)
	}

	stamp := cfg.Now
	if stamp.IsZero() {
		stamp = time.Now()
	}
	return &Exporter{cal: cal, stamp: stamp.UTC()}
}

// Add appends ev as a VEVENT. Events without a start time cannot be placed
// on a calendar; they are counted and skipped, and Add reports false.
func (x *Exporter) Add(sourceID string, ev *model.Event) bool {
	if ev == nil || !ev.HasStart() {
		x.skipped++
		return false
	}

	ve := x.cal.AddEvent(EventUID(sourceID, ev.ID))
	ve.SetDtStampTime(x.stamp)
	ve.SetStartAt(ev.StartTime)
	if ev.HasEnd() {
		ve.SetEndAt(ev.EndTime)
	}
	ve.SetSummary(summary(ev))
	if desc := description(ev); desc != "" {
		ve.SetDescription(desc)
	}
	if ev.RoomName != "" {
		ve.SetLocation(ev.RoomName)
	}
	if ev.Track != nil && ev.Track.Name != "" {
		ve.AddProperty(ical.ComponentPropertyCategories, ev.Track.Name)
	}
	if len(ev.Links) > 0 && ev.Links[0].URL != "" {
		ve.SetURL(ev.Links[0].URL)
	}

	x.count++
	return true
}

// Count returns the number of VEVENTs added so far.
func (x *Exporter) Count() int { return x.count }

// Skipped returns the number of events rejected by Add.
func (x *Exporter) Skipped() int { return x.skipped }

// WriteTo serializes the calendar.
func (x *Exporter) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, x.cal.Serialize())
	appLog.Debug("ics export written", "event_count", x.count, "skipped", x.skipped, "bytes", n)
	return int64(n), err
}

// EventUID derives a stable UID from the schedule source and event id, so
// re-exporting the same schedule updates rather than duplicates entries in
// subscribed calendars.
func EventUID(sourceID string, id int64) string {
	name := sourceID + "/" + strconv.FormatInt(id, 10)
	return uuid.NewSHA1(uidNamespace, []byte(name)).String() + "@pentasched"
}

func summary(ev *model.Event) string {
	if ev.SubTitle == "" {
		return ev.Title
	}
	return ev.Title + " - " + ev.SubTitle
}

func description(ev *model.Event) string {
	var parts []string
	if ev.AbstractText != "" {
		parts = append(parts, strings.TrimSpace(ev.AbstractText))
	} else if ev.Description != "" {
		parts = append(parts, strings.TrimSpace(ev.Description))
	}
	if names := ev.PersonNames(); len(names) > 0 {
		parts = append(parts, "Speakers: "+strings.Join(names, ", "))
	}
	return strings.Join(parts, "\n\n")
}
