package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"pentasched/internal/config"
	"pentasched/internal/ics"
	"pentasched/internal/model"
)

// eventWriter renders events as they are produced. Close flushes anything
// buffered.
type eventWriter interface {
	Write(sched config.ScheduleConfig, ev *model.Event) error
	Close() error
}

func newEventWriter(conf *config.Config, schedules []config.ScheduleConfig, w io.Writer) eventWriter {
	switch conf.Format {
	case config.FormatJSON:
		return &jsonWriter{enc: json.NewEncoder(w)}
	case config.FormatICS:
		name := conf.CalendarName
		if name == "" {
			names := make([]string, 0, len(schedules))
			for _, s := range schedules {
				names = append(names, s.Name)
			}
			name = strings.Join(names, ", ")
		}
		return &icsWriter{
			w: w,
			x: ics.NewExporter(ics.ExportConfig{
				Name:     name,
				Timezone: conf.Timezone,
			}),
		}
	default:
		return &textWriter{w: w}
	}
}

type textWriter struct {
	w io.Writer
}

// Write prints one tab-separated line:
// source, day, time span, room, title, track, speakers.
func (t *textWriter) Write(sched config.ScheduleConfig, ev *model.Event) error {
	day := "-"
	if ev.Day != nil {
		day = fmt.Sprintf("D%d %s", ev.Day.Index, ev.Day.Date.Format("2006-01-02"))
	}
	span := "--:--"
	if ev.HasStart() {
		span = ev.StartTime.Format("15:04")
		if ev.HasEnd() {
			span += "-" + ev.EndTime.Format("15:04")
		}
	}
	track := ""
	if ev.Track != nil {
		track = ev.Track.Name + "/" + string(ev.Track.Type)
	}
	_, err := fmt.Fprintf(t.w, "%s\t%s\t%s\t%s\t%s\t[%s]\t%s\n",
		sched.ID, day, span, ev.RoomName, ev.Title, track, strings.Join(ev.PersonNames(), ", "))
	return err
}

func (t *textWriter) Close() error { return nil }

type jsonWriter struct {
	enc *json.Encoder
}

type jsonEvent struct {
	Source string `json:"source"`
	*model.Event
}

func (j *jsonWriter) Write(sched config.ScheduleConfig, ev *model.Event) error {
	return j.enc.Encode(jsonEvent{Source: sched.ID, Event: ev})
}

func (j *jsonWriter) Close() error { return nil }

// icsWriter buffers a single calendar and writes it on Close.
type icsWriter struct {
	w io.Writer
	x *ics.Exporter
}

func (c *icsWriter) Write(sched config.ScheduleConfig, ev *model.Event) error {
	c.x.Add(sched.ID, ev)
	return nil
}

func (c *icsWriter) Close() error {
	_, err := c.x.WriteTo(c.w)
	return err
}
