// Package pentabarf streams events out of a pentabarf conference schedule.
//
// A Parser reads one document forward-only and produces one *model.Event per
// call to Next, keeping only the current day, room and track as context:
//
//	<schedule>
//	  <day index="1" date="2024-11-16">
//	    <room name="Amphi">
//	      <event id="42">
//	        <start>09:30</start>
//	        <duration>01:15</duration>
//	        <title>...</title>
//	        <persons><person id="7">Name</person></persons>
//	        <links><link href="https://...">Slides</link></links>
//	      </event>
//	    </room>
//	  </day>
//	</schedule>
//
// Unknown elements are skipped at every level.
package pentabarf

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"pentasched/internal/dateutil"
	appLog "pentasched/internal/log"
	"pentasched/internal/metric"
	"pentasched/internal/model"
	"pentasched/internal/textutil"
)

// Parser is a lazy, forward-only producer of events for a single document.
// It is not safe for concurrent use; create one per document.
type Parser struct {
	cur     *cursor
	loc     *time.Location
	lang    language.Tag
	source  string
	metrics *metric.Metrics

	started   bool
	startedAt time.Time
	count     int
	err       error // terminal: io.EOF or the fatal error

	day   *model.Day
	room  string
	track *model.Track
}

// Option configures a Parser.
type Option func(*Parser)

// WithLocation sets the reference timezone for day dates and start times.
// The default is dateutil.DefaultTimezone.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithLanguage sets the casing rules used to normalize <type>. The default
// is French.
func WithLanguage(tag language.Tag) Option {
	return func(p *Parser) { p.lang = tag }
}

// WithMetrics records document, event and skipped-element counts in m.
// A nil m disables metrics.
func WithMetrics(m *metric.Metrics) Option {
	return func(p *Parser) { p.metrics = m }
}

// WithSourceID labels logs and metrics for this document.
func WithSourceID(id string) Option {
	return func(p *Parser) { p.source = id }
}

// NewParser returns a Parser reading from r. Nothing is read until the first
// call to Next. The caller keeps ownership of r.
func NewParser(r io.Reader, opts ...Option) *Parser {
	p := &Parser{
		cur:    newCursor(r),
		loc:    dateutil.DefaultLocation(),
		lang:   language.French,
		source: "schedule",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Next returns the next event in document order. It returns io.EOF once the
// schedule element closes or the document ends. After a fatal error every
// further call returns the same error.
func (p *Parser) Next() (*model.Event, error) {
	if p.err != nil {
		return nil, p.err
	}
	if !p.started {
		p.started = true
		p.startedAt = time.Now()
		if err := p.parseHeader(); err != nil {
			return nil, p.finish(err)
		}
	}

	ev, err := p.nextEvent()
	if err != nil {
		return nil, p.finish(err)
	}
	p.count++
	p.metrics.EventParsed(p.source)
	return ev, nil
}

// All adapts Next to a range-over-func sequence. A fatal error is yielded
// once as the last element.
func (p *Parser) All() iter.Seq2[*model.Event, error] {
	return func(yield func(*model.Event, error) bool) {
		for {
			ev, err := p.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// Parse reads every event of the document into memory.
func Parse(r io.Reader, opts ...Option) ([]*model.Event, error) {
	var events []*model.Event
	err := Walk(r, func(ev *model.Event) error {
		events = append(events, ev)
		return nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Walk calls fn for each event as soon as it is complete. An error from fn
// stops the walk and is returned as is.
func Walk(r io.Reader, fn func(*model.Event) error, opts ...Option) error {
	p := NewParser(r, opts...)
	for ev, err := range p.All() {
		if err != nil {
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) finish(err error) error {
	p.err = err
	if errors.Is(err, io.EOF) {
		p.metrics.DocumentDone(p.source, time.Since(p.startedAt), nil)
		appLog.Debug("schedule parse completed", "source", p.source, "event_count", p.count)
	} else {
		p.metrics.DocumentDone(p.source, time.Since(p.startedAt), err)
		appLog.Debug("schedule parse aborted", "source", p.source, "event_count", p.count, "err", err)
	}
	return err
}

// parseHeader advances to the <schedule> start tag.
func (p *Parser) parseHeader() error {
	for {
		if err := p.cur.next(); err != nil {
			return p.readErr(err)
		}
		if p.cur.eof {
			return ErrNotSchedule
		}
		if p.cur.isStart("schedule") {
			return nil
		}
	}
}

// nextEvent runs the top-level loop until an event is complete or the
// schedule ends.
func (p *Parser) nextEvent() (*model.Event, error) {
	for {
		if err := p.cur.next(); err != nil {
			return nil, p.readErr(err)
		}
		if p.cur.eof || p.cur.isEnd("schedule") {
			return nil, io.EOF
		}
		if !p.cur.isStartTag() {
			continue
		}

		switch p.cur.name() {
		case "day":
			if err := p.parseDay(); err != nil {
				return nil, err
			}
		case "room":
			p.room, _ = p.cur.attr("name")
		case "event":
			return p.parseEvent()
		default:
			if err := p.skip(); err != nil {
				return nil, err
			}
		}
	}
}

func (p *Parser) parseDay() error {
	index, err := p.intAttr("day", "index")
	if err != nil {
		return err
	}
	raw, ok := p.cur.attr("date")
	if !ok {
		return p.errorf("day", "date", ErrMissingAttr)
	}
	date, err := dateutil.ParseDate(raw, p.loc)
	if err != nil {
		return p.errorf("day", "date", err)
	}
	p.day = &model.Day{Index: int(index), Date: date}
	appLog.Debug("schedule day", "source", p.source, "index", p.day.Index, "date", raw)
	return nil
}

// parseEvent assembles the event whose start tag is current and returns
// once its end tag has been consumed.
func (p *Parser) parseEvent() (*model.Event, error) {
	id, err := p.intAttr("event", "id")
	if err != nil {
		return nil, err
	}

	ev := &model.Event{
		ID:       id,
		Day:      p.day,
		RoomName: p.room,
		Persons:  []model.Person{},
		Links:    []model.Link{},
	}

	var duration dateutil.Clock
	hasDuration := false
	trackName := ""
	trackType := model.DefaultTrackType

	for {
		if err := p.cur.next(); err != nil {
			return nil, p.readErr(err)
		}
		if p.cur.eof {
			return nil, p.errorf("event", "", io.ErrUnexpectedEOF)
		}
		if p.cur.isEnd("event") {
			break
		}
		if !p.cur.isStartTag() {
			continue
		}

		name := p.cur.name()
		switch name {
		case "start":
			s, err := p.text(name)
			if err != nil {
				return nil, err
			}
			if s == "" {
				continue
			}
			if p.day == nil {
				return nil, p.errorf(name, "", ErrNoDay)
			}
			clock, err := dateutil.ParseTimeOfDay(s)
			if err != nil {
				return nil, p.errorf(name, "", err)
			}
			ev.StartTime = dateutil.At(p.day.Date, clock, p.loc)
		case "duration":
			s, err := p.text(name)
			if err != nil {
				return nil, err
			}
			hasDuration = s != ""
			if hasDuration {
				if duration, err = dateutil.ParseClock(s); err != nil {
					return nil, p.errorf(name, "", err)
				}
			}
		case "slug":
			ev.Slug, err = p.text(name)
		case "title":
			ev.Title, err = p.text(name)
		case "subtitle":
			ev.SubTitle, err = p.text(name)
		case "abstract":
			ev.AbstractText, err = p.text(name)
		case "description":
			ev.Description, err = p.text(name)
		case "track":
			trackName, err = p.text(name)
		case "type":
			var s string
			if s, err = p.text(name); err == nil && s != "" {
				trackType = p.trackType(s)
			}
		case "persons":
			err = p.parsePersons(ev)
		case "links":
			err = p.parseLinks(ev)
		default:
			err = p.skip()
		}
		if err != nil {
			return nil, err
		}
	}

	if ev.HasStart() && hasDuration {
		ev.EndTime = dateutil.Add(ev.StartTime, duration)
	}

	if p.track == nil || p.track.Name != trackName || p.track.Type != trackType {
		p.track = &model.Track{Name: trackName, Type: trackType}
	}
	ev.Track = p.track

	return ev, nil
}

func (p *Parser) parsePersons(ev *model.Event) error {
	for {
		if err := p.cur.next(); err != nil {
			return p.readErr(err)
		}
		if p.cur.eof {
			return p.errorf("persons", "", io.ErrUnexpectedEOF)
		}
		if p.cur.isEnd("persons") {
			return nil
		}
		if !p.cur.isStartTag() {
			continue
		}
		if !p.cur.isStart("person") {
			if err := p.skip(); err != nil {
				return err
			}
			continue
		}

		id, err := p.intAttr("person", "id")
		if err != nil {
			return err
		}
		name, err := p.text("person")
		if err != nil {
			return err
		}
		ev.Persons = append(ev.Persons, model.Person{ID: id, Name: name})
	}
}

func (p *Parser) parseLinks(ev *model.Event) error {
	for {
		if err := p.cur.next(); err != nil {
			return p.readErr(err)
		}
		if p.cur.eof {
			return p.errorf("links", "", io.ErrUnexpectedEOF)
		}
		if p.cur.isEnd("links") {
			return nil
		}
		if !p.cur.isStartTag() {
			continue
		}
		if !p.cur.isStart("link") {
			if err := p.skip(); err != nil {
				return err
			}
			continue
		}

		href, _ := p.cur.attr("href")
		desc, err := p.text("link")
		if err != nil {
			return err
		}
		ev.Links = append(ev.Links, model.Link{URL: href, Description: desc})
	}
}

// trackType maps free <type> text such as "Conférence" or "ATELIER" to a
// known TrackType, falling back to the default.
func (p *Parser) trackType(raw string) model.TrackType {
	if t, ok := model.ParseTrackType(textutil.Fold(raw, p.lang)); ok {
		return t
	}
	appLog.Debug("unknown track type, using default", "source", p.source, "type", raw, "default", model.DefaultTrackType)
	return model.DefaultTrackType
}

func (p *Parser) intAttr(element, attr string) (int64, error) {
	raw, ok := p.cur.attr(attr)
	if !ok {
		return 0, p.errorf(element, attr, ErrMissingAttr)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, p.errorf(element, attr, err)
	}
	return n, nil
}

func (p *Parser) text(element string) (string, error) {
	s, err := p.cur.text()
	if err != nil {
		return "", p.errorf(element, "", err)
	}
	return s, nil
}

func (p *Parser) skip() error {
	name := p.cur.name()
	if err := p.cur.skip(); err != nil {
		return p.errorf(name, "", err)
	}
	p.metrics.ElementSkipped(p.source)
	appLog.Debug("skipped unknown element", "source", p.source, "element", name)
	return nil
}

func (p *Parser) errorf(element, attr string, err error) error {
	line, col := p.cur.pos()
	return &ParseError{Element: element, Attr: attr, Line: line, Column: col, Err: err}
}

func (p *Parser) readErr(err error) error {
	return fmt.Errorf("pentabarf: read %s: %w", p.source, err)
}
