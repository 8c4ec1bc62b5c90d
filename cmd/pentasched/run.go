package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"pentasched/internal/config"
	appLog "pentasched/internal/log"
	"pentasched/internal/metric"
	"pentasched/internal/pentabarf"
)

// run parses every schedule in turn and streams its events to stdout. A
// failing document is logged and reported in the returned error; the
// remaining documents are still processed.
func run(ctx context.Context, conf *config.Config, files []string, stdin io.Reader, stdout io.Writer) error {
	schedules := conf.Schedules
	if len(files) > 0 {
		schedules = make([]config.ScheduleConfig, 0, len(files))
		for _, path := range files {
			id := config.SourceID(path)
			schedules = append(schedules, config.ScheduleConfig{ID: id, Name: id, Path: path})
		}
	}
	if len(schedules) == 0 {
		return errors.New("no schedules configured and no files given")
	}

	loc, err := conf.Location()
	if err != nil {
		return err
	}
	lang, err := conf.Language()
	if err != nil {
		return err
	}
	metrics := metric.New()

	out := newEventWriter(conf, schedules, stdout)

	var errs []error
	for _, sched := range schedules {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		n, err := convert(ctx, sched, stdin, out,
			pentabarf.WithLocation(loc),
			pentabarf.WithLanguage(lang),
			pentabarf.WithMetrics(metrics),
			pentabarf.WithSourceID(sched.ID),
		)
		if err != nil {
			appLog.Error("schedule parse failed", err, "id", sched.ID, "path", sched.Path, "event_count", n)
			errs = append(errs, fmt.Errorf("%s: %w", sched.ID, err))
			continue
		}
		appLog.Info("schedule parse completed", "id", sched.ID, "path", sched.Path, "event_count", n)
	}

	if err := out.Close(); err != nil {
		errs = append(errs, err)
	}

	if conf.MetricsFile != "" {
		if err := metrics.WriteTextfile(conf.MetricsFile); err != nil {
			appLog.Error("metrics write failed", err, "path", conf.MetricsFile)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// convert streams one schedule document into out and returns the number of
// events written.
func convert(ctx context.Context, sched config.ScheduleConfig, stdin io.Reader, out eventWriter, opts ...pentabarf.Option) (int, error) {
	var r io.Reader = stdin
	if sched.Path != "-" {
		f, err := os.Open(sched.Path)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		r = f
	}

	n := 0
	p := pentabarf.NewParser(&contextReader{ctx: ctx, r: r}, opts...)
	for ev, err := range p.All() {
		if err != nil {
			return n, err
		}
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if err := out.Write(sched, ev); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// contextReader fails a pending Read with ctx.Err() as soon as ctx is done,
// so a parser blocked on stdin or a FIFO can be interrupted. The abandoned
// Read keeps running until the underlying reader returns.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

type readResult struct {
	n   int
	err error
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	buf := make([]byte, len(p))
	done := make(chan readResult, 1)
	go func() {
		n, err := cr.r.Read(buf)
		done <- readResult{n: n, err: err}
	}()
	select {
	case <-cr.ctx.Done():
		return 0, cr.ctx.Err()
	case res := <-done:
		copy(p, buf[:res.n])
		return res.n, res.err
	}
}
