package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"pentasched/internal/config"
)

const schedule = `<?xml version="1.0" encoding="UTF-8"?>
<schedule>
  <day index="1" date="2024-11-16">
    <room name="Amphi">
      <event id="1">
        <start>09:30</start>
        <duration>01:15</duration>
        <title>Opening</title>
        <track>Main</track>
        <type>Conférence</type>
        <persons><person id="10">Ada</person></persons>
      </event>
      <event id="2">
        <title>Unscheduled</title>
        <track>Main</track>
      </event>
    </room>
  </day>
</schedule>`

func writeSchedule(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(format string) *config.Config {
	conf := config.DefaultConfig()
	conf.Format = format
	conf.Normalize()
	return conf
}

func TestRunText(t *testing.T) {
	path := writeSchedule(t, "cdl.xml", schedule)
	var out bytes.Buffer
	if err := run(context.Background(), testConfig(config.FormatText), []string{path}, nil, &out); err != nil {
		t.Fatal(err)
	}
	want := "cdl\tD1 2024-11-16\t09:30-10:45\tAmphi\tOpening\t[Main/conference]\tAda\n" +
		"cdl\tD1 2024-11-16\t--:--\tAmphi\tUnscheduled\t[Main/conference]\t\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("text output (-want +got):\n%s", diff)
	}
}

func TestRunJSONFromStdin(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), testConfig(config.FormatJSON), []string{"-"}, strings.NewReader(schedule), &out)
	if err != nil {
		t.Fatal(err)
	}

	type line struct {
		Source    string `json:"source"`
		ID        int64  `json:"id"`
		Title     string `json:"title"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		Track     struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"track"`
	}
	var got []line
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var l line
		if err := json.Unmarshal(sc.Bytes(), &l); err != nil {
			t.Fatalf("bad json line %q: %v", sc.Text(), err)
		}
		got = append(got, l)
	}
	if len(got) != 2 {
		t.Fatalf("got %d lines", len(got))
	}
	if got[0].Source != "stdin" || got[0].ID != 1 || got[0].StartTime != "2024-11-16T09:30:00+01:00" || got[0].EndTime != "2024-11-16T10:45:00+01:00" {
		t.Errorf("first line = %+v", got[0])
	}
	if got[1].StartTime != "" || got[1].Track.Type != "conference" {
		t.Errorf("second line = %+v", got[1])
	}
}

func TestRunICS(t *testing.T) {
	path := writeSchedule(t, "cdl.xml", schedule)
	conf := testConfig(config.FormatICS)
	conf.CalendarName = "Capitole du Libre"

	var out bytes.Buffer
	if err := run(context.Background(), conf, []string{path}, nil, &out); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	if n := strings.Count(s, "BEGIN:VEVENT"); n != 1 {
		t.Errorf("VEVENT count = %d, want 1 (unscheduled event skipped)\n%s", n, s)
	}
	for _, want := range []string{"X-WR-CALNAME:Capitole du Libre", "DTSTART:20241116T083000Z", "DTEND:20241116T094500Z", "SUMMARY:Opening"} {
		if !strings.Contains(s, want) {
			t.Errorf("ics output missing %q\n%s", want, s)
		}
	}
}

func TestRunContinuesAfterFailure(t *testing.T) {
	bad := writeSchedule(t, "bad.xml", `<schedule><event><title>no id</title></event></schedule>`)
	good := writeSchedule(t, "good.xml", schedule)
	metricsPath := filepath.Join(t.TempDir(), "pentasched.prom")

	conf := testConfig(config.FormatText)
	conf.MetricsFile = metricsPath

	var out bytes.Buffer
	err := run(context.Background(), conf, []string{bad, good}, nil, &out)
	if err == nil || !strings.Contains(err.Error(), "bad:") {
		t.Fatalf("run error = %v, want failure for bad.xml", err)
	}
	if n := strings.Count(out.String(), "\n"); n != 2 {
		t.Errorf("good schedule should still be written, got %d lines:\n%s", n, out.String())
	}

	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`pentasched_documents_total{result="error",source="bad"} 1`,
		`pentasched_documents_total{result="ok",source="good"} 1`,
		`pentasched_events_total{source="good"} 2`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics missing %q:\n%s", want, data)
		}
	}
}

func TestRunUsesConfiguredSchedules(t *testing.T) {
	conf := testConfig(config.FormatText)
	if err := run(context.Background(), conf, nil, nil, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error without schedules")
	}

	path := writeSchedule(t, "x.xml", schedule)
	conf.Schedules = []config.ScheduleConfig{{ID: "cdl", Name: "CDL", Path: path}}
	var out bytes.Buffer
	if err := run(context.Background(), conf, nil, nil, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "cdl\t") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunCanceled(t *testing.T) {
	path := writeSchedule(t, "cdl.xml", schedule)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := run(ctx, testConfig(config.FormatText), []string{path}, nil, &bytes.Buffer{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("run error = %v, want context.Canceled", err)
	}
}

func TestRunCanceledWhileReadingStdin(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	// Part of a document arrives, then the writer stalls.
	go pw.Write([]byte(`<schedule><day index="1" date="2024-11-16">`))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- run(ctx, testConfig(config.FormatText), []string{"-"}, pr, &bytes.Buffer{})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("run error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}

func TestContextReaderPassesData(t *testing.T) {
	cr := &contextReader{ctx: context.Background(), r: strings.NewReader("<schedule/>")}
	data, err := io.ReadAll(cr)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<schedule/>" {
		t.Errorf("data = %q", data)
	}
}

func TestApplyFlags(t *testing.T) {
	t.Setenv("PENTASCHED_LOG_LEVEL", "")
	conf := config.DefaultConfig()
	applyFlags(conf, flagConfig{format: "json", timezone: "UTC", metricsFile: "/tmp/m.prom", verbose: true})
	if conf.Format != "json" || conf.Timezone != "UTC" || conf.MetricsFile != "/tmp/m.prom" || conf.LogLevel != "debug" {
		t.Errorf("config = %+v", conf)
	}
}
