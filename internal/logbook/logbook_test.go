package logbook

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func openTest(t *testing.T, max int) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "logbook.db"), max, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLogEntryAndRecent(t *testing.T) {
	s := openTest(t, 0)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return at }

	for _, action := range []string{"pressed", "long_pressed", "released"} {
		if err := s.LogEntry(action, `{"action":"`+action+`"}`, "lutron_bridge"); err != nil {
			t.Fatalf("LogEntry(%s): %v", action, err)
		}
	}

	got, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}

	wantNames := []string{"released", "long_pressed", "pressed"}
	for i, e := range got {
		if e.Name != wantNames[i] {
			t.Errorf("entry %d: name %q, want %q", i, e.Name, wantNames[i])
		}
		if e.Domain != "lutron_bridge" {
			t.Errorf("entry %d: domain %q", i, e.Domain)
		}
		if !e.Time.Equal(at) {
			t.Errorf("entry %d: time %v", i, e.Time)
		}
	}
	if got[0].Seq != 3 || got[2].Seq != 1 {
		t.Errorf("unexpected sequence numbers: %d..%d", got[0].Seq, got[2].Seq)
	}
}

func TestRecentLimit(t *testing.T) {
	s := openTest(t, 0)
	for i := 0; i < 5; i++ {
		s.LogEntry("pressed", "m", "d")
	}

	got, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 || got[0].Seq != 5 || got[1].Seq != 4 {
		t.Errorf("unexpected entries: %+v", got)
	}

	none, err := s.Recent(0)
	if err != nil || none != nil {
		t.Errorf("Recent(0) = %v, %v", none, err)
	}
}

func TestPruneToMaxEntries(t *testing.T) {
	s := openTest(t, 3)
	for i := 0; i < 7; i++ {
		if err := s.LogEntry("pressed", "m", "d"); err != nil {
			t.Fatalf("LogEntry: %v", err)
		}
	}

	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 entries after pruning, got %d", n)
	}

	got, _ := s.Recent(10)
	if len(got) != 3 || got[0].Seq != 7 || got[2].Seq != 5 {
		t.Errorf("expected seq 7..5, got %+v", got)
	}
}

func TestReopenKeepsEntriesAndSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logbook.db")

	s, err := Open(path, 0, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.LogEntry("pressed", "first", "d")
	s.Close()

	s, err = Open(path, 0, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	e, err := s.Append(Entry{Name: "released", Message: "second", Domain: "d"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if e.Seq != 2 {
		t.Errorf("sequence should continue after reopen, got %d", e.Seq)
	}

	n, _ := s.Count()
	if n != 2 {
		t.Errorf("expected 2 entries, got %d", n)
	}
}

func TestLogEntryWritesLogLine(t *testing.T) {
	var buf bytes.Buffer
	s, err := Open(filepath.Join(t.TempDir(), "logbook.db"), 0, zerolog.New(&buf))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	s.LogEntry("long_pressed", "msg", "lutron_bridge")

	out := buf.String()
	for _, want := range []string{`"message":"logbook"`, `"name":"long_pressed"`, `"domain":"lutron_bridge"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}
}

func TestClosedStore(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "logbook.db"), 0, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Close()

	if err := s.LogEntry("pressed", "m", "d"); !errors.Is(err, ErrClosed) {
		t.Errorf("LogEntry after close = %v, want ErrClosed", err)
	}
	if _, err := s.Recent(1); !errors.Is(err, ErrClosed) {
		t.Errorf("Recent after close = %v, want ErrClosed", err)
	}
}

func TestOpenBadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "logbook.db"), 0, zerolog.Nop())
	if err == nil {
		t.Error("expected error for missing directory")
	}
}
