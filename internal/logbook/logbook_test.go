package logbook

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/stackplan/internal/plan"
	"github.com/kingrea/stackplan/internal/plan/executor"
	"github.com/kingrea/stackplan/internal/world"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestTailOnMissingFile(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "empty.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	if lines, total := book.Tail(10); lines != nil || total != 0 {
		t.Fatalf("expected empty tail, got %v/%d", lines, total)
	}
}

func TestAppendUsesClockAndLevel(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	book, err := New(filepath.Join(t.TempDir(), "j.log"), WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.Warn("stalled on %s", "table")
	lines, _ := book.Tail(1)
	want := "2024-03-01T12:00:00Z WARN  stalled on table"
	if len(lines) != 1 || lines[0] != want {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
}

func TestSinkJournalsEvents(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "j.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	sink := book.Sink("demo")
	sink.Record(executor.Event{Seq: 1, Kind: plan.ActionPickUp, Block: "y", From: world.LocationA, To: world.LocationA, Task: "On(y, x)"})
	sink.Record(executor.Event{Seq: 2, Kind: plan.ActionMoveTo, Block: "y", From: world.LocationA, To: world.LocationC})
	lines, total := book.Tail(5)
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	if !strings.HasSuffix(lines[0], "demo #1 pick up y at A [On(y, x)]") {
		t.Fatalf("line 0 = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "demo #2 move A -> C carrying y") {
		t.Fatalf("line 1 = %q", lines[1])
	}
}

func TestNilLogbookIsSafe(t *testing.T) {
	var book *Logbook
	book.Info("ignored")
	if book.Path() != "" {
		t.Fatalf("nil path should be empty")
	}
	if lines, total := book.Tail(3); lines != nil || total != 0 {
		t.Fatalf("nil tail = %v/%d", lines, total)
	}
}
