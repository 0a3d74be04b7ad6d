package summary

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

// fakeHistory serves scripted pages and records the cursors it was asked for.
type fakeHistory struct {
	pages   [][]Message
	err     error
	calls   int
	cursors []string
}

func (h *fakeHistory) Page(_ context.Context, _ string, beforeID string, _ int) ([]Message, error) {
	h.cursors = append(h.cursors, beforeID)
	if h.err != nil {
		return nil, h.err
	}
	if h.calls >= len(h.pages) {
		return nil, nil
	}
	page := h.pages[h.calls]
	h.calls++
	return page, nil
}

// costEstimator prices records by message id, with a default for the rest.
type costEstimator struct {
	costs map[string]int
	def   int
}

func (e *costEstimator) Estimate(rec Record) int {
	if c, ok := e.costs[rec.MessageID]; ok {
		return c
	}
	return e.def
}

func msg(id string, age time.Duration) Message {
	return Message{
		ID:        id,
		Sender:    "user-" + id,
		Content:   "content " + id,
		CreatedAt: testNow.Add(-age),
	}
}

func newTestFetcher(h History, est TokenEstimator, budget int) *Fetcher {
	f := NewFetcher(h, est, budget, 100)
	f.SetNow(func() time.Time { return testNow })
	return f
}

func TestFetchWindow_EmptyChannel(t *testing.T) {
	h := &fakeHistory{}
	f := newTestFetcher(h, &costEstimator{def: 1}, 100)

	records, err := f.FetchWindow(context.Background(), "chan", 1)
	if err != nil {
		t.Fatalf("FetchWindow error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty window, got %d records", len(records))
	}
}

func TestFetchWindow_OldestFirst(t *testing.T) {
	h := &fakeHistory{pages: [][]Message{{
		msg("3", 10*time.Minute),
		msg("2", 20*time.Minute),
		msg("1", 30*time.Minute),
	}}}
	f := newTestFetcher(h, &costEstimator{def: 1}, 100)

	records, err := f.FetchWindow(context.Background(), "chan", 1)
	if err != nil {
		t.Fatalf("FetchWindow error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	for i, want := range []string{"1", "2", "3"} {
		if records[i].MessageID != want {
			t.Errorf("records[%d].MessageID = %q, want %q", i, records[i].MessageID, want)
		}
	}
}

func TestFetchWindow_FiltersBotsAndOldMessages(t *testing.T) {
	bot := msg("bot", 5*time.Minute)
	bot.FromBot = true
	h := &fakeHistory{pages: [][]Message{{
		bot,
		msg("keep", 30*time.Minute),
		msg("stale", 2 * time.Hour),
	}}}
	f := newTestFetcher(h, &costEstimator{def: 1}, 100)

	records, err := f.FetchWindow(context.Background(), "chan", 1)
	if err != nil {
		t.Fatalf("FetchWindow error: %v", err)
	}
	if len(records) != 1 || records[0].MessageID != "keep" {
		t.Fatalf("got %+v, want only %q", records, "keep")
	}
}

func TestFetchWindow_PaginationCursor(t *testing.T) {
	h := &fakeHistory{pages: [][]Message{
		{msg("20", 10*time.Minute), msg("19", 11*time.Minute)},
		{msg("18", 12*time.Minute), msg("17", 13*time.Minute)},
	}}
	f := newTestFetcher(h, &costEstimator{def: 1}, 100)

	records, err := f.FetchWindow(context.Background(), "chan", 1)
	if err != nil {
		t.Fatalf("FetchWindow error: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}
	// First page has no cursor; each later page uses the prior page's
	// oldest id as the exclusive upper bound.
	want := []string{"", "19", "17"}
	if len(h.cursors) != len(want) {
		t.Fatalf("cursors = %v, want %v", h.cursors, want)
	}
	for i := range want {
		if h.cursors[i] != want[i] {
			t.Errorf("cursors[%d] = %q, want %q", i, h.cursors[i], want[i])
		}
	}
}

func TestFetchWindow_StopsAtWindowBoundary(t *testing.T) {
	h := &fakeHistory{pages: [][]Message{
		{msg("2", 10 * time.Minute)},
		{msg("1", 3 * time.Hour)}, // page entirely outside the window
		{msg("0", 4 * time.Hour)},
	}}
	f := newTestFetcher(h, &costEstimator{def: 1}, 100)

	records, err := f.FetchWindow(context.Background(), "chan", 1)
	if err != nil {
		t.Fatalf("FetchWindow error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if h.calls != 2 {
		t.Errorf("fetched %d pages, want 2 (stop after the empty-window page)", h.calls)
	}
}

func TestFetchWindow_TokenWallIsLongestPrefix(t *testing.T) {
	h := &fakeHistory{pages: [][]Message{{
		msg("c", 1*time.Minute),
		msg("b", 2*time.Minute),
		msg("a", 3*time.Minute),
	}}}
	// c fits (10), b would push past the budget (30 > 25), a would fit on
	// its own (5) but must not be admitted after the first rejection.
	est := &costEstimator{costs: map[string]int{"c": 10, "b": 20, "a": 5}}
	f := newTestFetcher(h, est, 25)

	records, err := f.FetchWindow(context.Background(), "chan", 1)
	if err != nil {
		t.Fatalf("FetchWindow error: %v", err)
	}
	if len(records) != 1 || records[0].MessageID != "c" {
		t.Fatalf("got %+v, want exactly the prefix before the first rejection", records)
	}
}

func TestFetchWindow_TokenWallStopsPagination(t *testing.T) {
	h := &fakeHistory{pages: [][]Message{
		{msg("big", 1 * time.Minute), msg("huge", 2 * time.Minute)},
		{msg("small", 3 * time.Minute)},
	}}
	est := &costEstimator{costs: map[string]int{"big": 10, "huge": 100, "small": 1}}
	f := newTestFetcher(h, est, 50)

	records, err := f.FetchWindow(context.Background(), "chan", 1)
	if err != nil {
		t.Fatalf("FetchWindow error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if h.calls != 1 {
		t.Errorf("fetched %d pages, want 1 (rejection terminates the fetch)", h.calls)
	}
}

func TestFetchWindow_BudgetExactlyReached(t *testing.T) {
	h := &fakeHistory{pages: [][]Message{
		{msg("2", 1 * time.Minute), msg("1", 2 * time.Minute)},
		{msg("0", 3 * time.Minute)},
	}}
	f := newTestFetcher(h, &costEstimator{def: 5}, 10)

	records, err := f.FetchWindow(context.Background(), "chan", 1)
	if err != nil {
		t.Fatalf("FetchWindow error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if h.calls != 1 {
		t.Errorf("fetched %d pages, want 1 (budget reached exactly)", h.calls)
	}
}

func TestFetchWindow_FetchError(t *testing.T) {
	h := &fakeHistory{err: errors.New("gateway down")}
	f := newTestFetcher(h, &costEstimator{def: 1}, 100)

	if _, err := f.FetchWindow(context.Background(), "chan", 1); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
}

func TestRecord_OmitsAbsentOptionalFields(t *testing.T) {
	rec := newRecord(Message{ID: "1", Sender: "alice", Content: "hi"})
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "reply_to") {
		t.Errorf("serialized record should omit reply_to: %s", data)
	}
	if strings.Contains(string(data), "attachments") {
		t.Errorf("serialized record should omit attachments: %s", data)
	}

	rec = newRecord(Message{ID: "2", Sender: "bob", Content: "hi", ReplyToID: "1", HasAttachments: true})
	data, err = json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"reply_to":"1"`) {
		t.Errorf("serialized record should carry reply_to: %s", data)
	}
	if !strings.Contains(string(data), `"attachments":true`) {
		t.Errorf("serialized record should carry attachments: %s", data)
	}
}
