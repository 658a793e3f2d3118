package apiclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/dukerupert/tally/internal/database"
	"github.com/dukerupert/tally/internal/model"
	"github.com/dukerupert/tally/internal/server"
)

// newTestClient spins up a real router on an in-memory database and returns
// a client pointed at it, plus a counter of requests that reached the server.
func newTestClient(t *testing.T) (*Client, *atomic.Int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := server.New(db, logger)

	var hits atomic.Int64
	counted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		srv.Router().ServeHTTP(w, r)
	})

	ts := httptest.NewServer(counted)
	t.Cleanup(ts.Close)

	return New(ts.URL), &hits
}

func strPtr(s string) *string { return &s }

func TestCachedReads(t *testing.T) {
	client, hits := newTestClient(t)
	ctx := context.Background()

	if _, err := client.Families(ctx); err != nil {
		t.Fatalf("families: %v", err)
	}
	first := hits.Load()

	// Second identical read is served from cache: no new request
	if _, err := client.Families(ctx); err != nil {
		t.Fatalf("families: %v", err)
	}
	if hits.Load() != first {
		t.Errorf("cached read hit the server: %d -> %d requests", first, hits.Load())
	}

	// Differently-parameterized entry reads cache under separate keys
	if _, err := client.Entries(ctx, EntryFilter{Month: "2024-05"}); err != nil {
		t.Fatalf("entries: %v", err)
	}
	afterMonth := hits.Load()
	if _, err := client.Entries(ctx, EntryFilter{Date: "2024-05-10"}); err != nil {
		t.Fatalf("entries: %v", err)
	}
	if hits.Load() == afterMonth {
		t.Error("date-filtered read reused the month-filtered cache entry")
	}
}

func TestMutationInvalidatesAffectedEndpoint(t *testing.T) {
	client, hits := newTestClient(t)
	ctx := context.Background()

	if _, err := client.Families(ctx); err != nil {
		t.Fatalf("families: %v", err)
	}

	family, err := client.CreateFamily(ctx, CreateFamilyInput{Name: "Sport", Order: 1})
	if err != nil {
		t.Fatalf("create family: %v", err)
	}

	// The creation must show up: cache for /api/families was evicted
	families, err := client.Families(ctx)
	if err != nil {
		t.Fatalf("families: %v", err)
	}
	if len(families) != 1 || families[0].ID != family.ID {
		t.Fatalf("families after create = %+v", families)
	}

	// An unrelated endpoint keeps its cache
	if _, err := client.Trackers(ctx); err != nil {
		t.Fatalf("trackers: %v", err)
	}
	before := hits.Load()
	if _, err := client.UpdateFamily(ctx, family.ID, model.FamilyPatch{Name: model.Some("Fitness")}); err != nil {
		t.Fatalf("update family: %v", err)
	}
	if _, err := client.Trackers(ctx); err != nil {
		t.Fatalf("trackers: %v", err)
	}
	// Only the PATCH itself reached the server
	if got := hits.Load() - before; got != 1 {
		t.Errorf("family mutation evicted the trackers cache: %d extra requests", got)
	}
}

func TestUpdateTrackerNullClearsFamily(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	family, err := client.CreateFamily(ctx, CreateFamilyInput{Name: "Sport", Order: 1})
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	tracker, err := client.CreateTracker(ctx, CreateTrackerInput{
		Name:        "Pilates",
		FamilyID:    &family.ID,
		Color:       "#f87171",
		Description: strPtr("20 min daily"),
	})
	if err != nil {
		t.Fatalf("create tracker: %v", err)
	}

	// An explicit null crosses the wire and clears the field; unset patch
	// fields never leave the client.
	updated, err := client.UpdateTracker(ctx, tracker.ID, model.TrackerPatch{
		FamilyID: model.Null[int64](),
	})
	if err != nil {
		t.Fatalf("update tracker: %v", err)
	}
	if updated.FamilyID != nil {
		t.Errorf("familyId = %d, want cleared to null", *updated.FamilyID)
	}
	if updated.Description == nil || *updated.Description != "20 min daily" {
		t.Errorf("description = %v, want untouched", updated.Description)
	}
}

func TestFailedMutationKeepsCache(t *testing.T) {
	client, hits := newTestClient(t)
	ctx := context.Background()

	if _, err := client.Families(ctx); err != nil {
		t.Fatalf("families: %v", err)
	}

	// Validation failure: no eviction happens
	if _, err := client.CreateFamily(ctx, CreateFamilyInput{Name: ""}); err == nil {
		t.Fatal("expected validation error")
	}

	before := hits.Load()
	if _, err := client.Families(ctx); err != nil {
		t.Fatalf("families: %v", err)
	}
	if hits.Load() != before {
		t.Error("failed mutation evicted the cache")
	}
}

func TestToggleEntry(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	tracker, err := client.CreateTracker(ctx, CreateTrackerInput{Name: "Pilates", Color: "#f87171"})
	if err != nil {
		t.Fatalf("create tracker: %v", err)
	}

	// No existing entry: toggle creates
	entry, err := client.ToggleEntry(ctx, tracker.ID, "2024-05-10", nil)
	if err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	if entry == nil {
		t.Fatal("expected created entry")
	}

	entries, err := client.Entries(ctx, EntryFilter{Date: "2024-05-10"})
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after toggle on, got %d", len(entries))
	}

	// Existing entry id supplied: toggle deletes
	deleted, err := client.ToggleEntry(ctx, tracker.ID, "2024-05-10", &entry.ID)
	if err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if deleted != nil {
		t.Fatalf("expected nil after toggle off, got %+v", deleted)
	}

	entries, err = client.Entries(ctx, EntryFilter{Date: "2024-05-10"})
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected 0 entries after toggle round trip, got %d", len(entries))
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	_, err := client.CreateTracker(ctx, CreateTrackerInput{Name: "Pilates"})
	if err == nil {
		t.Fatal("expected error for missing color")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != 400 {
		t.Errorf("status = %d, want 400", apiErr.StatusCode)
	}
	if apiErr.Field != "color" {
		t.Errorf("field = %q, want color", apiErr.Field)
	}

	// Duplicate completion surfaces as 409
	tracker, err := client.CreateTracker(ctx, CreateTrackerInput{Name: "Pilates", Color: "#fff"})
	if err != nil {
		t.Fatalf("create tracker: %v", err)
	}
	if _, err := client.CreateEntry(ctx, CreateEntryInput{TrackerID: tracker.ID, Date: "2024-05-10"}); err != nil {
		t.Fatalf("create entry: %v", err)
	}
	_, err = client.CreateEntry(ctx, CreateEntryInput{TrackerID: tracker.ID, Date: "2024-05-10"})
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 409 {
		t.Fatalf("expected 409 APIError, got %v", err)
	}
}

func TestResetClearsEverything(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if _, err := client.CreateFamily(ctx, CreateFamilyInput{Name: "Mine"}); err != nil {
		t.Fatalf("create family: %v", err)
	}
	if _, err := client.Families(ctx); err != nil {
		t.Fatalf("families: %v", err)
	}
	if client.cache.size() == 0 {
		t.Fatal("expected cached responses before reset")
	}

	if err := client.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if client.cache.size() != 0 {
		t.Error("reset left cached responses behind")
	}

	// Server holds the demo set again
	families, err := client.Families(ctx)
	if err != nil {
		t.Fatalf("families: %v", err)
	}
	if len(families) != 2 {
		t.Fatalf("expected 2 demo families after reset, got %d", len(families))
	}
	for _, f := range families {
		if f.Name == "Mine" {
			t.Error("reset left user data behind")
		}
	}
}
