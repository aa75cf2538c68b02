package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *RunStore {
	t.Helper()
	store, err := OpenRunStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenRunStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunStore_SaveGetListDelete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	config, result := runSmallComparison(t)

	older := NewRunRecord(config, result)
	older.CreatedAt = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	newer := NewRunRecord(config, result)
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)

	for _, rec := range []RunRecord{older, newer} {
		if err := store.SaveRun(ctx, rec); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	got, err := store.GetRun(ctx, older.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !got.CreatedAt.Equal(older.CreatedAt) || got.NumSamples != 20 || got.YearsToForecast != 5 {
		t.Errorf("unexpected record %+v", got)
	}
	if len(got.Summaries) != 2 || got.Summaries[0].Scenario != "Buy" {
		t.Errorf("summaries not stored: %+v", got.Summaries)
	}
	if got.WealthAdvantage == nil || *got.WealthAdvantage != *older.WealthAdvantage {
		t.Errorf("wealth advantage %v, expected %v", got.WealthAdvantage, older.WealthAdvantage)
	}
	if got.Config == nil || len(got.Config.Scenarios) != 2 {
		t.Errorf("config not stored: %+v", got.Config)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != newer.ID {
		t.Fatalf("expected newest run first, got %d runs", len(runs))
	}
	if runs[0].Config != nil {
		t.Error("listing should omit configs")
	}

	if limited, err := store.ListRuns(ctx, 1); err != nil || len(limited) != 1 {
		t.Errorf("limit ignored: %d runs, %v", len(limited), err)
	}

	if err := store.DeleteRun(ctx, older.ID); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if _, err := store.GetRun(ctx, older.ID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound after delete, got %v", err)
	}
	if err := store.DeleteRun(ctx, older.ID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound deleting twice, got %v", err)
	}
}

func TestRunStore_Errors(t *testing.T) {
	if _, err := OpenRunStore("  "); err == nil {
		t.Error("empty path accepted")
	}

	store := openTestStore(t)
	if err := store.SaveRun(context.Background(), RunRecord{}); err == nil {
		t.Error("record without id accepted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.ListRuns(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	var nilStore *RunStore
	if _, err := nilStore.GetRun(context.Background(), "x"); err == nil {
		t.Error("nil store should fail")
	}
	if err := nilStore.Close(); err != nil {
		t.Errorf("closing a nil store: %v", err)
	}
}
