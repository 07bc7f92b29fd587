package store

import (
	"context"
	"testing"

	"github.com/roach88/recall/internal/session"
	"github.com/roach88/recall/internal/trial"
)

var _ session.Sink = (*Store)(nil)

func TestWriteTrial_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.WriteSession(ctx, createTestSession("s1", "P01", trial.ParadigmFree, testStart)); err != nil {
		t.Fatalf("WriteSession() failed: %v", err)
	}
	tr := createTestTrial(t, "s1", 1, 1, "BDGK", "BK")
	for i := 0; i < 3; i++ {
		if err := s.WriteTrial(ctx, tr); err != nil {
			t.Fatalf("WriteTrial() #%d failed: %v", i, err)
		}
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM trials").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 trial row, got %d", count)
	}
}

func TestWriteSession_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sess := createTestSession("s1", "P01", trial.ParadigmFree, testStart)

	for i := 0; i < 2; i++ {
		if err := s.WriteSession(ctx, sess); err != nil {
			t.Fatalf("WriteSession() #%d failed: %v", i, err)
		}
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 session row, got %d", count)
	}
}

func TestWriteTrial_RequiresSession(t *testing.T) {
	s := createTestStore(t)
	tr := createTestTrial(t, "missing", 1, 1, "BDGK", "BK")
	if err := s.WriteTrial(context.Background(), tr); err == nil {
		t.Error("expected foreign key error for unknown session")
	}
}

func TestWriteTrial_RequiresID(t *testing.T) {
	s := createTestStore(t)
	tr := createTestTrial(t, "s1", 1, 1, "BDGK", "BK")
	tr.ID = ""
	if err := s.WriteTrial(context.Background(), tr); err == nil {
		t.Error("expected error for trial without id")
	}
}

func TestWriteTrial_SlotConflict(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	if err := s.WriteSession(ctx, createTestSession("s1", "P01", trial.ParadigmFree, testStart)); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteTrial(ctx, createTestTrial(t, "s1", 1, 1, "BDGK", "BK")); err != nil {
		t.Fatal(err)
	}
	// Same session and index, different response: a different trial ID.
	if err := s.WriteTrial(ctx, createTestTrial(t, "s1", 1, 2, "BDGK", "DG")); err == nil {
		t.Error("expected unique (session_id, trial_index) violation")
	}
}

func TestWriteTrial_NoFloatsInConditions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	if err := s.WriteSession(ctx, createTestSession("s1", "P01", trial.ParadigmFree, testStart)); err != nil {
		t.Fatal(err)
	}
	tr := createTestTrial(t, "s1", 1, 1, "BDGK", "BK")
	if err := s.WriteTrial(ctx, tr); err != nil {
		t.Fatal(err)
	}

	var conditions string
	if err := s.db.QueryRow("SELECT conditions FROM trials WHERE id = ?", tr.ID).Scan(&conditions); err != nil {
		t.Fatal(err)
	}
	want := `{"chunked":"false","condition":"silent","similarity":"mixed"}`
	if conditions != want {
		t.Errorf("conditions = %s, want %s", conditions, want)
	}
}
