package journal

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"rulingsafe/internal/rs"
)

func newTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()

	j, err := NewSQLiteJournal(":memory:")
	if err != nil {
		t.Fatalf("failed to create journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSQLiteJournal_BeginFinish(t *testing.T) {
	j := newTestJournal(t)
	start := time.Date(2024, 1, 15, 10, 30, 0, 123, time.UTC)

	op, err := j.Begin("case.create", `{"key":"A_2020"}`, "alice", start)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if op.ID == 0 || op.Status != rs.StatusRunning {
		t.Errorf("Begin() = %+v", op)
	}

	ops, err := j.List(10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ops) != 1 || ops[0].FinishedAt != nil || ops[0].Status != rs.StatusRunning {
		t.Fatalf("List() = %+v, want one running operation", ops)
	}
	if !ops[0].StartedAt.Equal(start) {
		t.Errorf("StartedAt = %v, want %v", ops[0].StartedAt, start)
	}

	end := start.Add(time.Second)
	if err := j.Finish(op.ID, rs.StatusSuccess, end); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	ops, err = j.List(10)
	if err != nil {
		t.Fatal(err)
	}
	got := ops[0]
	if got.Status != rs.StatusSuccess {
		t.Errorf("Status = %q, want %q", got.Status, rs.StatusSuccess)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(end) {
		t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, end)
	}
	if got.Name != "case.create" || got.Username != "alice" || got.Parameters != `{"key":"A_2020"}` {
		t.Errorf("operation = %+v", got)
	}
}

func TestSQLiteJournal_FinishUnknown(t *testing.T) {
	j := newTestJournal(t)

	err := j.Finish(42, rs.StatusError, time.Now())
	if !errors.Is(err, rs.ErrNotFound) {
		t.Errorf("Finish() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteJournal_ListNewestFirst(t *testing.T) {
	j := newTestJournal(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"user.create", "case.create", "link.add"} {
		if _, err := j.Begin(name, "", "alice", start.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		limit int
		want  []string
	}{
		{limit: 10, want: []string{"link.add", "case.create", "user.create"}},
		{limit: 2, want: []string{"link.add", "case.create"}},
	}
	for _, tt := range tests {
		ops, err := j.List(tt.limit)
		if err != nil {
			t.Fatalf("List(%d) error = %v", tt.limit, err)
		}
		if len(ops) != len(tt.want) {
			t.Fatalf("List(%d) returned %d ops, want %d", tt.limit, len(ops), len(tt.want))
		}
		for i, name := range tt.want {
			if ops[i].Name != name {
				t.Errorf("List(%d)[%d] = %q, want %q", tt.limit, i, ops[i].Name, name)
			}
		}
	}
}

func TestSQLiteJournal_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	j, err := NewSQLiteJournal(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := j.Begin("storage.set", "/data", "", time.Now()); err != nil {
		t.Fatal(err)
	}
	j.Close()

	j, err = NewSQLiteJournal(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer j.Close()

	if err := j.CheckSchema(); err != nil {
		t.Errorf("CheckSchema() error = %v", err)
	}
	ops, err := j.List(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 1 || ops[0].Name != "storage.set" {
		t.Errorf("List() = %+v, want the earlier operation", ops)
	}
	if j.Path() != path {
		t.Errorf("Path() = %q, want %q", j.Path(), path)
	}
}
