package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/officemath/internal/convert"
	"github.com/dgallion1/officemath/internal/mathrender"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestNewJob(t *testing.T) {
	a := NewJob("a.md", "A", []byte("# A"))
	b := NewJob("a.md", "A", []byte("# A"))
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct ids, got %q and %q", a.ID, b.ID)
	}
	if a.Status != StatusQueued || a.Phase != "queued" || string(a.FileData()) != "# A" {
		t.Errorf("unexpected job %+v", a.Snapshot())
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
		done   bool
	}{
		{StatusParsing, "parsing", false},
		{StatusRendering, "rendering", false},
		{StatusPackaging, "packaging", false},
		{StatusCompleted, "done", true},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if job.Status.Done() != tr.done {
			t.Errorf("%q: Done() = %v", tr.status, job.Status.Done())
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("math job 3 failed")
	job.AddError("math job 7 failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "math job 3 failed" {
		t.Errorf("expected first error %q, got %q", "math job 3 failed", snap.Progress.Errors[0])
	}
}

func TestJob_RecordConversion(t *testing.T) {
	job := &Job{ID: "conv-test", UpdatedAt: time.Now()}
	job.RecordConversion(convert.Result{
		Jobs:       5,
		Blocks:     12,
		MathErrors: []*mathrender.ConversionError{{JobID: 2}},
		Missing:    &convert.PlaceholderMismatch{IDs: []int{3, 4}},
	})

	p := job.Snapshot().Progress
	if p.MathJobs != 5 || p.Blocks != 12 || p.MathFailures != 1 || p.MissingPlaceholders != 2 {
		t.Errorf("unexpected progress %+v", p)
	}
}

func TestJob_SetResult(t *testing.T) {
	job := NewJob("x.txt", "", []byte("upload"))
	job.SetResult([]byte("hello world"))

	if job.FileData() != nil {
		t.Error("upload should be released once the result is stored")
	}
	snap := job.Snapshot()
	if string(job.Result()) != "hello world" || snap.Progress.ResultBytes != 11 {
		t.Errorf("unexpected result %q %+v", job.Result(), snap.Progress)
	}
	if snap.ContentHash != ContentHashHex([]byte("hello world")) {
		t.Errorf("content hash = %q", snap.ContentHash)
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 job left, got %d", store.Len())
	}
}
