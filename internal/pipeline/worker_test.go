package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dgallion1/officemath/internal/config"
	"github.com/dgallion1/officemath/internal/convert"
	"github.com/dgallion1/officemath/internal/mathrender"
)

var discard = slog.New(slog.DiscardHandler)

func TestWorker_Process(t *testing.T) {
	failing := mathrender.RendererFunc(func(ctx context.Context, latex string, display bool) (string, error) {
		return "", mathrender.ErrParse
	})
	tests := []struct {
		name      string
		filename  string
		data      string
		conv      *convert.Converter
		want      JobStatus
		wantPhase string
	}{
		{"markdown", "notes.md", "# Notes\n\n$x^2$\n", convert.New(), StatusCompleted, "done"},
		{"text", "notes.txt", "one\n\ntwo", convert.New(), StatusCompleted, "done"},
		{"csv", "t.csv", "a,b\n1,2\n", convert.New(), StatusCompleted, "done"},
		{"math failure", "m.html", "<p>Value $x$</p>", convert.New(convert.WithOMMLRenderer(failing)), StatusPartial, "done"},
		{"unsupported", "a.exe", "x", convert.New(), StatusFailed, "parsing"},
		{"empty", "e.txt", "  \n", convert.New(), StatusFailed, "rendering"},
		{"no content", "s.html", "<script>x()</script>", convert.New(), StatusFailed, "rendering"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewJob(tt.filename, "", []byte(tt.data))
			NewWorker(tt.conv, discard, false).Process(context.Background(), job)

			snap := job.Snapshot()
			if snap.Status != tt.want || snap.Phase != tt.wantPhase {
				t.Fatalf("status = %s/%s, want %s/%s (errors %v)", snap.Status, snap.Phase, tt.want, tt.wantPhase, snap.Progress.Errors)
			}
			if tt.want == StatusFailed {
				if job.Result() != nil || len(snap.Progress.Errors) == 0 {
					t.Errorf("failed job should have errors and no result")
				}
				return
			}
			if _, err := zip.NewReader(bytes.NewReader(job.Result()), int64(len(job.Result()))); err != nil {
				t.Errorf("result is not a zip: %v", err)
			}
			if snap.Progress.Blocks == 0 {
				t.Errorf("expected blocks, got %+v", snap.Progress)
			}
		})
	}
}

func TestOrchestrator_SubmitAndProcess(t *testing.T) {
	cfg := config.Defaults()
	cfg.WorkerCount = 2
	o := NewOrchestrator(cfg, convert.New(), discard)
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("doc.md", "Doc", []byte("# Doc\n\n$a+b$"))
	if err := o.Submit(job); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if o.GetJob(job.ID) != job {
		t.Fatal("job should be registered")
	}

	deadline := time.Now().Add(5 * time.Second)
	for !job.Snapshot().Status.Done() {
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish: %+v", job.Snapshot())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if s := job.Snapshot().Status; s != StatusCompleted {
		t.Errorf("status = %s", s)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Defaults()
	cfg.MaxQueueSize = 1
	o := NewOrchestrator(cfg, convert.New(), discard) // not started: nothing drains the queue

	if err := o.Submit(NewJob("a.txt", "", []byte("a"))); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	job := NewJob("b.txt", "", []byte("b"))
	err := o.Submit(job)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if snap := job.Snapshot(); snap.Status != StatusFailed || snap.Phase != "queue_full" {
		t.Errorf("rejected job = %s/%s", snap.Status, snap.Phase)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("queue depth = %d", o.QueueDepth())
	}
}
