package clean

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/listclean/listclean/internal/classify"
)

func newTestService() *Service {
	return NewService(newTestPipeline(), ServiceConfig{
		MaxConcurrent: 2,
		MaxWait:       time.Second,
		Timeout:       time.Minute,
		Retention:     time.Minute,
	})
}

func TestService_RunRoundTrip(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	runID, err := svc.StartRun(ctx, []Source{
		{Name: "list.csv", Data: []byte("Email\na@x.com\nadmin@gmal.com\n")},
	})
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	if runID == "" {
		t.Fatal("StartRun() returned empty run ID")
	}

	result, err := svc.Result(ctx, runID)
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if result.Stats.TotalProcessed != 2 || result.Stats.TotalValid != 1 {
		t.Errorf("stats = %+v, want 2 processed / 1 valid", result.Stats)
	}
	if result.Rejected[0].Status != classify.StatusTypoDomain {
		t.Errorf("rejected status = %q, want typo_domain", result.Rejected[0].Status)
	}

	status, err := svc.Status(runID)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !status.Finished || status.Error != "" {
		t.Errorf("Status() = %+v, want finished without error", status)
	}
}

func TestService_UnknownRun(t *testing.T) {
	svc := newTestService()

	if _, err := svc.Result(context.Background(), "nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Result() error = %v, want ErrRunNotFound", err)
	}
	if _, err := svc.Status("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Status() error = %v, want ErrRunNotFound", err)
	}
}

func TestService_NoFiles(t *testing.T) {
	svc := newTestService()

	if _, err := svc.StartRun(context.Background(), nil); !errors.Is(err, ErrNoFiles) {
		t.Errorf("StartRun() error = %v, want ErrNoFiles", err)
	}
}

func TestService_FreshStatePerRun(t *testing.T) {
	// The dedup set is run-scoped: the same address in two separate runs
	// is valid both times.
	svc := newTestService()
	ctx := context.Background()
	data := []byte("Email\nsame@x.com\n")

	for i := 0; i < 2; i++ {
		runID, err := svc.StartRun(ctx, []Source{{Name: "list.csv", Data: data}})
		if err != nil {
			t.Fatalf("StartRun() error = %v", err)
		}
		result, err := svc.Result(ctx, runID)
		if err != nil {
			t.Fatalf("Result() error = %v", err)
		}
		if result.Stats.TotalDuplicates != 0 {
			t.Errorf("run %d: TotalDuplicates = %d, want 0 (no cross-run state)",
				i, result.Stats.TotalDuplicates)
		}
	}
}

func TestService_WaitForRuns(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	runID, err := svc.StartRun(ctx, []Source{
		{Name: "list.csv", Data: []byte("Email\na@x.com\n")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Result(ctx, runID); err != nil {
		t.Fatal(err)
	}

	drainCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := svc.WaitForRuns(drainCtx); err != nil {
		t.Errorf("WaitForRuns() error = %v", err)
	}
}
