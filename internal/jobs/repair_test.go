package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/pcmm-backend/internal/pkg/errors"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
	"github.com/yungbote/pcmm-backend/internal/services"
)

type fakeTags struct {
	services.TagService
	calls     atomic.Int32
	olderThan time.Duration
	repair    func() (*services.RepairResult, error)
}

func (f *fakeTags) Repair(_ context.Context, olderThan time.Duration) (*services.RepairResult, error) {
	f.calls.Add(1)
	f.olderThan = olderThan
	return f.repair()
}

func TestTickReportsResult(t *testing.T) {
	id := uuid.New()
	tags := &fakeTags{repair: func() (*services.RepairResult, error) {
		return &services.RepairResult{RolledBack: []uuid.UUID{id}}, nil
	}}
	w := NewRepairWorker(logger.Nop(), tags, time.Minute, 0)

	res, err := w.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if res == nil || len(res.RolledBack) != 1 || res.RolledBack[0] != id {
		t.Fatalf("unexpected result: %+v", res)
	}
	if tags.olderThan != 2*time.Minute {
		t.Fatalf("default stale window: got=%s", tags.olderThan)
	}
}

func TestTickSkipsWhileTagOperationRuns(t *testing.T) {
	tags := &fakeTags{repair: func() (*services.RepairResult, error) {
		return nil, pkgerrors.ErrTagInProgress
	}}
	res, err := NewRepairWorker(logger.Nop(), tags, time.Minute, time.Minute).Tick(context.Background())
	if err != nil || res != nil {
		t.Fatalf("expected silent skip, got res=%+v err=%v", res, err)
	}
}

func TestTickRecoversPanics(t *testing.T) {
	tags := &fakeTags{repair: func() (*services.RepairResult, error) { panic("boom") }}
	_, err := NewRepairWorker(logger.Nop(), tags, time.Minute, time.Minute).Tick(context.Background())
	if err == nil {
		t.Fatalf("expected error from panic")
	}
}

func TestTickSurfacesFailures(t *testing.T) {
	cause := errors.New("1 tag runs could not be repaired")
	tags := &fakeTags{repair: func() (*services.RepairResult, error) {
		return &services.RepairResult{Failed: []uuid.UUID{uuid.New()}}, cause
	}}
	res, err := NewRepairWorker(logger.Nop(), tags, time.Minute, time.Minute).Tick(context.Background())
	if !errors.Is(err, cause) || res == nil || len(res.Failed) != 1 {
		t.Fatalf("unexpected: res=%+v err=%v", res, err)
	}
}

func TestStartRunsUntilCancelled(t *testing.T) {
	tags := &fakeTags{repair: func() (*services.RepairResult, error) { return &services.RepairResult{}, nil }}
	ctx, cancel := context.WithCancel(context.Background())
	NewRepairWorker(logger.Nop(), tags, 5*time.Millisecond, time.Minute).Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for tags.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if tags.calls.Load() < 2 {
		t.Fatalf("worker did not tick: calls=%d", tags.calls.Load())
	}

	NewRepairWorker(logger.Nop(), tags, 0, time.Minute).Start(context.Background())
}
