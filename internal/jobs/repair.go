package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/yungbote/pcmm-backend/internal/pkg/errors"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
	"github.com/yungbote/pcmm-backend/internal/services"
)

// RepairWorker periodically settles tag runs that stopped before succeeding,
// e.g. after a crash mid-snapshot.
type RepairWorker struct {
	log        *logger.Logger
	tags       services.TagService
	interval   time.Duration
	staleAfter time.Duration
}

func NewRepairWorker(baseLog *logger.Logger, tags services.TagService, interval, staleAfter time.Duration) *RepairWorker {
	if staleAfter <= 0 {
		staleAfter = 2 * time.Minute
	}
	return &RepairWorker{
		log:        baseLog.With("component", "TagRepairWorker"),
		tags:       tags,
		interval:   interval,
		staleAfter: staleAfter,
	}
}

// Start runs until ctx is done. A non-positive interval disables the worker.
func (w *RepairWorker) Start(ctx context.Context) {
	if w == nil || w.interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.Tick(ctx)
			}
		}
	}()
}

// Tick runs one repair pass. A concurrent tag operation simply defers the
// pass to the next tick.
func (w *RepairWorker) Tick(ctx context.Context) (res *services.RepairResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("tag repair panic", "panic", r)
			err = fmt.Errorf("tag repair panic: %v", r)
		}
	}()
	res, err = w.tags.Repair(ctx, w.staleAfter)
	switch {
	case errors.Is(err, pkgerrors.ErrTagInProgress):
		w.log.Debug("tag repair skipped, operation in progress")
		return nil, nil
	case err != nil:
		w.log.Warn("tag repair incomplete", "error", err)
	}
	if res != nil && len(res.RolledBack)+len(res.Resumed) > 0 {
		w.log.Info("tag runs repaired", "rolled_back", len(res.RolledBack), "resumed", len(res.Resumed))
	}
	return res, err
}
