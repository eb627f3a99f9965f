package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/roach88/remod/internal/engine"
	"github.com/roach88/remod/internal/ir"
)

// Recorder writes everything an engine reports into a Store.
//
//	rec := store.NewRecorder(ctx, st, logger)
//	eng := engine.New(engine.WithHooks(rec.Hooks()))
//
// Hooks cannot fail, so write errors are logged and kept; Err returns
// all of them joined. Recording continues after a failed write.
type Recorder struct {
	ctx   context.Context
	store *Store
	log   *slog.Logger

	mu   sync.Mutex
	errs []error
}

// NewRecorder creates a recorder. A nil logger means slog.Default().
func NewRecorder(ctx context.Context, s *Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{ctx: ctx, store: s, log: logger}
}

// Hooks returns engine hooks that record into the store.
func (r *Recorder) Hooks() engine.Hooks {
	return engine.Hooks{
		OnWired: func(info engine.InstanceInfo, spec ir.ModuleSpec) {
			r.check("instance", info.ID, r.store.WriteInstance(r.ctx, Instance{
				ID:       info.ID,
				Module:   info.Module,
				SpecHash: info.SpecHash,
				Spec:     spec,
			}))
		},
		OnEmission: func(e ir.Emission) {
			r.check("emission", e.InstanceID, r.store.WriteEmission(r.ctx, e))
		},
		OnSnapshot: func(info engine.InstanceInfo, snap *engine.Snapshot) {
			r.check("snapshot", info.ID, r.store.WriteSnapshot(r.ctx, Snapshot{
				InstanceID: info.ID,
				Version:    snap.Version(),
				Seq:        snap.Seq(),
				Hash:       snap.Hash(),
				Values:     snap.Record(),
			}))
		},
		OnTornDown: func(info engine.InstanceInfo, seq int64) {
			r.check("teardown", info.ID, r.store.MarkTornDown(r.ctx, info.ID, seq))
		},
	}
}

// Err returns every write error so far, joined, or nil.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.errs...)
}

func (r *Recorder) check(what, instanceID string, err error) {
	if err == nil {
		return
	}
	r.log.Warn("trace write failed", "record", what, "instance", instanceID, "error", err)
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}
