package retention

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/entity"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgerror"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgmetrics"
)

type Store interface {
	List(ctx context.Context) ([]entity.DatasetMeta, error)
	Evict(ctx context.Context, id string) (entity.DatasetMeta, error)
}

type Remover interface {
	Remove(paths ...string) error
}

type Enforcer struct {
	store  Store
	files  Remover
	policy Policy
	now    func() time.Time
}

// NewEnforcer returns an Enforcer. A nil policy keeps everything.
func NewEnforcer(store Store, files Remover, policy Policy) *Enforcer {
	if policy == nil {
		policy = KeepAll{}
	}
	return &Enforcer{
		store:  store,
		files:  files,
		policy: policy,
		now:    time.Now,
	}
}

// Enforce evicts every ready dataset the policy selects and removes its raw
// file and charts. It returns the evicted ids.
func (e *Enforcer) Enforce(ctx context.Context) ([]string, error) {
	all, err := e.store.List(ctx)
	if err != nil {
		return nil, err
	}

	// uploads still in flight are neither counted nor evicted
	datasets := all[:0:0]
	for _, d := range all {
		if d.Ready {
			datasets = append(datasets, d)
		}
	}

	var (
		evicted []string
		errs    []error
	)
	for _, id := range e.policy.Select(e.now(), datasets) {
		meta, err := e.store.Evict(ctx, id)
		if errors.Is(err, pkgerror.ErrNotFound) {
			// deleted concurrently
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}

		pkgmetrics.DatasetEvicted("retention")
		evicted = append(evicted, id)

		if e.files != nil {
			if err := e.files.Remove(append([]string{meta.RawPath}, meta.GraphPaths...)...); err != nil {
				slog.WarnContext(ctx, "failed to remove evicted dataset files", "dataset_id", id, "error", err)
			}
		}
	}

	if len(evicted) > 0 {
		slog.InfoContext(ctx, "evicted datasets", "count", len(evicted), "dataset_ids", evicted)
	}

	return evicted, errors.Join(errs...)
}

// Handle enforces retention after each upload.
func (e *Enforcer) Handle(ctx context.Context, event entity.DatasetEvent) error {
	if event.Kind != entity.EventUploaded {
		return nil
	}
	_, err := e.Enforce(ctx)
	return err
}

// Run enforces retention every interval until ctx is done. A non-positive
// interval disables the sweep.
func (e *Enforcer) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := e.Enforce(ctx); err != nil {
				slog.ErrorContext(ctx, "retention sweep failed", "error", err)
			}
		}
	}
}
