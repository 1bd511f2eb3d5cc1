package retention

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/entity"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func metas(ages ...time.Duration) []entity.DatasetMeta {
	out := make([]entity.DatasetMeta, len(ages))
	for i, age := range ages {
		out[i] = entity.DatasetMeta{ID: string(rune('a' + i)), UploadedAt: base.Add(-age)}
	}
	return out
}

func TestPolicies(t *testing.T) {
	datasets := metas(3*time.Hour, 2*time.Hour, time.Hour, 0)

	tests := []struct {
		name   string
		policy Policy
		want   []string
	}{
		{name: "keep all", policy: KeepAll{}, want: nil},
		{name: "max age", policy: MaxAge{Age: 90 * time.Minute}, want: []string{"a", "b"}},
		{name: "max age zero", policy: MaxAge{}, want: nil},
		{name: "max count", policy: MaxCount{Count: 1}, want: []string{"a", "b", "c"}},
		{name: "max count above size", policy: MaxCount{Count: 10}, want: nil},
		{name: "any", policy: Any{MaxAge{Age: 150 * time.Minute}, MaxCount{Count: 2}}, want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Select(base, datasets))
		})
	}
}

func TestFromLimits(t *testing.T) {
	assert.Equal(t, KeepAll{}, FromLimits(0, 0))
	assert.Equal(t, MaxAge{Age: time.Hour}, FromLimits(time.Hour, 0))
	assert.Equal(t, MaxCount{Count: 3}, FromLimits(0, 3))
	assert.Equal(t, Any{MaxAge{Age: time.Hour}, MaxCount{Count: 3}}, FromLimits(time.Hour, 3))
}

type recordingRemover struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingRemover) Remove(paths ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, paths...)
	return nil
}

func seed(t *testing.T, s *store.InMemoryStore, id string, at time.Time) {
	t.Helper()
	require.NoError(t, s.Put(context.Background(), entity.Dataset{
		ID:         id,
		RawPath:    "uploads/" + id + ".csv",
		UploadedAt: at,
		GraphPaths: []string{"graphs/" + id + "_a_hist.png"},
		Table:      &entity.Table{},
		Ready:      true,
	}))
}

func TestEnforcerEvictsAndRemovesFiles(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	seed(t, s, "old", base.Add(-2*time.Hour))
	seed(t, s, "new", base)

	files := &recordingRemover{}
	e := NewEnforcer(s, files, MaxAge{Age: time.Hour})
	e.now = func() time.Time { return base }

	evicted, err := e.Enforce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, evicted)
	assert.Equal(t, []string{"uploads/old.csv", "graphs/old_a_hist.png"}, files.paths)

	left, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "new", left[0].ID)
}

func TestEnforcerSkipsUploadsInFlight(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	seed(t, s, "done", base.Add(-time.Minute))
	require.NoError(t, s.Put(ctx, entity.Dataset{ID: "pending", UploadedAt: base.Add(-time.Hour), Table: &entity.Table{}}))

	e := NewEnforcer(s, &recordingRemover{}, Any{MaxCount{Count: 1}, MaxAge{Age: time.Second}})
	e.now = func() time.Time { return base }

	evicted, err := e.Enforce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"done"}, evicted)

	_, err = s.Get(ctx, "pending")
	require.NoError(t, err, "in-flight upload must survive retention")

	require.NoError(t, s.Commit(ctx, "pending", nil))
	evicted, err = e.Enforce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"pending"}, evicted, "evictable once committed")
}

func TestEnforcerHandleOnlyOnUpload(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	seed(t, s, "a", base.Add(-time.Minute))
	seed(t, s, "b", base)

	e := NewEnforcer(s, &recordingRemover{}, MaxCount{Count: 1})

	require.NoError(t, e.Handle(ctx, entity.DatasetEvent{EventID: 1, DatasetID: "b", Kind: entity.EventDeleted}))
	list, _ := s.List(ctx)
	assert.Len(t, list, 2)

	require.NoError(t, e.Handle(ctx, entity.DatasetEvent{EventID: 2, DatasetID: "b", Kind: entity.EventUploaded}))
	list, _ = s.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].ID)
}

func TestEnforcerRunSweepsUntilCancelled(t *testing.T) {
	s := store.NewInMemoryStore()
	seed(t, s, "a", base)

	e := NewEnforcer(s, nil, MaxAge{Age: time.Minute})
	e.now = func() time.Time { return base.Add(time.Hour) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, 5*time.Millisecond) }()

	require.Eventually(t, func() bool {
		list, _ := s.List(context.Background())
		return len(list) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestEnforcerRunDisabled(t *testing.T) {
	e := NewEnforcer(store.NewInMemoryStore(), nil, nil)
	assert.NoError(t, e.Run(context.Background(), 0))
}
