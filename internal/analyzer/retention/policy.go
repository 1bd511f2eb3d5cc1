// Package retention decides which stored datasets to drop and evicts them.
package retention

import (
	"time"

	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/entity"
)

// Policy returns the ids of datasets to evict. datasets is ordered oldest
// first.
type Policy interface {
	Select(now time.Time, datasets []entity.DatasetMeta) []string
}

// KeepAll never evicts.
type KeepAll struct{}

func (KeepAll) Select(time.Time, []entity.DatasetMeta) []string { return nil }

// MaxAge evicts datasets uploaded more than Age ago. A zero Age keeps all.
type MaxAge struct {
	Age time.Duration
}

func (p MaxAge) Select(now time.Time, datasets []entity.DatasetMeta) []string {
	if p.Age <= 0 {
		return nil
	}

	cutoff := now.Add(-p.Age)
	var ids []string
	for _, d := range datasets {
		if d.UploadedAt.Before(cutoff) {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// MaxCount keeps the newest Count datasets. A zero Count keeps all.
type MaxCount struct {
	Count int
}

func (p MaxCount) Select(_ time.Time, datasets []entity.DatasetMeta) []string {
	if p.Count <= 0 || len(datasets) <= p.Count {
		return nil
	}

	excess := datasets[:len(datasets)-p.Count]
	ids := make([]string, 0, len(excess))
	for _, d := range excess {
		ids = append(ids, d.ID)
	}
	return ids
}

// Any evicts what any of its policies selects.
type Any []Policy

func (a Any) Select(now time.Time, datasets []entity.DatasetMeta) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, p := range a {
		for _, id := range p.Select(now, datasets) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// FromLimits builds the policy for the configured limits. Zero limits are
// ignored; with none set the result is KeepAll.
func FromLimits(maxAge time.Duration, maxDatasets int) Policy {
	var policies Any
	if maxAge > 0 {
		policies = append(policies, MaxAge{Age: maxAge})
	}
	if maxDatasets > 0 {
		policies = append(policies, MaxCount{Count: maxDatasets})
	}

	switch len(policies) {
	case 0:
		return KeepAll{}
	case 1:
		return policies[0]
	default:
		return policies
	}
}
