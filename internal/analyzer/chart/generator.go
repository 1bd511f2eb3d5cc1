package chart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/entity"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/table"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgmetrics"
	"golang.org/x/sync/errgroup"
)

// Config controls where and how charts are drawn.
type Config struct {
	Dir         string
	Width       int
	Height      int
	Concurrency int
}

// Generator renders the charts of a table into Config.Dir.
type Generator struct {
	cfg    Config
	render renderer
}

// NewGenerator returns a Generator drawing PNGs with go-chart. Zero sizes and
// concurrency fall back to 800x600 and 4 workers.
func NewGenerator(cfg Config) *Generator {
	if cfg.Width <= 0 {
		cfg.Width = 800
	}
	if cfg.Height <= 0 {
		cfg.Height = 600
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Generator{
		cfg:    cfg,
		render: pngRenderer{width: cfg.Width, height: cfg.Height},
	}
}

// Dir returns the output directory.
func (g *Generator) Dir() string {
	return g.cfg.Dir
}

// Generate renders every non-skipped column of t and returns the written file
// paths in column order. A column that fails to render is logged and left
// out; only a cancelled context or an unusable output directory fail the call.
func (g *Generator) Generate(ctx context.Context, datasetID string, t *entity.Table) ([]string, error) {
	if err := os.MkdirAll(g.cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create graph dir: %w", err)
	}

	jobs := Plan(t)
	names := uniqueNames(datasetID, jobs)
	paths := make([]string, len(jobs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Concurrency)

	for i, job := range jobs {
		i, job := i, job
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			path := filepath.Join(g.cfg.Dir, names[i])
			if err := g.renderFile(path, job); err != nil {
				slog.WarnContext(ctx, "failed to render chart",
					"dataset_id", datasetID, "column", job.Column.Name, "kind", job.Kind, "error", err)
				pkgmetrics.ChartFailed(string(job.Kind))
				return nil
			}

			pkgmetrics.ChartRendered(string(job.Kind))
			paths[i] = path
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}

	return out, nil
}

// uniqueNames resolves columns whose sanitized names collide, such as "a b"
// and "a_b", by suffixing the later ones with their position.
func uniqueNames(datasetID string, jobs []Job) []string {
	names := make([]string, len(jobs))
	used := make(map[string]struct{}, len(jobs))
	for i, job := range jobs {
		name := FileName(datasetID, job.Column.Name, job.Kind)
		if _, ok := used[name]; ok {
			name = FileName(datasetID, fmt.Sprintf("%s_%d", job.Column.Name, i), job.Kind)
		}
		used[name] = struct{}{}
		names[i] = name
	}
	return names
}

func (g *Generator) renderFile(path string, job Job) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render %s chart: panic: %v", job.Kind, r)
		}
	}()

	title := job.Column.Name + " Visualization"

	switch job.Kind {
	case entity.ChartHistogram:
		h, herr := buildHistogram(table.Floats(job.Column))
		if herr != nil {
			return herr
		}
		return g.render.Histogram(f, title, h)
	case entity.ChartPie:
		return g.render.Pie(f, title, pieData(job.Column.Present()))
	default:
		return errors.New("unsupported chart kind " + string(job.Kind))
	}
}
