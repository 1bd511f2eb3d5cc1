package analyzer

import (
	"context"
	"errors"
	"time"

	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/chart"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/event"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/files"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/inbound"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/llm"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/retention"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/store"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/usecase"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgconfig"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgrouter"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgroutine"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkguid"
)

const graphRoute = "/graphs"

type Dependency struct {
	Config    pkgconfig.Config
	Goroutine *pkgroutine.Manager
	Router    *pkgrouter.Router
	Context   context.Context
	ID        pkguid.StringID
	EventID   pkguid.NumberID
}

func New(dep Dependency) (func(context.Context) error, error) {
	if dep.Config == nil || dep.Router == nil || dep.Goroutine == nil {
		return nil, errors.New("analyzer: missing dependency")
	}
	if dep.Context == nil {
		dep.Context = context.Background()
	}
	if dep.ID == nil {
		dep.ID = pkguid.NewUUID()
	}

	cfg := dep.Config

	disk, err := files.NewDisk(cfg.GetString("storage.upload_dir"), cfg.GetString("storage.graph_dir"))
	if err != nil {
		return nil, err
	}

	storage := store.NewInMemoryStore()

	enforcer := retention.NewEnforcer(storage, disk, retention.FromLimits(
		cfg.GetDuration("retention.max_age"),
		int(cfg.GetInt("retention.max_datasets")),
	))

	bus := event.NewBus(512)
	consumer := event.NewConsumer(bus, enforcer, event.ConsumerConfig{
		Workers:     2,
		MaxRetries:  3,
		BaseBackoff: 200 * time.Millisecond,
	})
	consumer.Start()

	sweep := cfg.GetDuration("retention.sweep_interval")
	dep.Goroutine.Go(dep.Context, "retention-sweeper", func(ctx context.Context) error {
		return enforcer.Run(ctx, sweep)
	})

	uc := usecase.New(usecase.Dependency{
		Store: storage,
		Files: disk,
		Charts: chart.NewGenerator(chart.Config{
			Dir:         disk.GraphDir(),
			Width:       int(cfg.GetInt("chart.width")),
			Height:      int(cfg.GetInt("chart.height")),
			Concurrency: int(cfg.GetInt("chart.concurrency")),
		}),
		LLM: llm.NewClient(llm.Config{
			Endpoint:    cfg.GetString("llm.endpoint"),
			APIKey:      cfg.GetString("llm.api_key"),
			Model:       cfg.GetString("llm.model"),
			Temperature: cfg.GetFloat("llm.temperature"),
			MaxTokens:   int(cfg.GetInt("llm.max_tokens")),
			Timeout:     cfg.GetDuration("llm.timeout"),
		}),
		Events:         bus,
		ID:             dep.ID,
		EventID:        dep.EventID,
		MaxUploadBytes: cfg.GetInt("upload.max_bytes"),
		GraphURLPrefix: graphRoute,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	dep.Router.Static(graphRoute, disk.GraphDir())

	return consumer.Stop, nil
}
