package app

import (
	"log/slog"
	"os"

	"github.com/MyFaduGame/csv-analyzer/internal/analyzer"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.analyzer.enabled") {
		closer, err := analyzer.New(analyzer.Dependency{
			Config:    a.config,
			Router:    a.router,
			Goroutine: a.goroutine,
			Context:   a.ctx,
			ID:        a.uuid,
			EventID:   a.snowflake,
		})
		if err != nil {
			slog.Error("failed to init module analyzer", "error", err)
			os.Exit(1)
		}
		if closer != nil {
			a.addCloser("Analyzer", closer)
		}
	}
}
