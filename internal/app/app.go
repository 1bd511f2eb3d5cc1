package app

import (
	"context"
	"net/http"

	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgconfig"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkglog"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgrouter"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkgroutine"
	"github.com/MyFaduGame/csv-analyzer/internal/pkg/pkguid"
)

// Options are set from the command line.
type Options struct {
	// ConfigPath overrides the config file location.
	ConfigPath string
}

type closer struct {
	name string
	fn   func(context.Context) error
}

type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options

	// configuration
	config pkgconfig.Config

	// libraries
	uuid      pkguid.StringID
	snowflake pkguid.NumberID
	goroutine *pkgroutine.Manager

	// server
	router     *pkgrouter.Router
	httpServer *http.Server

	// closed in order after the HTTP server stops
	closers []closer
}

func New(opts Options) *App {
	pkglog.InitLogging("info")

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
		opts:   opts,
	}

	app.initConfig()
	app.initLibraries()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}

func (a *App) addCloser(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}
