package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mohammad-safakhou/medcrew/config"
	"github.com/mohammad-safakhou/medcrew/internal/agent/core"
	"github.com/mohammad-safakhou/medcrew/internal/agent/crew"
	agenttele "github.com/mohammad-safakhou/medcrew/internal/agent/telemetry"
	agenttools "github.com/mohammad-safakhou/medcrew/internal/agent/tools"
	"github.com/mohammad-safakhou/medcrew/internal/document"
	"github.com/mohammad-safakhou/medcrew/internal/httpclient"
	"github.com/mohammad-safakhou/medcrew/provider"
	"github.com/mohammad-safakhou/medcrew/tools/web_fetch"
	"github.com/mohammad-safakhou/medcrew/tools/web_search"
)

// Options carries everything the HTTP layer needs
type Options struct {
	Crew           Runner
	Docs           document.Store
	Telemetry      *agenttele.Telemetry
	PublicURL      string
	RequestTimeout time.Duration
	Logger         *log.Logger
}

// New builds the echo instance with every route mounted.
func New(opts Options) *echo.Echo {
	if opts.Logger == nil {
		opts.Logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			opts.Logger.Printf("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.HTTPErrorHandler = errorHandler(opts.Logger)

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(opts.Telemetry.Handler()))
	registerForm(e)

	h := &DiagnoseHandler{
		Crew:           opts.Crew,
		Docs:           opts.Docs,
		Tele:           opts.Telemetry,
		PublicURL:      opts.PublicURL,
		RequestTimeout: opts.RequestTimeout,
		Logger:         opts.Logger,
	}
	h.Register(e)
	return e
}

// Build wires the LLM client, tools, crew and document store from cfg.
func Build(cfg *config.Config) (*echo.Echo, error) {
	tele := agenttele.NewTelemetry()

	llm, err := provider.NewChatClient(cfg.LLM, cfg.General.Debug, log.New(log.Writer(), "[LLM] ", log.LstdFlags))
	if err != nil {
		return nil, err
	}

	apiKey := cfg.Search.SerperAPIKey
	if cfg.Search.Provider == config.SearchBrave {
		apiKey = cfg.Search.BraveAPIKey
	}
	searcher, err := web_search.NewWebSearcher(web_search.Provider(cfg.Search.Provider), apiKey, httpclient.New(cfg.Search.Timeout))
	if err != nil {
		return nil, err
	}
	fetcher, err := web_fetch.NewWebFetcher(web_fetch.FetcherType(cfg.Fetch.Type), cfg.Fetch.Timeout, cfg.Fetch.MaxChars)
	if err != nil {
		return nil, err
	}
	tools := []core.Tool{
		agenttools.Search{Searcher: searcher, MaxResults: cfg.Search.MaxResults},
		agenttools.Scrape{Fetcher: fetcher, Blocked: cfg.Fetch.Blocked},
	}

	orch, err := crew.New(llm, tools, crew.Options{
		MaxToolRounds: cfg.Agents.MaxToolRounds,
		Logger:        log.New(log.Writer(), "[CREW] ", log.LstdFlags),
		Telemetry:     tele,
	})
	if err != nil {
		return nil, err
	}

	docs, err := document.NewStore(cfg.Document, log.New(log.Writer(), "[DOCS] ", log.LstdFlags))
	if err != nil {
		return nil, err
	}

	return New(Options{
		Crew:           orch,
		Docs:           docs,
		Telemetry:      tele,
		PublicURL:      cfg.Server.PublicURL,
		RequestTimeout: cfg.Server.RequestTimeout,
	}), nil
}

// Run serves until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	e, err := Build(cfg)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", cfg.Server.Address)
		errCh <- e.Start(cfg.Server.Address)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}
