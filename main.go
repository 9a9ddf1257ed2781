package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/tdewolff/minify"
	"github.com/tdewolff/minify/css"
	"github.com/tdewolff/minify/html"
	"github.com/tdewolff/minify/js"
	"github.com/urfave/negroni/v2"
	"go.etcd.io/bbolt"

	"fknsrs.biz/p/ytinfo/handlers"
	"fknsrs.biz/p/ytinfo/internal/config"
	"fknsrs.biz/p/ytinfo/internal/configreader"
	"fknsrs.biz/p/ytinfo/internal/ctxclock"
	"fknsrs.biz/p/ytinfo/internal/ctxconfig"
	"fknsrs.biz/p/ytinfo/internal/ctxhttpclient"
	"fknsrs.biz/p/ytinfo/internal/ctxlogger"
	"fknsrs.biz/p/ytinfo/internal/ctxtemplate"
	"fknsrs.biz/p/ytinfo/internal/ctxtimer"
	"fknsrs.biz/p/ytinfo/internal/httpcache"
	"fknsrs.biz/p/ytinfo/internal/httputil"
	"fknsrs.biz/p/ytinfo/internal/logrusstackhook"
	"fknsrs.biz/p/ytinfo/internal/templatecollection"
	"fknsrs.biz/p/ytinfo/internal/ytdirect"
)

var cfg = config.Config{
	LogLevel:               logrus.InfoLevel,
	LogDebugLevels:         config.LevelList{logrus.DebugLevel, logrus.TraceLevel},
	ApplicationAddr:        ":8080",
	ApplicationCachePath:   "cache.db",
	ApplicationCacheMode:   config.CacheModeNone,
	ApplicationCacheMaxAge: config.Duration(httpcache.DefaultMaxAge),
	ApplicationMinify:      true,
	FetchTimeout:           config.Duration(time.Second * 30),
	FetchMinimumBodySize:   ytdirect.DefaultMinimumBodySize,
}

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

func init() {
	for _, configPath := range []string{"config.toml", "config.yaml", "config.yml"} {
		if st, err := os.Stat(configPath); err == nil && st != nil && !st.IsDir() {
			cfg.Config = configPath
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := configreader.Read(os.Args[0], os.Args[1:], os.Environ(), &cfg); err != nil {
		panic(err)
	}

	ctx = ctxconfig.WithConfig(ctx, cfg)
	ctx = ctxclock.WithClock(ctx, ctxclock.RealClock)

	logger := logrus.New()

	logger.SetLevel(cfg.LogLevel)
	if len(cfg.LogDebugLevels) > 0 {
		logger.AddHook(logrusstackhook.NewStackHook(cfg.LogDebugLevels, nil))
	}

	logger.WithFields(logrus.Fields{
		"config.config":                    cfg.Config,
		"config.log_level":                 cfg.LogLevel,
		"config.log_debug_levels":          cfg.LogDebugLevels,
		"config.application_addr":          cfg.ApplicationAddr,
		"config.application_cache_path":    cfg.ApplicationCachePath,
		"config.application_cache_mode":    cfg.ApplicationCacheMode,
		"config.application_cache_max_age": cfg.ApplicationCacheMaxAge,
		"config.application_minify":        cfg.ApplicationMinify,
		"config.fetch_timeout":             cfg.FetchTimeout,
		"config.fetch_minimum_body_size":   cfg.FetchMinimumBodySize,
		"config.youtube_api_enabled":       cfg.YouTubeAPIKey != "",
	}).Info("program starting")

	ctx = ctxlogger.WithLogger(ctx, logger)

	var cacheDB *bbolt.DB
	if cfg.CacheEnabled() {
		db, err := bbolt.Open(cfg.ApplicationCachePath, 0600, &bbolt.Options{Timeout: time.Second * 5})
		if err != nil {
			panic(err)
		}
		defer db.Close()

		cacheDB = db
	}

	httpClient, err := httpcache.NewClient(cacheDB, cfg.ApplicationCacheMode, cfg.ApplicationCacheMaxAge.Duration(), cfg.FetchTimeout.Duration(), cfg.FetchMinimumBodySize)
	if err != nil {
		panic(err)
	}

	ctx = ctxhttpclient.WithHTTPClient(ctx, httpClient)

	workers := []worker{
		{
			name: "application",
			run: func(ctx context.Context) error {
				return runApplicationWorker(ctx, cfg.ApplicationAddr)
			},
		},
	}

	if err := runAllWorkers(ctx, workers); err != nil {
		logger.WithError(err).Error("program failed")
		os.Exit(1)
	}

	logger.Info("program finished")
}

type worker struct {
	name string
	run  func(ctx context.Context) error
}

// runAllWorkers runs every worker until ctx is done. A worker that returns
// while ctx is still live is restarted after a second; one that fails stops
// the rest.
func runAllWorkers(ctx context.Context, workers []worker) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var wg sync.WaitGroup
	errs := make([]error, len(workers))

	for id, w := range workers {
		wg.Add(1)

		go func(id int, w worker) {
			defer wg.Done()

			l := ctxlogger.GetLogger(ctx).WithFields(logrus.Fields{
				"worker.id":   id + 1,
				"worker.name": w.name,
			})

			ctx := ctxlogger.WithLogger(ctx, l)

			for {
				err := w.run(ctx)

				if ctx.Err() != nil {
					return
				}

				if err != nil {
					l.WithError(err).Error("worker failed")
					errs[id] = fmt.Errorf("worker %d (%s) failed: %w", id+1, w.name, err)
					cancel(errs[id])
					return
				}

				l.Info("worker restarted")

				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
			}
		}(id, w)
	}

	wg.Wait()

	return errors.Join(errs...)
}

func directoryExists(name string) bool {
	st, err := os.Stat(name)
	if err != nil {
		return false
	}
	return st.IsDir()
}

func runApplicationWorker(ctx context.Context, addr string) error {
	l := ctxlogger.GetLogger(ctx)

	l.WithFields(logrus.Fields{
		"args.addr": addr,
	}).Info("running application worker")

	var templates templatecollection.Collection

	if directoryExists("templates") {
		l.Info("using live filesystem for templates")
		templates = templatecollection.NewLive(os.DirFS("templates"), handlers.TemplateFuncs())
	} else {
		l.Info("using embedded filesystem for templates")

		sub, err := fs.Sub(templateFS, "templates")
		if err != nil {
			return fmt.Errorf("runApplicationWorker: %w", err)
		}

		c, err := templatecollection.NewCached(sub, handlers.TemplateFuncs())
		if err != nil {
			return fmt.Errorf("runApplicationWorker: %w", err)
		}
		templates = c
	}

	m := mux.NewRouter()
	m.NotFoundHandler = http.HandlerFunc(httputil.NotFound)

	m.Methods(http.MethodGet).Path("/").HandlerFunc(handlers.Index)
	m.Methods(http.MethodGet).Path("/lookup").HandlerFunc(handlers.Lookup)
	m.Methods(http.MethodGet).Path("/api/youtube/info").HandlerFunc(handlers.VideoInfo)
	m.Methods(http.MethodGet).Path("/api/youtube/metadata").HandlerFunc(handlers.VideoMetadata)
	m.Methods(http.MethodGet).Path("/api/youtube/video").HandlerFunc(handlers.VideoDetails)

	if directoryExists("static") {
		l.Info("using live filesystem for static files")
		m.Methods(http.MethodGet).PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))
	} else {
		l.Info("using embedded filesystem for static files")

		sub, err := fs.Sub(staticFS, "static")
		if err != nil {
			return fmt.Errorf("runApplicationWorker: %w", err)
		}

		m.Methods(http.MethodGet).PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
	}

	min := minify.New()
	min.Add("text/html", html.DefaultMinifier)
	min.Add("text/css", css.DefaultMinifier)
	min.Add("application/javascript", js.DefaultMinifier)

	n := negroni.New()
	n.Use(negroni.NewRecovery())
	n.UseFunc(ctxlogger.Register(l))
	n.UseFunc(ctxlogger.AddRequestIDHook())
	n.UseFunc(ctxtimer.Register())
	n.UseFunc(ctxclock.Register(ctxclock.GetClock(ctx)))
	n.UseFunc(ctxconfig.Register(ctxconfig.GetConfig(ctx)))
	n.UseFunc(ctxhttpclient.Register(ctxhttpclient.GetHTTPClient(ctx)))
	n.UseFunc(ctxtemplate.Register(templates))
	n.UseFunc(ctxtimer.AddLoggerHooks())
	n.UseFunc(ctxclock.AddLoggerHooks())
	n.UseFunc(ctxlogger.Log())

	n.UseFunc(func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		next(rw, r.WithContext(ctxtemplate.WithData(r.Context(), map[string]interface{}{
			"Messages": struct{ Error, Information string }{
				r.URL.Query().Get("error"),
				r.URL.Query().Get("information"),
			},
		})))
	})

	if ctxconfig.GetConfig(ctx).ApplicationMinify {
		n.UseFunc(func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				mw := min.ResponseWriter(rw, r)
				defer mw.Close()
				rw = mw
			}

			next(rw, r)
		})
	}

	n.UseHandler(m)

	s := &http.Server{
		Addr:              addr,
		Handler:           n,
		ReadHeaderTimeout: time.Second * 10,
		BaseContext:       func(l net.Listener) context.Context { return ctx },
	}

	errs := make(chan error, 1)
	go func() {
		l.Info("starting server")
		errs <- s.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		l.Info("stopping server")

		return s.Shutdown(shutdownCtx)
	}
}
