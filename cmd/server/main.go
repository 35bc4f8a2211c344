package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	_ "datalist/internal/db/extractors"
	"datalist/internal/logger"

	"datalist/internal/db"
	"datalist/pkg/config"
)

func main() {
	// flags
	flags := pflag.NewFlagSet("server", pflag.ExitOnError)
	cfgPath := flags.String("config", filepath.Join(".", "configs", "example.yaml"), "path to config YAML")
	flags.String("driver", "", "db driver override (postgres,mysql,sqlite,sqlserver,godror)")
	dsnFlag := flags.String("dsn", "", "dsn override")
	flags.Int("port", 0, "http port (overrides config, default 8080)")
	flags.Int("timeout", 0, "db connect timeout seconds (default 10)")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.Int("default-limit", 0, "rows returned by a lookup without a limit (default 10000)")
	flags.String("field", "", "reserved form field of the lookup channel")
	flags.Parse(os.Args[1:])
	logger.Info("dsnFlag = %s", *dsnFlag)

	// attempt to load config file (optional)
	logger.Info("config file %s", *cfgPath)
	appCfg, err := config.Load(*cfgPath, flags)
	if err != nil {
		logger.Error("error reading config file: %v", err)
		if appCfg, err = config.Load("", flags); err != nil {
			logger.Fatal("%v", err)
		}
	}

	level, err := logger.ParseLevel(appCfg.Log.Level)
	if err != nil {
		logger.Warn("%v, using info", err)
	}
	logger.SetLevel(level)

	host := &db.Host{}
	if appCfg.Database.Type != "" {
		drv, dsn, err := config.BuildDriverAndDSN(appCfg.Database)
		if err != nil {
			logger.Error("error building DSN: %v", err)
		} else if c, err := db.Connect(drv, dsn, appCfg.Server.ConnectTimeout); err != nil {
			logger.Error("error connecting to %s: %v", drv, err)
		} else {
			host.SetActive(c)
		}
	}

	s := newServer(appCfg, host)

	// HTTP server
	addr := fmt.Sprintf(":%d", appCfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening on %s", addr)
		logger.Info("registered dialects: %v", db.RegisteredDialects())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if cerr := host.Close(); cerr != nil {
		logger.Error("closing connection: %v", cerr)
	}
	if err != nil {
		logger.Fatal("%v", err)
	}
	logger.Info("server stopped")
}
