// Command lingokeeper tracks and versions translated mod manifests.
//
// Usage:
//
//	lingokeeper -config lingokeeper.yaml            # run with config file
//	lingokeeper -db track.db -mods ./Mods -sync "msg"   # scan and snapshot
//	lingokeeper -db track.db -snapshots             # list snapshots and exit
//	lingokeeper -db track.db -history a.mod         # one mod's history
//	lingokeeper -db track.db -rollback 3            # reset state to snapshot 3
//	lingokeeper -db track.db -restore               # write translations to disk
//	lingokeeper -db track.db -serve                 # admin API daemon
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/lingokeeper/lingokeeper"
)

type options struct {
	syncMessage string
	snapshots   bool
	historyMod  string
	stateID     int64
	changesID   int64
	rollbackID  int64
	pruneID     int64
	restore     bool
	evictCache  bool
	serve       bool
}

func main() {
	configPath := flag.String("config", "", "path to lingokeeper.yaml config file")
	dbPath := flag.String("db", "", "path to SQLite database")
	modsRoot := flag.String("mods", "", "root directory of the mods tree")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")

	var opts options
	flag.StringVar(&opts.syncMessage, "sync", "", "scan the mods tree and snapshot with this message")
	flag.BoolVar(&opts.snapshots, "snapshots", false, "list snapshots and exit")
	flag.StringVar(&opts.historyMod, "history", "", "show one mod's history and exit")
	flag.Int64Var(&opts.stateID, "state", 0, "show full tracked state as of a snapshot id")
	flag.Int64Var(&opts.changesID, "changes", 0, "show the records written by a snapshot id")
	flag.Int64Var(&opts.rollbackID, "rollback", 0, "reset tracked state and manifests to a snapshot id")
	flag.Int64Var(&opts.pruneID, "prune", 0, "delete all snapshots newer than this id")
	flag.BoolVar(&opts.restore, "restore", false, "write tracked translations back into manifests")
	flag.BoolVar(&opts.evictCache, "evict-cache", false, "remove stale diff cache entries and exit")
	flag.BoolVar(&opts.serve, "serve", false, "run the admin API")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *dbPath, *modsRoot, opts); err != nil {
		logger.Error("lingokeeper: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, dbPath, modsRoot string, opts options) error {
	cfg, err := resolveConfig(configPath, dbPath, modsRoot)
	if err != nil {
		return err
	}

	k, err := lingokeeper.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer k.Close()

	switch {
	case opts.syncMessage != "":
		res, err := k.Sync(ctx, opts.syncMessage)
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		return printJSON(res)

	case opts.snapshots:
		snaps, err := k.Snapshots(ctx)
		if err != nil {
			return fmt.Errorf("snapshots: %w", err)
		}
		return printJSON(snaps)

	case opts.historyMod != "":
		entries, err := k.HistoryForMod(ctx, opts.historyMod)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		return printJSON(entries)

	case opts.stateID > 0:
		records, err := k.StateAt(ctx, opts.stateID)
		if err != nil {
			return fmt.Errorf("state: %w", err)
		}
		return printJSON(records)

	case opts.changesID > 0:
		records, err := k.ChangesAt(ctx, opts.changesID)
		if err != nil {
			return fmt.Errorf("changes: %w", err)
		}
		return printJSON(records)

	case opts.rollbackID > 0:
		res, err := k.Rollback(ctx, opts.rollbackID)
		if err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
		return printJSON(res)

	case opts.pruneID > 0:
		n, err := k.PruneAfter(ctx, opts.pruneID)
		if err != nil {
			return fmt.Errorf("prune: %w", err)
		}
		return printJSON(map[string]int64{"snapshots_removed": n})

	case opts.restore:
		res, err := k.Restore(ctx)
		if err != nil {
			return fmt.Errorf("restore: %w", err)
		}
		return printJSON(res)

	case opts.evictCache:
		n, err := k.EvictDiffCache(ctx, cfg.Cache.EvictDays)
		if err != nil {
			return fmt.Errorf("evict-cache: %w", err)
		}
		return printJSON(map[string]int64{"entries_removed": n})

	case opts.serve:
		return serve(ctx, logger, k, cfg.Admin.Addr)
	}

	fmt.Fprintln(os.Stderr, "usage: lingokeeper -config <file> | -db <path> -mods <dir> [-sync <msg> | -snapshots | -history <uid> | -state <id> | -changes <id> | -rollback <id> | -prune <id> | -restore | -evict-cache | -serve]")
	os.Exit(1)
	return nil
}

func serve(ctx context.Context, logger *slog.Logger, k *lingokeeper.Keeper, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           k.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("lingokeeper: admin API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("lingokeeper: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func resolveConfig(configPath, dbPath, modsRoot string) (*lingokeeper.Config, error) {
	if configPath != "" {
		return lingokeeper.LoadConfigFile(configPath)
	}

	cfg := &lingokeeper.Config{}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if modsRoot != "" {
		cfg.ModsRoot = modsRoot
	}

	if cfg.DBPath == "" {
		fmt.Fprintln(os.Stderr, "usage: lingokeeper -config <file> | -db <path> -mods <dir>")
		os.Exit(1)
	}
	return cfg, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
