// Command minidb is an interactive REPL over an in-process MiniDb engine,
// with line editing, history, and colored output.
package main

import (
	"io"
	"log"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/minidb/minidb/config"
	"github.com/minidb/minidb/engine"
)

func main() {
	var (
		path      = flag.String("path", "./minidb.db", "database file path")
		create    = flag.Bool("create", false, "create a new database instead of opening an existing one")
		dataSize  = flag.Uint64("data-size", 64, "row width in bytes (only used with --create)")
		cacheSize = flag.Int("cache-size", 256, "read cache capacity in rows (0 disables the cache)")
		cfgPath   = flag.String("config", "", "optional config file (YAML, or JSONC with --jsonc-config)")
		jsoncCfg  = flag.Bool("jsonc-config", false, "treat --config as JSON-with-comments instead of YAML")
	)
	flag.Parse()

	log.SetOutput(io.Discard)
	appLog := log.New(os.Stdout, "", log.LstdFlags)

	var fileCfg config.Config
	var err error
	if *jsoncCfg {
		fileCfg, err = config.LoadJSONC(*cfgPath)
	} else {
		fileCfg, err = config.Load(*cfgPath)
	}
	if err != nil {
		appLog.Fatalf("load config: %v", err)
	}
	cfg := config.Merge(fileCfg, config.Config{Path: *path, DataSize: *dataSize, CacheSize: *cacheSize})

	var eng *engine.Engine
	if *create {
		eng, err = engine.Create(cfg.Path, cfg.DataSize, engine.WithLogger(appLog), engine.WithCacheSize(cfg.CacheSize))
	} else {
		eng, err = engine.Open(cfg.Path, engine.WithLogger(appLog), engine.WithCacheSize(cfg.CacheSize))
	}
	if err != nil {
		appLog.Fatalf("open database: %v", err)
	}
	defer eng.Close()

	if err := runREPL(eng); err != nil {
		appLog.Fatalf("repl: %v", err)
	}
}
