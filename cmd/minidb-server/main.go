// Command minidb-server opens a MiniDb database and exposes it over HTTP
// for out-of-process inspection: a single engine behind a single HTTP
// listener, with no cluster membership or consensus involved.
package main

import (
	"io"
	"log"
	"net/http"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/minidb/minidb/config"
	"github.com/minidb/minidb/engine"
	"github.com/minidb/minidb/pkg/httpapi"
)

func main() {
	var (
		path      = flag.String("path", "./minidb.db", "database file path")
		create    = flag.Bool("create", false, "create a new database (truncating any existing one) instead of opening an existing one")
		dataSize  = flag.Uint64("data-size", 64, "row width in bytes (only used with --create)")
		httpAddr  = flag.String("http-addr", ":8081", "http bind address")
		cacheSize = flag.Int("cache-size", 256, "read cache capacity in rows (0 disables the cache)")
		cfgPath   = flag.String("config", "", "optional YAML config file")
	)
	flag.Parse()

	// Suppress any global logger output a dependency might default to
	// before installing our own.
	log.SetOutput(io.Discard)
	appLog := log.New(os.Stdout, "", log.LstdFlags)

	fileCfg, err := config.Load(*cfgPath)
	if err != nil {
		appLog.Fatalf("load config: %v", err)
	}
	cfg := config.Merge(fileCfg, config.Config{
		Path:      *path,
		DataSize:  *dataSize,
		CacheSize: *cacheSize,
		HTTPAddr:  *httpAddr,
	})

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

	mux := http.NewServeMux()
	httpapi.New(eng, appLog).Register(mux)

	appLog.Printf("minidb-server running: http=%s path=%s", cfg.HTTPAddr, cfg.Path)
	appLog.Println("Endpoints: /info /select /scan /insert /update /delete")
	if err := http.ListenAndServe(cfg.HTTPAddr, mux); err != nil {
		appLog.Fatalf("http: %v", err)
	}
}
