// Command bestellkonverter converts retail order PDFs into the fixed-width
// CSV format of the downstream ordering system.
//
//	bestellkonverter [-out DIR] file.pdf...   convert files, write CSVs to DIR
//	bestellkonverter serve                    start the upload web server
//	bestellkonverter mcp                      serve the converter tools over MCP stdio
//
// Environment: PORT, CONFIG (YAML profile override), JOURNAL_DB,
// AUTH_PASSWORD_HASH (bcrypt; enables Basic auth), LOG_LEVEL.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hgmaier/bestellkonverter/convert"
	"github.com/hgmaier/bestellkonverter/dbopen"
	"github.com/hgmaier/bestellkonverter/journal"
	"github.com/hgmaier/bestellkonverter/web"
)

func main() {
	outDir := flag.String("out", ".", "output directory for generated CSV files")
	flag.Usage = usage
	flag.Parse()

	// Logging.
	var lvl slog.Level
	switch env("LOG_LEVEL", "info") {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pipe, err := newPipeline(logger)
	if err != nil {
		slog.Error("pipeline", "error", err)
		os.Exit(1)
	}

	args := flag.Args()
	switch {
	case len(args) == 0:
		usage()
		os.Exit(2)
	case args[0] == "serve":
		runServe(ctx, pipe)
	case args[0] == "mcp":
		runMCP(ctx, pipe)
	default:
		os.Exit(runConvert(ctx, pipe, args, *outDir))
	}
}

func newPipeline(logger *slog.Logger) (*convert.Pipeline, error) {
	cfg := convert.Config{Logger: logger}
	if path := env("CONFIG", ""); path != "" {
		loaded, err := convert.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		loaded.Logger = logger
		cfg = loaded
	}
	return convert.New(cfg)
}

// runConvert processes the given PDFs strictly in argument order and writes
// one CSV per convertible document. Exit code 1 when any document was
// rejected, 0 when all converted.
func runConvert(ctx context.Context, pipe *convert.Pipeline, paths []string, outDir string) int {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		slog.Error("output dir", "error", err)
		return 1
	}

	code := 0
	for _, o := range pipe.ConvertAll(ctx, paths) {
		if o.Err != nil {
			fmt.Fprintf(os.Stderr, "SKIP %s: %v\n", filepath.Base(o.Path), o.Err)
			code = 1
			continue
		}
		dst := filepath.Join(outDir, o.Result.Filename)
		if err := os.WriteFile(dst, o.Result.CSV, 0o644); err != nil {
			slog.Error("write artifact", "file", dst, "error", err)
			code = 1
			continue
		}
		fmt.Printf("OK   %s -> %s (%d Artikel)\n", filepath.Base(o.Path), dst, o.Result.Stats.Items)
	}
	return code
}

func runServe(ctx context.Context, pipe *convert.Pipeline) {
	port := env("PORT", "8086")

	// Journal DB (optional).
	var store *journal.Store
	if path := env("JOURNAL_DB", ""); path != "" {
		db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(journal.Schema))
		if err != nil {
			slog.Error("journal db", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = journal.NewStore(db)
		defer store.Close()
	}

	srvWeb, err := web.New(web.Config{
		Pipeline:     pipe,
		Journal:      store,
		PasswordHash: env("AUTH_PASSWORD_HASH", ""),
	})
	if err != nil {
		slog.Error("web server", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           srvWeb.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func runMCP(ctx context.Context, pipe *convert.Pipeline) {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "bestellkonverter",
		Version: "1.0.0",
	}, nil)
	pipe.RegisterMCP(srv)

	slog.Info("MCP stdio serving")
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		slog.Error("mcp", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  bestellkonverter [-out DIR] file.pdf...
  bestellkonverter serve
  bestellkonverter mcp
`)
	flag.PrintDefaults()
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
