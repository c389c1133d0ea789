package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kestrelworks/codegraph/internal/cache"
	"github.com/kestrelworks/codegraph/internal/engine"
	"github.com/kestrelworks/codegraph/internal/walk"
)

var (
	scanWorkers       int
	scanNoCache       bool
	scanExternalEdges bool
	scanOut           string
	scanLangs         []string
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a repository and write its code graph",
	Long: `Scan enumerates source files under the given path (default "."),
extracts declarations and call references per file, resolves call
relationships repository-wide, and writes the resulting graph as JSON.

Unchanged files are served from the extraction cache keyed by content
identity, so incremental re-scans only parse what changed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}
		root, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("resolving root: %w", err)
		}
		info, err := os.Stat(root)
		if err != nil {
			return fmt.Errorf("root path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s: not a directory", root)
		}

		log, err := newLogger()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		workers := cfg.Workers
		if cmd.Flags().Changed("workers") {
			workers = scanWorkers
		}
		if workers < 1 {
			return fmt.Errorf("workers must be >= 1, got %d", workers)
		}

		langs := cfg.Languages
		if len(scanLangs) > 0 {
			langs = scanLangs
		}

		files, err := walk.Files(root, walk.Options{
			Languages:    langs,
			ExcludeDirs:  cfg.Exclude.Dirs,
			ExcludeGlobs: cfg.Exclude.Globs,
			MaxFileSize:  cfg.MaxFileSize,
		})
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no parseable files found under %s", root)
		}

		store := openStore(root, log)
		defer store.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		eng := engine.New(engine.Options{
			Workers:       workers,
			Store:         store,
			ExternalEdges: scanExternalEdges || cfg.Graph.ExternalEdges,
			Logger:        log,
		})

		g, summary, err := eng.Scan(ctx, filepath.Base(root), files)
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding graph: %w", err)
		}
		if err := os.WriteFile(scanOut, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", scanOut, err)
		}

		fmt.Printf("Scanned %d files (%s), %d from cache\n",
			summary.FilesTotal, humanize.Bytes(uint64(summary.BytesScanned)), summary.FilesFromCache)
		fmt.Printf("Declarations: %d  Edges: %d  (resolved %d, unresolved %d, ambiguous %d)\n",
			len(g.Declarations), summary.EdgeCount,
			summary.CallsResolved, summary.CallsUnresolved, summary.CallsAmbiguous)
		if summary.ParseErrors > 0 || summary.UnsupportedFiles > 0 || summary.CacheErrors > 0 {
			fmt.Printf("Diagnostics: %d parse errors, %d unsupported files, %d cache errors\n",
				summary.ParseErrors, summary.UnsupportedFiles, summary.CacheErrors)
		}
		fmt.Printf("Graph written to %s in %s\n", scanOut, summary.Duration.Round(timeRounding))
		return nil
	},
}

const timeRounding = time.Millisecond

// openStore opens the persistent cache, degrading to a disabled store when
// caching is off or the database cannot be opened.
func openStore(root string, log *zap.Logger) cache.Store {
	if scanNoCache || !cfg.CacheEnabled() {
		return cache.Disabled{}
	}
	path := cfg.Cache.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	store, err := cache.Open(path)
	if err != nil {
		log.Warn("cache unavailable, extraction will not be cached", zap.Error(err))
		return cache.Disabled{}
	}
	return store
}

func init() {
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 4, "number of parallel extraction workers")
	scanCmd.Flags().BoolVar(&scanNoCache, "no-cache", false, "disable the extraction cache for this run")
	scanCmd.Flags().BoolVar(&scanExternalEdges, "external-edges", false, "keep unresolved calls as edges to a synthetic external node")
	scanCmd.Flags().StringVarP(&scanOut, "out", "o", "codegraph.json", "output path for the graph JSON")
	scanCmd.Flags().StringSliceVarP(&scanLangs, "langs", "l", nil, "restrict scanning to these languages")
	rootCmd.AddCommand(scanCmd)
}
