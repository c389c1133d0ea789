// Package engine orchestrates a full extraction-and-resolution run: it fans
// file extraction out across the worker pool (consulting the cache store),
// waits for the aggregation barrier, resolves call relationships, and builds
// the graph snapshot.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kestrelworks/codegraph/internal/cache"
	"github.com/kestrelworks/codegraph/internal/extract"
	"github.com/kestrelworks/codegraph/internal/graph"
	"github.com/kestrelworks/codegraph/internal/lang"
	"github.com/kestrelworks/codegraph/internal/model"
	"github.com/kestrelworks/codegraph/internal/pool"
	"github.com/kestrelworks/codegraph/internal/resolve"
	"github.com/kestrelworks/codegraph/internal/walk"
)

// Options configures an Engine. The cache store's lifecycle is owned by the
// caller: opened before the run, closed after.
type Options struct {
	Workers       int
	Store         cache.Store
	ExternalEdges bool
	Logger        *zap.Logger
}

// Summary aggregates per-file and per-reference diagnostics. Everything here
// degrades gracefully: a populated Summary accompanies the graph rather than
// replacing it.
type Summary struct {
	FilesTotal       int
	FilesExtracted   int
	FilesFromCache   int
	ParseErrors      int
	PartialFiles     int
	UnsupportedFiles int
	CacheErrors      int
	CallsResolved    int
	CallsUnresolved  int
	CallsAmbiguous   int
	EdgeCount        int
	CachePruned      int
	BytesScanned     int64
	Duration         time.Duration
}

// Engine runs extraction and resolution over an enumerated file set.
type Engine struct {
	workers       int
	store         cache.Store
	externalEdges bool
	log           *zap.Logger

	// extractFile is swapped in tests to count invocations.
	extractFile func(ctx context.Context, l *lang.Language, source []byte, path string) (*extract.Result, error)
}

// New creates an Engine. A nil store disables caching; a nil logger logs
// nothing.
func New(opts Options) *Engine {
	store := opts.Store
	if store == nil {
		store = cache.Disabled{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		workers:       workers,
		store:         store,
		externalEdges: opts.ExternalEdges,
		log:           log,
		extractFile:   defaultExtract,
	}
}

func defaultExtract(ctx context.Context, l *lang.Language, source []byte, path string) (*extract.Result, error) {
	parser := l.NewParser()
	return extract.File(ctx, l, parser, source, path)
}

// fileOutcome is one worker's result for one file.
type fileOutcome struct {
	entry       walk.FileEntry
	res         *extract.Result
	fromCache   bool
	unsupported bool
	cacheErrs   int
}

// Scan runs the whole pipeline over the enumerated files and returns the
// graph snapshot with its diagnostic summary. Per-file failures degrade to
// partial results; only caller cancellation between the extraction and
// resolution phases aborts the run.
func (e *Engine) Scan(ctx context.Context, repoName string, files []walk.FileEntry) (*model.Graph, *Summary, error) {
	start := time.Now()
	summary := &Summary{FilesTotal: len(files)}

	results := pool.Map(ctx, files, e.workers, e.processFile)

	// Aggregation barrier: resolution sees either all of a file's
	// declarations or none of them. Cancellation is honored here, between
	// phases, never mid-extraction.
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var fileNodes []model.FileNode
	var decls []model.Declaration
	var refs []model.CallReference
	keep := make(map[string]struct{}, len(files))

	for _, r := range results {
		out := r.Value
		summary.CacheErrors += out.cacheErrs

		if r.Err != nil {
			summary.ParseErrors++
			e.log.Warn("file skipped", zap.String("file", out.entry.Path), zap.Error(r.Err))
			continue
		}
		if out.unsupported {
			summary.UnsupportedFiles++
			continue
		}

		keep[out.entry.Identity] = struct{}{}
		summary.BytesScanned += int64(len(out.entry.Content))
		if out.fromCache {
			summary.FilesFromCache++
		} else {
			summary.FilesExtracted++
		}
		if out.res.Partial {
			summary.PartialFiles++
			summary.ParseErrors++
			e.log.Warn("file partially parsed", zap.String("file", out.entry.Path))
		}

		fileNodes = append(fileNodes, model.FileNode{
			Path:         out.entry.Path,
			Language:     out.entry.Language,
			Identity:     out.entry.Identity,
			Declarations: out.res.Declarations,
		})
		decls = append(decls, out.res.Declarations...)
		refs = append(refs, out.res.Calls...)
	}

	resolutions := resolve.Calls(decls, refs)
	summary.CallsResolved, summary.CallsUnresolved, summary.CallsAmbiguous = resolve.Count(resolutions)

	edges := resolve.Edges(resolutions, e.externalEdges)

	g, err := graph.Build(repoName, fileNodes, edges)
	if err != nil {
		return nil, nil, err
	}
	summary.EdgeCount = len(g.Edges)

	if pruned, err := e.store.Prune(ctx, keep); err != nil {
		summary.CacheErrors++
		e.log.Warn("cache prune failed", zap.Error(err))
	} else {
		summary.CachePruned = pruned
	}

	summary.Duration = time.Since(start)
	e.log.Info("scan complete",
		zap.Int("files", summary.FilesTotal),
		zap.Int("from_cache", summary.FilesFromCache),
		zap.Int("declarations", len(decls)),
		zap.Int("edges", summary.EdgeCount),
		zap.Duration("duration", summary.Duration),
	)
	return g, summary, nil
}

// processFile extracts one file, consulting the cache store first. Cache
// failures are recorded and treated as misses; they never fail the file.
func (e *Engine) processFile(ctx context.Context, entry walk.FileEntry) (fileOutcome, error) {
	out := fileOutcome{entry: entry}

	l, ok := lang.Languages[entry.Language]
	if !ok {
		out.unsupported = true
		return out, nil
	}

	cached, hit, err := e.store.Get(ctx, entry.Identity)
	if err != nil {
		out.cacheErrs++
		e.log.Debug("cache read failed", zap.String("file", entry.Path), zap.Error(err))
	}
	if hit {
		out.res = cached
		out.fromCache = true
		return out, nil
	}

	res, err := e.extractFile(ctx, l, entry.Content, entry.Path)
	if err != nil {
		return out, err
	}
	out.res = res

	if err := e.store.Put(ctx, entry.Identity, entry.Path, res); err != nil {
		out.cacheErrs++
		e.log.Debug("cache write failed", zap.String("file", entry.Path), zap.Error(err))
	}
	return out, nil
}
