// Package driver implements the AnalyzerDriver (spec §4.8): it walks a
// project, converts each file through its LanguageFrontend, aggregates the
// result in an IRCollector, resolves relationships, and emits the result
// through a GraphEmitter, updating the EntityMap only for files that made
// it all the way through. Directory walking and per-file dispatch are
// grounded on analyzer/package.go's AnalyzeDir/analyzePackage (afs.Walk +
// a match predicate feeding per-file conversion); the bounded worker pool
// replaces that file's sequential loop with errgroup.Group.SetLimit,
// grounded on internal/pipeline/usages.go's passUsages (parallel per-file
// stage 1, indexed result slice, serialized stage 2).
package driver

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/viant/codegraph/cgerrors"
	"github.com/viant/codegraph/collector"
	"github.com/viant/codegraph/config"
	"github.com/viant/codegraph/entitymap"
	"github.com/viant/codegraph/frontend"
	"github.com/viant/codegraph/frontend/cpp"
	"github.com/viant/codegraph/frontend/csharp"
	"github.com/viant/codegraph/frontend/golang"
	"github.com/viant/codegraph/frontend/java"
	"github.com/viant/codegraph/frontend/python"
	"github.com/viant/codegraph/frontend/sql"
	"github.com/viant/codegraph/frontend/typescript"
	"github.com/viant/codegraph/graphstore"
	"github.com/viant/codegraph/ir"
	"github.com/viant/codegraph/resolver"
)

// DefaultFactory registers every LanguageFrontend this module ships
// against its declared language tag (spec.md §6's fixed extension
// table), mirroring inspector/inspector.go's Factory registering one
// Inspector per extension.
func DefaultFactory() *frontend.Factory {
	return frontend.NewFactory(
		golang.New(),
		typescript.NewTypeScript(),
		typescript.NewTSX(),
		python.New(),
		java.New(),
		csharp.New(),
		cpp.New(),
		cpp.NewC(),
		sql.New(),
	)
}

// FileResult is one file's conversion outcome, threaded from the parallel
// conversion stage into the sequential aggregation stage.
type FileResult struct {
	RelativePath string
	FileIr       *ir.FileIr
	Skipped      bool
}

// Summary reports what a run did, for the caller to log or act on (spec
// §7: "the driver surfaces the error to the caller").
type Summary struct {
	FilesAnalyzed int
	FilesSkipped  int
	NodesEmitted  int
	EdgesEmitted  int
	Errors        []error
}

// Driver runs the full pipeline: FileSource -> LanguageFrontends -> FileIr
// -> IRCollector -> Resolver -> GraphMutation batches -> GraphEmitter,
// with EntityMap updated after a successful emit (spec §4).
type Driver struct {
	cfg       *config.Config
	fs        afs.Service
	factory   *frontend.Factory
	collector *collector.Collector
	resolver  *resolver.Resolver
	emitter   *graphstore.Emitter
	entities  *entitymap.EntityMap
	logger    *zap.Logger
}

// New wires a Driver from its collaborators. cfg must already pass
// Validate (spec §6); callers typically call config.Default()/LoadYAML
// first.
func New(cfg *config.Config, factory *frontend.Factory, store graphstore.Store, logger *zap.Logger) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := collector.New()
	return &Driver{
		cfg:       cfg,
		fs:        afs.New(),
		factory:   factory,
		collector: c,
		resolver:  resolver.New(c, cfg),
		emitter:   graphstore.New(store, cfg.BatchSize, graphstore.DefaultRetryPolicy()),
		entities:  entitymap.New(cfg.CacheDir),
		logger:    logger,
	}, nil
}

// AnalyzeProject walks root, converts every matching file, resolves the
// whole project's relationships, and emits the result in batches of
// BatchSize mutations (spec §8
// scenario: a fresh full-project run clears and rewrites the EntityMap).
func (d *Driver) AnalyzeProject(ctx context.Context, root string) (*Summary, error) {
	if err := d.entities.Load(ctx); err != nil {
		return nil, err
	}

	sources, err := d.discover(ctx, root)
	if err != nil {
		return nil, cgerrors.Wrap(err, "driver: discovering project files")
	}

	results, err := d.convertAll(ctx, sources)
	if err != nil {
		return nil, err
	}

	d.entities.Clear()
	summary := &Summary{}
	for _, r := range results {
		if r.Skipped {
			summary.FilesSkipped++
			continue
		}
		d.collector.Ingest(r.FileIr)
		d.entities.Update(r.RelativePath, idsFor(r.FileIr))
		summary.FilesAnalyzed++
		for _, e := range r.FileIr.Errors {
			summary.Errors = append(summary.Errors, e)
		}
	}

	if err := d.resolveAndEmit(ctx, summary); err != nil {
		return summary, err
	}
	if err := d.entities.Save(ctx); err != nil {
		return summary, err
	}
	return summary, nil
}

// AnalyzeFile re-analyzes a single file incrementally: it replaces the
// file's elements in the Collector, diffs the previous CanonicalId set
// against the new one (spec §8 scenario 6), deletes anything stale from
// the store, re-resolves just that file's relationships, and updates the
// EntityMap only on success.
func (d *Driver) AnalyzeFile(ctx context.Context, src frontend.Source) (*Summary, error) {
	fe, ok := d.factory.Get(src)
	if !ok {
		return &Summary{FilesSkipped: 1}, nil
	}

	previous := d.entities.IDsForFile(src.RelativePath)
	fileIr := fe.ConvertToIr(src, d.cfg.ProjectID)
	d.collector.Ingest(fileIr)

	current := idsFor(fileIr)
	removed := entitymap.Diff(previous, current)
	if len(removed) > 0 {
		if err := d.emitter.DeleteStale(ctx, removed); err != nil {
			return nil, err
		}
	}

	summary := &Summary{FilesAnalyzed: 1}
	for _, e := range fileIr.Errors {
		summary.Errors = append(summary.Errors, e)
	}
	if err := d.resolveAndEmitFile(ctx, src.RelativePath, summary); err != nil {
		return summary, err
	}

	d.entities.Update(src.RelativePath, current)
	if err := d.entities.Save(ctx); err != nil {
		return summary, err
	}
	return summary, nil
}

func idsFor(file *ir.FileIr) []ir.CanonicalId {
	ids := make([]ir.CanonicalId, 0, len(file.Elements))
	for _, el := range file.Elements {
		ids = append(ids, el.ID)
	}
	return ids
}

// discover walks root via afs, matching files against the configured
// extension table and ignore patterns (spec §6), mirroring
// analyzer/package.go's analyzePackages visitor.
func (d *Driver) discover(ctx context.Context, root string) ([]frontend.Source, error) {
	var sources []frontend.Source
	var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if info.IsDir() {
			return true, nil
		}
		relPath := filepath.Join(parent, info.Name())
		if d.ignored(relPath) {
			return true, nil
		}
		ext := strings.ToLower(filepath.Ext(info.Name()))
		if ir.LanguageForExtension(ext) == ir.LangUnknown {
			return true, nil
		}
		contents, err := d.fs.DownloadWithURL(ctx, filepath.Join(baseURL, relPath))
		if err != nil {
			return false, err
		}
		sources = append(sources, frontend.Source{
			AbsolutePath: filepath.Join(baseURL, relPath),
			RelativePath: relPath,
			Extension:    ext,
			Contents:     contents,
		})
		return true, nil
	}
	if err := d.fs.Walk(ctx, root, visitor); err != nil {
		return nil, err
	}
	return sources, nil
}

func (d *Driver) ignored(relPath string) bool {
	for _, pattern := range d.cfg.IgnorePatterns {
		if ok, _ := filepath.Match(pattern, relPath); ok {
			return true
		}
		if strings.Contains(relPath, pattern) {
			return true
		}
	}
	return false
}

// convertAll runs per-file frontend conversion across a bounded worker
// pool, checking ctx.Err() at each file boundary (spec §5), indexing
// results by position so ordering stays deterministic for the
// aggregation stage that follows.
func (d *Driver) convertAll(ctx context.Context, sources []frontend.Source) ([]FileResult, error) {
	results := make([]FileResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.MaxWorkers)

	for i, src := range sources {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			fe, ok := d.factory.Get(src)
			if !ok {
				results[i] = FileResult{RelativePath: src.RelativePath, Skipped: true}
				return nil
			}
			fileIr := fe.ConvertToIr(src, d.cfg.ProjectID)
			results[i] = FileResult{RelativePath: src.RelativePath, FileIr: fileIr}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, cgerrors.Wrap(err, "driver: cancelled during conversion")
	}
	return results, nil
}

// resolveAndEmit resolves every relationship currently in the Collector
// and emits the whole project through the Emitter, which submits the
// GraphMutations in batches of BatchSize.
func (d *Driver) resolveAndEmit(ctx context.Context, summary *Summary) error {
	edges, err := d.resolver.Resolve(ctx, d.collector.AllRelationships())
	if err != nil {
		return err
	}
	elements := d.collector.AllElements()
	if err := d.emitter.Emit(ctx, elements, edges); err != nil {
		d.logger.Error("emit failed", zap.Error(err))
		return err
	}
	summary.NodesEmitted = len(elements)
	summary.EdgesEmitted = len(edges)
	return nil
}

// resolveAndEmitFile resolves and emits only one file's relationships and
// elements, used by AnalyzeFile's incremental path.
func (d *Driver) resolveAndEmitFile(ctx context.Context, relPath string, summary *Summary) error {
	edges, err := d.resolver.Resolve(ctx, d.collector.RelationshipsForFile(relPath))
	if err != nil {
		return err
	}
	var elements []*ir.Element
	for _, id := range d.collector.IDsForFile(relPath) {
		if el := d.collector.ByID(id); el != nil {
			elements = append(elements, el)
		}
	}
	if err := d.emitter.Emit(ctx, elements, edges); err != nil {
		d.logger.Error("emit failed", zap.String("file", relPath), zap.Error(err))
		return err
	}
	summary.NodesEmitted = len(elements)
	summary.EdgesEmitted = len(edges)
	return nil
}
