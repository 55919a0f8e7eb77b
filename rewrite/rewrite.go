package rewrite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gnolang/tgrit/engine"
	"github.com/gnolang/tgrit/internal/cache"
	"github.com/gnolang/tgrit/pattern"
	"github.com/gnolang/tgrit/treesitter"
	tt "github.com/gnolang/tgrit/types"
)

// FileReport is the outcome of running every rule on one file.
type FileReport struct {
	Path string
	// Source is the file content as read; Rewritten is the content after
	// all applied rules and equals Source when nothing changed.
	Source    string
	Rewritten string
	Results   []engine.Result
	Logs      []tt.AnalysisLog
	Cached    bool
}

func (r *FileReport) Changed() bool {
	return r.Rewritten != r.Source
}

func (r *FileReport) MatchCount() int {
	n := 0
	for _, res := range r.Results {
		n += len(res.Matches)
	}
	return n
}

// WriteReport stores the rewritten content of r, keeping the file mode.
func WriteReport(r *FileReport) error {
	if !r.Changed() {
		return nil
	}
	info, err := os.Stat(r.Path)
	if err != nil {
		return err
	}
	return os.WriteFile(r.Path, []byte(r.Rewritten), info.Mode().Perm())
}

// Engine runs a compiled rule set over files.
type Engine struct {
	evaluator *engine.Evaluator
	lang      treesitter.Language
	logger    *zap.Logger
	metrics   *Metrics
	cache     *cache.Cache
}

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithCache lets Search reuse the results and diagnostics of files that
// did not change.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// New loads the rule file at rulesPath and builds an Engine for it.
func New(rulesPath string, opts ...Option) (*Engine, error) {
	rules, err := engine.LoadRules(rulesPath)
	if err != nil {
		return nil, err
	}
	return NewEngine(rules, opts...)
}

func NewEngine(rules []engine.Rule, opts ...Option) (*Engine, error) {
	compiled, err := engine.CompileRules(rules)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		evaluator: engine.NewEvaluator(compiled, treesitter.Parse),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	return e, nil
}

// Search matches every rule against path without changing it.
func (e *Engine) Search(ctx context.Context, path string) (*FileReport, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", path, err)
	}
	if e.cache != nil {
		if results, logs, ok := e.cache.Get(path); ok {
			e.metrics.CacheHits.Inc()
			e.forwardLogs(path, logs)
			return &FileReport{
				Path:      path,
				Source:    string(src),
				Rewritten: string(src),
				Results:   results,
				Logs:      logs,
				Cached:    true,
			}, nil
		}
	}

	report, err := e.run(ctx, path, string(src), false)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		if err := e.cache.Set(path, report.Results, report.Logs); err != nil {
			e.logger.Warn("Failed to cache results", zap.String("file", path), zap.Error(err))
		}
	}
	return report, nil
}

// Apply runs the rules in order, each on the revision left by the previous
// one, and returns the final content in the report. The file itself is not
// written; see WriteReport.
func (e *Engine) Apply(ctx context.Context, path string) (*FileReport, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", path, err)
	}
	return e.run(ctx, path, string(src), true)
}

// ApplySource is Apply over an in-memory source named name.
func (e *Engine) ApplySource(ctx context.Context, name, src string) (*FileReport, error) {
	return e.run(ctx, name, src, true)
}

func (e *Engine) run(ctx context.Context, path, src string, apply bool) (*FileReport, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	owner, err := treesitter.Parse(ctx, path, absPath, src)
	if err != nil {
		return nil, err
	}

	files := pattern.NewFileRegistryFromPaths([]string{path})
	ptr := pattern.NewFilePtr(0, 0)
	files.LoadFile(ptr, owner)
	defer closeTrees(files)

	report := &FileReport{Path: path, Source: src}
	var logs tt.AnalysisLogs
	for _, rule := range e.evaluator.Rules() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// a fresh state per rule; revisions carry over through files
		state := pattern.NewState(pattern.NewVarRegistry(), files)
		res, err := e.evaluator.Execute(state, ptr, e.lang, rule)
		if err != nil {
			return nil, err
		}
		report.Results = append(report.Results, res)
		e.metrics.Matches.WithLabelValues(rule.Name).Add(float64(len(res.Matches)))
		e.metrics.Effects.WithLabelValues(rule.Name).Add(float64(res.Effects))
		if res.Suppressed {
			e.metrics.Suppressed.WithLabelValues(rule.Name).Inc()
		}

		if !apply {
			continue
		}
		_, changed, err := e.evaluator.Apply(ctx, state, ptr, e.lang, &logs)
		if errors.Is(err, pattern.ErrOverlappingEffects) {
			e.metrics.Overlaps.Inc()
			e.logger.Warn("Skipping rule with overlapping rewrites",
				zap.String("file", path), zap.String("rule", rule.Name), zap.Error(err))
			continue
		}
		if err != nil {
			return nil, err
		}
		if changed {
			e.metrics.Revisions.Inc()
		}
	}

	report.Rewritten = files.GetFileOwner(files.LatestRevision(ptr)).Tree.Source()
	report.Logs = logs.Entries()
	e.forwardLogs(path, report.Logs)
	e.metrics.FilesProcessed.Inc()
	return report, nil
}

func (e *Engine) forwardLogs(path string, logs []tt.AnalysisLog) {
	for _, l := range logs {
		fields := []zap.Field{zap.String("file", path)}
		if l.Position != nil {
			fields = append(fields, zap.Stringer("position", l.Position))
		}
		if l.Syntax != "" {
			fields = append(fields, zap.String("syntax", l.Syntax))
		}
		switch l.Level {
		case tt.LevelDebug:
			e.logger.Debug(l.Message, fields...)
		case tt.LevelInfo:
			e.logger.Info(l.Message, fields...)
		case tt.LevelWarn:
			e.logger.Warn(l.Message, fields...)
		default:
			e.logger.Error(l.Message, fields...)
		}
	}
}

func closeTrees(files *pattern.FileRegistry) {
	for _, versions := range files.Files() {
		for _, owner := range versions {
			if t, ok := owner.Tree.(interface{ Close() }); ok {
				t.Close()
			}
		}
	}
}
