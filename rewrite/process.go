package rewrite

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"slices"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnolang/tgrit/scanner"
)

type RewriteEngine interface {
	Search(ctx context.Context, path string) (*FileReport, error)
	Apply(ctx context.Context, path string) (*FileReport, error)
}

// Processor runs engine on a single file.
type Processor func(ctx context.Context, engine RewriteEngine, path string) (*FileReport, error)

func ProcessSearch(ctx context.Context, engine RewriteEngine, path string) (*FileReport, error) {
	return engine.Search(ctx, path)
}

func ProcessApply(ctx context.Context, engine RewriteEngine, path string) (*FileReport, error) {
	return engine.Apply(ctx, path)
}

// ProcessFiles runs ProcessPath for every path and concatenates the reports.
func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine RewriteEngine,
	paths []string,
	processor Processor,
) ([]*FileReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var all []*FileReport
	for _, path := range paths {
		reports, err := ProcessPath(ctx, logger, engine, path, processor)
		if err != nil {
			logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			return all, err
		}
		all = append(all, reports...)
	}
	return all, nil
}

// ProcessPath runs processor on path, or on every target file below it when
// path is a directory. Directory files run concurrently, at most one per
// CPU, and reports keep the scanner's file order. A file that fails is
// logged and left out; cancellation stops the walk and returns the reports
// finished so far together with the context error.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine RewriteEngine,
	path string,
	processor Processor,
) ([]*FileReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	s := scanner.New(path, scanner.DefaultExtensions...)
	if !info.IsDir() {
		if !s.IsTarget(path) {
			return nil, nil
		}
		report, err := processor(ctx, engine, path)
		if err != nil {
			return nil, err
		}
		return []*FileReport{report}, nil
	}

	files, err := s.Paths()
	if err != nil {
		return nil, fmt.Errorf("error scanning %s: %w", path, err)
	}
	logger = logger.With(zap.String("run", uuid.NewString()[:8]))
	logger.Debug("Processing directory", zap.String("path", path), zap.Int("files", len(files)))

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(path),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
	defer bar.Finish()

	reports := make([]*FileReport, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, fp := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			defer bar.Add(1)

			report, err := processor(gctx, engine, fp)
			if err != nil {
				logger.Error("Error processing file", zap.String("file", fp), zap.Error(err))
				return nil
			}
			reports[i] = report
			return nil
		})
	}
	err = g.Wait()

	reports = slices.DeleteFunc(reports, func(r *FileReport) bool { return r == nil })
	if err == nil {
		err = ctx.Err()
	}
	return reports, err
}
