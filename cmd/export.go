package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/report-studio/internal/model"
	"github.com/sells-group/report-studio/internal/pdf"
	"github.com/sells-group/report-studio/internal/selection"
	"github.com/sells-group/report-studio/internal/upload"
)

var (
	exportInputs      []string
	exportOutDir      string
	exportEngine      string
	exportConcurrency int
	exportChoices     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export report bundles to PDF",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportEngine != "" {
			cfg.PDF.Engine = exportEngine
		}
		if err := cfg.Validate("export"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		r, err := newRendering(cfg)
		if err != nil {
			return err
		}
		chosen, err := loadChoices(exportChoices)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(exportOutDir, 0o755); err != nil {
			return eris.Wrapf(err, "create %s", exportOutDir)
		}

		export := exportBundle(r.exporter(cfg.PDF.Engine), chosen, newOutputPaths(exportOutDir), uploadOptions(cfg))
		return exportBatch(ctx, exportInputs, exportConcurrency, export)
	},
}

func init() {
	exportCmd.Flags().StringSliceVar(&exportInputs, "input", nil, "bundle files to export (repeatable)")
	exportCmd.Flags().StringVar(&exportOutDir, "out-dir", ".", "directory for the PDF files")
	exportCmd.Flags().StringVar(&exportEngine, "engine", "", "pdf engine: chrome or native (default from config)")
	exportCmd.Flags().IntVar(&exportConcurrency, "concurrency", 2, "number of concurrent exports")
	exportCmd.Flags().StringVar(&exportChoices, "choices", "", "JSON file mapping section ids to chosen text")
	_ = exportCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(exportCmd)
}

// exportFunc exports one input file and returns the written path.
type exportFunc func(ctx context.Context, input string) (string, error)

// exportBundle returns an exportFunc that renders one bundle file to a PDF
// named after its client.
func exportBundle(exporter *pdf.Exporter, chosen selection.Chosen, paths *outputPaths, opts upload.Options) exportFunc {
	return func(ctx context.Context, input string) (string, error) {
		b, err := loadBundle(input, opts)
		if err != nil {
			return "", err
		}
		out, info, err := exporter.Export(ctx, selection.ResolveBundle(b, chosen))
		if err != nil {
			return "", err
		}
		path := paths.claim(model.ReportFilename(b.ClientName))
		if err := writeOutput(path, out); err != nil {
			return "", err
		}
		zap.L().Debug("pdf pages", zap.String("path", path), zap.Int("pages", info.Pages))
		return path, nil
	}
}

// outputPaths hands out distinct file paths in one directory. Inputs for the
// same client get numbered names instead of overwriting each other.
type outputPaths struct {
	dir string

	mu    sync.Mutex
	taken map[string]bool
}

func newOutputPaths(dir string) *outputPaths {
	return &outputPaths{dir: dir, taken: make(map[string]bool)}
}

func (p *outputPaths) claim(name string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for n := 2; p.taken[candidate]; n++ {
		candidate = stem + "-" + strconv.Itoa(n) + ext
	}
	p.taken[candidate] = true
	return filepath.Join(p.dir, candidate)
}

// exportBatch runs export over inputs with bounded concurrency. A failing
// input does not stop the others; the batch errors if any input failed.
func exportBatch(ctx context.Context, inputs []string, concurrency int, export exportFunc) error {
	if len(inputs) == 0 {
		zap.L().Info("no inputs to export")
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("exporting batch",
		zap.Int("inputs", len(inputs)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, input := range inputs {
		g.Go(func() error {
			log := zap.L().With(zap.String("input", input))

			path, err := export(gctx, input)
			if err != nil {
				failed.Add(1)
				log.Error("export failed", zap.Error(err))
				return nil
			}

			succeeded.Add(1)
			log.Info("export complete", zap.String("output", path))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "export batch")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	if n := failed.Load(); n > 0 {
		return eris.Errorf("export: %d of %d inputs failed", n, len(inputs))
	}
	return nil
}
