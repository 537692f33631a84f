package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/report-studio/internal/blurb"
	"github.com/sells-group/report-studio/pkg/anthropic"
)

var (
	draftInput     string
	draftOutput    string
	draftOverwrite bool
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Draft section text options with Claude",
	Long:  "Fills the options of every report section that has none (or all sections with --overwrite) and writes the updated bundle as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("draft"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		b, err := loadBundle(draftInput, uploadOptions(cfg))
		if err != nil {
			return err
		}

		gen := blurb.NewGenerator(anthropic.NewClient(cfg.Anthropic.Key, cfg.Anthropic.BaseURL), cfg.Blurb)
		out, res, err := gen.Generate(ctx, b, draftOverwrite)
		if err != nil {
			return err
		}
		if len(res.Failed) > 0 {
			zap.L().Warn("some sections kept their previous options", zap.Strings("sections", res.Failed))
		}

		data, err := out.EncodeJSON()
		if err != nil {
			return err
		}
		return writeOutput(draftOutput, append(data, '\n'))
	},
}

func init() {
	draftCmd.Flags().StringVar(&draftInput, "input", "", "bundle file (.json, .yaml)")
	draftCmd.Flags().StringVar(&draftOutput, "output", "", "output file (default stdout)")
	draftCmd.Flags().BoolVar(&draftOverwrite, "overwrite", false, "replace existing section options")
	_ = draftCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(draftCmd)
}
