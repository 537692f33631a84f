package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/report-studio/internal/upload"
)

var (
	renderInput   string
	renderOutput  string
	renderChoices string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a report bundle or drill-down table to HTML",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("render"); err != nil {
			return err
		}

		html, err := renderFile(renderInput, renderChoices)
		if err != nil {
			return err
		}

		zap.L().Info("rendered html",
			zap.String("input", renderInput),
			zap.Int("bytes", len(html)),
		)
		return writeOutput(renderOutput, []byte(html))
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderInput, "input", "", "bundle (.json, .yaml) or drill-down table (.csv, .xlsx)")
	renderCmd.Flags().StringVar(&renderOutput, "output", "", "output file (default stdout)")
	renderCmd.Flags().StringVar(&renderChoices, "choices", "", "JSON file mapping section ids to chosen text")
	_ = renderCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(renderCmd)
}

// renderFile renders input as a report, or as a standalone drill-down
// document when input is a table.
func renderFile(input, choicesPath string) (string, error) {
	r, err := newRendering(cfg)
	if err != nil {
		return "", err
	}

	res, err := upload.ReadFile(input, uploadOptions(cfg))
	if err != nil {
		return "", err
	}
	if res.Drilldown != nil {
		return r.Renderer.Drilldown(res.Drilldown)
	}

	chosen, err := loadChoices(choicesPath)
	if err != nil {
		return "", err
	}
	return r.Renderer.Report(res.Bundle, chosen)
}
