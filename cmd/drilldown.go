package main

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/report-studio/internal/drilldown"
	"github.com/sells-group/report-studio/internal/upload"
)

var (
	drilldownInput  string
	drilldownOutput string
)

var drilldownCmd = &cobra.Command{
	Use:   "drilldown",
	Short: "Print the parsed drill-down table as JSON",
	Long:  "Parses a CSV or XLSX drill-down export and prints its title, classified columns and display grid. Useful for checking how an export will render.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("drilldown"); err != nil {
			return err
		}

		res, err := upload.ReadFile(drilldownInput, uploadOptions(cfg))
		if err != nil {
			return err
		}
		if res.Drilldown == nil {
			return eris.Errorf("%s is a report bundle, not a drill-down table", drilldownInput)
		}

		data, err := drilldownJSON(res.Drilldown)
		if err != nil {
			return err
		}
		return writeOutput(drilldownOutput, data)
	},
}

func init() {
	drilldownCmd.Flags().StringVar(&drilldownInput, "input", "", "drill-down table (.csv, .xlsx)")
	drilldownCmd.Flags().StringVar(&drilldownOutput, "output", "", "output file (default stdout)")
	_ = drilldownCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(drilldownCmd)
}

type drilldownDebug struct {
	Title   string                 `json:"title"`
	Columns []drilldown.ColumnMeta `json:"columns"`
	Rows    drilldown.DisplayGrid  `json:"rows"`
}

func drilldownJSON(t *drilldown.Table) ([]byte, error) {
	v := drilldown.NewView(t)
	data, err := json.MarshalIndent(drilldownDebug{Title: v.Title, Columns: v.Columns, Rows: v.Rows}, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "encode drilldown")
	}
	return append(data, '\n'), nil
}
