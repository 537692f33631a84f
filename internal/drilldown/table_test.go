package drilldown

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/report-studio/internal/csvgrid"
)

const practiceReport = `Practice Report
Category,KPI,Score
New Patients,New Patient Count,80
New Patients,Case Acceptance,
Hygiene,Recall Rate,65
`

func TestBuild_PracticeReport(t *testing.T) {
	table, err := Build(practiceReport)
	require.NoError(t, err)

	assert.Equal(t, "Practice Report", table.Title)
	assert.Equal(t, []string{"Category", "KPI", "Score"}, table.Columns)
	assert.Equal(t, [][]string{
		{"New Patients", "New Patient Count", "80"},
		{"Hygiene", "Recall Rate", "65"},
	}, table.Rows)

	grid := Normalize(table)
	require.Len(t, grid, 2)
	assert.Equal(t, "New Patients", grid[0][0].Display)
	assert.Equal(t, "Hygiene", grid[1][0].Display)
}

func TestBuild_TitleDetection(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantTitle string
		wantCols  []string
	}{
		{
			name:      "single cell first row",
			in:        "Quarterly Scores\nA,B\n1,2",
			wantTitle: "Quarterly Scores",
			wantCols:  []string{"A", "B"},
		},
		{
			name:      "trailing empty cells",
			in:        "Quarterly Scores,,\nA,B,C\n1,2,3",
			wantTitle: "Quarterly Scores",
			wantCols:  []string{"A", "B", "C"},
		},
		{
			name:     "no title",
			in:       "A,B\n1,2",
			wantCols: []string{"A", "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Build(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, table.Title)
			assert.Equal(t, tt.wantCols, table.Columns)
		})
	}
}

func TestBuild_SyntheticHeaders(t *testing.T) {
	table, err := Build("Name,,Value,\nx,y,z,w")
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Column 2", "Value", "Column 4"}, table.Columns)
}

func TestBuild_RowsFitColumns(t *testing.T) {
	table, err := Build("A,B,C\n1\n1,2,3,4")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "", ""}, {"1", "2", "3"}}, table.Rows)
}

func TestBuild_ScoreHeaderCaseInsensitive(t *testing.T) {
	table, err := Build("KPI,SCORE\na,1\nb,\nc,3")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "1"}, {"c", "3"}}, table.Rows)
}

func TestBuild_NoScoreColumnKeepsAllRows(t *testing.T) {
	table, err := Build("KPI,Note\na,\nb,\n")
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{name: "empty", in: "", want: ErrEmptyInput},
		{name: "only blank lines", in: "\n , \n\n", want: ErrEmptyInput},
		{name: "title only", in: "Practice Report\n", want: ErrMissingHeader},
		{name: "header only", in: "Category,KPI,Score\n", want: ErrNoDataRows},
		{name: "no scored rows", in: "Category,KPI,Score\nA,x,\nB,y,\n", want: ErrNoDataRows},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestTable_Check(t *testing.T) {
	ok := &Table{Columns: []string{"Category", "Score"}, Rows: [][]string{{"A", "7"}, {"B", ""}}}
	assert.NoError(t, ok.Check())

	long := &Table{Columns: []string{"Category"}, Rows: [][]string{{"A", "extra"}}}
	err := long.Check()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRowWidth), "got %v", err)
	assert.Contains(t, err.Error(), "row 1 has 2 cells for 1 columns")

	short := &Table{Columns: []string{"Category", "Score"}, Rows: [][]string{{"A", "1"}, {"B"}}}
	assert.True(t, errors.Is(short.Check(), ErrRowWidth))

	built, err := Build(`Category,KPI,Score
A,x,5,overflow
B,y,3
`)
	require.NoError(t, err)
	assert.NoError(t, built.Check())
}

func TestBuildWithOptions_Strict(t *testing.T) {
	_, err := BuildWithOptions("A,B\n\"x,1", Options{StrictQuotes: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, csvgrid.ErrUnterminatedQuote))

	table, err := BuildWithOptions("A,B\n\"x,1", Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"x,1", ""}}, table.Rows)
}

func TestBuildGrid_FromSpreadsheetRows(t *testing.T) {
	grid := csvgrid.FromRows([][]string{
		{" Report ", ""},
		{"", ""},
		{"Category", " Score "},
		{"A", "10"},
	})
	table, err := BuildGrid(grid)
	require.NoError(t, err)
	assert.Equal(t, "Report", table.Title)
	assert.Equal(t, []string{"Category", "Score"}, table.Columns)
}

func TestColumnIndex(t *testing.T) {
	table := &Table{Columns: []string{"Category", " Score "}}
	assert.Equal(t, 1, table.ColumnIndex("score"))
	assert.Equal(t, -1, table.ColumnIndex("kpi"))
}
