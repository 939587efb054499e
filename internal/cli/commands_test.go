package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultHeader = "revenue,tax_current_system,tax_super-nota-bart-de-wever,rate_current_system,rate_super-nota-bart-de-wever,difference"

// execute runs a single subcommand and returns its stdout.
func execute(t *testing.T, rootOpts *RootOptions, newCmd func(*RootOptions) *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := newCmd(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// decodeData unmarshals the data payload of a JSON response into v.
func decodeData(t *testing.T, out string, v interface{}) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func decodeError(t *testing.T, out string) *CLIError {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	return resp.Error
}

func firstLine(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	sc := bufio.NewScanner(f)
	require.True(t, sc.Scan())
	return sc.Text()
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const twoSystemsYAML = `
systems:
  - name: flat
    default_rate: 0.3
    instalments:
      - { amount: 10000, rate: 0.3 }
  - name: progressive
    default_rate: 0.5
    instalments:
      - { amount: 10000, rate: 0.1 }
range: { start: 10000, stop: 10300, step: 100 }
`

func TestReport_DefaultConfigWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "imposition.csv")
	imagePath := filepath.Join(dir, "imposition.png")
	dbPath := filepath.Join(dir, "report.db")

	out, err := execute(t, &RootOptions{Format: "json"}, NewReportCommand,
		"--csv", csvPath, "--image", imagePath, "--db", dbPath)
	require.NoError(t, err)

	var summary ReportSummary
	decodeData(t, out, &summary)
	assert.Equal(t, 1950, summary.Rows)
	assert.Equal(t, []string{"current_system", "super-nota-bart-de-wever"}, summary.Systems)
	assert.Equal(t, "current_system", summary.Comparison.Baseline)
	assert.Equal(t, "relative", string(summary.Comparison.Mode))
	assert.Len(t, summary.Digest, 64)
	assert.NotEmpty(t, summary.RunID)

	assert.Equal(t, defaultHeader, firstLine(t, csvPath))

	img, err := os.ReadFile(imagePath)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), img[:4])
}

func TestReport_Idempotent(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out.csv")
	args := []string{"--csv", csvPath, "--image", "", "--stop", "20000"}

	out1, err := execute(t, &RootOptions{Format: "json"}, NewReportCommand, args...)
	require.NoError(t, err)
	first, err := os.ReadFile(csvPath)
	require.NoError(t, err)

	out2, err := execute(t, &RootOptions{Format: "json"}, NewReportCommand, args...)
	require.NoError(t, err)
	second, err := os.ReadFile(csvPath)
	require.NoError(t, err)

	var s1, s2 ReportSummary
	decodeData(t, out1, &s1)
	decodeData(t, out2, &s2)
	assert.Equal(t, s1.Digest, s2.Digest)
	assert.Equal(t, first, second)
}

func TestReport_CustomConfigAndFlags(t *testing.T) {
	cfgPath := writeConfig(t, "systems.yaml", twoSystemsYAML)
	csvPath := filepath.Join(t.TempDir(), "out.csv")

	out, err := execute(t, &RootOptions{Format: "json", Config: cfgPath}, NewReportCommand,
		"--csv", csvPath, "--image", "", "--mode", "amount")
	require.NoError(t, err)

	var summary ReportSummary
	decodeData(t, out, &summary)
	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, "flat", summary.Comparison.Baseline)
	assert.Equal(t, "progressive", summary.Comparison.Compare)
	assert.Empty(t, summary.Image)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	// 10000: flat 3000, progressive 1000, amount difference -2000.
	assert.Contains(t, string(data), "10000,3000,1000,0.3,0.1,-2000\n")
}

func TestReport_TextSummary(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "out.csv")

	out, err := execute(t, &RootOptions{Format: "text"}, NewReportCommand,
		"--csv", csvPath, "--image", "", "--start", "10000", "--stop", "10500")
	require.NoError(t, err)
	assert.Contains(t, out, "Report: 5 rows")
	assert.Contains(t, out, "super-nota-bart-de-wever vs current_system (relative)")
	assert.Contains(t, out, "CSV: "+csvPath)
}

func TestReport_InvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero step", []string{"--step", "0"}},
		{"stop before start", []string{"--start", "100", "--stop", "10"}},
		{"unknown mode", []string{"--mode", "ratio"}},
		{"unknown baseline", []string{"--baseline", "nope"}},
		{"same system", []string{"--compare", "current_system"}},
		{"step too small", []string{"--step", "1e-300"}},
		{"too many rows", []string{"--stop", "1e18", "--step", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--csv", "", "--image", ""}, tt.args...)
			out, err := execute(t, &RootOptions{Format: "json"}, NewReportCommand, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Equal(t, ErrCodeInvalidConfig, decodeError(t, out).Code)
		})
	}
}

func TestReport_MissingConfig(t *testing.T) {
	out, err := execute(t, &RootOptions{Format: "json", Config: "/nonexistent/systems.yaml"}, NewReportCommand)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeConfigLoad, decodeError(t, out).Code)
}

func TestReport_UnwritableCSV(t *testing.T) {
	out, err := execute(t, &RootOptions{Format: "json"}, NewReportCommand,
		"--csv", filepath.Join(t.TempDir(), "missing", "out.csv"), "--image", "", "--stop", "6000")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeWriteFailed, decodeError(t, out).Code)
}

func TestTax_WorkedExample(t *testing.T) {
	out, err := execute(t, &RootOptions{Format: "json"}, NewTaxCommand,
		"27920", "--system", "current_system")
	require.NoError(t, err)

	var results []TaxResult
	decodeData(t, out, &results)
	require.Len(t, results, 1)
	assert.Equal(t, "current_system", results[0].System)
	assert.Equal(t, 8795.0, results[0].Tax)
	assert.Equal(t, 0.45, results[0].MarginalRate)
	assert.Empty(t, results[0].Breakdown)
}

func TestTax_AllSystemsWithBreakdown(t *testing.T) {
	out, err := execute(t, &RootOptions{Format: "json"}, NewTaxCommand, "1000000", "0", "--breakdown")
	require.NoError(t, err)

	var results []TaxResult
	decodeData(t, out, &results)
	require.Len(t, results, 4)

	assert.Equal(t, 493815.0, results[0].Tax)
	assert.Equal(t, 445850.0, results[1].Tax)

	var sum float64
	for _, s := range results[0].Breakdown {
		sum += s.Tax
	}
	assert.InDelta(t, 493815.0, sum, 1e-6)
	assert.True(t, results[0].Breakdown[len(results[0].Breakdown)-1].Default)

	assert.Equal(t, 0.0, results[2].Tax)
	assert.Equal(t, 0.0, results[2].EffectiveRate)
}

func TestTax_TextOutput(t *testing.T) {
	out, err := execute(t, &RootOptions{Format: "text"}, NewTaxCommand, "30000", "--breakdown")
	require.NoError(t, err)
	assert.Contains(t, out, "current_system")
	assert.Contains(t, out, "super-nota-bart-de-wever")
	assert.Contains(t, out, "default")
}

func TestTax_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"not a number", []string{"lots"}, ErrCodeInvalidArg},
		{"not finite", []string{"NaN"}, ErrCodeInvalidArg},
		{"unknown system", []string{"1000", "--system", "flat"}, ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, &RootOptions{Format: "json"}, NewTaxCommand, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Equal(t, tt.code, decodeError(t, out).Code)
		})
	}
}

func TestSchedules_ListsBundledSystems(t *testing.T) {
	out, err := execute(t, &RootOptions{Format: "text"}, NewSchedulesCommand)
	require.NoError(t, err)
	assert.Contains(t, out, "current_system")
	assert.Contains(t, out, "super-nota-bart-de-wever")
	assert.Contains(t, out, "and above")
}

func TestSchedules_TemplateRoundTrips(t *testing.T) {
	out, err := execute(t, &RootOptions{Format: "text"}, NewSchedulesCommand, "--template")
	require.NoError(t, err)
	assert.Contains(t, out, "median_income: 35000")

	// The printed template is itself a valid config.
	cfgPath := writeConfig(t, "template.yaml", out)
	_, err = execute(t, &RootOptions{Format: "json"}, NewValidateCommand, cfgPath)
	require.NoError(t, err)
}

func TestValidate_BundledDefault(t *testing.T) {
	out, err := execute(t, &RootOptions{Format: "text"}, NewValidateCommand)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ bundled default: 2 systems, 1950 rows")
}

func TestValidate_CustomConfig(t *testing.T) {
	cfgPath := writeConfig(t, "systems.yaml", twoSystemsYAML)

	out, err := execute(t, &RootOptions{Format: "json"}, NewValidateCommand, cfgPath)
	require.NoError(t, err)

	var result ValidateResult
	decodeData(t, out, &result)
	assert.Equal(t, cfgPath, result.Config)
	assert.Equal(t, []string{"flat", "progressive"}, result.Systems)
	assert.Equal(t, 3, result.Rows)
	assert.Empty(t, result.Warnings)
}

const warningYAML = `
systems:
  - name: a
    default_rate: 0.3
    instalments:
      - { amount: 1000, rate: 1.5 }
  - name: b
    default_rate: 0.4
`

func TestValidate_WarningsAndStrict(t *testing.T) {
	cfgPath := writeConfig(t, "warn.yaml", warningYAML)

	out, err := execute(t, &RootOptions{Format: "json"}, NewValidateCommand, cfgPath)
	require.NoError(t, err)
	var result ValidateResult
	decodeData(t, out, &result)
	assert.Contains(t, result.Warnings, "a: instalments[0].rate: rate 1.5 is outside [0, 1]")
	assert.Contains(t, result.Warnings, "b: instalments: no brackets defined, every unit of income is taxed at the default rate")

	out, err = execute(t, &RootOptions{Format: "json"}, NewValidateCommand, cfgPath, "--strict")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeLintWarnings, decodeError(t, out).Code)
}

func TestValidate_InvalidConfig(t *testing.T) {
	cfgPath := writeConfig(t, "one.yaml", "systems:\n  - name: only\n    default_rate: 0.5\n")

	out, err := execute(t, &RootOptions{Format: "json"}, NewValidateCommand, cfgPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeInvalidConfig, decodeError(t, out).Code)
}

func TestPlot_FromReportCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out.csv")
	_, err := execute(t, &RootOptions{Format: "text"}, NewReportCommand,
		"--csv", csvPath, "--image", "", "--stop", "50000", "--step", "1000")
	require.NoError(t, err)

	out, err := execute(t, &RootOptions{Format: "json"}, NewPlotCommand, csvPath)
	require.NoError(t, err)
	var result PlotResult
	decodeData(t, out, &result)
	assert.Equal(t, filepath.Join(dir, "out.png"), result.Output)
	assert.Equal(t, 45, result.Rows)
	assert.FileExists(t, result.Output)

	svgPath := filepath.Join(dir, "rates.svg")
	_, err = execute(t, &RootOptions{Format: "text"}, NewPlotCommand, csvPath, "-o", svgPath, "--median", "0")
	require.NoError(t, err)
	svg, err := os.ReadFile(svgPath)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
}

func TestPlot_Errors(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.csv")
	require.NoError(t, os.WriteFile(plain, []byte("revenue,tax_a,tax_b\n10000,1000,2000\n"), 0o644))

	tests := []struct {
		name     string
		input    string
		exitCode int
		code     string
	}{
		{"missing file", filepath.Join(dir, "missing.csv"), ExitCommandError, ErrCodeNotFound},
		{"not enriched", plain, ExitFailure, ErrCodeReportFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			image := filepath.Join(t.TempDir(), "good.png")
			require.NoError(t, os.WriteFile(image, []byte("previous image"), 0o644))

			out, err := execute(t, &RootOptions{Format: "json"}, NewPlotCommand, tt.input, "-o", image)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))
			assert.Equal(t, tt.code, decodeError(t, out).Code)

			data, err := os.ReadFile(image)
			require.NoError(t, err)
			assert.Equal(t, "previous image", string(data))
		})
	}
}

func TestShow_StoredReport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "report.db")
	out, err := execute(t, &RootOptions{Format: "json"}, NewReportCommand,
		"--csv", "", "--image", "", "--db", dbPath, "--stop", "8000", "--step", "1000")
	require.NoError(t, err)
	var summary ReportSummary
	decodeData(t, out, &summary)

	restored := filepath.Join(dir, "restored.csv")
	out, err = execute(t, &RootOptions{Format: "json"}, NewShowCommand,
		"--db", dbPath, "--rows", "2", "--csv", restored)
	require.NoError(t, err)

	var result ShowResult
	decodeData(t, out, &result)
	assert.Equal(t, summary.RunID, result.Run.ID)
	assert.Equal(t, summary.Digest, result.Run.Digest)
	assert.Equal(t, 3, result.Run.RowCount)
	require.Len(t, result.Preview, 2)
	assert.Equal(t, []string{"5000", "1250", "1250", "0.25", "0.25", "0"}, result.Preview[0])

	assert.Equal(t, defaultHeader, firstLine(t, restored))
}

func TestShow_TextOutput(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "report.db")
	_, err := execute(t, &RootOptions{Format: "text"}, NewReportCommand,
		"--csv", "", "--image", "", "--db", dbPath, "--stop", "6000")
	require.NoError(t, err)

	out, err := execute(t, &RootOptions{Format: "text"}, NewShowCommand, "--db", dbPath, "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Systems: current_system, super-nota-bart-de-wever")
	assert.Contains(t, out, "Rows: 10")
	assert.Contains(t, out, "revenue\ttax_current_system")
}

func TestShow_MissingDatabase(t *testing.T) {
	out, err := execute(t, &RootOptions{Format: "json"}, NewShowCommand,
		"--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, decodeError(t, out).Code)
}
