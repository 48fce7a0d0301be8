package instrumenter

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gotick/internal/config"
	"gotick/internal/models"

	"github.com/fatih/color"
)

// ReportGenerator handles formatting and displaying run results
type ReportGenerator struct {
	format string
	config *config.Config
}

func NewReportGenerator(cfg *config.Config) *ReportGenerator {
	return &ReportGenerator{
		format: cfg.Output.Format,
		config: cfg,
	}
}

// Generate creates a formatted report from run results
func (r *ReportGenerator) Generate(result *models.RunResult) string {
	switch r.format {
	case "json":
		return r.generateJSON(result)
	default:
		return r.generateConsole(result)
	}
}

func (r *ReportGenerator) generateJSON(result *models.RunResult) string {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error generating JSON report: %v", err)
	}
	return string(data)
}

func (r *ReportGenerator) generateConsole(result *models.RunResult) string {
	var report strings.Builder

	useColors := r.config.Output.Colors
	verbose := r.config.Output.Verbose

	if useColors {
		report.WriteString(color.CyanString("⏱  gotick Instrumentation Report\n"))
		report.WriteString(color.WhiteString("═══════════════════════════════════════\n\n"))
	} else {
		report.WriteString("gotick Instrumentation Report\n")
		report.WriteString("=======================================\n\n")
	}

	if verbose {
		r.writeConfigInfo(&report, useColors)
	}

	r.writeSummary(&report, result, useColors)

	files := make([]models.FileResult, len(result.Files))
	copy(files, result.Files)
	sort.SliceStable(files, func(i, j int) bool { return files[i].File < files[j].File })

	for _, fr := range files {
		r.writeFile(&report, fr, useColors)
		if verbose {
			r.writeFunctions(&report, fr)
		}
	}
	report.WriteString("\n")

	switch {
	case result.Failed() > 0 && useColors:
		report.WriteString(color.RedString("🚨 %d file(s) failed\n", result.Failed()))
	case result.Failed() > 0:
		report.WriteString(fmt.Sprintf("%d file(s) failed\n", result.Failed()))
	case result.DryRun && useColors:
		report.WriteString(color.YellowString("Dry run: no files were written\n"))
	case result.DryRun:
		report.WriteString("Dry run: no files were written\n")
	}

	if useColors {
		report.WriteString(color.WhiteString("Run completed in %s\n", result.RunDuration))
	} else {
		report.WriteString(fmt.Sprintf("Run completed in %s\n", result.RunDuration))
	}
	return report.String()
}

func (r *ReportGenerator) writeConfigInfo(report *strings.Builder, useColors bool) {
	in := r.config.Instrument
	costModel := in.CostModel
	if costModel == "" {
		costModel = "(all weights 1)"
	}
	lines := []string{
		fmt.Sprintf("   Counting function: %s", in.FunctionName),
		fmt.Sprintf("   Thresholds: %d operations / %d statements", in.MaxOperationCount, in.MaxStatementCount),
		fmt.Sprintf("   Cost model: %s", costModel),
	}
	if useColors {
		report.WriteString(color.WhiteString("📋 Configuration:\n"))
	} else {
		report.WriteString("Configuration:\n")
	}
	for _, line := range lines {
		report.WriteString(line + "\n")
	}
	report.WriteString("\n")
}

func (r *ReportGenerator) writeSummary(report *strings.Builder, result *models.RunResult, useColors bool) {
	if useColors {
		report.WriteString(color.WhiteString("📊 Summary:\n"))
	} else {
		report.WriteString("Summary:\n")
	}
	report.WriteString(fmt.Sprintf("   Files processed: %d\n", len(result.Files)))
	report.WriteString(fmt.Sprintf("   Files instrumented: %d\n", result.FilesByStatus[models.StatusInstrumented]))
	report.WriteString(fmt.Sprintf("   Counting calls: %d\n", result.TotalCalls))
	report.WriteString(fmt.Sprintf("   Ticks: %d\n", result.TotalTicks))
	report.WriteString("\n")
}

func statusDisplay(status models.FileStatus) (string, func(a ...interface{}) string) {
	switch status {
	case models.StatusInstrumented:
		return "✅", color.New(color.FgGreen).SprintFunc()
	case models.StatusFailed:
		return "❌", color.New(color.FgRed).SprintFunc()
	case models.StatusSkipped:
		return "⏭ ", color.New(color.FgYellow).SprintFunc()
	default:
		return "➖", color.New(color.FgWhite).SprintFunc()
	}
}

func (r *ReportGenerator) writeFile(report *strings.Builder, fr models.FileResult, useColors bool) {
	line := fmt.Sprintf("%s: %d calls, %d ticks", fr.File, fr.Calls, fr.Ticks)
	if fr.Output != "" && fr.Output != fr.File {
		line += " -> " + fr.Output
	}
	if fr.Error != "" {
		line += " (" + fr.Error + ")"
	}

	if useColors {
		emoji, statusColor := statusDisplay(fr.Status)
		report.WriteString(fmt.Sprintf("%s %s %s\n", emoji, statusColor(strings.ToUpper(string(fr.Status))), line))
		return
	}
	report.WriteString(fmt.Sprintf("%s %s\n", strings.ToUpper(string(fr.Status)), line))
}

func (r *ReportGenerator) writeFunctions(report *strings.Builder, fr models.FileResult) {
	for _, fn := range fr.Functions {
		report.WriteString(fmt.Sprintf("      %s: %d calls, %d ticks\n", fn.Name, fn.Calls, fn.Ticks))
	}
}
