package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"gotick/internal/config"
	"gotick/internal/costmodel"
	"gotick/internal/instrumenter"
	"gotick/internal/logging"
	"gotick/internal/models"
	"gotick/internal/watcher"

	"fortio.org/safecast"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configFlag          string
	generateConfigFlag  bool
	costModelFlag       string
	createCostModelFlag string
	functionFlag        string
	stepFlag            uint
	statementFlag       uint
	includeFlag         string
	externFlag          string
	outputFlag          string
	suffixFlag          string
	dryRunFlag          bool
	noGofmtFlag         bool
	formatFlag          string
	watchFlag           bool
	verboseFlag         bool
)

// errFailedFiles is returned when at least one file could not be
// instrumented.
var errFailedFiles = errors.New("some files failed")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gotick [files or directories]",
	Short: "Instrument Go sources with operation counting calls",
	Long: `gotick rewrites Go source files so that, when run, they report how much
work each statement performs. A cost model assigns a weight to every kind of
construct; accumulated weight is flushed through calls to a counting function.

Examples:
  gotick .                                 # Instrument the current directory in place
  gotick -o out ./...                      # Mirror instrumented files under out/
  gotick --suffix=_tick main.go            # Write main_tick.go next to main.go
  gotick -m costs.txt --step 10 .          # Use a cost model, flush every 10 ticks
  gotick --create-cost-model costs.txt     # Write an editable cost model
  gotick --generate-config                 # Generate sample config file`,
	SilenceUsage: true,
	RunE:         runInstrument,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errFailedFiles) {
			color.Red("%v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&configFlag, "config", "c", "", "Path to configuration file")
	flags.BoolVar(&generateConfigFlag, "generate-config", false, "Generate sample configuration file")
	flags.StringVarP(&costModelFlag, "cost-model", "m", "", "Cost model file")
	flags.StringVar(&createCostModelFlag, "create-cost-model", "", "Write the cost model template to this file and exit")
	flags.StringVar(&functionFlag, "function", "CLK", "Counting function called by inserted code")
	flags.UintVar(&stepFlag, "step", 1, "Operations accumulated before a call is emitted")
	flags.UintVar(&statementFlag, "statement", 1, "Statements accumulated before a call is emitted")
	flags.StringVar(&includeFlag, "include", "", "Import path added to instrumented files")
	flags.StringVar(&externFlag, "extern", "", "Declaration added once per package, e.g. 'var CLK = clk.Tick'")
	flags.StringVarP(&outputFlag, "output", "o", "", "Output directory mirroring the source tree")
	flags.StringVar(&suffixFlag, "suffix", "", "Write <name><suffix>.go next to each source")
	flags.BoolVar(&dryRunFlag, "dry-run", false, "Instrument without writing any file")
	flags.BoolVar(&noGofmtFlag, "no-gofmt", false, "Do not format instrumented files")
	flags.StringVarP(&formatFlag, "format", "f", "console", "Report format (console, json)")
	flags.BoolVarP(&watchFlag, "watch", "w", false, "Re-instrument files as they change")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose output")
}

func runInstrument(cmd *cobra.Command, args []string) error {
	if generateConfigFlag {
		return generateConfig()
	}

	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(os.Stderr, cfg.Output.Verbose)

	model, err := loadCostModel(cfg.Instrument.CostModel)
	if err != nil {
		return err
	}
	if createCostModelFlag != "" {
		return createCostModel(model, createCostModelFlag)
	}

	if len(args) == 0 {
		args = []string{"."}
	}

	goFiles := collectAll(cfg, args, log)
	if len(goFiles) == 0 && !watchFlag {
		color.Yellow("⚠️  No Go files found to instrument\n")
		return nil
	}

	engine := instrumenter.New(cfg, model, log)
	reportGen := instrumenter.NewReportGenerator(cfg)

	if cfg.Output.Verbose {
		color.Cyan("⏱  Instrumenting %d Go files with %s(...)\n", len(goFiles), cfg.Instrument.FunctionName)
		if configFlag != "" {
			color.Cyan("📋 Using configuration: %s\n", configFlag)
		}
		if cfg.Instrument.CostModel != "" {
			color.Cyan("⚖️  Cost model: %s (%d function weights)\n\n", cfg.Instrument.CostModel, model.FunctionCount())
		}
	} else if cfg.Output.Format == "console" {
		color.Cyan("⏱  Instrumenting %d Go files...\n\n", len(goFiles))
	}

	failed := false
	if len(goFiles) > 0 {
		result, err := engine.InstrumentFiles(goFiles)
		if err != nil {
			log.Debug().Err(err).Msg("run finished with errors")
		}
		emitReport(reportGen, result, cfg)
		failed = result.Failed() > 0
	}

	if watchFlag {
		return watch(cfg, args, engine, reportGen, log)
	}
	if failed {
		return errFailedFiles
	}
	return nil
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("cost-model") {
		cfg.Instrument.CostModel = costModelFlag
	}
	if flags.Changed("function") {
		cfg.Instrument.FunctionName = functionFlag
	}
	if flags.Changed("step") {
		n, err := safecast.Conv[int](stepFlag)
		if err != nil {
			return fmt.Errorf("--step: %w", err)
		}
		cfg.Instrument.MaxOperationCount = n
	}
	if flags.Changed("statement") {
		n, err := safecast.Conv[int](statementFlag)
		if err != nil {
			return fmt.Errorf("--statement: %w", err)
		}
		cfg.Instrument.MaxStatementCount = n
	}
	if flags.Changed("include") {
		cfg.Instrument.Include = includeFlag
	}
	if flags.Changed("extern") {
		cfg.Instrument.Extern = externFlag
	}
	if flags.Changed("output") {
		cfg.Output.Directory = outputFlag
	}
	if flags.Changed("suffix") {
		cfg.Output.Suffix = suffixFlag
	}
	if flags.Changed("dry-run") {
		cfg.Output.DryRun = dryRunFlag
	}
	if flags.Changed("no-gofmt") {
		cfg.Output.Gofmt = !noGofmtFlag
	}
	if flags.Changed("format") {
		cfg.Output.Format = formatFlag
	}
	if flags.Changed("verbose") {
		cfg.Output.Verbose = verboseFlag
	}
	if watchFlag && cfg.InPlace() {
		return fmt.Errorf("%w: watch mode needs --output, --suffix or --dry-run", config.ErrInvalidConfig)
	}
	return nil
}

func loadCostModel(path string) (*costmodel.Model, error) {
	if path == "" {
		return costmodel.Default(), nil
	}
	model, err := costmodel.Load(path)
	if err != nil {
		return nil, err
	}
	return model, nil
}

func createCostModel(model *costmodel.Model, path string) error {
	if err := model.Save(path); err != nil {
		return err
	}
	color.Green("✅ Generated cost model: %s\n", path)
	color.Cyan("📝 Edit the weights, then run 'gotick --cost-model=%s .'\n", path)
	return nil
}

func emitReport(reportGen *instrumenter.ReportGenerator, result *models.RunResult, cfg *config.Config) {
	report := reportGen.Generate(result)

	if cfg.Output.ReportFile != "" {
		if err := writeReportToFile(report, cfg.Output.ReportFile); err != nil {
			color.Red("Failed to write report to file: %v\n", err)
		} else {
			color.Green("📄 Report saved to: %s\n", cfg.Output.ReportFile)
		}
		return
	}
	fmt.Print(report)
}

func watch(cfg *config.Config, args []string, engine *instrumenter.Instrumenter, reportGen *instrumenter.ReportGenerator, log zerolog.Logger) error {
	fw, err := watcher.NewFileWatcher(cfg, watcher.DefaultDelay, log)
	if err != nil {
		return err
	}
	defer fw.Close()

	err = fw.Watch(args, func(files []string) error {
		result, err := engine.InstrumentFiles(files)
		emitReport(reportGen, result, cfg)
		return err
	})
	if err != nil {
		return err
	}

	color.Cyan("👀 Watching %d directories, press Ctrl+C to stop\n", len(fw.GetWatchedPaths()))
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	return nil
}

func writeReportToFile(report, filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(filePath, []byte(report), 0644)
}

func generateConfig() error {
	configPath := ".gotick.yml"
	if err := config.GenerateConfig(configPath); err != nil {
		return fmt.Errorf("failed to generate config file: %w", err)
	}
	color.Green("✅ Generated sample configuration file: %s\n", configPath)
	color.Cyan("📝 Edit this file to customize gotick behavior\n")
	color.Cyan("🚀 Run 'gotick --config=%s .' to use it\n", configPath)
	return nil
}

func collectAll(cfg *config.Config, args []string, log zerolog.Logger) []string {
	var goFiles []string
	for _, arg := range args {
		files, err := collectGoFiles(cfg, strings.TrimSuffix(arg, "/..."))
		if err != nil {
			log.Error().Err(err).Str("path", arg).Msg("error collecting files")
			continue
		}
		goFiles = append(goFiles, files...)
	}
	return goFiles
}

// collectGoFiles recursively finds the Go sources below path, leaving out
// excluded files and files this configuration writes.
func collectGoFiles(cfg *config.Config, path string) ([]string, error) {
	var goFiles []string

	err := filepath.Walk(path, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			name := info.Name()
			if filePath != path && (name == "vendor" || name == ".git" || name == "node_modules") {
				return filepath.SkipDir
			}
			if filePath != path && (cfg.IsExcluded(filePath) || cfg.IsOutput(filePath)) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(filePath, ".go") {
			return nil
		}
		if strings.HasSuffix(filePath, "_test.go") && !cfg.Files.IncludeTests {
			return nil
		}
		if cfg.IsExcluded(filePath) || cfg.IsOutput(filePath) {
			return nil
		}
		goFiles = append(goFiles, filePath)
		return nil
	})

	return goFiles, err
}
