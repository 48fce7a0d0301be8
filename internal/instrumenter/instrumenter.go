package instrumenter

import (
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gotick/internal/config"
	"gotick/internal/costmodel"
	"gotick/internal/engine"
	"gotick/internal/frontend"
	"gotick/internal/models"
	"gotick/internal/rewrite"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// closePrefix separates a call written before a closing brace from the
// statement it follows.
const closePrefix = ";"

type Instrumenter struct {
	cfg   *config.Config
	model *costmodel.Model
	opts  engine.Options
	log   zerolog.Logger
}

type sourceFile struct {
	path string
	src  []byte
	file *ast.File
}

func New(cfg *config.Config, model *costmodel.Model, log zerolog.Logger) *Instrumenter {
	if model == nil {
		model = costmodel.Default()
	}
	return &Instrumenter{
		cfg:   cfg,
		model: model,
		opts: engine.Options{
			FunctionName:      cfg.Instrument.FunctionName,
			MaxOperationCount: cfg.Instrument.MaxOperationCount,
			MaxStatementCount: cfg.Instrument.MaxStatementCount,
			ClosePrefix:       closePrefix,
		},
		log: log,
	}
}

// InstrumentFiles instruments every file and reports per-file outcomes.
// Failures do not stop the run; they are collected into the returned error.
func (in *Instrumenter) InstrumentFiles(filenames []string) (*models.RunResult, error) {
	startTime := time.Now()
	result := models.NewRunResult()
	result.DryRun = in.cfg.Output.DryRun

	var errs *multierror.Error
	for _, dir := range groupByDir(filenames) {
		if err := in.instrumentDir(dir.files, result); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	result.RunDuration = time.Since(startTime).String()
	return result, errs.ErrorOrNil()
}

type dirFiles struct {
	dir   string
	files []string
}

func groupByDir(filenames []string) []dirFiles {
	byDir := make(map[string][]string)
	for _, f := range filenames {
		dir := filepath.Dir(f)
		byDir[dir] = append(byDir[dir], f)
	}
	groups := make([]dirFiles, 0, len(byDir))
	for dir, files := range byDir {
		sort.Strings(files)
		groups = append(groups, dirFiles{dir: dir, files: files})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].dir < groups[j].dir })
	return groups
}

// instrumentDir parses one directory, type-checks it package by package and
// rewrites every file.
func (in *Instrumenter) instrumentDir(filenames []string, result *models.RunResult) error {
	var errs *multierror.Error
	fset := token.NewFileSet()

	packages := make(map[string][]*sourceFile)
	var order []string
	for _, filename := range filenames {
		sf, skip, err := in.parseFile(fset, filename)
		switch {
		case err != nil:
			in.log.Error().Err(err).Str("file", filename).Msg("parse failed")
			result.AddFile(models.FileResult{File: filename, Status: models.StatusFailed, Error: err.Error()})
			errs = multierror.Append(errs, err)
			continue
		case skip != "":
			in.log.Debug().Str("file", filename).Str("reason", skip).Msg("skipped")
			result.AddFile(models.FileResult{File: filename, Status: models.StatusSkipped, Error: skip})
			continue
		}
		name := sf.file.Name.Name
		if _, ok := packages[name]; !ok {
			order = append(order, name)
		}
		packages[name] = append(packages[name], sf)
	}

	for _, name := range order {
		files := packages[name]
		asts := make([]*ast.File, len(files))
		for i, sf := range files {
			asts[i] = sf.file
		}
		info := frontend.Check(fset, asts)

		// the extern line declares a package-level name, so it goes into
		// one file per package
		externDone := false
		for _, sf := range files {
			fr, err := in.instrumentFile(fset, sf, info, externDone)
			if err != nil {
				in.log.Error().Err(err).Str("file", sf.path).Msg("instrumentation failed")
				fr.Status = models.StatusFailed
				fr.Error = err.Error()
				errs = multierror.Append(errs, err)
			} else if fr.Calls > 0 {
				externDone = true
			}
			result.AddFile(fr)
		}
	}
	return errs.ErrorOrNil()
}

func (in *Instrumenter) parseFile(fset *token.FileSet, filename string) (*sourceFile, string, error) {
	if limit := in.cfg.Files.MaxFileSize; limit > 0 {
		st, err := os.Stat(filename)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", filename, err)
		}
		if st.Size() > int64(limit)*1024 {
			return nil, fmt.Sprintf("larger than %d KB", limit), nil
		}
	}

	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", filename, err)
	}
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", filename, err)
	}
	if ast.IsGenerated(file) {
		return nil, "generated file", nil
	}
	return &sourceFile{path: filename, src: src, file: file}, "", nil
}

func (in *Instrumenter) instrumentFile(fset *token.FileSet, sf *sourceFile, info *types.Info, externDone bool) (models.FileResult, error) {
	fr := models.FileResult{File: sf.path, Status: models.StatusUnchanged}

	include, extern := in.cfg.Instrument.Include, in.cfg.Instrument.Extern
	if externDone && extern != "" {
		// the package already declares the counting function
		include, extern = "", ""
	}
	if imports(sf.file, include) {
		include = ""
	}
	opts := in.opts
	opts.Header = header(include, extern)

	root := frontend.Build(fset, sf.file, info)
	buf := rewrite.NewBuffer(sf.src)
	stats, err := engine.New(in.model, opts).Instrument(root, buf)
	if err != nil {
		return fr, fmt.Errorf("%s: %w", sf.path, err)
	}
	fr.Calls = stats.Calls
	fr.Ticks = stats.Ticks
	fr.Functions = stats.Functions

	if buf.Len() == 0 && in.cfg.Output.Directory == "" {
		return fr, nil
	}

	out := buf.Bytes()
	if in.cfg.Output.Gofmt {
		if formatted, err := format.Source(out); err != nil {
			in.log.Warn().Err(err).Str("file", sf.path).Msg("gofmt failed, keeping unformatted output")
		} else {
			out = formatted
			fr.Formatted = true
		}
	}
	if buf.Len() > 0 {
		fr.Status = models.StatusInstrumented
	}

	fr.Output = in.destination(sf.path)
	if in.cfg.Output.DryRun {
		in.log.Debug().Str("file", sf.path).Int("calls", fr.Calls).Msg("dry run, nothing written")
		return fr, nil
	}
	if err := os.MkdirAll(filepath.Dir(fr.Output), 0755); err != nil {
		return fr, fmt.Errorf("%s: %w", sf.path, err)
	}
	if err := os.WriteFile(fr.Output, out, 0644); err != nil {
		return fr, fmt.Errorf("%s: %w", sf.path, err)
	}
	in.log.Debug().Str("file", sf.path).Str("output", fr.Output).Int("calls", fr.Calls).Msg("written")
	return fr, nil
}

// destination returns where the instrumented text of filename is written.
func (in *Instrumenter) destination(filename string) string {
	out := in.cfg.Output
	switch {
	case out.Directory != "":
		return filepath.Join(out.Directory, relativePath(filename))
	case out.Suffix != "":
		return strings.TrimSuffix(filename, ".go") + out.Suffix + ".go"
	default:
		return filename
	}
}

func relativePath(filename string) string {
	if !filepath.IsAbs(filename) {
		if rel := filepath.Clean(filename); !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	abs, err := filepath.Abs(filename)
	if err != nil {
		return filepath.Base(filename)
	}
	wd, err := os.Getwd()
	if err != nil {
		return filepath.Base(filename)
	}
	rel, err := filepath.Rel(wd, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(filename)
	}
	return rel
}

// header renders the import and declaration lines placed ahead of the first
// declaration of an instrumented file.
func header(include, extern string) string {
	var b strings.Builder
	if include != "" {
		b.WriteString("import " + importSpec(include) + "\n")
	}
	if extern != "" {
		b.WriteString(extern + "\n")
	}
	return b.String()
}

// importSpec quotes a bare import path. Specs that already carry quotes or
// an alias are returned unchanged.
func importSpec(include string) string {
	include = strings.TrimSpace(include)
	if strings.ContainsAny(include, "\"`") {
		return include
	}
	return `"` + include + `"`
}

// imports reports whether file already imports the package named by spec.
func imports(file *ast.File, spec string) bool {
	if spec == "" {
		return false
	}
	want := spec
	if i := strings.IndexAny(spec, "\"`"); i >= 0 {
		want = spec[i:]
	}
	want, err := strconv.Unquote(strings.TrimSpace(want))
	if err != nil {
		want = strings.TrimSpace(spec)
	}
	for _, imp := range file.Imports {
		if p, err := strconv.Unquote(imp.Path.Value); err == nil && p == want {
			return true
		}
	}
	return false
}
