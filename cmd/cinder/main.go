package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cinder/interpreter-go/pkg/driver"
)

const cliToolVersion = "cinder 0.1.0-dev"

// Overridden in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	stdin  io.Reader = os.Stdin
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	args, verbose := extractVerbose(args)
	logger := newLogger(verbose || strings.EqualFold(os.Getenv("CINDER_LOG"), "debug"))
	defer func() { _ = logger.Sync() }()

	if len(args) == 0 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(stdout, cliToolVersion)
		return 0
	case "run":
		return runEntry(args[1:], logger)
	case "init":
		return runInit(args[1:])
	case "build":
		return runBuild(args[1:], logger)
	case "deps":
		return runDeps(args[1:], logger)
	case "repl":
		return runREPL(args[1:], logger)
	default:
		if strings.HasPrefix(args[0], "-") {
			fmt.Fprintf(stderr, "unknown flag %s\n", args[0])
			printUsage()
			return 1
		}
		return runEntry(args, logger)
	}
}

func extractVerbose(args []string) ([]string, bool) {
	out := make([]string, 0, len(args))
	verbose := false
	for _, arg := range args {
		if arg == "--verbose" || arg == "-v" {
			verbose = true
			continue
		}
		out = append(out, arg)
	}
	return out, verbose
}

func newLogger(verbose bool) *zap.Logger {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		cfg.Sampling = nil
	}
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func runEntry(args []string, logger *zap.Logger) int {
	if len(args) > 1 {
		fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(args[1:], " "))
		return 1
	}

	var (
		entry    string
		manifest *driver.Manifest
		err      error
	)
	if len(args) == 1 {
		entry = args[0]
		manifest, err = manifestNear(filepath.Dir(entry))
	} else {
		manifest, err = manifestNear(".")
		if err == nil && manifest == nil {
			fmt.Fprintln(stderr, "cinder run requires a source file (package.yml not found)")
			return 1
		}
		if manifest != nil {
			if manifest.Main == "" {
				fmt.Fprintf(stderr, "manifest %s does not declare main\n", manifest.Path)
				return 1
			}
			entry = manifest.EntryPath()
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "failed to load manifest: %v\n", err)
		return 1
	}

	searchPaths, err := manifestSearchPaths(manifest, logger)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	prog := &driver.Program{
		Entry:       entry,
		SearchPaths: collectSearchPaths(searchPaths...),
		Logger:      logger,
		Stdout:      stdout,
		Stdin:       stdin,
	}
	if _, err := prog.Run(); err != nil {
		fmt.Fprintln(stderr, driver.FormatDiagnostic(err, prog.Sources()))
		return 1
	}
	return 0
}

// manifestNear returns the closest manifest at or above dir, or nil when
// there is none.
func manifestNear(dir string) (*driver.Manifest, error) {
	path, err := driver.FindManifest(dir)
	if err != nil {
		if driver.IsManifestNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return driver.LoadManifest(path)
}

func manifestSearchPaths(manifest *driver.Manifest, logger *zap.Logger) ([]string, error) {
	if manifest == nil {
		return nil, nil
	}
	paths := append([]string{manifest.Root()}, manifest.SearchPaths()...)
	if len(manifest.Dependencies) == 0 {
		return paths, nil
	}
	deps, err := driver.ResolveDependencies(manifest, driver.NewGitFetcher(resolveCacheDir(manifest), logger))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dependencies: %w", err)
	}
	for _, dep := range deps {
		paths = append(paths, dep.Dir)
	}
	return paths, nil
}

// collectSearchPaths dedupes extra, the working directory and CINDER_PATH
// entries, dropping anything that is not an existing directory.
func collectSearchPaths(extra ...string) []string {
	seen := make(map[string]struct{})
	var paths []string

	add := func(path string) {
		if path == "" {
			return
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		paths = append(paths, abs)
	}

	for _, path := range extra {
		add(path)
	}
	if cwd, err := os.Getwd(); err == nil {
		add(cwd)
	}
	for _, part := range strings.Split(os.Getenv("CINDER_PATH"), string(os.PathListSeparator)) {
		add(strings.TrimSpace(part))
	}
	return paths
}

func resolveCacheDir(manifest *driver.Manifest) string {
	if dir := strings.TrimSpace(os.Getenv("CINDER_CACHE")); dir != "" {
		return dir
	}
	return filepath.Join(manifest.Root(), driver.DefaultCacheDir)
}

func runInit(args []string) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	version := fs.String("version", "0.1.0", "initial package version")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 1 {
		fmt.Fprintf(stderr, "cinder init takes at most one directory (received %s)\n", strings.Join(fs.Args(), " "))
		return 1
	}
	dir := "."
	if fs.NArg() == 1 {
		dir = fs.Arg(0)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		fmt.Fprintf(stderr, "cinder init: %v\n", err)
		return 1
	}
	manifestPath := filepath.Join(abs, driver.ManifestFile)
	if _, err := os.Stat(manifestPath); err == nil {
		fmt.Fprintf(stderr, "%s already exists\n", manifestPath)
		return 1
	}
	if err := os.MkdirAll(filepath.Join(abs, "src"), 0o755); err != nil {
		fmt.Fprintf(stderr, "cinder init: %v\n", err)
		return 1
	}
	manifest := &driver.Manifest{
		Name:    packageName(filepath.Base(abs)),
		Version: *version,
		Main:    "src/main" + driver.SourceExt,
	}
	if err := driver.WriteManifest(manifestPath, manifest); err != nil {
		fmt.Fprintf(stderr, "cinder init: %v\n", err)
		return 1
	}
	mainPath := filepath.Join(abs, manifest.Main)
	if _, err := os.Stat(mainPath); errors.Is(err, os.ErrNotExist) {
		greeting := fmt.Sprintf("println(\"hello from %s\")\n", manifest.Name)
		if err := os.WriteFile(mainPath, []byte(greeting), 0o644); err != nil {
			fmt.Fprintf(stderr, "cinder init: %v\n", err)
			return 1
		}
	}
	fmt.Fprintf(stdout, "created %s\n", manifestPath)
	return 0
}

// packageName lowercases a directory name into a valid manifest name.
func packageName(base string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := strings.TrimLeft(b.String(), "0123456789_-")
	if name == "" {
		return "app"
	}
	return name
}

func runBuild(args []string, logger *zap.Logger) int {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(stderr)
	outDir := fs.String("o", "dist", "output directory, relative to the package root")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	manifest, err := manifestNear(".")
	if err != nil {
		fmt.Fprintf(stderr, "failed to load manifest: %v\n", err)
		return 1
	}
	if manifest == nil {
		fmt.Fprintln(stderr, "cinder build requires a package.yml")
		return 1
	}
	if manifest.Main == "" {
		fmt.Fprintf(stderr, "manifest %s does not declare main\n", manifest.Path)
		return 1
	}
	searchPaths, err := manifestSearchPaths(manifest, logger)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	files, err := driver.CollectSources(manifest.EntryPath(), searchPaths)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	files = append(files, manifest.Path)

	dest := *outDir
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(manifest.Root(), dest)
	}
	dest = filepath.Join(dest, driver.BundleName(manifest))
	if err := driver.WriteBundle(dest, manifest.Root(), files); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	logger.Debug("bundle written", zap.String("path", dest), zap.Int("files", len(files)))
	fmt.Fprintf(stdout, "wrote %s (%d files)\n", dest, len(files))
	return 0
}

func runDeps(args []string, logger *zap.Logger) int {
	if len(args) > 0 {
		fmt.Fprintf(stderr, "cinder deps does not take arguments (received %s)\n", strings.Join(args, " "))
		return 1
	}
	manifest, err := manifestNear(".")
	if err != nil {
		fmt.Fprintf(stderr, "failed to load manifest: %v\n", err)
		return 1
	}
	if manifest == nil {
		fmt.Fprintln(stderr, "cinder deps requires a package.yml")
		return 1
	}
	if len(manifest.Dependencies) == 0 {
		fmt.Fprintln(stdout, "no dependencies")
		return 0
	}
	deps, err := driver.ResolveDependencies(manifest, driver.NewGitFetcher(resolveCacheDir(manifest), logger))
	if err != nil {
		fmt.Fprintf(stderr, "failed to resolve dependencies: %v\n", err)
		return 1
	}
	for _, dep := range deps {
		if dep.Commit != "" {
			fmt.Fprintf(stdout, "%s %s@%s -> %s\n", dep.Name, dep.Source, dep.Commit, dep.Dir)
		} else {
			fmt.Fprintf(stdout, "%s %s -> %s\n", dep.Name, dep.Source, dep.Dir)
		}
	}
	return 0
}

func printUsage() {
	fmt.Fprintln(stderr, "Usage:")
	fmt.Fprintln(stderr, "  cinder [--verbose] run [file.cin]")
	fmt.Fprintln(stderr, "  cinder [--verbose] <file.cin>")
	fmt.Fprintln(stderr, "  cinder init [-version v] [dir]")
	fmt.Fprintln(stderr, "  cinder build [-o dir]")
	fmt.Fprintln(stderr, "  cinder deps")
	fmt.Fprintln(stderr, "  cinder repl")
	fmt.Fprintln(stderr, "  cinder version")
}
