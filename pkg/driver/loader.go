// Package driver loads Cinder programs from disk: it resolves includes,
// reads package manifests, fetches dependencies and renders diagnostics.
package driver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cinder/interpreter-go/pkg/ast"
	"cinder/interpreter-go/pkg/interpreter"
	"cinder/interpreter-go/pkg/parser"
	"cinder/interpreter-go/pkg/runtime"
)

// SourceExt is the extension of Cinder source files.
const SourceExt = ".cin"

// Loader resolves and runs files for one program. It implements
// interpreter.Includer: every included file runs in the includer's
// environment, at most once.
type Loader struct {
	searchPaths []string
	logger      *zap.Logger

	mu      sync.Mutex
	sources map[string]string
	order   []string
	active  map[string]bool
	done    map[string]bool
}

type LoaderOption func(*Loader)

func WithLoaderLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader returns a loader that looks for includes relative to the working
// directory, then in searchPaths in order.
func NewLoader(searchPaths []string, opts ...LoaderOption) *Loader {
	l := &Loader{
		logger:  zap.NewNop(),
		sources: make(map[string]string),
		active:  make(map[string]bool),
		done:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.AddSearchPath(searchPaths...)
	return l
}

// AddSearchPath appends existing directories that are not already listed.
func (l *Loader) AddSearchPath(paths ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, path := range paths {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			continue
		}
		dup := false
		for _, existing := range l.searchPaths {
			if existing == abs {
				dup = true
				break
			}
		}
		if !dup {
			l.searchPaths = append(l.searchPaths, abs)
		}
	}
}

func (l *Loader) SearchPaths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.searchPaths...)
}

// Resolve finds the file an include path names.
func (l *Loader) Resolve(path string) (string, error) {
	candidates := []string{path}
	if !filepath.IsAbs(path) {
		for _, dir := range l.SearchPaths() {
			candidates = append(candidates, filepath.Join(dir, path))
		}
	}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return filepath.Abs(candidate)
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
	}
	return "", interpreter.Errorf(interpreter.KindIncludeError, "cannot find %q in the working directory or search paths", path)
}

// Parse reads and parses a resolved file, keeping its source for
// diagnostics.
func (l *Loader) Parse(path string) (*ast.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	source := string(data)
	l.mu.Lock()
	if _, seen := l.sources[path]; !seen {
		l.order = append(l.order, path)
	}
	l.sources[path] = source
	l.mu.Unlock()
	return parser.ParseSource(source, path)
}

// Sources returns every file read so far, keyed by path.
func (l *Loader) Sources() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]string, len(l.sources))
	for k, v := range l.sources {
		out[k] = v
	}
	return out
}

// Files lists the files read so far in load order.
func (l *Loader) Files() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

// Run executes the entry file. Its directory becomes the first search path.
func (l *Loader) Run(interp *interpreter.Interpreter, entry string) (runtime.Value, error) {
	path, err := filepath.Abs(entry)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", entry, err)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("load %s: %w", entry, err)
	}
	l.mu.Lock()
	l.searchPaths = append([]string{filepath.Dir(path)}, l.searchPaths...)
	l.mu.Unlock()

	program, err := l.Parse(path)
	if err != nil {
		return nil, err
	}
	return l.execute(interp, path, program)
}

// Include implements interpreter.Includer. The listed files are parsed
// concurrently and then run in order.
func (l *Loader) Include(interp *interpreter.Interpreter, directive *ast.IncludeDirective) error {
	paths := make([]string, len(directive.Paths))
	for idx, p := range directive.Paths {
		resolved, err := l.Resolve(p)
		if err != nil {
			return err
		}
		paths[idx] = resolved
	}

	programs := make([]*ast.Program, len(paths))
	var g errgroup.Group
	for idx, path := range paths {
		idx, path := idx, path
		if l.isDone(path) {
			continue
		}
		g.Go(func() error {
			program, err := l.Parse(path)
			if err != nil {
				return includeError(err)
			}
			programs[idx] = program
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for idx, path := range paths {
		if programs[idx] == nil {
			l.logger.Debug("skip included file", zap.String("file", path))
			continue
		}
		if _, err := l.execute(interp, path, programs[idx]); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) execute(interp *interpreter.Interpreter, path string, program *ast.Program) (runtime.Value, error) {
	l.mu.Lock()
	if l.active[path] {
		l.mu.Unlock()
		return nil, interpreter.Errorf(interpreter.KindIncludeError, "cyclic include of %s", path)
	}
	if l.done[path] {
		l.mu.Unlock()
		return runtime.Null, nil
	}
	l.active[path] = true
	l.mu.Unlock()

	l.logger.Debug("run file", zap.String("file", path))
	v, err := interp.ExecuteProgram(program)

	l.mu.Lock()
	delete(l.active, path)
	l.done[path] = true
	l.mu.Unlock()
	return v, err
}

func (l *Loader) isDone(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done[path] && !l.active[path]
}

// includeError positions a parse failure in an included file at the failing
// token rather than at the include directive.
func includeError(err error) error {
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		return &interpreter.RuntimeError{Kind: interpreter.KindIncludeError, Message: perr.Message, Token: perr.Token, Cause: err}
	}
	return &interpreter.RuntimeError{Kind: interpreter.KindIncludeError, Message: err.Error(), Cause: err}
}

var _ interpreter.Includer = (*Loader)(nil)
