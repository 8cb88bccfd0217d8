package driver

import (
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"cinder/interpreter-go/pkg/ast"
	"cinder/interpreter-go/pkg/interpreter"
	"cinder/interpreter-go/pkg/runtime"
	"cinder/interpreter-go/pkg/stdlib"
)

// Program runs one entry file with the standard library installed and
// includes resolved from disk.
type Program struct {
	Entry       string
	SearchPaths []string
	Logger      *zap.Logger
	Stdout      io.Writer
	Stdin       io.Reader

	loader *Loader
}

// Run evaluates the entry file and waits for spawned tasks to settle.
func (p *Program) Run() (runtime.Value, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	p.loader = NewLoader(p.SearchPaths, WithLoaderLogger(logger))
	opts := []interpreter.Option{
		interpreter.WithLogger(logger),
		interpreter.WithIncluder(p.loader),
	}
	if p.Stdout != nil {
		opts = append(opts, interpreter.WithStdout(p.Stdout))
	}
	if p.Stdin != nil {
		opts = append(opts, interpreter.WithStdin(p.Stdin))
	}
	interp := interpreter.New(opts...)
	stdlib.Install(interp)

	logger.Debug("run program", zap.String("entry", p.Entry), zap.Strings("search_paths", p.loader.SearchPaths()))
	v, err := p.loader.Run(interp, p.Entry)
	interp.Executor().Flush()
	return v, err
}

// Sources returns the text of every file read by the last Run.
func (p *Program) Sources() map[string]string {
	if p.loader == nil {
		return nil
	}
	return p.loader.Sources()
}

// CollectSources parses entry and every file reachable through top-level
// include directives without running anything. Files are returned in
// first-seen order, entry first.
func CollectSources(entry string, searchPaths []string) ([]string, error) {
	path, err := filepath.Abs(entry)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", entry, err)
	}
	loader := NewLoader(append([]string{filepath.Dir(path)}, searchPaths...))
	seen := map[string]bool{}
	var files []string
	var visit func(string) error
	visit = func(file string) error {
		if seen[file] {
			return nil
		}
		seen[file] = true
		files = append(files, file)
		program, err := loader.Parse(file)
		if err != nil {
			return err
		}
		for _, stmt := range program.Body {
			directive, ok := stmt.(*ast.IncludeDirective)
			if !ok {
				continue
			}
			for _, p := range directive.Paths {
				resolved, err := loader.Resolve(p)
				if err != nil {
					return fmt.Errorf("%s: %w", directive.Origin().Position(), err)
				}
				if err := visit(resolved); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := visit(path); err != nil {
		return files, err
	}
	return files, nil
}
