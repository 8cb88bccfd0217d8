package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"cinder/interpreter-go/pkg/driver"
	"cinder/interpreter-go/pkg/interpreter"
	"cinder/interpreter-go/pkg/parser"
	"cinder/interpreter-go/pkg/runtime"
	"cinder/interpreter-go/pkg/stdlib"
)

const (
	replFile    = "<repl>"
	historyFile = ".cinder_history"
	promptMain  = "cinder> "
	promptCont  = "   ...> "
)

// replSession evaluates REPL input against one persistent environment.
type replSession struct {
	interp *interpreter.Interpreter
	loader *driver.Loader
	out    io.Writer
	errOut io.Writer
}

func newREPLSession(out, errOut io.Writer, searchPaths []string, logger *zap.Logger) *replSession {
	loader := driver.NewLoader(searchPaths, driver.WithLoaderLogger(logger))
	interp := interpreter.New(
		interpreter.WithLogger(logger),
		interpreter.WithIncluder(loader),
		interpreter.WithStdout(out),
		interpreter.WithStdin(stdin),
	)
	stdlib.Install(interp)
	return &replSession{interp: interp, loader: loader, out: out, errOut: errOut}
}

// eval runs one complete input and echoes its value unless it is null.
// Errors are reported and leave earlier definitions in place.
func (s *replSession) eval(src string) bool {
	v, err := s.interp.EvaluateSource(src, replFile)
	s.interp.Executor().Flush()
	if err != nil {
		sources := s.loader.Sources()
		sources[replFile] = src
		fmt.Fprintln(s.errOut, driver.FormatDiagnostic(err, sources))
		return false
	}
	if v != nil && v.Kind() != runtime.KindNull {
		fmt.Fprintln(s.out, s.interp.Format(s.interp.Environment(), v))
	}
	return true
}

// needsMore reports whether src only failed to parse because it ended early.
func needsMore(src string) bool {
	_, err := parser.ParseSource(src, replFile)
	var perr *parser.ParseError
	return errors.As(err, &perr) && perr.Incomplete()
}

func runREPL(args []string, logger *zap.Logger) int {
	if len(args) > 0 {
		fmt.Fprintf(stderr, "cinder repl does not take arguments (received %s)\n", strings.Join(args, " "))
		return 1
	}
	fmt.Fprintf(stdout, "%s (type :quit to exit)\n", cliToolVersion)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}
	defer func() {
		if histPath == "" {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	session := newREPLSession(stdout, stderr, collectSearchPaths(), logger)
	for {
		code, ok := readByParseProbe(ln)
		if !ok {
			fmt.Fprintln(stdout)
			return 0
		}
		trimmed := strings.TrimSpace(code)
		switch {
		case trimmed == "":
			continue
		case trimmed == ":quit" || trimmed == ":q":
			return 0
		case strings.HasPrefix(trimmed, ":"):
			fmt.Fprintln(stdout, "unknown command. Type :quit to exit.")
			continue
		}
		session.eval(code)
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
}

// readByParseProbe keeps prompting for continuation lines while the buffered
// input is an incomplete program. ok is false at end of input.
func readByParseProbe(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || !needsMore(src) {
			return src, true
		}
	}
}
