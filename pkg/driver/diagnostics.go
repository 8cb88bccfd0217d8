package driver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cinder/interpreter-go/pkg/interpreter"
	"cinder/interpreter-go/pkg/parser"
	"cinder/interpreter-go/pkg/token"
)

// Diagnostic is a positioned error ready for display.
type Diagnostic struct {
	Kind    string
	Message string
	Token   token.Token
}

// DiagnosticFor extracts the position and message from a parse or runtime
// error. ok is false for errors without a source position.
func DiagnosticFor(err error) (Diagnostic, bool) {
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		return Diagnostic{Kind: "ParseError", Message: perr.Message, Token: perr.Token}, perr.Token.Line > 0
	}
	var rerr *interpreter.RuntimeError
	if errors.As(err, &rerr) {
		return Diagnostic{Kind: string(rerr.Kind), Message: rerr.Message, Token: rerr.Token}, rerr.Token.Line > 0
	}
	return Diagnostic{}, false
}

// FormatDiagnostic renders err as "file:line:col: Kind: message" followed by
// the offending source line and a caret under the token. sources maps file
// names to their contents; without the source only the header is printed.
func FormatDiagnostic(err error, sources map[string]string) string {
	diag, ok := DiagnosticFor(err)
	if !ok {
		return err.Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s: %s", diag.Token.Position(), diag.Kind, diag.Message)

	line, found := sourceLine(sources[diag.Token.File], diag.Token.Line)
	if !found {
		return b.String()
	}
	gutter := strconv.Itoa(diag.Token.Line)
	pad := strings.Repeat(" ", len(gutter))
	col := max(diag.Token.Column-1, 0)
	runes := []rune(line)
	prefix := make([]rune, 0, col)
	for idx := 0; idx < col && idx < len(runes); idx++ {
		if runes[idx] == '\t' {
			prefix = append(prefix, '\t')
		} else {
			prefix = append(prefix, ' ')
		}
	}
	fmt.Fprintf(&b, "\n%s | %s\n%s | %s%s", gutter, line, pad, string(prefix), strings.Repeat("^", diag.Token.Width()))
	return b.String()
}

func sourceLine(source string, line int) (string, bool) {
	if source == "" || line < 1 {
		return "", false
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[line-1], "\r"), true
}
