package interpreter

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/golang/groupcache/lru"

	"cinder/interpreter-go/pkg/ast"
	"cinder/interpreter-go/pkg/parser"
	"cinder/interpreter-go/pkg/runtime"
	"cinder/interpreter-go/pkg/token"
)

const defaultTemplateCacheSize = 256

// segment is literal text or, when expr is set, an embedded expression.
type segment struct {
	text string
	expr ast.Expression
}

// templateCache keeps parsed interpolation templates so a template inside a
// loop is only parsed once. lru.Cache is not goroutine-safe, hence the lock.
type templateCache struct {
	mu    sync.Mutex
	cache *lru.Cache
}

// templateKey includes the template's position because parsed segments
// carry source positions.
type templateKey struct {
	template     string
	file         string
	line, column int
}

func newTemplateCache(size int) *templateCache {
	return &templateCache{cache: lru.New(size)}
}

func (c *templateCache) get(key templateKey) ([]segment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]segment), true
}

func (c *templateCache) add(key templateKey, segs []segment) {
	c.mu.Lock()
	c.cache.Add(key, segs)
	c.mu.Unlock()
}

func (c *templateCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

// interpolate renders template, replacing each {expr} with the formatted
// value of expr in the current scope. {{ and }} stand for literal braces.
// tok is the string literal holding the template when there is one, else
// the $ operator.
func (i *Interpreter) interpolate(template string, tok token.Token, env *runtime.Environment) (Result, error) {
	key := templateKey{template: template, file: tok.File, line: tok.Line, column: tok.Column}
	segs, ok := i.templates.get(key)
	if !ok {
		var err error
		segs, err = parseTemplate(template, tok)
		if err != nil {
			return Result{}, err
		}
		i.templates.add(key, segs)
	}
	var b strings.Builder
	for _, seg := range segs {
		if seg.expr == nil {
			b.WriteString(seg.text)
			continue
		}
		res, err := i.evaluate(seg.expr, env)
		if err != nil || res.escaping() {
			return res, err
		}
		b.WriteString(i.format(env, res.Value))
	}
	return resultOf(runtime.String(b.String())), nil
}

func parseTemplate(template string, tok token.Token) ([]segment, error) {
	var (
		segs []segment
		text strings.Builder
	)
	flush := func() {
		if text.Len() > 0 {
			segs = append(segs, segment{text: text.String()})
			text.Reset()
		}
	}
	for pos := 0; pos < len(template); pos++ {
		c := template[pos]
		switch {
		case c == '{' && pos+1 < len(template) && template[pos+1] == '{':
			text.WriteByte('{')
			pos++
		case c == '}' && pos+1 < len(template) && template[pos+1] == '}':
			text.WriteByte('}')
			pos++
		case c == '{':
			end, err := closingBrace(template, pos+1, tok)
			if err != nil {
				return nil, err
			}
			source := template[pos+1 : end]
			if strings.TrimSpace(source) == "" {
				return nil, errorAt(tok, KindValueError, "empty interpolation in %q", template)
			}
			line, column := templatePosition(tok, template, pos+1)
			expr, err := parser.ParseExpressionAt(source, tok.File, line, column)
			if err != nil {
				return nil, &RuntimeError{Kind: KindValueError, Message: "invalid interpolation {" + source + "}: " + err.Error(), Token: tok, Cause: err}
			}
			flush()
			segs = append(segs, segment{expr: expr})
			pos = end
		default:
			text.WriteByte(c)
		}
	}
	flush()
	return segs, nil
}

// templatePosition maps the byte offset of template to a line and column in
// the file holding tok. Escapes in a string literal's raw text are taken
// into account; a template without a literal maps to tok itself.
func templatePosition(tok token.Token, template string, offset int) (int, int) {
	line, column := tok.Line, tok.Column
	if tok.Kind != token.String {
		return line, column
	}
	column++
	raw, escaped := []rune(tok.Raw), true
	if tok.Raw == "" {
		raw, escaped = []rune(template), false
	}
	target := utf8.RuneCountInString(template[:offset])
	for r, resolved := 0, 0; r < len(raw) && resolved < target; resolved++ {
		switch {
		case escaped && raw[r] == '\\' && r+1 < len(raw):
			if raw[r+1] == '\n' {
				line, column = line+1, 1
			} else {
				column += 2
			}
			r += 2
		case raw[r] == '\n':
			line, column = line+1, 1
			r++
		default:
			column++
			r++
		}
	}
	return line, column
}

// closingBrace finds the brace closing an interpolation that starts at from,
// skipping nested braces and quoted strings.
func closingBrace(template string, from int, tok token.Token) (int, error) {
	depth := 0
	var quote byte
	for pos := from; pos < len(template); pos++ {
		c := template[pos]
		switch {
		case quote != 0:
			if c == '\\' {
				pos++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '{':
			depth++
		case c == '}':
			if depth == 0 {
				return pos, nil
			}
			depth--
		}
	}
	return 0, errorAt(tok, KindValueError, "unterminated interpolation in %q", template)
}
