package parser_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cinder/interpreter-go/pkg/ast"
	"cinder/interpreter-go/pkg/parser"
)

// sexpr renders a tree compactly so tests can compare shapes.
func sexpr(node ast.Node) string {
	switch n := node.(type) {
	case nil:
		return "_"
	case *ast.NumberLiteral:
		return fmt.Sprintf("%g", n.Value)
	case *ast.StringLiteral:
		return fmt.Sprintf("%q", n.Value)
	case *ast.BoolLiteral:
		return fmt.Sprintf("%t", n.Value)
	case *ast.NullLiteral:
		return "null"
	case *ast.Variable:
		return n.Name
	case *ast.ListLiteral:
		return "(list" + joinExprs(n.Elements) + ")"
	case *ast.TupleLiteral:
		return "(tuple" + joinExprs(n.Elements) + ")"
	case *ast.DictLiteral:
		var b strings.Builder
		b.WriteString("(dict")
		for _, e := range n.Entries {
			b.WriteString(" " + sexpr(e.Key) + ":" + sexpr(e.Value))
		}
		return b.String() + ")"
	case *ast.RangeLiteral:
		op := ".."
		if n.Inclusive {
			op = "..="
		}
		if n.Step != nil {
			return fmt.Sprintf("(%s %s %s %s)", op, sexpr(n.Start), sexpr(n.End), sexpr(n.Step))
		}
		return fmt.Sprintf("(%s %s %s)", op, sexpr(n.Start), sexpr(n.End))
	case *ast.BinaryOp:
		return fmt.Sprintf("(%s %s %s)", n.Operator, sexpr(n.Left), sexpr(n.Right))
	case *ast.LogicalOp:
		return fmt.Sprintf("(%s %s %s)", n.Operator, sexpr(n.Left), sexpr(n.Right))
	case *ast.UnaryOp:
		return fmt.Sprintf("(%s %s)", n.Operator, sexpr(n.Operand))
	case *ast.MemberAccess:
		return fmt.Sprintf("(. %s %s)", sexpr(n.Object), n.Member)
	case *ast.IndexAccess:
		return fmt.Sprintf("([] %s %s)", sexpr(n.Object), sexpr(n.Index))
	case *ast.FunctionCall:
		return "(call " + sexpr(n.Callee) + joinExprs(n.Arguments) + ")"
	case *ast.LetDeclaration:
		kw := "let"
		if n.Constant {
			kw = "const"
		}
		return fmt.Sprintf("(%s %s %s)", kw, n.Name, sexpr(n.Value))
	case *ast.Assignment:
		return fmt.Sprintf("(= %s %s)", n.Name, sexpr(n.Value))
	case *ast.MemberAssignment:
		return fmt.Sprintf("(set %s %s)", sexpr(n.Target), sexpr(n.Value))
	case *ast.ShorthandAssignment:
		return fmt.Sprintf("(%s %s %s)", n.Operator, sexpr(n.Target), sexpr(n.Value))
	case *ast.Block:
		return "{" + joinStmts(n.Body) + "}"
	case *ast.FunctionDef:
		return fmt.Sprintf("(func %s [%s] %s)", n.Name, strings.Join(n.Params, " "), sexpr(n.Body))
	case *ast.ClassDef:
		var b strings.Builder
		b.WriteString("(class " + n.Name)
		for _, f := range n.Fields {
			b.WriteString(fmt.Sprintf(" (field %s %s)", f.Name, sexpr(f.Value)))
		}
		if n.Constructor != nil {
			b.WriteString(" " + sexpr(n.Constructor))
		}
		for _, m := range n.Methods {
			b.WriteString(" " + sexpr(m))
		}
		return b.String() + ")"
	case *ast.If:
		var b strings.Builder
		b.WriteString(fmt.Sprintf("(if %s %s", sexpr(n.Condition), sexpr(n.Then)))
		for _, e := range n.Elifs {
			b.WriteString(fmt.Sprintf(" (elif %s %s)", sexpr(e.Condition), sexpr(e.Body)))
		}
		if n.Else != nil {
			b.WriteString(" (else " + sexpr(n.Else) + ")")
		}
		return b.String() + ")"
	case *ast.While:
		return fmt.Sprintf("(while %s %s)", sexpr(n.Condition), sexpr(n.Body))
	case *ast.For:
		return fmt.Sprintf("(for %s %s %s)", n.Variable, sexpr(n.Iterable), sexpr(n.Body))
	case *ast.Switch:
		var b strings.Builder
		b.WriteString("(switch " + sexpr(n.Subject))
		for _, c := range n.Cases {
			b.WriteString(" (case" + joinExprs(c.Values) + " " + sexpr(c.Body) + ")")
		}
		if n.Default != nil {
			b.WriteString(" (default " + sexpr(n.Default) + ")")
		}
		return b.String() + ")"
	case *ast.Return:
		return "(return " + sexpr(n.Value) + ")"
	case *ast.Break:
		return "(break " + sexpr(n.Value) + ")"
	case *ast.Continue:
		return "(continue)"
	case *ast.Out:
		return "(out " + sexpr(n.Value) + ")"
	case *ast.UsingDirective:
		s := "(using " + strings.Join(n.Path, ".")
		switch {
		case n.Wildcard:
			s += ".*"
		case len(n.Selectors) > 0:
			s += ".{" + strings.Join(n.Selectors, ",") + "}"
		case n.Alias != "":
			s += " as " + n.Alias
		}
		return s + ")"
	case *ast.NamespaceDirective:
		kw := "namespace"
		if n.Mutable {
			kw = "namespace-mut"
		}
		return fmt.Sprintf("(%s %s %s)", kw, strings.Join(n.Path, "."), sexpr(n.Body))
	case *ast.IncludeDirective:
		return "(include " + strings.Join(n.Paths, " ") + ")"
	default:
		return fmt.Sprintf("<%T>", node)
	}
}

func joinExprs(exprs []ast.Expression) string {
	var b strings.Builder
	for _, e := range exprs {
		b.WriteString(" " + sexpr(e))
	}
	return b.String()
}

func joinStmts(stmts []ast.Statement) string {
	parts := make([]string, 0, len(stmts))
	for _, s := range stmts {
		parts = append(parts, sexpr(s))
	}
	return strings.Join(parts, " ")
}

func parseShapes(t *testing.T, source string) []string {
	t.Helper()
	program, err := parser.ParseSource(source, "test.cin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	shapes := make([]string, 0, len(program.Body))
	for _, stmt := range program.Body {
		shapes = append(shapes, sexpr(stmt))
	}
	return shapes
}

func TestParseShapes(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   []string
	}{
		{"precedence", "1 + 2 * 3 - 4", []string{"(- (+ 1 (* 2 3)) 4)"}},
		{"power is right associative", "2 ^ 3 ^ 2", []string{"(^ 2 (^ 3 2))"}},
		{"unary binds looser than power", "-2 ^ 2", []string{"(- (^ 2 2))"}},
		{"floor division", "7 // 2 % 3", []string{"(% (// 7 2) 3)"}},
		{"comparison above range", "1..3 == r", []string{"(== (.. 1 3) r)"}},
		{"inclusive range with step", "0..=10 step 2", []string{"(..= 0 10 2)"}},
		{"logic layering", "a || b && c ?? d", []string{"(?? (|| a (&& b c)) d)"}},
		{"postfix chain", "a.b.c(d)[e]::f", []string{"(. ([] (call (. (. a b) c) d) e) f)"}},
		{"interpolation", `$"x={x}"`, []string{`($ "x={x}")`}},
		{"not", "!done", []string{"(! done)"}},
		{"tuple and group", "(1, 2); (3); (); (4,)", []string{"(tuple 1 2)", "3", "(tuple)", "(tuple 4)"}},
		{"list", "[1, [2], \n 3,]", []string{"(list 1 (list 2) 3)"}},
		{"dict", "d = {name: 1, \"k\": 2, 3: x}", []string{`(= d (dict "name":1 "k":2 3:x))`}},
		{"let and const", "let x = 1; let const y = 2; let z", []string{"(let x 1)", "(const y 2)", "(let z _)"}},
		{"assignments", "x = 1; a.b = 2; a[0] = 3", []string{"(= x 1)", "(set (. a b) 2)", "(set ([] a 0) 3)"}},
		{"shorthand", "x += 2; a.n *= 3; i++; xs[0]--", []string{"(+= x 2)", "(*= (. a n) 3)", "(++ i _)", "(-- ([] xs 0) _)"}},
		{"bare block", "{ let x = 2 }", []string{"{(let x 2)}"}},
		{"if chain", "if a { 1 }\nelif b { 2 } else { 3 }", []string{"(if a {1} (elif b {2}) (else {3}))"}},
		{"else if", "if a { 1 } else if b { 2 }", []string{"(if a {1} (else {(if b {2})}))"}},
		{"if does not swallow next statement", "if a { 1 }\nx", []string{"(if a {1})", "x"}},
		{"while", "while i < 3 { i++ }", []string{"(while (< i 3) {(++ i _)})"}},
		{"for with out", "for i in 1..3 { out i }", []string{"(for i (.. 1 3) {(out i)})"}},
		{"loop as expression", "let xs = for i in xs { out i * 2 }", []string{"(let xs (for i xs {(out (* i 2))}))"}},
		{"switch", "switch x {\ncase 1, 2 { a }\ncase 3 { b }\ndefault { c }\n}", []string{"(switch x (case 1 2 {a}) (case 3 {b}) (default {c}))"}},
		{"exits", "func f() { return }\nwhile true { break 5; continue }", []string{"(func f [] {(return _)})", "(while true {(break 5) (continue)})"}},
		{"function", "func add(a, b) {\n  return a + b\n}", []string{"(func add [a b] {(return (+ a b))})"}},
		{"anonymous arrow", "let f = func(x) => x * 2", []string{"(let f (func  [x] {(* x 2)}))"}},
		{"anonymous block", "map(xs, func(x) { x })", []string{"(call map xs (func  [x] {x}))"}},
		{"class", "class P {\n let x = 1\n init(self, v) { self.x = v }\n func get(self) { self.x }\n}", []string{"(class P (field x 1) (func init [self v] {(set (. self x) v)}) (func get [self] {(. self x)}))"}},
		{"using forms", "using math\nusing a.b as c\nusing a.*\nusing a.{b, c}", []string{"(using math)", "(using a.b as c)", "(using a.*)", "(using a.{b,c})"}},
		{"namespace", "namespace mut app.util { let v = 1 }", []string{"(namespace-mut app.util {(let v 1)})"}},
		{"namespace named mut", "namespace mut { }", []string{"(namespace mut {})"}},
		{"include", "include \"a.cin\"\ninclude [\"b.cin\", \"c.cin\"]", []string{"(include a.cin)", "(include b.cin c.cin)"}},
		{"keyword member", "x.default", []string{"(. x default)"}},
		{"operator continues after newline", "let x = 1 +\n 2", []string{"(let x (+ 1 2))"}},
		{"comments ignored", "# heading\nx # trailing\n", []string{"x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseShapes(t, tc.source)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("shape mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name    string
		source  string
		message string
		lexeme  string
	}{
		{"missing paren", "f(1, 2", "expected ',' or ')' in argument list", ""},
		{"unexpected token", "let x = )", "unexpected ')'", ")"},
		{"two statements on one line", "x y", "expected newline or ';' after statement", "y"},
		{"include nested", "if x { include \"a.cin\" }", "include is only allowed at the top level", "include"},
		{"invalid target", "1 = 2", "invalid assignment target", "1"},
		{"const without value", "let const x", "needs an initializer", ""},
		{"duplicate parameter", "func f(a, a) { }", "duplicate parameter 'a'", "a"},
		{"reserved name", "let if = 1", "expected identifier after 'let'", "if"},
		{"stray keyword", "x = else", "unexpected keyword 'else'", "else"},
		{"bad class member", "class A { x }", "expected 'let', 'init', 'func' or '}'", "x"},
		{"unclosed block", "while x {", "to close block", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parser.ParseSource(tc.source, "bad.cin")
			if err == nil {
				t.Fatalf("expected parse error")
			}
			var perr *parser.ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if !strings.Contains(perr.Message, tc.message) {
				t.Fatalf("expected message containing %q, got %q", tc.message, perr.Message)
			}
			if perr.Token.Lexeme != tc.lexeme {
				t.Fatalf("expected error at %q, got %q (%s)", tc.lexeme, perr.Token.Lexeme, perr.Token.Position())
			}
		})
	}
}

func TestParseErrorIncomplete(t *testing.T) {
	_, err := parser.ParseSource("func f() {\n  return 1\n", "")
	var perr *parser.ParseError
	if !errors.As(err, &perr) || !perr.Incomplete() {
		t.Fatalf("expected incomplete input error, got %v", err)
	}
	_, err = parser.ParseSource("let = 1", "")
	if !errors.As(err, &perr) || perr.Incomplete() {
		t.Fatalf("expected a complete-input error, got %v", err)
	}
}

func TestParseErrorCarriesPosition(t *testing.T) {
	_, err := parser.ParseSource("let a = 1\nlet b = (2", "pos.cin")
	var perr *parser.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if perr.Token.Line != 2 || perr.Token.File != "pos.cin" {
		t.Fatalf("expected error on pos.cin line 2, got %s", perr.Token.Position())
	}
	if !strings.HasPrefix(err.Error(), "parser: pos.cin:2:") {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}

func TestParseExpression(t *testing.T) {
	expr, err := parser.ParseExpression("\n a + b.c \n", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sexpr(expr); got != "(+ a (. b c))" {
		t.Fatalf("unexpected expression %s", got)
	}
	if _, err := parser.ParseExpression("a b", ""); err == nil {
		t.Fatalf("expected error for trailing tokens")
	}
}

func TestNodesCarryOriginTokens(t *testing.T) {
	program, err := parser.ParseSource("let x = 1\n  y = x + 2", "origin.cin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assign, ok := program.Body[1].(*ast.Assignment)
	if !ok {
		t.Fatalf("expected assignment, got %T", program.Body[1])
	}
	if tok := assign.Origin(); tok.Line != 2 || tok.Column != 3 || tok.Lexeme != "y" {
		t.Fatalf("unexpected origin %v at %s", tok, tok.Position())
	}
	bin := assign.Value.(*ast.BinaryOp)
	if tok := bin.Origin(); tok.Lexeme != "+" || tok.Column != 9 {
		t.Fatalf("unexpected operator origin %v at %s", tok, tok.Position())
	}
}
