package interpreter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"cinder/interpreter-go/pkg/ast"
	"cinder/interpreter-go/pkg/runtime"
)

func newTestInterpreter(opts ...Option) (*Interpreter, *bytes.Buffer) {
	var out bytes.Buffer
	interp := New(append([]Option{WithStdout(&out)}, opts...)...)
	interp.DefineNative(runtime.NewNative("print", -1, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		parts := make([]string, len(args))
		for idx, arg := range args {
			parts[idx] = ctx.Host.Format(ctx.Env, arg)
		}
		_, err := fmt.Fprintln(ctx.Host.Stdout(), strings.Join(parts, " "))
		return runtime.Null, err
	}))
	return interp, &out
}

func evalSource(t *testing.T, source string) (string, error) {
	t.Helper()
	interp, out := newTestInterpreter()
	_, err := interp.EvaluateSource(source, "test.cin")
	return out.String(), err
}

func TestProgramOutput(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{"scope shadowing", "let x = 1\n{\n let x = 2\n print(x)\n}\nprint(x)", "2\n1\n"},
		{"out with exclusive range", "let xs = for i in 1..3 { out i }\nprint(xs)", "[1, 2]\n"},
		{"out with inclusive range", "let xs = for i in 1..=3 { out i }\nprint(xs)", "[1, 2, 3]\n"},
		{"break replaces outs", "let v = for i in 1..=5 {\n if i == 3 { break \"stop\" }\n out i\n}\nprint(v)", "stop\n"},
		{"loop without out is null", "let v = while false { }\nprint(v)", "null\n"},
		{"continue skips", "let xs = for i in 1..=4 {\n if i % 2 == 0 { continue }\n out i\n}\nprint(xs)", "[1, 3]\n"},
		{"while with outs", "let i = 0\nlet xs = while i < 3 {\n i += 1\n out i * 10\n}\nprint(xs)", "[10, 20, 30]\n"},
		{"tolerant equality", "print(0.1 + 0.2 == 0.3, 1 == 1.1)", "true false\n"},
		{"structural equality", "print([1, (2, 3)] == [1, (2, 3)], {a: 1} == {a: 1}, [1] == (1,))", "true true false\n"},
		{"cyclic list", "let xs = [1]\nxs.push(xs)\nprint(xs)", "[1, [...]]\n"},
		{"closure sees later writes", "let n = 1\nfunc get() { n }\nn = 5\nprint(get())", "5\n"},
		{"closure keeps its frame", "func counter() {\n let c = 0\n return func() {\n  c += 1\n  c\n }\n}\nlet next = counter()\nnext()\nprint(next())", "2\n"},
		{"fields before constructor", "class P {\n let x = 1\n let y = self.x + 1\n init(self, v) {\n  print(self.y)\n  self.x = v\n }\n}\nlet p = P(10)\nprint(p.x, p.y)", "2\n10 2\n"},
		{"methods bind self", "class C {\n let n = 0\n func inc(self) {\n  self.n += 1\n  self\n }\n}\nlet c = C()\nc.inc().inc()\nprint(c.n, C.name)", "2 C\n"},
		{"to_string formatting", "class V {\n let x = 1\n func to_string(self) { $\"V({self.x})\" }\n}\nprint(V(), [V()])", "V(1) [V(1)]\n"},
		{"default object formatting", "class P {\n let x = 1\n let s = \"a\"\n}\nprint(P())", "P{x: 1, s: \"a\"}\n"},
		{"missing args are null", "func f(a, b) { b ?? a }\nprint(f(1, 2), f(1))", "2 1\n"},
		{"hoisting", "print(f())\nfunc f() { 42 }", "42\n"},
		{"switch", "let x = 2\nswitch x {\ncase 1, 2 { print(\"low\") }\ndefault { print(\"high\") }\n}", "low\n"},
		{"elif chain", "let x = 5\nif x < 3 { print(\"a\") }\nelif x < 10 { print(\"b\") } else { print(\"c\") }", "b\n"},
		{"arithmetic", "print(7 // 2, 7 % 3, 2 ^ 10, \"ab\" * 2, [0] * 3, \"3\" - 1, -7 // 2)", "3 1 1024 abab [0, 0, 0] 2 -4\n"},
		{"string ordering", "print(\"a\" < \"b\", 2 >= 2, true > false)", "true true true\n"},
		{"logic", "print(null ?? 3, 0 || \"x\", 1 && 2, !0)", "3 true true true\n"},
		{"negative index", "let xs = [1, 2, 3]\nprint(xs[-1], \"héllo\"[1], xs.length)", "3 é 3\n"},
		{"dict access", "let d = {a: 1}\nd.b = 2\nd[\"c\"] = 3\nprint(d, d.a, d.length, d.keys())", "{\"a\": 1, \"b\": 2, \"c\": 3} 1 3 [\"a\", \"b\", \"c\"]\n"},
		{"nan dict keys", "let d = {}\nd[(-1) ^ 0.5] = 1\nd[\"nan\" - 0] = 2\nprint(d.length, d.keys(), d)", "1 [nan] {nan: 2}\n"},
		{"tuple dict keys", "let d = {}\nd[(1, 2)] = \"p\"\nprint(d[(1, 2)])", "p\n"},
		{"list methods", "let xs = [3, 1, 2]\nprint(xs.sort(), xs.map(func(x) => x * 2), xs.filter(func(x) => x > 1), xs.join(\"-\"), xs.index_of(9))", "[1, 2, 3] [6, 2, 4] [3, 2] 3-1-2 -1\n"},
		{"string methods", "let s = \" Hi There \"\nprint(s.trim().upper(), s.split(), \"a,b\".split(\",\"), \"abc\".slice(1, 3))", "HI THERE [\"Hi\", \"There\"] [\"a\", \"b\"] bc\n"},
		{"interpolation", "let name = \"Cinder\"\nprint($\"hi {name}, {1 + 2} {{x}}\")", "hi Cinder, 3 {x}\n"},
		{"interpolation in loop", "let xs = for i in 1..=2 { out $\"#{i}\" }\nprint(xs)", "[\"#1\", \"#2\"]\n"},
		{"tuples", "print((1,), (1, \"a\"), ())", "(1,) (1, \"a\") ()\n"},
		{"ranges", "print(0..=10 step 5, (1..4).length, (1..4).to_list(), 3..0)", "0..=10 step 5 3 [1, 2, 3] 3..0\n"},
		{"descending range", "let xs = for i in 3..0 { out i }\nprint(xs)", "[3, 2, 1]\n"},
		{"special numbers", "print(1 / 3 * 3, 1e21, 2.5)", "1 1e+21 2.5\n"},
		{"iterate string and dict", "let d = {x: 1, y: 2}\nlet xs = for c in \"ab\" { out c }\nlet ks = for k in d { out k }\nprint(xs, ks)", "[\"a\", \"b\"] [\"x\", \"y\"]\n"},
		{"namespace members", "namespace app.util {\n func twice(x) { x * 2 }\n let const k = 3\n}\nusing app.util\nprint(util.twice(app.util.k))", "6\n"},
		{"namespace alias", "namespace app.util { let v = 1 }\nusing app.util as u\nprint(u.v)", "1\n"},
		{"namespace wildcard", "namespace m {\n let a = 1\n func f() { a + 1 }\n}\nusing m.*\nprint(a, f())", "1 2\n"},
		{"namespace selectors", "namespace m {\n let a = 1\n let b = 2\n}\nusing m.{b}\nprint(b)", "2\n"},
		{"mutable namespace", "namespace mut m { let a = 1 }\nm.a = 2\nprint(m.a)", "2\n"},
		{"reopened namespace", "namespace m { let a = 1 }\nnamespace m { let b = a + 1 }\nprint(m.b)", "2\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := evalSource(t, tc.source)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("output mismatch:\nwant %q\ngot  %q", tc.want, got)
			}
		})
	}
}

func TestRuntimeErrors(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   error
		kind   ErrorKind
	}{
		{"undefined variable", "print(nope)", ErrUndefinedVariable, KindUndefinedVariable},
		{"assign undefined", "nope = 1", ErrUndefinedVariable, KindUndefinedVariable},
		{"constant assignment", "let const x = 1\nx = 2", ErrConstantAssignment, KindConstantAssignment},
		{"add mismatch", "1 + \"a\"", ErrTypeError, KindTypeError},
		{"bool plus", "true + 1", ErrTypeError, KindTypeError},
		{"order mismatch", "\"a\" < 1", ErrTypeError, KindTypeError},
		{"not callable", "let x = 1\nx()", ErrTypeError, KindTypeError},
		{"not iterable", "for i in 5 { }", ErrTypeError, KindTypeError},
		{"unhashable key", "let d = {}\nd[[1]] = 2", ErrTypeError, KindTypeError},
		{"division by zero", "1 / 0", ErrValueError, KindValueError},
		{"modulo by zero", "1 % 0", ErrValueError, KindValueError},
		{"negative repeat", "\"a\" * -1", ErrValueError, KindValueError},
		{"huge string repeat", "\"ab\" * 1e18", ErrValueError, KindValueError},
		{"infinite string repeat", "\"ab\" * (2 ^ 2000)", ErrValueError, KindValueError},
		{"huge list repeat", "[1] * 1e18", ErrValueError, KindValueError},
		{"oversized list repeat", "[1, 2, 3] * 100000000", ErrValueError, KindValueError},
		{"zero step", "for i in 0..3 step 0 { }", ErrValueError, KindValueError},
		{"index out of range", "[1][5]", ErrIndexError, KindIndexError},
		{"negative out of range", "[1][-2]", ErrIndexError, KindIndexError},
		{"pop empty", "[].pop()", ErrIndexError, KindIndexError},
		{"missing key", "let d = {a: 1}\nd[\"b\"]", ErrKeyError, KindKeyError},
		{"missing member", "let d = {a: 1}\nd.b", ErrKeyError, KindKeyError},
		{"missing property", "class A { }\nA().x", ErrKeyError, KindKeyError},
		{"surplus args", "func f(a) { a }\nf(1, 2)", ErrArityError, KindArityError},
		{"args without constructor", "class A { }\nA(1)", ErrArityError, KindArityError},
		{"member of a function", "print.x", ErrKeyError, KindKeyError},
		{"top level break", "break", ErrControlFlow, KindControlFlowError},
		{"top level return", "return 1", ErrControlFlow, KindControlFlowError},
		{"top level out", "out 1", ErrControlFlow, KindControlFlowError},
		{"break escapes function", "func f() { break }\nwhile true { f() }", ErrControlFlow, KindControlFlowError},
		{"switch does not catch break", "switch 1 {\ncase 1 { break }\n}", ErrControlFlow, KindControlFlowError},
		{"tuple assignment", "let t = (1, 2)\nt[0] = 5", ErrImmutable, KindImmutableError},
		{"string assignment", "let s = \"ab\"\ns[0] = \"x\"", ErrImmutable, KindImmutableError},
		{"immutable namespace", "namespace m { let a = 1 }\nm.a = 2", ErrImmutable, KindImmutableError},
		{"namespace constant", "namespace mut m { let const a = 1 }\nm.a = 2", ErrConstantAssignment, KindConstantAssignment},
		{"unknown namespace", "using nowhere", ErrUndefinedVariable, KindUndefinedVariable},
		{"unknown namespace member", "namespace m { }\nusing m.{x}", ErrUndefinedVariable, KindUndefinedVariable},
		{"empty interpolation", "$\"{}\"", ErrValueError, KindValueError},
		{"bad interpolation", "$\"{1 +}\"", ErrValueError, KindValueError},
		{"unterminated interpolation", "$\"{x\"", ErrValueError, KindValueError},
		{"include without loader", "include \"a.cin\"", ErrInclude, KindIncludeError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := evalSource(t, tc.source)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var rerr *RuntimeError
			if !errors.As(err, &rerr) {
				t.Fatalf("expected *RuntimeError, got %T", err)
			}
			if rerr.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, rerr.Kind)
			}
			if rerr.Token.Line == 0 {
				t.Fatalf("expected a positioned error, got %v", rerr)
			}
		})
	}
}

func TestConstantAssignmentLeavesValue(t *testing.T) {
	interp, _ := newTestInterpreter()
	if _, err := interp.EvaluateSource("let const x = 1\nx = 2", "test.cin"); !errors.Is(err, ErrConstantAssignment) {
		t.Fatalf("expected constant assignment error, got %v", err)
	}
	v, err := interp.Environment().Get("x")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !Equal(v, runtime.Number(1)) {
		t.Fatalf("expected x to stay 1, got %v", v)
	}
}

func TestErrorPosition(t *testing.T) {
	_, err := evalSource(t, "let x = 1\nprint(x + y)")
	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RuntimeError, got %v", err)
	}
	if rerr.Token.Line != 2 || rerr.Token.File != "test.cin" {
		t.Fatalf("unexpected position %+v", rerr.Token)
	}
	if !strings.Contains(rerr.Error(), "UndefinedVariable") {
		t.Fatalf("expected kind in message, got %q", rerr.Error())
	}
}

func TestProgramValue(t *testing.T) {
	interp, _ := newTestInterpreter()
	v, err := interp.EvaluateSource("func f(x) { x * 2 }\nlet y = 4\nf(y)", "test.cin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !Equal(v, runtime.Number(8)) {
		t.Fatalf("expected 8, got %v", v)
	}
}

type recordingIncluder struct {
	paths []string
}

func (r *recordingIncluder) Include(interp *Interpreter, directive *ast.IncludeDirective) error {
	r.paths = append(r.paths, directive.Paths...)
	interp.Environment().Define("included", runtime.Bool(true))
	return nil
}

func TestIncludeUsesIncluder(t *testing.T) {
	includer := &recordingIncluder{}
	interp, out := newTestInterpreter(WithIncluder(includer))
	if _, err := interp.EvaluateSource("include [\"a.cin\", \"b.cin\"]\nprint(included)", "main.cin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(includer.paths, ","); got != "a.cin,b.cin" {
		t.Fatalf("unexpected include paths %q", got)
	}
	if out.String() != "true\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestIncludeErrorsArePositioned(t *testing.T) {
	interp, _ := newTestInterpreter(WithIncluder(failingIncluder{}))
	_, err := interp.EvaluateSource("\ninclude \"gone.cin\"", "main.cin")
	var rerr *RuntimeError
	if !errors.As(err, &rerr) || rerr.Token.Line != 2 {
		t.Fatalf("expected positioned include error, got %v", err)
	}
}

type failingIncluder struct{}

func (failingIncluder) Include(*Interpreter, *ast.IncludeDirective) error {
	return Errorf(KindIncludeError, "cannot find gone.cin")
}

func TestStandardNamespaceIsLazy(t *testing.T) {
	built := 0
	interp, out := newTestInterpreter()
	interp.RegisterNamespace("consts", func() *runtime.NamespaceValue {
		built++
		return runtime.NewStandardNamespace("consts", map[string]runtime.Value{"answer": runtime.Number(42)})
	})
	if built != 0 {
		t.Fatalf("namespace built before use")
	}
	if _, err := interp.EvaluateSource("using consts\nusing consts.{answer}\nprint(consts.answer, answer)", "test.cin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if built != 1 {
		t.Fatalf("expected one instantiation, got %d", built)
	}
	if out.String() != "42 42\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestSpawnOnSerialExecutor(t *testing.T) {
	exec := NewSerialExecutor()
	defer exec.Close()
	interp, _ := newTestInterpreter(WithExecutor(exec))
	if _, err := interp.EvaluateSource("func sq(x) { x * x }\nfunc bad() { 1 / 0 }", "test.cin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env := interp.Environment()
	sq, err := env.Get("sq")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	bad, err := env.Get("bad")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}

	first := interp.Spawn(env, sq, []runtime.Value{runtime.Number(3)})
	second := interp.Spawn(env, bad, nil)
	exec.Flush()

	if first.Status() != runtime.TaskResolved {
		t.Fatalf("expected resolved task, got %s", first.Status())
	}
	v, err := first.Await()
	if err != nil || !Equal(v, runtime.Number(9)) {
		t.Fatalf("expected 9, got %v (%v)", v, err)
	}
	if _, err := second.Await(); !errors.Is(err, ErrValueError) {
		t.Fatalf("expected value error from task, got %v", err)
	}
}

func TestTemplateCacheReuse(t *testing.T) {
	interp, _ := newTestInterpreter()
	if _, err := interp.EvaluateSource("let xs = for i in 1..=3 { out $\"{i}\" }", "test.cin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := interp.templates.len(); n != 1 {
		t.Fatalf("expected one cached template, got %d", n)
	}
}
