package stdlib_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cinder/interpreter-go/pkg/interpreter"
	"cinder/interpreter-go/pkg/stdlib"
)

func run(t *testing.T, source string, stdin io.Reader) (string, error) {
	t.Helper()
	var out bytes.Buffer
	opts := []interpreter.Option{interpreter.WithStdout(&out)}
	if stdin != nil {
		opts = append(opts, interpreter.WithStdin(stdin))
	}
	interp := interpreter.New(opts...)
	stdlib.Install(interp)
	_, err := interp.EvaluateSource(source, "stdlib_test.cin")
	return out.String(), err
}

func mustRun(t *testing.T, source string) string {
	t.Helper()
	out, err := run(t, source, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func TestBuiltinsAndNamespaces(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{"print has no newline", `print("a"); print("b", 1)`, "ab 1"},
		{"core conversions", `println(len("héllo"), type(1), type([1]), str([1, "a"]), num("2.5") + 1)`, "5 number list [1, \"a\"] 3.5\n"},
		{"type of object", "class Point { }\nprintln(type(Point()))", "Point\n"},
		{"range builtin", `println(list(range(3)), list(range(1, 4)), list(range(5, 0, -2)))`, "[0, 1, 2] [1, 2, 3] [5, 3, 1]\n"},
		{"dict helpers", "let d = {b: 1, a: 2}\nprintln(keys(d), values(d))", "[\"b\", \"a\"] [1, 2]\n"},
		{"tuple of one", `println(tuple([1]))`, "(1,)\n"},
		{"math", "using math\nprintln(math.sqrt(16), math.max(1, 5, 3), math.min([4, 2]), math.floor(2.7), math.pi > 3)", "4 5 2 2 true\n"},
		{"math selectors", "using math.{abs}\nprintln(abs(-3))", "3\n"},
		{"strings", "using strings\nprintln(strings.join([1, 2, 3], \"-\"), strings.repeat(\"ab\", 2), strings.pad_left(\"7\", 3, \"0\"), strings.pad_right(\"x\", 3) + \"|\", strings.code(\"A\"), strings.from_code(66))", "1-2-3 abab 007 x  | 65 B\n"},
		{"json parse sorts keys", "using json\nlet d = json.parse('{\"b\": [1, true, null], \"a\": \"x\"}')\nprintln(keys(d), d[\"b\"])", "[\"a\", \"b\"] [1, true, null]\n"},
		{"json stringify keeps order", "using json\nprintln(json.stringify({z: 1, a: [1, 2.5, \"q\"]}))", "{\"z\":1,\"a\":[1,2.5,\"q\"]}\n"},
		{"json indent", "using json\nprintln(json.stringify([1], 2))", "[\n  1\n]\n"},
		{"json valid", "using json\nprintln(json.valid('[1]'), json.valid('{'))", "true false\n"},
		{"random is seedable", "using random\nrandom.seed(7)\nlet a = random.int(1, 6)\nrandom.seed(7)\nprintln(a == random.int(1, 6), random.choice([4]))", "true 4\n"},
		{"shuffle keeps elements", "using random\nlet xs = random.shuffle([3, 1, 2])\nprintln(xs.sort())", "[1, 2, 3]\n"},
		{"task spawn and wait", "using task\nfunc sq(x) { x * x }\nlet h = task.spawn(sq, 4)\nprintln(task.wait(h))", "16\n"},
		{"task all", "using task\nfunc sq(x) { x * x }\nprintln(task.all([func() => 1, func() => 2, task.spawn(sq, 3)]))", "[1, 2, 9]\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mustRun(t, tc.source); got != tc.want {
				t.Fatalf("output mismatch:\nwant %q\ngot  %q", tc.want, got)
			}
		})
	}
}

func TestLibraryErrors(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   error
	}{
		{"num of text", `num("abc")`, interpreter.ErrValueError},
		{"assert", `assert(1 > 2, "boom")`, interpreter.ErrValueError},
		{"error builtin", `error("bad")`, interpreter.ErrHost},
		{"negative repeat", "using strings\nstrings.repeat(\"a\", -1)", interpreter.ErrValueError},
		{"broken json", "using json\njson.parse(\"{\")", interpreter.ErrValueError},
		{"json of function", "using json\njson.stringify(print)", interpreter.ErrTypeError},
		{"sqrt of text", "using math\nmath.sqrt(\"x\")", interpreter.ErrTypeError},
		{"len of number", `len(3)`, interpreter.ErrTypeError},
		{"empty choice", "using random\nrandom.choice([])", interpreter.ErrIndexError},
		{"failed task", "using task\ntask.wait(task.spawn(func() => error(\"x\")))", interpreter.ErrHost},
		{"unknown namespace", "using nope", interpreter.ErrUndefinedVariable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, tc.source, nil)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAssertMessage(t *testing.T) {
	_, err := run(t, `assert(false, "boom")`, nil)
	if err == nil || !strings.Contains(err.Error(), "assertion failed: boom") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReadLine(t *testing.T) {
	out, err := run(t, "using io\nio.println(io.read_line(), io.read_line(), io.read_line())", strings.NewReader("one\r\ntwo"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "one two null\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestFileHelpers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	source := fmt.Sprintf("using io\nlet p = %q\nprintln(io.exists(p))\nio.write_file(p, \"hi\")\nprintln(io.exists(p), io.read_file(p))", path)
	if got := mustRun(t, source); got != "false\ntrue hi\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRegistry(t *testing.T) {
	reg := stdlib.Default()
	want := []string{"assert", "error", "keys", "len", "list", "num", "print", "println", "range", "str", "tuple", "type", "values"}
	if diff := cmp.Diff(want, reg.Names()); diff != "" {
		t.Fatalf("builtin names mismatch (-want +got):\n%s", diff)
	}
	if fn, ok := reg.Lookup("len"); !ok || fn.Arity != 1 {
		t.Fatalf("expected len with arity 1, got %+v", fn)
	}

	interp := interpreter.New()
	reg.Install(interp)
	wantNamespaces := []string{"io", "json", "math", "random", "strings", "task"}
	if diff := cmp.Diff(wantNamespaces, interp.StandardNamespaces()); diff != "" {
		t.Fatalf("namespace mismatch (-want +got):\n%s", diff)
	}
}

func TestBuiltinsAreConstant(t *testing.T) {
	_, err := run(t, "print = 1", nil)
	if !errors.Is(err, interpreter.ErrConstantAssignment) {
		t.Fatalf("expected constant assignment error, got %v", err)
	}
}
