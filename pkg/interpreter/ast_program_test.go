package interpreter

import (
	"testing"

	"cinder/interpreter-go/pkg/ast"
	"cinder/interpreter-go/pkg/runtime"
)

// Trees built with the ast helpers skip the parser entirely.
func TestExecuteBuiltPrograms(t *testing.T) {
	cases := []struct {
		name    string
		program *ast.Program
		want    string
	}{
		{
			name: "closure counter",
			program: ast.Prog(
				ast.Fn("make", nil,
					ast.Let("n", ast.Num(0)),
					ast.Lambda(nil, ast.Shorthand(ast.ID("n"), "+=", ast.Num(1)), ast.ID("n")),
				),
				ast.Let("c", ast.CallName("make")),
				ast.CallName("c"),
				ast.CallName("print", ast.CallName("c")),
			),
			want: "2\n",
		},
		{
			name: "for with out",
			program: ast.Prog(
				ast.Let("xs", ast.ForIn("i", ast.Range(ast.Num(1), ast.Num(4), false),
					ast.Emit(ast.Bin("*", ast.ID("i"), ast.ID("i"))),
				)),
				ast.CallName("print", ast.ID("xs")),
			),
			want: "[1, 4, 9]\n",
		},
		{
			name: "class with constructor",
			program: ast.Prog(
				ast.Class("Point",
					[]*ast.FieldDef{ast.Field("y", ast.Num(0))},
					ast.Fn("init", []string{"self", "x"},
						ast.SetMember(ast.Member(ast.ID("self"), "x"), ast.ID("x")),
					),
					ast.Fn("sum", []string{"self"},
						ast.Bin("+", ast.Member(ast.ID("self"), "x"), ast.Member(ast.ID("self"), "y")),
					),
				),
				ast.Let("p", ast.CallName("Point", ast.Num(5))),
				ast.CallName("print", ast.Call(ast.Member(ast.ID("p"), "sum"))),
			),
			want: "5\n",
		},
		{
			name: "namespace and using",
			program: ast.Prog(
				ast.Namespace([]string{"geo"}, false,
					ast.Fn("square", []string{"v"}, ast.Bin("*", ast.ID("v"), ast.ID("v"))),
				),
				ast.UsingAs("g", "geo"),
				ast.CallName("print", ast.Call(ast.Member(ast.ID("g"), "square"), ast.Num(7))),
			),
			want: "49\n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			interp, out := newTestInterpreter()
			if _, err := interp.ExecuteProgram(tc.program); err != nil {
				t.Fatalf("execute: %v", err)
			}
			if out.String() != tc.want {
				t.Fatalf("got %q, want %q", out.String(), tc.want)
			}
		})
	}
}

func TestBuiltProgramValue(t *testing.T) {
	interp, _ := newTestInterpreter()
	v, err := interp.ExecuteProgram(ast.Prog(
		ast.Const("k", ast.Num(3)),
		ast.IfElse(ast.Bin(">", ast.ID("k"), ast.Num(2)), ast.Body(ast.Str("big")), ast.Body(ast.Str("small"))),
	))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !Equal(v, runtime.String("big")) {
		t.Fatalf("expected \"big\", got %v", v)
	}
}
