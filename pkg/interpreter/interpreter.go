package interpreter

import (
	"context"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"

	"cinder/interpreter-go/pkg/ast"
	"cinder/interpreter-go/pkg/parser"
	"cinder/interpreter-go/pkg/runtime"
	"cinder/interpreter-go/pkg/token"
)

// Includer executes the files named by an include directive before the
// including file resumes. The driver's loader implements it.
type Includer interface {
	Include(interp *Interpreter, directive *ast.IncludeDirective) error
}

// NamespaceFactory builds a standard namespace the first time a program asks
// for it.
type NamespaceFactory func() *runtime.NamespaceValue

// Interpreter evaluates Cinder syntax trees against one Environment.
type Interpreter struct {
	env       *runtime.Environment
	logger    *zap.Logger
	executor  Executor
	includer  Includer
	stdout    io.Writer
	stdin     io.Reader
	standard  map[string]NamespaceFactory
	templates *templateCache
}

type Option func(*Interpreter)

func WithLogger(logger *zap.Logger) Option {
	return func(i *Interpreter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

func WithExecutor(executor Executor) Option {
	return func(i *Interpreter) {
		if executor != nil {
			i.executor = executor
		}
	}
}

func WithIncluder(includer Includer) Option {
	return func(i *Interpreter) { i.includer = includer }
}

func WithStdout(w io.Writer) Option {
	return func(i *Interpreter) { i.stdout = w }
}

func WithStdin(r io.Reader) Option {
	return func(i *Interpreter) { i.stdin = r }
}

// New returns an interpreter with an empty global environment. Builtins and
// standard namespaces are registered separately, usually by stdlib.Install.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		env:       runtime.NewEnvironment(),
		logger:    zap.NewNop(),
		executor:  NewGoroutineExecutor(),
		stdout:    os.Stdout,
		stdin:     os.Stdin,
		standard:  make(map[string]NamespaceFactory),
		templates: newTemplateCache(defaultTemplateCacheSize),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Environment returns the program's environment.
func (i *Interpreter) Environment() *runtime.Environment {
	return i.env
}

func (i *Interpreter) Logger() *zap.Logger {
	return i.logger
}

func (i *Interpreter) Executor() Executor {
	return i.executor
}

// SetIncluder replaces the include handler.
func (i *Interpreter) SetIncluder(includer Includer) {
	i.includer = includer
}

// DefineNative registers a host function as a global constant.
func (i *Interpreter) DefineNative(fn runtime.NativeFunctionValue) {
	i.env.Global().DefineConstant(fn.Name, fn)
}

// RegisterNamespace makes a standard namespace available to `using`.
func (i *Interpreter) RegisterNamespace(name string, factory NamespaceFactory) {
	i.standard[name] = factory
}

// StandardNamespaces lists the registered standard namespace names.
func (i *Interpreter) StandardNamespaces() []string {
	names := make([]string, 0, len(i.standard))
	for name := range i.standard {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExecuteProgram runs a parsed file in the global scope and returns the value
// of its last statement. Include directives are handed to the Includer.
func (i *Interpreter) ExecuteProgram(program *ast.Program) (runtime.Value, error) {
	i.logger.Debug("execute program", zap.String("file", program.File), zap.Int("statements", len(program.Body)))
	var last runtime.Value = runtime.Null
	err := i.evaluateHoisted(program.Body, i.env, func(res Result) error {
		switch res.Signal {
		case SignalNone:
			last = res.Value
			return nil
		case SignalInclude:
			return i.include(res.Include)
		default:
			return escapeError(res)
		}
	})
	if err != nil {
		return nil, err
	}
	return last, nil
}

// EvaluateSource parses and runs source as one program.
func (i *Interpreter) EvaluateSource(source, file string) (runtime.Value, error) {
	program, err := parser.ParseSource(source, file)
	if err != nil {
		return nil, err
	}
	return i.ExecuteProgram(program)
}

func (i *Interpreter) include(directive *ast.IncludeDirective) error {
	if i.includer == nil {
		return errorAt(directive.Origin(), KindIncludeError, "include is not available without a loader")
	}
	i.logger.Debug("include", zap.Strings("paths", directive.Paths))
	return locate(i.includer.Include(i, directive), directive.Origin())
}

// escapeError reports a signal that left the construct allowed to catch it.
func escapeError(res Result) error {
	switch res.Signal {
	case SignalReturn:
		return errorAt(res.Token, KindControlFlowError, "return outside function")
	case SignalInclude:
		return errorAt(res.Token, KindControlFlowError, "include is only allowed at the top level")
	default:
		return errorAt(res.Token, KindControlFlowError, "%s outside loop", res.Signal)
	}
}

// Host implementation.

func (i *Interpreter) Call(env *runtime.Environment, callee runtime.Value, args []runtime.Value) (runtime.Value, error) {
	return i.callValue(env, callee, args, token.Token{})
}

// Spawn runs callee on the executor with its own forked environment.
func (i *Interpreter) Spawn(env *runtime.Environment, callee runtime.Value, args []runtime.Value) *runtime.TaskValue {
	forked := env.Fork(nil)
	i.logger.Debug("spawn task", zap.Stringer("callee", callee.Kind()))
	return i.executor.Run(func(_ context.Context) (runtime.Value, error) {
		return i.callValue(forked, callee, args, token.Token{})
	})
}

func (i *Interpreter) Format(env *runtime.Environment, v runtime.Value) string {
	return i.format(env, v)
}

func (i *Interpreter) Stdout() io.Writer {
	return i.stdout
}

func (i *Interpreter) Stdin() io.Reader {
	return i.stdin
}

var _ runtime.Host = (*Interpreter)(nil)
