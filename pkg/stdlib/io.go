package stdlib

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"cinder/interpreter-go/pkg/interpreter"
	"cinder/interpreter-go/pkg/runtime"
)

func ioNamespace() *runtime.NamespaceValue {
	var (
		mu     sync.Mutex
		reader *bufio.Reader
	)
	readLine := func(ctx *runtime.NativeCallContext, _ []runtime.Value) (runtime.Value, error) {
		mu.Lock()
		defer mu.Unlock()
		if reader == nil {
			reader = bufio.NewReader(ctx.Host.Stdin())
		}
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, interpreter.Errorf(interpreter.KindHostError, "read_line: %v", err)
		}
		if line == "" && err != nil {
			return runtime.Null, nil
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		return runtime.String(line), nil
	}

	return namespace("io", []runtime.NativeFunctionValue{
		runtime.NewNative("print", -1, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			return runtime.Null, write(ctx, args, "")
		}),
		runtime.NewNative("println", -1, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			return runtime.Null, write(ctx, args, "\n")
		}),
		runtime.NewNative("read_line", 0, readLine),
		runtime.NewNative("read_file", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			path, err := stringArg(args, 0, "read_file")
			if err != nil {
				return nil, err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, interpreter.Errorf(interpreter.KindHostError, "read_file: %v", err)
			}
			return runtime.String(string(data)), nil
		}),
		runtime.NewNative("write_file", 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			path, err := stringArg(args, 0, "write_file")
			if err != nil {
				return nil, err
			}
			content, err := stringArg(args, 1, "write_file")
			if err != nil {
				return nil, err
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return nil, interpreter.Errorf(interpreter.KindHostError, "write_file: %v", err)
			}
			return runtime.Null, nil
		}),
		runtime.NewNative("exists", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			path, err := stringArg(args, 0, "exists")
			if err != nil {
				return nil, err
			}
			_, err = os.Stat(path)
			switch {
			case err == nil:
				return runtime.Bool(true), nil
			case errors.Is(err, fs.ErrNotExist):
				return runtime.Bool(false), nil
			default:
				return nil, interpreter.Errorf(interpreter.KindHostError, "exists: %v", err)
			}
		}),
	}, nil)
}
