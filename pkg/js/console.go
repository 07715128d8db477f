package js

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dop251/goja"
)

// registerConsole routes console.log, warn and error to the logger at
// info, warn and error level.
func registerConsole(vm *goja.Runtime, log *slog.Logger) {
	console := vm.NewObject()
	for name, level := range map[string]slog.Level{
		"log":   slog.LevelInfo,
		"info":  slog.LevelInfo,
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		level := level
		console.Set(name, func(call goja.FunctionCall) goja.Value {
			log.Log(context.Background(), level, formatArgs(call.Arguments), "source", "console")
			return goja.Undefined()
		})
	}
	vm.Set("console", console)
}

func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return strings.Join(parts, " ")
}
