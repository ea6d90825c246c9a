package logger

import (
	"log/slog"
	"os"
)

var std *slog.Logger = slog.Default()

// Init sets up the process-wide logger. Production gets JSON output,
// everything else a readable text handler.
func Init(environment string) {
	var handler slog.Handler
	if environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	std = slog.New(handler)
	slog.SetDefault(std)
}

func Info(msg string, args ...any) {
	std.Info(msg, normalize(args)...)
}

func Warn(msg string, args ...any) {
	std.Warn(msg, normalize(args)...)
}

func Error(msg string, args ...any) {
	std.Error(msg, normalize(args)...)
}

func Fatal(msg string, args ...any) {
	std.Error(msg, normalize(args)...)
	os.Exit(1)
}

// normalize tolerates call sites that pass a bare error (or any value)
// instead of key-value pairs.
func normalize(args []any) []any {
	out := make([]any, 0, len(args))
	for i := 0; i < len(args); {
		if key, ok := args[i].(string); ok && i+1 < len(args) {
			out = append(out, key, args[i+1])
			i += 2
			continue
		}

		if err, ok := args[i].(error); ok {
			out = append(out, slog.Any("error", err))
		} else {
			out = append(out, slog.Any("detail", args[i]))
		}
		i++
	}

	return out
}
