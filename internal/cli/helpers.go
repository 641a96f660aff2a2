package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/ntrode/internal/logging"
	"github.com/muesli/termenv"
)

// createLogger configures the application logger: text on stderr at the given
// level, plus JSON records in logFile when set. The returned closer releases the file.
func createLogger(level, logFile string) (*slog.Logger, io.Closer, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	handlers := []slog.Handler{logging.NewTextHandler(os.Stderr, lvl)}
	var closer io.Closer = io.NopCloser(nil)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		handlers = append(handlers, logging.NewJSONHandler(f, lvl))
		closer = f
	}
	return logging.NewFanout(handlers...), closer, nil
}

// PrintBanner writes the ASCII banner to w, coloured when w is a terminal.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`  _   _ _____                _      `, "#22d3ee"},
		{` | \ | |_   _| __ ___   __| | ___ `, "#38bdf8"},
		{` |  \| | | || '__/ _ \ / _' |/ _ \`, "#60a5fa"},
		{` | |\  | | || | | (_) | (_| |  __/`, "#818cf8"},
		{` |_| \_| |_||_|  \___/ \__,_|\___|`, "#a78bfa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintf(w, "  %s\n\n", out.String("v"+strings.TrimSpace(version)).Faint())
}

// printSystemMessage prints a standardized system message to w.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "[ntrode] "+format+"\n", args...)
}
