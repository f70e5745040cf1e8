package alert

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/optwatch/optwatch/internal/anomaly"
)

// ConsoleHandler prints raised anomalies as a bordered block on stdout.
// It performs no other I/O and never panics.
type ConsoleHandler struct {
	out io.Writer
}

// NewConsoleHandler creates a console handler writing to stdout.
func NewConsoleHandler() *ConsoleHandler {
	return &ConsoleHandler{out: os.Stdout}
}

// NewConsoleHandlerTo creates a console handler writing to w (used by the
// CLI and tests).
func NewConsoleHandlerTo(w io.Writer) *ConsoleHandler {
	return &ConsoleHandler{out: w}
}

// Func adapts the handler to the dispatcher's Handler type.
func (h *ConsoleHandler) Func() Handler {
	return h.Handle
}

// Handle prints one anomaly.
func (h *ConsoleHandler) Handle(a anomaly.Anomaly) {
	marker, paint := severityStyle(a.Severity)

	border := strings.Repeat("=", 64)
	fmt.Fprintln(h.out, border)
	fmt.Fprintf(h.out, "%s %s\n", marker, paint(strings.ToUpper(string(a.Severity))))
	fmt.Fprintf(h.out, "Time:        %s\n", a.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(h.out, "Description: %s\n", a.Description)
	if len(a.AffectedParameters) > 0 {
		fmt.Fprintf(h.out, "Affected:    %s\n", strings.Join(a.AffectedParameters, ", "))
	}
	fmt.Fprintln(h.out, border)
}

// severityStyle maps a severity to its marker glyph and color.
func severityStyle(s anomaly.Severity) (string, func(a ...interface{}) string) {
	switch s {
	case anomaly.SeverityCritical:
		return "✗", color.New(color.FgRed, color.Bold).SprintFunc()
	case anomaly.SeverityMajor:
		return "✗", color.New(color.FgRed).SprintFunc()
	case anomaly.SeverityWarning:
		return "⚠", color.New(color.FgYellow, color.Bold).SprintFunc()
	case anomaly.SeverityModerate:
		return "⚠", color.New(color.FgYellow).SprintFunc()
	case anomaly.SeverityMinor:
		return "•", color.New(color.FgCyan).SprintFunc()
	default:
		return "•", color.New(color.FgWhite).SprintFunc()
	}
}
