// Package alerts reports per-account run status on the terminal.
package alerts

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/agentstation/marketsync"
)

// Level represents the severity of an alert.
type Level int

const (
	// LevelError indicates a failure or error condition.
	LevelError Level = iota
	// LevelWarning indicates a potential issue or important notice.
	LevelWarning
	// LevelSuccess indicates successful completion of an operation.
	LevelSuccess
)

// String returns the string representation of the alert level.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelSuccess:
		return "success"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}

// Icon returns the symbol printed in front of the alert.
func (l Level) Icon() string {
	switch l {
	case LevelError:
		return "✗"
	case LevelWarning:
		return "!"
	case LevelSuccess:
		return "✓"
	default:
		return "?"
	}
}

// Color returns ANSI color codes for terminal output.
func (l Level) Color() string {
	switch l {
	case LevelError:
		return "\033[31m" // Red
	case LevelWarning:
		return "\033[33m" // Yellow
	case LevelSuccess:
		return "\033[32m" // Green
	default:
		return resetColor
	}
}

const resetColor = "\033[0m"

// Alert represents one status line with optional indented details.
type Alert struct {
	Level   Level
	Message string
	Details []string
	Err     error
}

// String returns the alert line without details.
func (a *Alert) String() string {
	message := a.Level.Icon() + " " + a.Message
	if a.Err != nil {
		message += ": " + a.Err.Error()
	}
	return message
}

// maxDetails bounds the detail lines printed per alert.
const maxDetails = 5

// ForAccount builds the alert describing one account pipeline.
func ForAccount(res *marketsync.AccountResult, dryRun bool) *Alert {
	if res.Err != nil {
		return &Alert{
			Level:   LevelError,
			Message: fmt.Sprintf("%s failed at %s", res.Account, res.Stage),
			Err:     res.Err,
		}
	}

	verb := "sent"
	if dryRun {
		verb = "planned"
	}
	alert := &Alert{
		Level: LevelSuccess,
		Message: fmt.Sprintf("%s: %s %d stocks (%d available) and %d prices for %d offers",
			res.Account, verb, len(res.Stocks), len(res.Available), len(res.Prices), res.Offers),
	}

	if len(res.Skipped) > 0 {
		alert.Level = LevelWarning
		alert.Message += fmt.Sprintf(", skipped %d items", len(res.Skipped))
		for i, s := range res.Skipped {
			if i == maxDetails {
				alert.Details = append(alert.Details, fmt.Sprintf("... and %d more", len(res.Skipped)-maxDetails))
				break
			}
			alert.Details = append(alert.Details, fmt.Sprintf("%s: %s %q", s.Code, s.Field, s.Value))
		}
	}
	return alert
}

// Writer prints alerts, colored when writing to a terminal.
type Writer struct {
	w        io.Writer
	useColor bool
}

// NewWriter creates a Writer. Color is used only when w is a terminal and
// noColor is false.
func NewWriter(w io.Writer, noColor bool) *Writer {
	return &Writer{w: w, useColor: !noColor && isTerminal(w)}
}

// Write prints one alert.
func (w *Writer) Write(alert *Alert) error {
	var b strings.Builder
	line := alert.String()
	if w.useColor {
		line = alert.Level.Color() + line + resetColor
	}
	b.WriteString(line)
	b.WriteByte('\n')
	for _, detail := range alert.Details {
		b.WriteString("   " + detail + "\n")
	}
	_, err := io.WriteString(w.w, b.String())
	return err
}

// WriteResult prints one alert per account of result.
func (w *Writer) WriteResult(result *marketsync.Result) error {
	for i := range result.Accounts {
		if err := w.Write(ForAccount(&result.Accounts[i], result.DryRun)); err != nil {
			return err
		}
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
