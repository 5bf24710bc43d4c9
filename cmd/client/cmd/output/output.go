package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow)
	failure = color.New(color.FgRed, color.Bold)
	muted   = color.New(color.FgHiBlack)
)

// Setup отключает цвета, если stdout не терминал или цвет запрещен флагом
func Setup(noColor bool) {
	if noColor || !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}
}

func Success(format string, args ...any) {
	success.Printf("✓ "+format+"\n", args...)
}

func Warn(format string, args ...any) {
	warn.Printf("! "+format+"\n", args...)
}

func Error(format string, args ...any) {
	failure.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

func Muted(format string, args ...any) string {
	return muted.Sprintf(format, args...)
}

// SyncState раскраска состояния синхронизации
func SyncState(state, label string) string {
	switch state {
	case "synced":
		return color.GreenString(label)
	case "failed":
		return color.RedString(label)
	case "pending":
		return color.YellowString(label)
	default:
		return color.CyanString(label)
	}
}

// JSON печатает значение с отступами
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("ошибка форматирования JSON: %w", err)
	}
	return nil
}
