package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/debemdeboas/zenblog/internal/model"
)

var (
	headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func statusBadge(s model.SyncStatus) string {
	switch s {
	case model.StatusSynced:
		return okStyle.Render("● synced")
	case model.StatusStale:
		return warnStyle.Render("◐ stale")
	default:
		return mutedStyle.Render("○ local")
	}
}

func shortID(id model.PostID) string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

const timeLayout = "2006-01-02 15:04"

func printOK(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, okStyle.Render("✓ ")+fmt.Sprintf(format, args...))
}

func printWarn(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, warnStyle.Render("! ")+fmt.Sprintf(format, args...))
}

// PrintError writes err the way every command reports failures.
func PrintError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("Error: ")+err.Error())
}
