package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"patchlab/internal/runner"
	"patchlab/internal/version"
	"patchlab/pkg/colorutil"
)

// View renders the UI.
func (m Model) View() string {
	switch m.view {
	case runView:
		return m.renderRun()
	case historyView:
		return m.renderHistory()
	}
	return m.renderSetup()
}

func (m Model) renderHeader(state string) string {
	left := fmt.Sprintf(" patchlab %s | %s", version.Version, state)
	return headerStyle.Width(m.width).Render(left)
}

func (m Model) renderFooter(hints string) string {
	return footerStyle.Width(m.width).Render(helpStyle.Render(hints))
}

func (m Model) renderSetup() string {
	header := m.renderHeader("setup")

	censusLine := fmt.Sprintf("Images: %d   Masks: %d   Pairs: %d",
		m.census.Images, m.census.Masks, m.census.Pairs)
	if len(m.census.Unmatched) > 0 {
		censusLine += fmt.Sprintf("   (%d images without a mask)", len(m.census.Unmatched))
	}
	if m.censusErr != nil {
		censusLine = statusErrorStyle.Render("Scan failed: " + m.censusErr.Error())
	} else {
		censusLine = statusInfoStyle.Render(censusLine)
	}

	status := ""
	if m.status != "" {
		if m.statusErr {
			status = statusErrorStyle.Render(m.status)
		} else {
			status = statusOKStyle.Render(m.status)
		}
	}

	body := panelStyle.Width(m.width - 2).Render(
		panelTitleStyle.Render("Extraction setup") + "\n\n" + m.form.View())

	footer := m.renderFooter(
		"tab next field | space toggle | ctrl+s start | ctrl+r rescan | ctrl+h history | esc quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, body, censusLine, status, footer)
}

func (m Model) renderRun() string {
	if m.run == nil {
		return m.renderSetup()
	}
	rs := m.run
	state := rs.runner.State()

	header := m.renderHeader(state.String())

	current := rs.previewStem
	if current == "" {
		current = "-"
	}
	progressLine := fmt.Sprintf("%s  %3d%%", rs.bar.ViewAs(float64(rs.percent)/100.0), rs.percent)
	top := fmt.Sprintf("Processing: %s\n%s", current, progressLine)

	stats := m.renderStatsPanel()
	previewPanel := m.renderPreviewPanel()
	middle := lipgloss.JoinHorizontal(lipgloss.Top, stats, previewPanel)

	logPanel := panelStyle.Width(m.width - 2).Render(
		panelTitleStyle.Render("Log") + "\n" + rs.logView.View())

	statusLine := ""
	if rs.done {
		if rs.doneOK {
			statusLine = statusOKStyle.Render(rs.doneMsg)
		} else {
			statusLine = statusErrorStyle.Render(rs.doneMsg)
		}
	} else if state == runner.StatePaused {
		statusLine = pausedStyle.Render("Paused")
	}

	hints := "p pause | r resume | c cancel | ctrl+c quit"
	if rs.done {
		hints = "enter back to setup | q quit"
	}
	footer := m.renderFooter(hints)

	return lipgloss.JoinVertical(lipgloss.Left, header, top, middle, logPanel, statusLine, footer)
}

func (m Model) renderStatsPanel() string {
	st := m.run.stats
	coverage := "n/a"
	if st.LastPair.CoverageMean >= 0 {
		coverage = fmt.Sprintf("%.3f", st.LastPair.CoverageMean)
	}
	candidates := "n/a"
	if st.LastPair.TotalCoords >= 0 {
		candidates = fmt.Sprintf("%d", st.LastPair.TotalCoords)
	}

	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Stats"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%-16s %d\n", "Images", st.Images)
	fmt.Fprintf(&b, "%-16s %d\n", "Pairs", st.Pairs)
	fmt.Fprintf(&b, "%-16s %d/%d\n", "Processed", st.Processed, st.Pairs)
	fmt.Fprintf(&b, "%-16s %d\n", "Patches total", st.PatchesTotal)
	fmt.Fprintf(&b, "%-16s %d\n", "Kept last", st.KeptLast)
	fmt.Fprintf(&b, "%-16s %s\n", "Candidates", candidates)
	fmt.Fprintf(&b, "%-16s %s", "Coverage", coverage)

	return panelStyle.Render(b.String())
}

// renderPreviewPanel draws the last pair's mask coverage as a heat grid.
func (m Model) renderPreviewPanel() string {
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Mask coverage"))
	b.WriteString("\n")

	if m.run.grid == nil {
		b.WriteString(helpStyle.Render("no preview yet"))
	} else {
		for i, row := range m.run.grid {
			if i > 0 {
				b.WriteString("\n")
			}
			for _, v := range row {
				c := colorutil.Heat(v)
				hex := fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
				b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("██"))
			}
		}
	}
	return panelStyle.Render(b.String())
}

func (m Model) renderHistory() string {
	header := m.renderHeader("history")

	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Recent runs"))
	b.WriteString("\n\n")
	switch {
	case m.histErr != nil:
		b.WriteString(statusErrorStyle.Render("Could not read history: " + m.histErr.Error()))
	case len(m.history) == 0:
		b.WriteString(helpStyle.Render("No recorded runs."))
	default:
		fmt.Fprintf(&b, "%-4s %-16s %-10s %8s  %s\n", "ID", "Finished", "State", "Patches", "Message")
		for i := len(m.history) - 1; i >= 0; i-- {
			rec := m.history[i]
			fmt.Fprintf(&b, "%-4d %-16s %-10s %8d  %s\n",
				rec.ID,
				rec.FinishedAt.Format("2006-01-02 15:04"),
				rec.State,
				rec.Stats.PatchesTotal,
				rec.Message)
		}
	}

	body := panelStyle.Width(m.width - 2).Render(b.String())
	footer := m.renderFooter("esc back | ctrl+r reload")
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
