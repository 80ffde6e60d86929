package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb/geo"

	"github.com/five82/trailedit/internal/draft"
	"github.com/five82/trailedit/internal/mode"
	"github.com/five82/trailedit/internal/trail"
)

// renderMain renders header, command bar, body and the optional log pane.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n\n")
	b.WriteString(m.renderBody())
	if m.showLogs {
		b.WriteString("\n")
		b.WriteString(m.renderLogs())
	}
	return b.String()
}

// renderHeader renders the status line.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	v := m.view

	parts := []string{
		bg.Render("trailedit", styles.Logo),
		styles.Badge(v.Mode.String()).Render(v.Mode.String()),
	}
	if v.Mode == mode.Edit || v.Phase != draft.PhaseEmpty {
		parts = append(parts, styles.Badge(v.Phase.String()).Render(v.Phase.String()))
	}
	if v.Online {
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	} else {
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	}
	if len(v.Roles) > 0 {
		parts = append(parts, bg.Render(strings.Join(v.Roles, ","), styles.InfoText))
	}
	parts = append(parts, bg.Render(fmt.Sprintf("X %d", v.Counts.Crossroads), styles.MutedText),
		bg.Render(fmt.Sprintf("D %d", v.Counts.Destinations), styles.MutedText),
		bg.Render(fmt.Sprintf("P %d", v.Counts.Paths), styles.MutedText))
	if m.width >= LayoutCompactWidth {
		parts = append(parts, bg.Render(formatPoint(m.cursor[0], m.cursor[1]), styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderCommandBar lists the keys that do something right now.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	v := m.view

	var hints [][2]string
	switch v.Mode {
	case mode.Normal:
		hints = [][2]string{{"e", "draw"}, {"a", "auto"}, {"enter", "inspect"}, {"m", "menu"}, {"r", "reload"}}
	case mode.Edit:
		hints = [][2]string{{"enter", "add point"}}
		if v.CanUndo() {
			hints = append(hints, [2]string{"u", "undo"})
		}
		if v.CanSubmit() {
			hints = append(hints, [2]string{"s", "save"})
		}
		hints = append(hints, [2]string{"esc", "leave"})
	case mode.AutoSegment:
		hints = [][2]string{{"enter", "select node"}}
		if v.CanSubmit() {
			hints = append(hints, [2]string{"s", "save"})
		}
		hints = append(hints, [2]string{"u", "discard"}, [2]string{"esc", "leave"})
	}
	hints = append(hints, [2]string{"?", "help"}, [2]string{"q", "quit"})

	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, styles.WarningText.Render(h[0])+" "+styles.MutedText.Render(h[1]))
	}
	return " " + strings.Join(parts, styles.FaintText.Render("  ·  "))
}

// renderBody renders the mode specific panel, what is under the cursor and
// the error slot.
func (m Model) renderBody() string {
	styles := m.theme.Styles()
	v := m.view
	var b strings.Builder

	switch v.Mode {
	case mode.Edit:
		m.writeDraft(&b)
	case mode.AutoSegment:
		m.writeSelection(&b)
		if !v.Draft.IsZero() {
			b.WriteString("\n")
			m.writeDraft(&b)
		}
	default:
		m.writeInspected(&b)
	}

	hits := m.surface.HitTest(m.surface.Project(m.cursor))
	b.WriteString("\n")
	b.WriteString(styles.AccentText.Bold(true).Render("Under cursor"))
	b.WriteString("\n")
	if len(hits) == 0 {
		b.WriteString(styles.FaintText.Render("  nothing"))
		b.WriteString("\n")
	}
	for _, h := range hits {
		label := h.FeatureID
		if n, ok := m.snapshot.Collections.Node(h.FeatureID); ok {
			label = fmt.Sprintf("%s (%s)", n.Name, h.FeatureID)
		}
		b.WriteString("  " + styles.MutedText.Render(string(h.Layer)) + " " + styles.Text.Render(label) + "\n")
	}

	if v.LastError != nil {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render("✖ " + v.LastError.Error()))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(styles.WarningText.Render(m.notice))
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}

func (m Model) writeDraft(b *strings.Builder) {
	styles := m.theme.Styles()
	d := m.view.Draft

	b.WriteString(styles.AccentText.Bold(true).Render("Segment"))
	b.WriteString("\n")
	row := func(label, value string) {
		b.WriteString("  " + styles.MutedText.Width(10).Render(label) + styles.Text.Render(value) + "\n")
	}
	row("points", fmt.Sprintf("%d", len(d.Points)))
	row("start", m.anchorLabel(d.AnchorStart))
	row("end", m.anchorLabel(d.AnchorEnd))
	if len(d.Points) >= 2 {
		row("length", fmt.Sprintf("%.0f m", geo.LengthHaversine(d.Points)))
	}
	switch {
	case d.Saving:
		b.WriteString("  " + styles.WarningText.Render("saving…") + "\n")
	case m.view.CanSubmit():
		b.WriteString("  " + styles.SuccessText.Render("ready to save") + "\n")
	case m.view.Phase == draft.PhaseAwaitingFirstAnchor:
		b.WriteString("  " + styles.FaintText.Render("start on a crossroad or destination") + "\n")
	}
}

func (m Model) writeSelection(b *strings.Builder) {
	styles := m.theme.Styles()
	b.WriteString(styles.AccentText.Bold(true).Render("Selection"))
	b.WriteString("\n")
	if len(m.view.Selection) == 0 {
		b.WriteString("  " + styles.FaintText.Render("select two nodes to route between") + "\n")
	}
	for i, a := range m.view.Selection {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, styles.Text.Render(m.anchorLabel(&a))))
	}
	if len(m.view.Selection) == 2 && m.view.Draft.IsZero() && m.view.LastError == nil {
		b.WriteString("  " + styles.WarningText.Render("routing…") + "\n")
	}
}

func (m Model) writeInspected(b *strings.Builder) {
	styles := m.theme.Styles()
	n := m.view.Inspected
	if n == nil {
		b.WriteString(styles.FaintText.Render("Move the cursor with h/j/k/l and press enter to inspect a node."))
		b.WriteString("\n")
		return
	}

	b.WriteString(styles.AccentText.Bold(true).Render(n.Name))
	b.WriteString("  " + styles.MutedText.Render(string(n.Kind)))
	if n.Type != "" {
		b.WriteString(styles.FaintText.Render(" · " + n.Type))
	}
	b.WriteString("\n")
	b.WriteString("  " + styles.FaintText.Render(formatPoint(n.Coordinates[0], n.Coordinates[1])) + "\n")

	d := m.view.Descriptions
	if d == nil || d.ID != n.ID {
		b.WriteString("  " + styles.FaintText.Render("loading descriptions…") + "\n")
		return
	}
	langs := m.prefs.Languages()
	writeDescription(b, styles.Text, styles.MutedText, langs[0], d.Primary)
	writeDescription(b, styles.Text, styles.MutedText, langs[1], d.Secondary)
}

func writeDescription(b *strings.Builder, text, muted lipgloss.Style, lang string, d trail.Description) {
	if d.Short == "" && d.Long == "" {
		return
	}
	b.WriteString("  " + muted.Render("["+lang+"]") + " " + text.Render(d.Short) + "\n")
	if d.Long != "" {
		b.WriteString("       " + muted.Render(truncate(d.Long, 200)) + "\n")
	}
}

func (m Model) anchorLabel(a *trail.SnapAnchor) string {
	if a == nil {
		return "–"
	}
	if n, ok := m.snapshot.Collections.Node(a.FeatureID); ok && n.Name != "" {
		return n.Name
	}
	return a.FeatureID
}

// renderLogs renders the session log pane.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	border := lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(m.theme.Border))
	title := styles.AccentText.Bold(true).Render("Session log")
	return border.Render(title + "\n" + m.logView.View())
}

func (m *Model) refreshLogView() {
	styles := m.theme.Styles()
	lines := make([]string, 0, len(m.logs))
	for _, e := range m.logs {
		lines = append(lines, formatEntry(styles, e))
	}
	m.logView.SetContent(strings.Join(lines, "\n"))
	m.logView.GotoBottom()
}

// renderConfirm renders the discard confirmation.
func (m Model) renderConfirm() string {
	styles := m.theme.Styles()
	body := styles.Text.Bold(true).Render("Discard the work in progress?") + "\n\n" +
		styles.WarningText.Render("y") + " " + styles.MutedText.Render("discard and leave") + "   " +
		styles.WarningText.Render("n") + " " + styles.MutedText.Render("keep editing")
	return m.placeModal(body)
}

// renderContextMenu renders the map context menu.
func (m Model) renderContextMenu() string {
	styles := m.theme.Styles()
	at := m.snapshot.UI.OverlayAt
	body := styles.FaintText.Render(formatPoint(at[0], at[1])) + "\n\n" +
		styles.WarningText.Render("c") + " " + styles.Text.Render("New crossroad") + "\n" +
		styles.WarningText.Render("d") + " " + styles.Text.Render("New destination") + "\n" +
		styles.WarningText.Render("esc") + " " + styles.MutedText.Render("Close")
	return m.placeModal(body)
}

func (m Model) placeModal(body string) string {
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal.Render(body),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

func formatPoint(lon, lat float64) string {
	return fmt.Sprintf("%.5f, %.5f", lat, lon)
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}
