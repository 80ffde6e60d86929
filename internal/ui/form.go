package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/trailedit/internal/trail"
)

const (
	fieldName = iota
	fieldType
	fieldPrimary
	fieldSecondary
	fieldCount
)

// nodeForm collects a new crossroad or destination.
type nodeForm struct {
	kind      trail.Kind
	languages [2]string
	inputs    [fieldCount]textinput.Model
	focus     int
	err       error
	editor    Editor
}

func newNodeForm(kind trail.Kind, languages [2]string, ed Editor) *nodeForm {
	f := &nodeForm{kind: kind, languages: languages, editor: ed}
	placeholders := [fieldCount]string{
		"Name",
		"Type (optional)",
		"Short description (" + languages[0] + ")",
		"Short description (" + languages[1] + ")",
	}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 80
		if i >= fieldPrimary {
			ti.CharLimit = trail.MaxShortDescription
		}
		f.inputs[i] = ti
	}
	f.inputs[fieldName].Focus()
	return f
}

// node builds the feature from the inputs. Coordinates are left for the
// editor to fill from the overlay position.
func (f *nodeForm) node() trail.NodeFeature {
	n := trail.NodeFeature{
		Kind: f.kind,
		Name: strings.TrimSpace(f.inputs[fieldName].Value()),
		Type: strings.TrimSpace(f.inputs[fieldType].Value()),
	}
	for i, lang := range f.languages {
		short := strings.TrimSpace(f.inputs[fieldPrimary+i].Value())
		if short == "" || lang == "" {
			continue
		}
		if n.Descriptions == nil {
			n.Descriptions = make(map[string]trail.Description)
		}
		n.Descriptions[lang] = trail.Description{Short: short}
	}
	return n
}

func (f *nodeForm) setFocus(i int) {
	f.inputs[f.focus].Blur()
	f.focus = (i + fieldCount) % fieldCount
	f.inputs[f.focus].Focus()
}

func (f *nodeForm) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case km.String() == "esc":
			return f, nil, true
		case key.Matches(km, keys.Submit):
			node := f.node()
			if err := node.Validate(); err != nil {
				f.err = err
				return f, nil, false
			}
			f.err = nil
			return f, createNodeCmd(f.editor, f.kind, node), false
		case key.Matches(km, keys.NextField):
			f.setFocus(f.focus + 1)
			return f, nil, false
		case key.Matches(km, keys.PreviousField):
			f.setFocus(f.focus - 1)
			return f, nil, false
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd, false
}

func (f *nodeForm) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder

	title := "New crossroad"
	if f.kind == trail.KindDestination {
		title = "New destination"
	}
	b.WriteString(styles.Text.Bold(true).Render(title))
	b.WriteString("\n\n")
	for i := range f.inputs {
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
	}
	if f.err != nil {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render(f.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter save · tab next · esc cancel"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(56)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
