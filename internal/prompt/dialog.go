package prompt

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xkilldash9x/recharge-cli/api/schemas"
)

// columnGlyph stands in for a tab while the batch is being edited; the
// textarea would otherwise expand tabs to spaces.
const columnGlyph = '→'

type dialogKind int

const (
	kindBatch dialogKind = iota
	kindText
	kindNotice
	kindQuestion
)

// dialog is the bubbletea model behind every operator prompt.
type dialog struct {
	kind    dialogKind
	title   string
	message string
	styles  Styles

	area  textarea.Model
	input textinput.Model

	// Results, read once the program has quit.
	done     bool
	ok       bool
	value    string
	decision schemas.RetryDecision
}

func newBatchDialog(title string, styles Styles) dialog {
	ta := textarea.New()
	ta.Placeholder = "0612345678" + string(columnGlyph) + "1234 5678 9012"
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.SetWidth(60)
	ta.SetHeight(12)
	ta.Focus()
	return dialog{kind: kindBatch, title: title, styles: styles, area: ta}
}

func newTextDialog(title string, styles Styles) dialog {
	ti := textinput.New()
	ti.Placeholder = "Organisation"
	ti.CharLimit = 120
	ti.Width = 40
	ti.Focus()
	return dialog{kind: kindText, title: title, styles: styles, input: ti}
}

func newNoticeDialog(message string, styles Styles) dialog {
	return dialog{kind: kindNotice, title: "Error", message: message, styles: styles}
}

func newQuestionDialog(message string, styles Styles) dialog {
	return dialog{kind: kindQuestion, title: "Retry?", message: message, styles: styles}
}

func (d dialog) Init() tea.Cmd {
	switch d.kind {
	case kindBatch:
		return textarea.Blink
	case kindText:
		return textinput.Blink
	}
	return nil
}

func (d dialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch d.kind {
		case kindBatch:
			return d.updateBatch(key)
		case kindText:
			return d.updateText(key)
		case kindNotice:
			switch key.Type {
			case tea.KeyEnter, tea.KeyEsc, tea.KeyCtrlC, tea.KeySpace:
				return d.finish(true)
			}
			return d, nil
		case kindQuestion:
			return d.updateQuestion(key)
		}
	}

	var cmd tea.Cmd
	switch d.kind {
	case kindBatch:
		d.area, cmd = d.area.Update(msg)
	case kindText:
		d.input, cmd = d.input.Update(msg)
	}
	return d, cmd
}

func (d dialog) updateBatch(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		return d.finish(false)
	case tea.KeyCtrlS, tea.KeyCtrlD:
		d.value = strings.ReplaceAll(d.area.Value(), string(columnGlyph), "\t")
		return d.finish(true)
	case tea.KeyTab:
		d.area.InsertRune(columnGlyph)
		return d, nil
	case tea.KeyRunes:
		key.Runes = []rune(strings.ReplaceAll(string(key.Runes), "\t", string(columnGlyph)))
	}
	var cmd tea.Cmd
	d.area, cmd = d.area.Update(key)
	return d, cmd
}

func (d dialog) updateText(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		return d.finish(false)
	case tea.KeyEnter:
		d.value = d.input.Value()
		return d.finish(true)
	}
	var cmd tea.Cmd
	d.input, cmd = d.input.Update(key)
	return d, cmd
}

func (d dialog) updateQuestion(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEnter:
		d.decision = schemas.DecisionRetry
		return d.finish(true)
	case tea.KeyEsc, tea.KeyCtrlC:
		d.decision = schemas.DecisionCancel
		return d.finish(true)
	}
	if decision, ok := parseDecision(key.String()); ok {
		d.decision = decision
		return d.finish(true)
	}
	return d, nil
}

func (d dialog) finish(ok bool) (tea.Model, tea.Cmd) {
	d.done = true
	d.ok = ok
	return d, tea.Quit
}

func (d dialog) View() string {
	if d.done {
		return ""
	}

	var body, help string
	switch d.kind {
	case kindBatch:
		body = d.area.View()
		help = "tab: next column • ctrl+s: submit • esc: cancel"
	case kindText:
		body = d.input.View()
		help = "enter: submit • esc: cancel"
	case kindNotice:
		body = d.styles.Error.Render(d.message)
		help = "enter: close"
	case kindQuestion:
		body = d.styles.Message.Render(d.message)
		help = "r/enter: retry • c/esc: cancel"
	}

	return d.styles.Box.Render(lipgloss.JoinVertical(lipgloss.Left,
		d.styles.Title.Render(d.title),
		body,
		d.styles.Help.Render(help),
	)) + "\n"
}

// parseDecision reads a retry answer. English and French initials are both
// accepted.
func parseDecision(answer string) (schemas.RetryDecision, bool) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "r", "retry", "y", "yes", "o", "oui", "réessayer":
		return schemas.DecisionRetry, true
	case "c", "cancel", "n", "no", "non", "annuler", "q":
		return schemas.DecisionCancel, true
	}
	return schemas.DecisionCancel, false
}
