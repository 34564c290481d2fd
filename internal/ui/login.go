package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	fieldEmail = iota
	fieldPassword
	fieldUsername
)

// loginForm collects credentials. The username field only shows in register mode.
type loginForm struct {
	inputs   []textinput.Model
	focus    int
	register bool
}

func newLoginForm() loginForm {
	email := textinput.New()
	email.Prompt = "Email:    "
	email.Placeholder = "you@example.com"
	email.CharLimit = 254

	password := textinput.New()
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	username := textinput.New()
	username.Prompt = "Username: "
	username.CharLimit = 64

	f := loginForm{inputs: []textinput.Model{email, password, username}}
	f.inputs[fieldEmail].Focus()
	return f
}

func (f *loginForm) fields() int {
	if f.register {
		return 3
	}
	return 2
}

func (f *loginForm) next(reverse bool) tea.Cmd {
	f.inputs[f.focus].Blur()
	if reverse {
		f.focus = (f.focus + f.fields() - 1) % f.fields()
	} else {
		f.focus = (f.focus + 1) % f.fields()
	}
	return f.inputs[f.focus].Focus()
}

func (f *loginForm) toggleMode() tea.Cmd {
	f.register = !f.register
	if !f.register && f.focus == fieldUsername {
		f.inputs[f.focus].Blur()
		f.focus = fieldEmail
		return f.inputs[f.focus].Focus()
	}
	return nil
}

func (f *loginForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *loginForm) values() (email, password, username string) {
	return strings.TrimSpace(f.inputs[fieldEmail].Value()),
		f.inputs[fieldPassword].Value(),
		strings.TrimSpace(f.inputs[fieldUsername].Value())
}

func (f *loginForm) view() string {
	title := "Log in"
	if f.register {
		title = "Create an account"
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(title) + "\n")
	for i := 0; i < f.fields(); i++ {
		b.WriteString(f.inputs[i].View() + "\n")
	}
	return b.String()
}
