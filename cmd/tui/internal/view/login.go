package view

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/backoffice/internal/gateway"
)

// LoginModel asks for API credentials in remote mode and exchanges them for a token.
type LoginModel struct {
	client *gateway.Client

	form  *huh.Form
	creds *credentials
	err   error
}

// credentials is shared by every copy of the model so the form's bound values survive Update.
type credentials struct {
	username string
	password string
}

func NewLoginModel(client *gateway.Client, username string) LoginModel {
	m := LoginModel{client: client, creds: &credentials{username: username}}
	m.form = m.newForm()

	return m
}

func (m *LoginModel) newForm() *huh.Form {
	required := func(s string) error {
		if s == "" {
			return errors.New("required")
		}

		return nil
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("username").
				Title("Username").
				Value(&m.creds.username).
				Validate(required),
			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.creds.password).
				Validate(required),
		),
	).WithWidth(40).WithShowHelp(false)
}

func (m LoginModel) Title() string { return "Sign in" }

func (m LoginModel) ShortHelp() string {
	return "Enter: next | Esc: continue without signing in"
}

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	ctx, cancel := CallCtx()
	defer cancel()

	token, err := m.client.Login(ctx, m.creds.username, m.creds.password)
	if err != nil {
		if gateway.IsUnauthorized(err) {
			m.err = errors.New("wrong username or password")
		} else {
			m.err = err
		}

		m.creds.password = ""
		m.form = m.newForm()

		return m, m.form.Init()
	}

	m.err = nil

	return m, func() tea.Msg { return LoggedInMsg{Token: token} }
}

func (m LoginModel) View() string {
	content := titleStyle.Render("Sign in to the records API") + "\n\n" + m.form.View()

	if m.err != nil {
		content += "\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Render(content)
}
