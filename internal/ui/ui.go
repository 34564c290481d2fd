package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/vidtalk/internal/models"
	"github.com/desertthunder/vidtalk/internal/services"
	"github.com/desertthunder/vidtalk/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	DashboardView
	DetailView
	ComposeView
)

// Session is the part of the session manager the TUI drives.
type Session interface {
	Login(ctx context.Context, email, password string) bool
	Register(ctx context.Context, email, username, password string) bool
	Logout()
	IsAuthenticated() bool
	Err() error
}

// categoryFilters cycles from "all" through the known categories.
var categoryFilters = append([]string{""}, models.Categories...)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	videos    services.VideoService
	session   Session
	width     int
	height    int
	form      loginForm
	videoList list.Model
	category  int
	detail    *models.VideoExport
	viewport  viewport.Model
	compose   textarea.Model
	replyTo   *int
	loading   bool
	status    string
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model. It opens on the dashboard when the session is already authenticated.
func NewModel(ctx context.Context, videos services.VideoService, session Session) *Model {
	videoList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	videoList.Title = "Videos"
	videoList.SetShowHelp(false)

	compose := textarea.New()
	compose.Placeholder = "Ask about this video..."
	compose.SetHeight(5)

	m := &Model{
		ctx:       ctx,
		view:      LoginView,
		videos:    videos,
		session:   session,
		form:      newLoginForm(),
		videoList: videoList,
		viewport:  viewport.New(0, 0),
		compose:   compose,
		help:      help.New(),
		keys:      newKeyMap(),
	}
	if session.IsAuthenticated() {
		m.view = DashboardView
	}
	return m
}

// Current returns the active view.
func (m *Model) Current() ViewState {
	return m.view
}

// Init loads videos for an authenticated session, otherwise starts the login form.
func (m *Model) Init() tea.Cmd {
	if m.view == DashboardView {
		return m.fetchVideos()
	}
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.forceQuit) {
			return m, tea.Quit
		}
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case DashboardView:
			return m.handleDashboardKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ComposeView:
			return m.handleComposeKeys(msg)
		}

	case Msg:
		return m.handleResult(msg)
	}

	return m.updateActive(msg)
}

func (m *Model) handleResult(msg Msg) (tea.Model, tea.Cmd) {
	m.loading = false

	switch msg.kind {
	case MsgAuthFinished:
		res := msg.data.(authResult)
		if !res.ok {
			m.err = res.err
			return m, nil
		}
		m.err = nil
		m.status = "Signed in"
		m.form = newLoginForm()
		m.view = DashboardView
		return m, m.fetchVideos()

	case MsgVideosFetched:
		res := msg.data.(videosResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.err = nil
		m.videoList.Title = m.listTitle()
		return m, m.videoList.SetItems(videoItems(res.videos))

	case MsgDetailFetched:
		res := msg.data.(detailResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.err = nil
		m.status = ""
		m.detail = res.export
		m.viewport.SetContent(renderDetail(m.detail, m.viewport.Width))
		m.viewport.GotoTop()
		m.view = DetailView
		return m, nil

	case MsgMessagePosted:
		res := msg.data.(postResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.err = nil
		m.status = "Message sent"
		if m.detail != nil {
			m.detail.Messages = append(m.detail.Messages, res.exchange.UserMessage, res.exchange.AIResponse)
			m.viewport.SetContent(renderDetail(m.detail, m.viewport.Width))
			m.viewport.GotoBottom()
		}
		m.compose.Reset()
		m.replyTo = nil
		m.view = DetailView
		return m, nil
	}

	return m, nil
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.tab), msg.String() == "down", msg.String() == "up":
		return m, m.form.next(msg.String() == "shift+tab" || msg.String() == "up")
	case key.Matches(msg, m.keys.mode):
		m.err = nil
		return m, m.form.toggleMode()
	case key.Matches(msg, m.keys.enter):
		if m.form.focus < m.form.fields()-1 {
			return m, m.form.next(false)
		}
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.status = ""
		return m, m.submitAuth()
	case key.Matches(msg, m.keys.back):
		return m, tea.Quit
	}
	return m, m.form.update(msg)
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.videoList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.videoList, cmd = m.videoList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.videoList.SelectedItem().(videoItem); ok {
			m.loading = true
			return m, m.fetchDetail(item.video.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.category):
		m.category = (m.category + 1) % len(categoryFilters)
		m.videoList.Title = m.listTitle()
		return m, m.fetchVideos()
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchVideos()
	case key.Matches(msg, m.keys.logout):
		m.session.Logout()
		m.form = newLoginForm()
		m.detail = nil
		m.err = nil
		m.status = "Logged out"
		m.view = LoginView
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	m.videoList, cmd = m.videoList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = DashboardView
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		m.loading = true
		return m, m.fetchDetail(m.detail.Video.ID)
	case key.Matches(msg, m.keys.compose):
		m.replyTo = nil
		m.view = ComposeView
		return m, m.compose.Focus()
	case key.Matches(msg, m.keys.reply):
		if n := len(m.detail.Messages); n > 0 {
			id := m.detail.Messages[n-1].ID
			m.replyTo = &id
		}
		m.view = ComposeView
		return m, m.compose.Focus()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleComposeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.compose.Blur()
		m.view = DetailView
		return m, nil
	case key.Matches(msg, m.keys.send):
		content := strings.TrimSpace(m.compose.Value())
		if content == "" {
			m.err = fmt.Errorf("%w: message is empty", shared.ErrInvalidInput)
			return m, nil
		}
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.postMessage(m.detail.Video.ID, content, m.replyTo)
	}

	var cmd tea.Cmd
	m.compose, cmd = m.compose.Update(msg)
	return m, cmd
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LoginView:
		cmd = m.form.update(msg)
	case DashboardView:
		m.videoList, cmd = m.videoList.Update(msg)
	case DetailView:
		m.viewport, cmd = m.viewport.Update(msg)
	case ComposeView:
		m.compose, cmd = m.compose.Update(msg)
	}
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.videoList.SetSize(width-4, height-6)
	m.viewport.Width = width - 4
	m.viewport.Height = height - 6
	m.compose.SetWidth(width - 4)
	if m.detail != nil {
		m.viewport.SetContent(renderDetail(m.detail, m.viewport.Width))
	}
}

func (m *Model) listTitle() string {
	if c := categoryFilters[m.category]; c != "" {
		return "Videos • " + c
	}
	return "Videos"
}

func (m *Model) submitAuth() tea.Cmd {
	email, password, username := m.form.values()
	register := m.form.register
	ctx, session := m.ctx, m.session

	return func() tea.Msg {
		var ok bool
		if register {
			ok = session.Register(ctx, email, username, password)
		} else {
			ok = session.Login(ctx, email, password)
		}
		if ok {
			return authFinishedMsg(true, register, nil)
		}

		label := "Login failed"
		if register {
			label = "Registration failed"
		}
		if err := session.Err(); err != nil {
			return authFinishedMsg(false, register, fmt.Errorf("%s: %w", label, err))
		}
		return authFinishedMsg(false, register, errors.New(label))
	}
}

func (m *Model) fetchVideos() tea.Cmd {
	category := categoryFilters[m.category]
	ctx, videos := m.ctx, m.videos
	m.loading = true

	return func() tea.Msg {
		found, err := videos.Videos(ctx, category)
		return videosFetchedMsg(found, err)
	}
}

func (m *Model) fetchDetail(id int) tea.Cmd {
	ctx, videos := m.ctx, m.videos

	return func() tea.Msg {
		video, err := videos.Video(ctx, id)
		if err != nil {
			return detailFetchedMsg(nil, err)
		}
		messages, err := videos.Messages(ctx, id)
		if err != nil {
			return detailFetchedMsg(nil, err)
		}
		return detailFetchedMsg(&models.VideoExport{Video: *video, Messages: messages}, nil)
	}
}

func (m *Model) postMessage(videoID int, content string, parentID *int) tea.Cmd {
	ctx, videos := m.ctx, m.videos

	return func() tea.Msg {
		exchange, err := videos.PostMessage(ctx, videoID, content, parentID)
		return messagePostedMsg(exchange, err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case LoginView:
		body = m.renderLogin()
	case DashboardView:
		body = m.renderDashboard()
	case DetailView:
		body = m.renderDetail()
	case ComposeView:
		body = m.renderCompose()
	}

	return body + "\n" + m.statusLine()
}

// statusLine shows the latest error, or the latest status when there is none, on one line.
func (m *Model) statusLine() string {
	switch {
	case m.err != nil:
		return styles.err.Render("Error: " + strings.Join(strings.Fields(m.err.Error()), " "))
	case m.loading:
		return styles.help.Render("Loading...")
	case m.status != "":
		return styles.ok.Render(m.status)
	default:
		return ""
	}
}

func (m *Model) renderLogin() string {
	helpKeys := []key.Binding{m.keys.tab, m.keys.enter, m.keys.mode, m.keys.forceQuit}
	return fmt.Sprintf("%s\n%s", m.form.view(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDashboard() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.category, m.keys.refresh, m.keys.logout, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.videoList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDetail() string {
	helpKeys := []key.Binding{m.keys.up, m.keys.down, m.keys.compose, m.keys.reply, m.keys.refresh, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.viewport.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderCompose() string {
	title := fmt.Sprintf("Message on %q", videoTitle(m.detail.Video))
	if m.replyTo != nil {
		title = fmt.Sprintf("Reply to message %d", *m.replyTo)
	}

	helpKeys := []key.Binding{m.keys.send, m.keys.back, m.keys.forceQuit}
	return fmt.Sprintf("%s\n%s\n\n%s", styles.title.Render(title), m.compose.View(), m.help.ShortHelpView(helpKeys))
}

// renderDetail lays out a video and its discussion wrapped to width.
func renderDetail(e *models.VideoExport, width int) string {
	v := e.Video
	wrap := lipgloss.NewStyle().Width(max(width, 20))

	var b strings.Builder
	b.WriteString(styles.title.Render(videoTitle(v)) + "\n")

	var meta []string
	if v.Category != "" {
		meta = append(meta, v.Category)
	}
	if watch, err := shared.WatchURL(v.YouTubeID); err == nil {
		meta = append(meta, watch)
	}
	if !v.CreatedAt.IsZero() {
		meta = append(meta, v.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if len(meta) > 0 {
		b.WriteString(styles.help.Render(strings.Join(meta, " • ")) + "\n\n")
	}

	if v.Description != "" {
		b.WriteString(wrap.Render(v.Description) + "\n\n")
	}

	b.WriteString(styles.label.Render("Transcription") + "\n")
	if text := v.TranscriptText(); text != "" {
		b.WriteString(wrap.Render(text) + "\n\n")
	} else {
		b.WriteString(styles.help.Render("No transcription available") + "\n\n")
	}

	b.WriteString(styles.label.Render(fmt.Sprintf("Discussion (%d)", len(e.Messages))) + "\n")
	for _, msg := range e.Messages {
		author := styles.user
		if msg.FromAI() {
			author = styles.ai
		}
		prefix := ""
		if msg.ParentID != nil {
			prefix = "  ↳ "
		}
		b.WriteString(wrap.Render(prefix+author.Render(msg.Author()+":")+" "+msg.Content) + "\n")
	}

	return b.String()
}
