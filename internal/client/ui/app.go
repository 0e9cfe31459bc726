// Package ui implements the terminal interface: a state machine over the
// six screens (login, signup, dashboard, create, edit, view).
package ui

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/lumina-journal/lumina/internal/annotate"
	"github.com/lumina-journal/lumina/internal/client"
	"github.com/lumina-journal/lumina/internal/model"
)

type viewState int

const (
	viewInit viewState = iota
	viewLogin
	viewSignup
	viewDashboard
	viewCreate
	viewEdit
	viewEntry
)

// Model is the bubbletea model for the whole application.
type Model struct {
	session *client.Session
	repo    *client.EntryRepo
	log     *zap.Logger

	state viewState
	// gen tags every async command; results carrying a stale gen are
	// discarded so a late response can never touch another screen's state.
	gen int

	user     model.User
	entries  []model.JournalEntry
	selIdx   int
	selected *model.JournalEntry

	email    textinput.Model
	password textinput.Model
	name     textinput.Model
	search   textinput.Model
	title    textinput.Model
	content  textarea.Model
	focus    int

	authErr string
	notice  string
	status  string

	authLoading bool
	dataLoading bool
	saving      bool
	deleting    bool
	analyzing   bool

	confirmDelete bool
	searching     bool

	width  int
	height int
}

// New builds the model in the initializing state.
func New(session *client.Session, repo *client.EntryRepo, log *zap.Logger) Model {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 128

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 128

	name := textinput.New()
	name.Placeholder = "display name"
	name.CharLimit = 64

	search := textinput.New()
	search.Placeholder = "search"
	search.Prompt = "/ "

	title := textinput.New()
	title.Placeholder = "title"
	title.CharLimit = 200

	content := textarea.New()
	content.Placeholder = "write..."
	content.CharLimit = 0

	return Model{
		session:  session,
		repo:     repo,
		log:      log,
		state:    viewInit,
		email:    email,
		password: password,
		name:     name,
		search:   search,
		title:    title,
		content:  content,
	}
}

// Init kicks off session restore and the auth event pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.restoreCmd(), m.waitAuthEvent(), textinput.Blink)
}

// --- messages ---

type sessionRestoredMsg struct {
	user model.User
	ok   bool
}

type authDoneMsg struct {
	user    model.User
	pending bool
	err     error
	gen     int
}

type entriesLoadedMsg struct {
	entries []model.JournalEntry
	err     error
	gen     int
}

type entrySavedMsg struct {
	entry model.JournalEntry
	err   error
	gen   int
}

type entryDeletedMsg struct {
	id  uuid.UUID
	err error
	gen int
}

type annotatedMsg struct {
	entry model.JournalEntry
	err   error
	gen   int
}

type authEventMsg struct {
	ev client.AuthEvent
}

// --- commands ---

func (m *Model) restoreCmd() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		u, ok := sess.Restore(context.Background())
		return sessionRestoredMsg{user: u, ok: ok}
	}
}

func (m *Model) waitAuthEvent() tea.Cmd {
	ch := m.session.Events()
	return func() tea.Msg { return authEventMsg{ev: <-ch} }
}

func (m *Model) loginCmd(email, password string) tea.Cmd {
	gen, sess := m.gen, m.session
	return func() tea.Msg {
		u, err := sess.Login(context.Background(), email, password)
		return authDoneMsg{user: u, err: err, gen: gen}
	}
}

func (m *Model) signupCmd(email, password, name string) tea.Cmd {
	gen, sess := m.gen, m.session
	return func() tea.Msg {
		u, pending, err := sess.Signup(context.Background(), email, password, name)
		return authDoneMsg{user: u, pending: pending, err: err, gen: gen}
	}
}

func (m *Model) loadEntriesCmd() tea.Cmd {
	gen, repo := m.gen, m.repo
	return func() tea.Msg {
		list, err := repo.List(context.Background())
		return entriesLoadedMsg{entries: list, err: err, gen: gen}
	}
}

func (m *Model) saveCmd(e model.JournalEntry) tea.Cmd {
	gen, repo := m.gen, m.repo
	return func() tea.Msg {
		saved, err := repo.Save(context.Background(), e)
		return entrySavedMsg{entry: saved, err: err, gen: gen}
	}
}

func (m *Model) deleteCmd(id uuid.UUID) tea.Cmd {
	gen, repo := m.gen, m.repo
	return func() tea.Msg {
		err := repo.Delete(context.Background(), id.String())
		return entryDeletedMsg{id: id, err: err, gen: gen}
	}
}

// annotateCmd analyzes and persists in one step so a failed save never
// leaves a partially annotated entry anywhere.
func (m *Model) annotateCmd(e model.JournalEntry) tea.Cmd {
	gen, repo := m.gen, m.repo
	return func() tea.Msg {
		res, err := repo.Analyze(context.Background(), e.Content)
		if err != nil {
			return annotatedMsg{err: err, gen: gen}
		}
		e.Sentiment = res.Sentiment
		e.Tags = res.Tags
		e.AISummary = res.Summary
		e.UpdatedAt = time.Now()
		saved, err := repo.Save(context.Background(), e)
		return annotatedMsg{entry: saved, err: err, gen: gen}
	}
}

func (m *Model) logoutCmd() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		sess.Logout(context.Background())
		return nil
	}
}

// --- update ---

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.content.SetWidth(min(msg.Width-4, 100))
		m.content.SetHeight(max(msg.Height-10, 5))
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.updateKey(msg)

	case sessionRestoredMsg:
		if msg.ok {
			m.enterDashboard(msg.user)
			return m, m.loadEntriesCmd()
		}
		m.toLogin()
		return m, nil

	case authDoneMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.authLoading = false
		switch {
		case msg.err != nil:
			m.authErr = authMessage(msg.err)
		case msg.pending:
			m.notice = "Check your email to confirm the account, then log in."
			m.toLogin()
		default:
			m.enterDashboard(msg.user)
			return m, m.loadEntriesCmd()
		}
		return m, nil

	case entriesLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.dataLoading = false
		if msg.err != nil {
			m.status = "Could not load entries: " + msg.err.Error()
			m.log.Warn("load entries", zap.Error(msg.err))
			return m, nil
		}
		m.entries = msg.entries
		m.clampSelection()
		return m, nil

	case entrySavedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.saving = false
		if msg.err != nil {
			m.status = "Save failed: " + msg.err.Error()
			m.log.Warn("save entry", zap.Error(msg.err))
			return m, nil
		}
		m.applySaved(msg.entry)
		m.toEntry(msg.entry)
		return m, nil

	case entryDeletedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.deleting = false
		m.confirmDelete = false
		if msg.err != nil {
			m.status = "Delete failed: " + msg.err.Error()
			m.log.Warn("delete entry", zap.Error(msg.err))
			return m, nil
		}
		m.removeEntry(msg.id)
		m.toDashboard()
		return m, nil

	case annotatedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.analyzing = false
		if msg.err != nil {
			m.status = "Analysis failed: " + msg.err.Error()
			m.log.Warn("annotate entry", zap.Error(msg.err))
			return m, nil
		}
		m.applySaved(msg.entry)
		sel := msg.entry
		m.selected = &sel
		return m, nil

	case authEventMsg:
		cmd := m.applyAuthEvent(msg.ev)
		return m, tea.Batch(cmd, m.waitAuthEvent())
	}

	return m.updateInputs(msg)
}

// applyAuthEvent converges event-driven and direct-call navigation onto the
// same target state. SignedIn is idempotent.
func (m *Model) applyAuthEvent(ev client.AuthEvent) tea.Cmd {
	switch ev.Kind {
	case client.SignedIn:
		if m.state == viewInit {
			return nil // restore handler will navigate
		}
		if m.user.ID == ev.User.ID && m.state != viewLogin && m.state != viewSignup {
			return nil // already there
		}
		m.enterDashboard(ev.User)
		return m.loadEntriesCmd()
	case client.SignedOut:
		m.user = model.User{}
		m.entries = nil
		m.selected = nil
		m.toLogin()
	}
	return nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case viewLogin, viewSignup:
		return m.updateAuthKey(msg)
	case viewDashboard:
		return m.updateDashboardKey(msg)
	case viewEntry:
		return m.updateEntryKey(msg)
	case viewCreate, viewEdit:
		return m.updateFormKey(msg)
	}
	return m, nil
}

func (m Model) updateAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyDown, tea.KeyUp:
		fields := 2
		if m.state == viewSignup {
			fields = 3
		}
		if msg.Type == tea.KeyShiftTab || msg.Type == tea.KeyUp {
			m.focus = (m.focus + fields - 1) % fields
		} else {
			m.focus = (m.focus + 1) % fields
		}
		m.refocusAuth()
		return m, nil

	case tea.KeyEnter:
		if m.authLoading {
			return m, nil
		}
		email := strings.TrimSpace(m.email.Value())
		password := m.password.Value()
		if email == "" || password == "" {
			m.authErr = "Email and password are required."
			return m, nil
		}
		m.authErr = ""
		m.authLoading = true
		if m.state == viewSignup {
			return m, m.signupCmd(email, password, strings.TrimSpace(m.name.Value()))
		}
		return m, m.loginCmd(email, password)

	case tea.KeyCtrlN:
		if m.state == viewLogin {
			m.toSignup()
		} else {
			m.toLogin()
		}
		return m, nil
	}
	return m.updateInputs(msg)
}

func (m Model) updateDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.Type {
		case tea.KeyEsc:
			m.searching = false
			m.search.Blur()
			return m, nil
		case tea.KeyEnter:
			m.searching = false
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.clampSelection()
		return m, cmd
	}

	switch msg.String() {
	case "/":
		m.searching = true
		return m, m.search.Focus()
	case "up", "k":
		if m.selIdx > 0 {
			m.selIdx--
		}
		return m, nil
	case "down", "j":
		if m.selIdx < len(m.visibleEntries())-1 {
			m.selIdx++
		}
		return m, nil
	case "enter":
		vis := m.visibleEntries()
		if m.selIdx < len(vis) {
			m.toEntry(vis[m.selIdx])
		}
		return m, nil
	case "n":
		m.toCreate()
		return m, nil
	case "r":
		m.dataLoading = true
		m.status = ""
		return m, m.loadEntriesCmd()
	case "ctrl+l":
		return m, m.logoutCmd()
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateEntryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.selected == nil {
		m.toDashboard()
		return m, nil
	}
	if m.confirmDelete {
		switch msg.String() {
		case "y":
			if m.deleting {
				return m, nil
			}
			m.deleting = true
			return m, m.deleteCmd(m.selected.ID)
		case "n", "esc":
			m.confirmDelete = false
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.toDashboard()
		return m, nil
	case "e":
		m.toEdit()
		return m, nil
	case "d":
		m.confirmDelete = true
		return m, nil
	case "a":
		if m.analyzing {
			return m, nil
		}
		if utf8.RuneCountInString(strings.TrimSpace(m.selected.Content)) < annotate.MinTextLen {
			m.status = "Entry is too short to analyze."
			return m, nil
		}
		m.analyzing = true
		m.status = ""
		return m, m.annotateCmd(*m.selected)
	case "f":
		if m.saving {
			return m, nil
		}
		e := *m.selected
		e.Favorite = !e.Favorite
		e.UpdatedAt = time.Now()
		m.saving = true
		return m, m.saveCmd(e)
	}
	return m, nil
}

func (m Model) updateFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.state == viewEdit && m.selected != nil {
			m.toEntry(*m.selected)
		} else {
			m.toDashboard()
		}
		return m, nil

	case tea.KeyTab:
		if m.focus == 0 {
			m.focus = 1
			m.title.Blur()
			return m, m.content.Focus()
		}
		m.focus = 0
		m.content.Blur()
		return m, m.title.Focus()

	case tea.KeyCtrlS:
		if m.saving {
			return m, nil
		}
		e, err := m.buildCandidate()
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.saving = true
		m.status = ""
		return m, m.saveCmd(e)
	}
	return m.updateInputs(msg)
}

// buildCandidate implements the save algorithm: editing preserves
// id/createdAt/tags/sentiment/aiSummary; creating generates a fresh id with
// both timestamps set to now. Blank title/content is rejected locally.
func (m *Model) buildCandidate() (model.JournalEntry, error) {
	title := strings.TrimSpace(m.title.Value())
	content := strings.TrimSpace(m.content.Value())
	if title == "" || content == "" {
		return model.JournalEntry{}, errEmptyForm
	}

	now := time.Now()
	if m.state == viewEdit && m.selected != nil {
		e := *m.selected
		e.Title = title
		e.Content = content
		e.UpdatedAt = now
		return e, nil
	}

	id, err := uuid.NewV4()
	if err != nil {
		return model.JournalEntry{}, err
	}
	return model.JournalEntry{
		ID:        id,
		OwnerID:   m.user.ID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
		Tags:      []string{},
	}, nil
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch m.state {
	case viewLogin, viewSignup:
		m.email, cmd = m.email.Update(msg)
		cmds = append(cmds, cmd)
		m.password, cmd = m.password.Update(msg)
		cmds = append(cmds, cmd)
		if m.state == viewSignup {
			m.name, cmd = m.name.Update(msg)
			cmds = append(cmds, cmd)
		}
	case viewCreate, viewEdit:
		m.title, cmd = m.title.Update(msg)
		cmds = append(cmds, cmd)
		m.content, cmd = m.content.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// --- transitions ---

// Each transition bumps the generation so responses issued on the previous
// screen are discarded on arrival.

func (m *Model) toLogin() {
	m.gen++
	m.state = viewLogin
	m.authErr = ""
	m.authLoading = false
	m.resetAuthForm()
}

func (m *Model) toSignup() {
	m.gen++
	m.state = viewSignup
	m.authErr = ""
	m.notice = ""
	m.authLoading = false
	m.resetAuthForm()
}

func (m *Model) enterDashboard(u model.User) {
	m.gen++
	m.state = viewDashboard
	m.user = u
	m.notice = ""
	m.status = ""
	m.selected = nil
	m.selIdx = 0
	m.dataLoading = true
	m.search.SetValue("")
	m.searching = false
}

func (m *Model) toDashboard() {
	m.gen++
	m.state = viewDashboard
	m.status = ""
	m.confirmDelete = false
	m.clampSelection()
}

func (m *Model) toCreate() {
	m.gen++
	m.state = viewCreate
	m.selected = nil
	m.status = ""
	m.focus = 0
	m.title.SetValue("")
	m.content.SetValue("")
	m.title.Focus()
	m.content.Blur()
}

func (m *Model) toEdit() {
	m.gen++
	m.state = viewEdit
	m.status = ""
	m.focus = 0
	m.title.SetValue(m.selected.Title)
	m.content.SetValue(m.selected.Content)
	m.title.Focus()
	m.content.Blur()
}

func (m *Model) toEntry(e model.JournalEntry) {
	m.gen++
	m.state = viewEntry
	sel := e
	m.selected = &sel
	m.status = ""
	m.confirmDelete = false
}

func (m *Model) resetAuthForm() {
	m.email.SetValue("")
	m.password.SetValue("")
	m.name.SetValue("")
	m.focus = 0
	m.refocusAuth()
}

func (m *Model) refocusAuth() {
	m.email.Blur()
	m.password.Blur()
	m.name.Blur()
	switch m.focus {
	case 0:
		m.email.Focus()
	case 1:
		m.password.Focus()
	case 2:
		m.name.Focus()
	}
}

// --- list bookkeeping ---

// applySaved replaces the entry in the list or prepends a new one, keeping
// createdAt-descending order.
func (m *Model) applySaved(e model.JournalEntry) {
	for i := range m.entries {
		if m.entries[i].ID == e.ID {
			m.entries[i] = e
			return
		}
	}
	m.entries = append([]model.JournalEntry{e}, m.entries...)
}

func (m *Model) removeEntry(id uuid.UUID) {
	out := m.entries[:0]
	for _, e := range m.entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	m.entries = out
	if m.selected != nil && m.selected.ID == id {
		m.selected = nil
	}
	m.clampSelection()
}

func (m *Model) clampSelection() {
	if n := len(m.visibleEntries()); m.selIdx >= n {
		m.selIdx = max(n-1, 0)
	}
}

// visibleEntries applies the live search filter. Pure, order-preserving.
func (m *Model) visibleEntries() []model.JournalEntry {
	return filterEntries(m.entries, m.search.Value())
}

func filterEntries(entries []model.JournalEntry, term string) []model.JournalEntry {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return entries
	}
	out := make([]model.JournalEntry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Title), term) ||
			strings.Contains(strings.ToLower(e.Content), term) {
			out = append(out, e)
		}
	}
	return out
}
