package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lumina-journal/lumina/internal/errs"
	"github.com/lumina-journal/lumina/internal/model"
)

var errEmptyForm = errors.New("Title and content are required.")

// authMessage maps sentinel errors to the distinct user-facing messages.
func authMessage(err error) string {
	switch {
	case errors.Is(err, errs.ErrBadCredentials):
		return "Incorrect email or password."
	case errors.Is(err, errs.ErrEmailNotConfirmed):
		return "Your email is not confirmed yet. Check your inbox."
	case errors.Is(err, errs.ErrRateLimited):
		return "Too many attempts. Try again later."
	case errors.Is(err, errs.ErrAlreadyExists):
		return "An account with this email already exists."
	case errors.Is(err, errs.ErrUnauthorized):
		return "Login succeeded but no session was returned. Try again."
	default:
		return err.Error()
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	headerStyle   = lipgloss.NewStyle().Bold(true)
	faintStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	badgeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("237")).Background(lipgloss.Color("150")).Padding(0, 1)
	summaryStyle  = lipgloss.NewStyle().Italic(true).Faint(true)
	frameStyle    = lipgloss.NewStyle().Padding(1, 2)
)

var sentimentGlyph = map[model.Sentiment]string{
	model.SentimentPositive: "☀ positive",
	model.SentimentNeutral:  "– neutral",
	model.SentimentNegative: "☂ negative",
}

func (m Model) View() string {
	var body string
	switch m.state {
	case viewInit:
		body = faintStyle.Render("starting...")
	case viewLogin, viewSignup:
		body = m.viewAuth()
	case viewDashboard:
		body = m.viewDashboard()
	case viewEntry:
		body = m.viewEntry()
	case viewCreate, viewEdit:
		body = m.viewForm()
	}
	return frameStyle.Render(body)
}

func (m Model) viewAuth() string {
	var b strings.Builder
	if m.state == viewLogin {
		b.WriteString(titleStyle.Render("Lumina — log in") + "\n\n")
	} else {
		b.WriteString(titleStyle.Render("Lumina — sign up") + "\n\n")
	}

	b.WriteString(m.email.View() + "\n")
	b.WriteString(m.password.View() + "\n")
	if m.state == viewSignup {
		b.WriteString(m.name.View() + "\n")
	}
	b.WriteString("\n")

	if m.authErr != "" {
		b.WriteString(errorStyle.Render(m.authErr) + "\n")
	}
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice) + "\n")
	}
	if m.authLoading {
		b.WriteString(faintStyle.Render("working...") + "\n")
	}

	if m.state == viewLogin {
		b.WriteString(faintStyle.Render("enter: log in · ctrl+n: create an account · ctrl+c: quit"))
	} else {
		b.WriteString(faintStyle.Render("enter: sign up · ctrl+n: back to log in · ctrl+c: quit"))
	}
	return b.String()
}

func (m Model) viewDashboard() string {
	var b strings.Builder
	name := m.user.DisplayName
	if name == "" {
		name = "User"
	}
	b.WriteString(titleStyle.Render("Lumina") + faintStyle.Render("  ·  "+name) + "\n\n")

	if m.searching || m.search.Value() != "" {
		b.WriteString(m.search.View() + "\n\n")
	}

	vis := m.visibleEntries()
	switch {
	case m.dataLoading:
		b.WriteString(faintStyle.Render("loading entries...") + "\n")
	case len(vis) == 0 && m.search.Value() != "":
		b.WriteString(faintStyle.Render("nothing matches the search") + "\n")
	case len(vis) == 0:
		b.WriteString(faintStyle.Render("no entries yet — press n to write the first one") + "\n")
	default:
		for i, e := range vis {
			line := entryLine(e)
			if i == m.selIdx {
				line = selectedStyle.Render("> " + line)
			} else {
				line = "  " + line
			}
			b.WriteString(line + "\n")
		}
	}

	if m.status != "" {
		b.WriteString("\n" + errorStyle.Render(m.status) + "\n")
	}
	b.WriteString("\n" + faintStyle.Render("enter: open · n: new · /: search · r: reload · ctrl+l: log out · q: quit"))
	return b.String()
}

func entryLine(e model.JournalEntry) string {
	fav := " "
	if e.Favorite {
		fav = "★"
	}
	line := fmt.Sprintf("%s %s  %s", fav, e.CreatedAt.Format("2006-01-02"), e.Title)
	if g, ok := sentimentGlyph[e.Sentiment]; ok {
		line += "  " + faintStyle.Render(g)
	}
	return line
}

func (m Model) viewEntry() string {
	e := m.selected
	if e == nil {
		return faintStyle.Render("no entry selected")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(e.Title))
	if e.Favorite {
		b.WriteString("  ★")
	}
	b.WriteString("\n")
	b.WriteString(faintStyle.Render(fmt.Sprintf("created %s · updated %s",
		e.CreatedAt.Format("2006-01-02 15:04"), e.UpdatedAt.Format("2006-01-02 15:04"))) + "\n\n")

	b.WriteString(e.Content + "\n\n")

	if g, ok := sentimentGlyph[e.Sentiment]; ok {
		b.WriteString(headerStyle.Render("Sentiment: ") + g + "\n")
	}
	if len(e.Tags) > 0 {
		badges := make([]string, 0, len(e.Tags))
		for _, t := range e.Tags {
			badges = append(badges, badgeStyle.Render(t))
		}
		b.WriteString(strings.Join(badges, " ") + "\n")
	}
	if e.AISummary != "" {
		b.WriteString(summaryStyle.Render("“"+e.AISummary+"”") + "\n")
	}

	if m.analyzing {
		b.WriteString("\n" + faintStyle.Render("analyzing...") + "\n")
	}
	if m.status != "" {
		b.WriteString("\n" + errorStyle.Render(m.status) + "\n")
	}

	if m.confirmDelete {
		b.WriteString("\n" + errorStyle.Render("Delete this entry? y / n"))
	} else {
		b.WriteString("\n" + faintStyle.Render("e: edit · d: delete · a: analyze · f: favorite · esc: back"))
	}
	return b.String()
}

func (m Model) viewForm() string {
	var b strings.Builder
	if m.state == viewCreate {
		b.WriteString(titleStyle.Render("New entry") + "\n\n")
	} else {
		b.WriteString(titleStyle.Render("Edit entry") + "\n\n")
	}

	b.WriteString(m.title.View() + "\n\n")
	b.WriteString(m.content.View() + "\n")

	if m.saving {
		b.WriteString("\n" + faintStyle.Render("saving...") + "\n")
	}
	if m.status != "" {
		b.WriteString("\n" + errorStyle.Render(m.status) + "\n")
	}
	b.WriteString("\n" + faintStyle.Render("tab: switch field · ctrl+s: save · esc: back"))
	return b.String()
}
