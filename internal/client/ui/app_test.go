package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/lumina-journal/lumina/internal/client"
	"github.com/lumina-journal/lumina/internal/model"
)

// The FSM tests drive Update with messages directly; the API base points at
// a closed port so any accidental network call fails loudly.
func newTestModel(t *testing.T) Model {
	t.Helper()
	api := client.NewAPI("http://127.0.0.1:1")
	sess := client.NewSession(api, client.NewTokenStoreAt(t.TempDir()))
	return New(sess, client.NewEntryRepo(api, sess), zap.NewNop())
}

func apply(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out, cmd
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func someUser() model.User {
	return model.User{ID: uuid.Must(uuid.NewV4()), Email: "a@b.com", DisplayName: "Jane"}
}

func someEntry(owner uuid.UUID, title string) model.JournalEntry {
	now := time.Now().Add(-time.Hour)
	return model.JournalEntry{
		ID:        uuid.Must(uuid.NewV4()),
		OwnerID:   owner,
		Title:     title,
		Content:   "Plenty of content in this entry.",
		CreatedAt: now,
		UpdatedAt: now,
		Tags:      []string{"old"},
		Sentiment: model.SentimentNeutral,
		AISummary: "old summary",
	}
}

func signedIn(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = apply(t, m, sessionRestoredMsg{user: someUser(), ok: true})
	if m.state != viewDashboard {
		t.Fatalf("state = %v, want dashboard", m.state)
	}
	return m
}

func TestRestore_RoutesToLoginOrDashboard(t *testing.T) {
	m := newTestModel(t)
	if m.state != viewInit {
		t.Fatalf("initial state = %v", m.state)
	}

	m2, _ := apply(t, m, sessionRestoredMsg{})
	if m2.state != viewLogin {
		t.Fatalf("no session: state = %v, want login", m2.state)
	}

	m3, cmd := apply(t, m, sessionRestoredMsg{user: someUser(), ok: true})
	if m3.state != viewDashboard || cmd == nil {
		t.Fatalf("session: state = %v cmd = %v", m3.state, cmd)
	}
}

func TestAuth_ToggleClearsFormAndError(t *testing.T) {
	m := newTestModel(t)
	m, _ = apply(t, m, sessionRestoredMsg{})
	m.email.SetValue("a@b.com")
	m.authErr = "Incorrect email or password."

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.state != viewSignup || m.email.Value() != "" || m.authErr != "" {
		t.Fatalf("toggle: state=%v email=%q err=%q", m.state, m.email.Value(), m.authErr)
	}

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.state != viewLogin {
		t.Fatalf("toggle back: state = %v", m.state)
	}
}

func TestLogin_SuccessEntersDashboard(t *testing.T) {
	m := newTestModel(t)
	m, _ = apply(t, m, sessionRestoredMsg{})
	u := someUser()

	m, cmd := apply(t, m, authDoneMsg{user: u, gen: m.gen})
	if m.state != viewDashboard || m.user.ID != u.ID || cmd == nil {
		t.Fatalf("login: state=%v user=%v cmd=%v", m.state, m.user.ID, cmd)
	}
}

func TestLogin_FailureStaysWithBanner(t *testing.T) {
	m := newTestModel(t)
	m, _ = apply(t, m, sessionRestoredMsg{})
	m.authLoading = true

	m, _ = apply(t, m, authDoneMsg{err: errors.New("Incorrect"), gen: m.gen})
	if m.state != viewLogin || m.authErr == "" || m.authLoading {
		t.Fatalf("failure: state=%v err=%q loading=%v", m.state, m.authErr, m.authLoading)
	}
}

func TestSignup_PendingConfirmationShowsNotice(t *testing.T) {
	m := newTestModel(t)
	m, _ = apply(t, m, sessionRestoredMsg{})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})

	m, _ = apply(t, m, authDoneMsg{pending: true, gen: m.gen})
	if m.state != viewLogin || m.notice == "" {
		t.Fatalf("pending: state=%v notice=%q", m.state, m.notice)
	}
}

func TestStaleGenerationDiscarded(t *testing.T) {
	m := newTestModel(t)
	m = signedIn(t, m)
	stale := m.gen - 1

	before := m.state
	m, _ = apply(t, m, entriesLoadedMsg{entries: []model.JournalEntry{someEntry(m.user.ID, "X")}, gen: stale})
	if len(m.entries) != 0 || m.state != before {
		t.Fatalf("stale result applied: entries=%d", len(m.entries))
	}

	m, _ = apply(t, m, authDoneMsg{user: someUser(), gen: stale})
	if m.state != before {
		t.Fatalf("stale auth result navigated")
	}
}

func TestDashboard_NavigationAndOpen(t *testing.T) {
	m := newTestModel(t)
	m = signedIn(t, m)
	a := someEntry(m.user.ID, "Alpha")
	b := someEntry(m.user.ID, "Beta")
	m, _ = apply(t, m, entriesLoadedMsg{entries: []model.JournalEntry{a, b}, gen: m.gen})
	if m.dataLoading {
		t.Fatalf("still loading after entries arrived")
	}

	m, _ = apply(t, m, key("j"))
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != viewEntry || m.selected == nil || m.selected.ID != b.ID {
		t.Fatalf("open: state=%v selected=%+v", m.state, m.selected)
	}

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != viewDashboard {
		t.Fatalf("back: state = %v", m.state)
	}
}

func TestCreate_SaveTransitionsToView(t *testing.T) {
	m := newTestModel(t)
	m = signedIn(t, m)
	m, _ = apply(t, m, entriesLoadedMsg{gen: m.gen})

	m, _ = apply(t, m, key("n"))
	if m.state != viewCreate {
		t.Fatalf("state = %v, want create", m.state)
	}

	m.title.SetValue("Day One")
	m.content.SetValue("It was sunny.")
	cand, err := m.buildCandidate()
	if err != nil {
		t.Fatalf("buildCandidate: %v", err)
	}
	if cand.ID == uuid.Nil || !cand.CreatedAt.Equal(cand.UpdatedAt) || len(cand.Tags) != 0 {
		t.Fatalf("bad candidate: %+v", cand)
	}

	m2, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m2.saving || cmd == nil {
		t.Fatalf("save not started")
	}

	m3, _ := apply(t, m2, entrySavedMsg{entry: cand, gen: m2.gen})
	if m3.state != viewEntry || m3.selected == nil || m3.selected.ID != cand.ID {
		t.Fatalf("after save: state=%v selected=%+v", m3.state, m3.selected)
	}
	if len(m3.entries) != 1 || m3.entries[0].ID != cand.ID {
		t.Fatalf("list not updated: %+v", m3.entries)
	}
}

func TestCreate_EmptyFormRejectedLocally(t *testing.T) {
	m := newTestModel(t)
	m = signedIn(t, m)
	m, _ = apply(t, m, key("n"))
	m.title.SetValue("   ")
	m.content.SetValue("x")

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil || m.saving || m.status == "" || m.state != viewCreate {
		t.Fatalf("blank title accepted: saving=%v status=%q", m.saving, m.status)
	}
}

func TestEdit_PreservesIdentityAndAnnotations(t *testing.T) {
	m := newTestModel(t)
	m = signedIn(t, m)
	e := someEntry(m.user.ID, "Alpha")
	m, _ = apply(t, m, entriesLoadedMsg{entries: []model.JournalEntry{e}, gen: m.gen})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = apply(t, m, key("e"))
	if m.state != viewEdit || m.title.Value() != "Alpha" {
		t.Fatalf("edit form not prefilled: state=%v title=%q", m.state, m.title.Value())
	}

	m.title.SetValue("Alpha, revised")
	cand, err := m.buildCandidate()
	if err != nil {
		t.Fatalf("buildCandidate: %v", err)
	}
	if cand.ID != e.ID || !cand.CreatedAt.Equal(e.CreatedAt) {
		t.Fatalf("identity not preserved: %+v", cand)
	}
	if cand.Sentiment != e.Sentiment || cand.AISummary != e.AISummary || len(cand.Tags) != 1 {
		t.Fatalf("annotations not preserved: %+v", cand)
	}
	if !cand.UpdatedAt.After(e.UpdatedAt) {
		t.Fatalf("updatedAt not refreshed")
	}
}

func TestSave_FailureKeepsFormState(t *testing.T) {
	m := newTestModel(t)
	m = signedIn(t, m)
	m, _ = apply(t, m, key("n"))
	m.title.SetValue("T")
	m.content.SetValue("C")
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	m, _ = apply(t, m, entrySavedMsg{err: errors.New("store down"), gen: m.gen})
	if m.state != viewCreate || m.status == "" || m.saving {
		t.Fatalf("failure handling: state=%v status=%q", m.state, m.status)
	}
	if m.title.Value() != "T" || m.content.Value() != "C" {
		t.Fatalf("form buffer lost")
	}
}

func TestDelete_ConfirmCancelAndSuccess(t *testing.T) {
	m := newTestModel(t)
	m = signedIn(t, m)
	e := someEntry(m.user.ID, "Alpha")
	m, _ = apply(t, m, entriesLoadedMsg{entries: []model.JournalEntry{e}, gen: m.gen})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, cmd := apply(t, m, key("d"))
	if !m.confirmDelete || cmd != nil {
		t.Fatalf("no confirm step")
	}
	m, _ = apply(t, m, key("n"))
	if m.confirmDelete || len(m.entries) != 1 {
		t.Fatalf("cancel did not keep the entry")
	}

	m, _ = apply(t, m, key("d"))
	m, cmd = apply(t, m, key("y"))
	if !m.deleting || cmd == nil {
		t.Fatalf("delete not started")
	}
	m, _ = apply(t, m, entryDeletedMsg{id: e.ID, gen: m.gen})
	if m.state != viewDashboard || len(m.entries) != 0 {
		t.Fatalf("after delete: state=%v entries=%d", m.state, len(m.entries))
	}
}

func TestDelete_FailureKeepsListAndScreen(t *testing.T) {
	m := newTestModel(t)
	m = signedIn(t, m)
	e := someEntry(m.user.ID, "Alpha")
	m, _ = apply(t, m, entriesLoadedMsg{entries: []model.JournalEntry{e}, gen: m.gen})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = apply(t, m, key("d"))
	m, _ = apply(t, m, key("y"))

	m, _ = apply(t, m, entryDeletedMsg{id: e.ID, err: errors.New("store down"), gen: m.gen})
	if m.state != viewEntry || len(m.entries) != 1 || m.status == "" {
		t.Fatalf("failed delete: state=%v entries=%d", m.state, len(m.entries))
	}
}

func TestAnnotate_TooShortNeverStarts(t *testing.T) {
	m := newTestModel(t)
	m = signedIn(t, m)
	e := someEntry(m.user.ID, "Alpha")
	e.Content = "short"
	m, _ = apply(t, m, entriesLoadedMsg{entries: []model.JournalEntry{e}, gen: m.gen})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, cmd := apply(t, m, key("a"))
	if cmd != nil || m.analyzing || m.status == "" {
		t.Fatalf("short text reached the analyzer")
	}
	if m.selected.Sentiment != e.Sentiment {
		t.Fatalf("entry mutated")
	}
}

func TestAnnotate_SuccessMergesIntoSelectionAndList(t *testing.T) {
	m := newTestModel(t)
	m = signedIn(t, m)
	e := someEntry(m.user.ID, "Alpha")
	m, _ = apply(t, m, entriesLoadedMsg{entries: []model.JournalEntry{e}, gen: m.gen})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd := apply(t, m, key("a"))
	if !m.analyzing || cmd == nil {
		t.Fatalf("annotate not started")
	}

	merged := e
	merged.Sentiment = model.SentimentPositive
	merged.Tags = []string{"park", "friends"}
	merged.AISummary = "A wonderful day."
	m, _ = apply(t, m, annotatedMsg{entry: merged, gen: m.gen})
	if m.analyzing || m.selected.Sentiment != model.SentimentPositive {
		t.Fatalf("merge not applied: %+v", m.selected)
	}
	if m.entries[0].AISummary != "A wonderful day." {
		t.Fatalf("list copy not updated")
	}
}

func TestAnnotate_FailureLeavesEntryUntouched(t *testing.T) {
	m := newTestModel(t)
	m = signedIn(t, m)
	e := someEntry(m.user.ID, "Alpha")
	m, _ = apply(t, m, entriesLoadedMsg{entries: []model.JournalEntry{e}, gen: m.gen})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = apply(t, m, key("a"))

	m, _ = apply(t, m, annotatedMsg{err: errors.New("bad gateway"), gen: m.gen})
	if m.status == "" || m.selected.Sentiment != e.Sentiment || m.entries[0].AISummary != e.AISummary {
		t.Fatalf("failed annotation altered the entry")
	}
}

func TestSignedOutEventForcesLogin(t *testing.T) {
	m := newTestModel(t)
	m = signedIn(t, m)
	m, _ = apply(t, m, entriesLoadedMsg{entries: []model.JournalEntry{someEntry(m.user.ID, "A")}, gen: m.gen})

	m, _ = apply(t, m, authEventMsg{ev: client.AuthEvent{Kind: client.SignedOut}})
	if m.state != viewLogin || len(m.entries) != 0 || m.user.ID != uuid.Nil {
		t.Fatalf("sign-out: state=%v entries=%d", m.state, len(m.entries))
	}
}

func TestSignedInEventIsIdempotent(t *testing.T) {
	m := newTestModel(t)
	m = signedIn(t, m)
	u := m.user
	m, _ = apply(t, m, entriesLoadedMsg{entries: []model.JournalEntry{someEntry(u.ID, "A")}, gen: m.gen})

	// a late SIGNED_IN for the same user must not reset the dashboard
	m, _ = apply(t, m, authEventMsg{ev: client.AuthEvent{Kind: client.SignedIn, User: u}})
	if m.state != viewDashboard || len(m.entries) != 1 {
		t.Fatalf("idempotent sign-in broke state: entries=%d", len(m.entries))
	}
}

func TestFilterEntries(t *testing.T) {
	a := someEntry(uuid.Must(uuid.NewV4()), "Morning Walk")
	a.Content = "Crisp air."
	b := someEntry(a.OwnerID, "Work notes")
	b.Content = "The WALK to the office."
	c := someEntry(a.OwnerID, "Dinner")
	c.Content = "Pasta."
	all := []model.JournalEntry{a, b, c}

	if got := filterEntries(all, ""); len(got) != 3 {
		t.Fatalf("empty term: %d", len(got))
	}
	got := filterEntries(all, "walk")
	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != b.ID {
		t.Fatalf("case-insensitive title+content filter broken: %+v", got)
	}
	if got := filterEntries(all, "  WALK "); len(got) != 2 {
		t.Fatalf("term not trimmed/lowered")
	}
	if got := filterEntries(all, "zzz"); len(got) != 0 {
		t.Fatalf("no-match filter returned entries")
	}
}

func TestViewRendersEachScreen(t *testing.T) {
	m := newTestModel(t)
	if m.View() == "" {
		t.Fatalf("init view empty")
	}
	m, _ = apply(t, m, sessionRestoredMsg{})
	if m.View() == "" {
		t.Fatalf("login view empty")
	}
	m = signedIn(t, newTestModel(t))
	e := someEntry(m.user.ID, "Alpha")
	m, _ = apply(t, m, entriesLoadedMsg{entries: []model.JournalEntry{e}, gen: m.gen})
	if m.View() == "" {
		t.Fatalf("dashboard view empty")
	}
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.View() == "" {
		t.Fatalf("entry view empty")
	}
	m, _ = apply(t, m, key("e"))
	if m.View() == "" {
		t.Fatalf("edit view empty")
	}
}
