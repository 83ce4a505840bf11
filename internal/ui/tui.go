// Package ui provides the optional terminal dashboard.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/bouldy-go/internal/archive"
	"github.com/nibzard/bouldy-go/internal/events"
	"github.com/nibzard/bouldy-go/internal/notes"
	"github.com/nibzard/bouldy-go/internal/todo"
	"github.com/nibzard/bouldy-go/internal/vault"
)

// Option configures the dashboard.
type Option func(*dashboardConfig)

type dashboardConfig struct {
	refresh time.Duration
	rows    int
}

// WithRefresh sets how often the dashboard reloads without an event.
func WithRefresh(d time.Duration) Option {
	return func(c *dashboardConfig) {
		if d > 0 {
			c.refresh = d
		}
	}
}

// WithRows sets how many todos, notes and events each section shows.
func WithRows(n int) Option {
	return func(c *dashboardConfig) {
		if n > 0 {
			c.rows = n
		}
	}
}

// RunDashboard shows live vault state until the user quits or ctx is done.
func RunDashboard(ctx context.Context, svc *vault.Service, bus *events.Bus, opts ...Option) error {
	c := &dashboardConfig{refresh: 5 * time.Second, rows: 8}
	for _, opt := range opts {
		opt(c)
	}
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("dashboard requires a TTY")
	}

	feed := make(chan events.Event, 64)
	id := bus.Subscribe(func(ev events.Event) {
		select {
		case feed <- ev:
		default:
		}
	})
	defer bus.Unsubscribe(id)

	model := newModel(svc, feed, c)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

type pane int

const (
	paneTodos pane = iota
	paneNotes
	paneEvents
)

type todoFilter int

const (
	filterAll todoFilter = iota
	filterOpen
	filterDone
)

func (f todoFilter) String() string {
	switch f {
	case filterOpen:
		return "open"
	case filterDone:
		return "completed"
	}
	return "all"
}

type model struct {
	svc     *vault.Service
	feed    <-chan events.Event
	refresh time.Duration
	rows    int

	todos    []todo.Item
	stats    archive.Stats
	meta     archive.Metadata
	notes    []notes.Note
	recent   []events.Event
	loadErr  error
	focus    pane
	filter   todoFilter
	showHelp bool
	width    int
}

type tickMsg time.Time

type eventMsg events.Event

type feedClosedMsg struct{}

func newModel(svc *vault.Service, feed <-chan events.Event, c *dashboardConfig) *model {
	return &model{svc: svc, feed: feed, refresh: c.refresh, rows: c.rows}
}

func (m *model) Init() tea.Cmd {
	m.reloadTodos()
	m.reloadNotes()
	return tea.Batch(tickCmd(m.refresh), waitForEvent(m.feed))
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r", "f5":
			m.reloadTodos()
			m.reloadNotes()
		case "tab":
			m.focus = (m.focus + 1) % 3
		case "h", "?":
			m.showHelp = !m.showHelp
		case "1":
			m.filter = filterOpen
		case "2":
			m.filter = filterDone
		case "0":
			m.filter = filterAll
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		m.reloadTodos()
		m.reloadNotes()
		return m, tickCmd(m.refresh)
	case eventMsg:
		m.observe(events.Event(msg))
		return m, waitForEvent(m.feed)
	case feedClosedMsg:
		return m, nil
	}
	return m, nil
}

// observe records ev and reloads whatever it invalidates.
func (m *model) observe(ev events.Event) {
	m.recent = append(m.recent, ev)
	if len(m.recent) > m.rows {
		m.recent = m.recent[len(m.recent)-m.rows:]
	}
	switch ev.Name {
	case events.TodosChanged:
		m.reloadTodos()
	case events.NoteListUpdated, events.NoteCreated, events.NoteDeleted, events.NoteSaved:
		m.reloadNotes()
	}
}

func (m *model) reloadTodos() {
	items, err := m.svc.LoadTodos()
	if err != nil {
		m.loadErr = err
		return
	}
	stats, err := m.svc.TodoStats()
	if err != nil {
		m.loadErr = err
		return
	}
	meta, err := m.svc.TodoMetadata()
	if err != nil {
		m.loadErr = err
		return
	}
	m.loadErr = nil
	m.todos, m.stats, m.meta = items, stats, meta
}

func (m *model) reloadNotes() {
	list, err := m.svc.ListNotes()
	if err != nil {
		m.loadErr = err
		return
	}
	m.notes = list
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return feedClosedMsg{}
		}
		return eventMsg(ev)
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	focusStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	doneStyle    = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("241"))
	dueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	sectionStyle = lipgloss.NewStyle().PaddingLeft(2)
)

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Bouldy") + "  " + mutedStyle.Render(m.svc.Root()) + "\n\n")

	if m.showHelp {
		b.WriteString(helpText())
		b.WriteString(m.footer())
		return b.String()
	}
	if m.loadErr != nil {
		b.WriteString(errorStyle.Render("Error: "+m.loadErr.Error()) + "\n\n")
	}

	b.WriteString(m.overview())
	b.WriteString(m.section(paneTodos, "Todos ("+m.filter.String()+")", m.todoLines()))
	b.WriteString(m.section(paneNotes, "Recent notes", m.noteLines()))
	b.WriteString(m.section(paneEvents, "Events", m.eventLines()))
	b.WriteString(m.footer())
	return b.String()
}

func (m *model) overview() string {
	open, done := 0, 0
	for _, it := range m.todos {
		if it.Completed {
			done++
		} else {
			open++
		}
	}
	today := m.stats.CompletionsByDay[time.Now().Format("2006-01-02")]
	return fmt.Sprintf("  Open: %d  Done: %d  Today: %d/%d  Streak: %d (best %d)  Archived: %d\n\n",
		open, done, today, m.meta.DailyLimit, m.stats.CurrentStreak, m.stats.LongestStreak, m.stats.TotalCompleted)
}

func (m *model) section(p pane, title string, lines []string) string {
	head := headerStyle.Render(title)
	if m.focus == p {
		head = focusStyle.Render("> ") + head
	}
	body := strings.Join(lines, "\n")
	if body == "" {
		body = mutedStyle.Render("(none)")
	}
	return head + "\n" + sectionStyle.Render(body) + "\n\n"
}

func (m *model) todoLines() []string {
	var lines []string
	for _, it := range m.todos {
		if (m.filter == filterOpen && it.Completed) || (m.filter == filterDone && !it.Completed) {
			continue
		}
		lines = append(lines, formatTodo(it))
		if len(lines) >= m.rows {
			break
		}
	}
	return lines
}

func (m *model) noteLines() []string {
	var lines []string
	for i, n := range m.notes {
		if i >= m.rows {
			break
		}
		when := time.Unix(n.Modified, 0).Format("Jan 02 15:04")
		line := fmt.Sprintf("%s  %s", mutedStyle.Render(when), n.Title)
		if n.IsSymlink {
			line += mutedStyle.Render(" (link)")
		}
		lines = append(lines, line)
	}
	return lines
}

func (m *model) eventLines() []string {
	lines := make([]string, 0, len(m.recent))
	for i := len(m.recent) - 1; i >= 0; i-- {
		ev := m.recent[i]
		line := fmt.Sprintf("%s  %s", mutedStyle.Render(ev.Timestamp.Format("15:04:05")), ev.Name)
		if info, ok := ev.Payload.(events.NoteInfo); ok {
			line += "  " + info.Name
		}
		lines = append(lines, line)
	}
	return lines
}

func formatTodo(it todo.Item) string {
	box := "[ ]"
	if it.Completed {
		box = "[x]"
	}
	title := it.Title
	if it.Priority != "" {
		title = "(" + it.Priority + ") " + title
	}
	if it.Completed {
		title = doneStyle.Render(title)
	}
	line := fmt.Sprintf("%s %2d %s", box, it.ID, title)
	for _, p := range it.Projects {
		line += " +" + p
	}
	for _, c := range it.Contexts {
		line += " @" + c
	}
	if it.DueDate != "" {
		line += " " + dueStyle.Render("due "+it.DueDate)
	}
	if n := len(it.Subtasks); n > 0 {
		done := 0
		for _, s := range it.Subtasks {
			if s.Completed {
				done++
			}
		}
		line += mutedStyle.Render(fmt.Sprintf(" [%d/%d]", done, n))
	}
	return line
}

func helpText() string {
	return headerStyle.Render("Keyboard Shortcuts") + "\n\n" +
		"  q, ctrl+c    Quit\n" +
		"  r, F5        Reload vault\n" +
		"  tab          Move focus\n" +
		"  h, ?         Toggle this help screen\n" +
		"  1            Show open todos\n" +
		"  2            Show completed todos\n" +
		"  0            Show all todos\n\n"
}

func (m *model) footer() string {
	return mutedStyle.Render(fmt.Sprintf("Press h for help | q to quit | Reloading every %s", m.refresh)) + "\n"
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
