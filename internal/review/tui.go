// Package review is the terminal moderation surface: browse the ingest
// queue, inspect what the model extracted, and approve or reject entries
// without leaving the shell.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Evans508/JobConnectUg/internal/model"
	"github.com/Evans508/JobConnectUg/internal/moderation"
)

// Lines per queue item in the list view (text + status line + blank separator).
const itemHeight = 3

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("39"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	entryTextStyle = lipgloss.NewStyle().
			Bold(true)

	entryMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	selectedTextStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	statusColors = map[model.LogStatus]lipgloss.Style{
		model.LogStatusPending:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		model.LogStatusParsed:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		model.LogStatusPublished: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		model.LogStatusRejected:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	}

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)

// actionDoneMsg is sent when an async approve/reject completes.
type actionDoneMsg struct {
	logID  string
	action string
	err    error
}

// queueLoadedMsg is sent when the ingest queue (re)load completes.
type queueLoadedMsg struct {
	entries []model.IngestLog
	err     error
}

type reviewModel struct {
	svc     *moderation.Service
	entries []model.IngestLog

	listViewport   viewport.Model
	detailViewport viewport.Model
	cursor         int
	width          int
	height         int
	ready          bool
	showDetail     bool

	busy    bool
	lastErr string
	notice  string
}

// Run loads the ingest queue and starts the TUI. Blocks until the user quits.
func Run(ctx context.Context, svc *moderation.Service) error {
	entries, err := svc.ListIngestQueue(ctx)
	if err != nil {
		return fmt.Errorf("loading ingest queue: %w", err)
	}

	m := reviewModel{svc: svc, entries: entries}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m reviewModel) Init() tea.Cmd {
	return nil
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case queueLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.lastErr = fmt.Sprintf("reload failed: %v", msg.err)
			return m, nil
		}
		m.entries = msg.entries
		if m.cursor >= len(m.entries) {
			m.cursor = max(len(m.entries)-1, 0)
		}
		m.recalcContent()
		return m, nil

	case actionDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.lastErr = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
			return m, nil
		}
		m.lastErr = ""
		m.notice = fmt.Sprintf("entry %s %sd", shortID(msg.logID), msg.action)
		return m, m.reloadCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m reviewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1)
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		return m, nil
	case "enter":
		m.showDetail = !m.showDetail
		m.recalcContent()
		return m, nil
	case "a":
		return m.actionCmd("approve")
	case "r":
		return m.actionCmd("reject")
	case "R":
		m.busy = true
		return m, m.reloadCmd()
	}

	var cmd tea.Cmd
	if m.showDetail {
		m.detailViewport, cmd = m.detailViewport.Update(msg)
	} else {
		m.listViewport, cmd = m.listViewport.Update(msg)
	}
	return m, cmd
}

func (m reviewModel) actionCmd(action string) (tea.Model, tea.Cmd) {
	if m.busy || len(m.entries) == 0 {
		return m, nil
	}
	entry := m.entries[m.cursor]
	if entry.Status.Terminal() {
		m.lastErr = fmt.Sprintf("entry %s is already %s", shortID(entry.ID), entry.Status)
		return m, nil
	}

	m.busy = true
	m.lastErr = ""
	svc := m.svc
	return m, func() tea.Msg {
		var err error
		if action == "approve" {
			err = svc.ApproveIngest(context.Background(), entry.ID)
		} else {
			err = svc.RejectIngest(context.Background(), entry.ID)
		}
		return actionDoneMsg{logID: entry.ID, action: action, err: err}
	}
}

func (m reviewModel) reloadCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		entries, err := svc.ListIngestQueue(context.Background())
		return queueLoadedMsg{entries: entries, err: err}
	}
}

func (m *reviewModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(len(m.entries)-1, 0))
	m.recalcContent()

	cursorTop := m.cursor * itemHeight
	cursorBottom := cursorTop + itemHeight - 1
	if cursorTop < m.listViewport.YOffset {
		m.listViewport.SetYOffset(cursorTop)
	} else if cursorBottom >= m.listViewport.YOffset+m.listViewport.Height {
		m.listViewport.SetYOffset(cursorBottom - m.listViewport.Height + 1)
	}
}

func (m *reviewModel) recalcLayout() {
	inner := m.height - 6 // header + border + status bar
	if inner < 3 {
		inner = 3
	}
	m.listViewport = viewport.New(m.width-4, inner)
	m.detailViewport = viewport.New(m.width-4, inner)
	m.ready = true
	m.recalcContent()
}

func (m *reviewModel) recalcContent() {
	if !m.ready {
		return
	}
	m.listViewport.SetContent(m.renderList())
	if m.showDetail && len(m.entries) > 0 {
		m.detailViewport.SetContent(m.renderDetail(m.entries[m.cursor]))
		m.detailViewport.SetYOffset(0)
	}
}

func (m reviewModel) View() string {
	if !m.ready {
		return "loading..."
	}

	var body string
	title := "Ingest queue"
	if m.showDetail && len(m.entries) > 0 {
		title = "Entry " + shortID(m.entries[m.cursor].ID)
		body = m.detailViewport.View()
	} else {
		body = m.listViewport.View()
	}

	pane := borderStyle.Width(m.width - 2).Render(body)
	header := headerStyle.Render(fmt.Sprintf("%s (%d entries)", title, len(m.entries)))

	bar := "a approve · r reject · R reload · enter detail · q quit"
	if m.busy {
		bar = "working..."
	}
	if m.lastErr != "" {
		bar = errorStyle.Render(m.lastErr)
	} else if m.notice != "" {
		bar = m.notice + "  ·  " + bar
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		pane,
		statusBarStyle.Width(m.width).Render(bar),
	)
}

func (m reviewModel) renderList() string {
	if len(m.entries) == 0 {
		return entryMetaStyle.Render("queue is empty")
	}

	var b strings.Builder
	for i, entry := range m.entries {
		text := firstLine(entry.RawText)
		meta := fmt.Sprintf("%s  %s  %s",
			statusColors[entry.Status].Render(string(entry.Status)),
			entry.CreatedAt.Format(time.DateTime),
			entry.Reason,
		)

		if i == m.cursor {
			b.WriteString(selectedTextStyle.Render(text) + "\n")
			b.WriteString(selectedMetaStyle.Render(meta) + "\n\n")
		} else {
			b.WriteString(entryTextStyle.Render(text) + "\n")
			b.WriteString(entryMetaStyle.Render(meta) + "\n\n")
		}
	}
	return b.String()
}

func (m reviewModel) renderDetail(entry model.IngestLog) string {
	var b strings.Builder
	b.WriteString(entryTextStyle.Render("Raw message") + "\n")
	b.WriteString(entry.RawText + "\n\n")

	b.WriteString(entryTextStyle.Render("Extracted candidates") + "\n")
	if len(entry.ParsedJSON) == 0 {
		b.WriteString(entryMetaStyle.Render("(not extracted yet)") + "\n")
		return b.String()
	}

	var result model.ExtractionResult
	if err := json.Unmarshal(entry.ParsedJSON, &result); err != nil {
		b.WriteString(errorStyle.Render("unreadable payload: "+err.Error()) + "\n")
		return b.String()
	}
	if len(result.Jobs) == 0 {
		b.WriteString(entryMetaStyle.Render("(none)") + "\n")
		return b.String()
	}

	for _, c := range result.Jobs {
		conf := "confidence n/a"
		if c.Confidence != nil {
			conf = fmt.Sprintf("confidence %.2f", *c.Confidence)
		}
		b.WriteString(fmt.Sprintf("- %s — %s (%s, %s)\n", c.Title, orUnknown(c.Company), orUnknown(c.Location), conf))
		if c.Description != "" {
			b.WriteString("  " + entryMetaStyle.Render(c.Description) + "\n")
		}
	}
	return b.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[:nl]
	}
	const maxLen = 80
	if len(s) > maxLen {
		return s[:maxLen-1] + "…"
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
