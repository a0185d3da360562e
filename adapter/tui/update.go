package tui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/forest33/framescope/business/entity"
)

const timeFormat = "15:04:05.000"

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "f":
			m.follow = !m.follow
			if m.follow {
				m.table.GotoBottom()
				m.showSelected()
			}
			return m, nil
		case "pgup", "pgdown":
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
		m.follow = false

	case tea.WindowSizeMsg:
		m.detail.Width = msg.Width
		m.table.SetWidth(msg.Width)
		return m, nil

	case tickMsg:
		m.refresh()
		return m, m.tickCmd()
	}

	m.table, cmd = m.table.Update(msg)
	m.showSelected()
	return m, cmd
}

func (m *Model) refresh() {
	m.state = m.uc.GetState()
	m.reports = m.uc.GetReports(m.cfg.HistoryRows)

	rows := make([]table.Row, len(m.reports))
	for i, rec := range m.reports {
		rows[i] = table.Row{
			strconv.FormatUint(rec.ID, 10),
			rec.Timestamp.Format(timeFormat),
			strconv.Itoa(rec.OriginalLength),
			rec.Summary,
		}
	}
	m.table.SetRows(rows)

	if m.follow {
		m.table.GotoBottom()
	}
	m.showSelected()
}

func (m *Model) showSelected() {
	rec := m.selected()
	if rec == nil {
		m.detail.SetContent("")
		return
	}
	m.detail.SetContent(rec.Detail)
}

func (m *Model) selected() *entity.ReportRecord {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.reports) {
		return nil
	}
	return m.reports[i]
}
