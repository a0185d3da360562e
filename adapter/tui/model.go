// Package tui shows live reports in the terminal.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/forest33/framescope/business/entity"
)

type SnifferUseCase interface {
	GetState() entity.CaptureState
	GetReports(limit int) []*entity.ReportRecord
}

type Config struct {
	RefreshInterval time.Duration
	VisibleRows     int
	HistoryRows     int
}

// Model lists the newest reports and shows the detail of the selected one.
type Model struct {
	uc      SnifferUseCase
	cfg     *Config
	state   entity.CaptureState
	reports []*entity.ReportRecord
	table   table.Model
	detail  viewport.Model
	follow  bool
}

type tickMsg time.Time

const (
	defaultRefreshInterval = 250 * time.Millisecond
	detailHeight           = 12
	summaryWidth           = 72
)

func New(cfg *Config, uc SnifferUseCase) Model {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaultRefreshInterval
	}
	if cfg.HistoryRows < cfg.VisibleRows {
		cfg.HistoryRows = cfg.VisibleRows * 4
	}

	columns := []table.Column{
		{Title: "ID", Width: 8},
		{Title: "Time", Width: 12},
		{Title: "Len", Width: 6},
		{Title: "Summary", Width: summaryWidth},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(cfg.VisibleRows),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return Model{
		uc:     uc,
		cfg:    cfg,
		table:  t,
		detail: viewport.New(summaryWidth+32, detailHeight),
		follow: true,
	}
}

// Run shows the UI until the user quits or ctx is done.
func Run(ctx context.Context, cfg *Config, uc SnifferUseCase) error {
	p := tea.NewProgram(New(cfg, uc), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.cfg.RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
