package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/forest33/framescope/business/entity"
)

type mockSnifferUseCase struct {
	state   entity.CaptureState
	reports []*entity.ReportRecord
}

func (m *mockSnifferUseCase) GetState() entity.CaptureState {
	return m.state
}

func (m *mockSnifferUseCase) GetReports(limit int) []*entity.ReportRecord {
	if limit > 0 && limit < len(m.reports) {
		return m.reports[len(m.reports)-limit:]
	}
	return m.reports
}

func newTestModel() (Model, *mockSnifferUseCase) {
	uc := &mockSnifferUseCase{
		state: entity.CaptureState{Device: "eth0", Running: true, Frames: 3, Reports: 2, Bytes: 2048},
		reports: []*entity.ReportRecord{
			{ID: 1, Timestamp: time.Now(), OriginalLength: 60, Summary: "IPv4 TCP 10.0.0.1:443 -> 10.0.0.2:51000", Detail: "first detail"},
			{ID: 2, Timestamp: time.Now(), OriginalLength: 42, Summary: "ethertype=0x0806 len=42", Detail: "second detail"},
		},
	}
	return New(&Config{VisibleRows: 5}, uc), uc
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return model, cmd
}

func TestTickRefresh(t *testing.T) {
	m, _ := newTestModel()

	m, cmd := update(t, m, tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick was not rescheduled")
	}

	view := m.View()
	for _, want := range []string{"eth0", "[capturing]", "Frames: 3", "2.00 KiB", "ethertype=0x0806 len=42"} {
		if !strings.Contains(view, want) {
			t.Errorf("view does not contain %q", want)
		}
	}

	// following: the newest report is selected
	if rec := m.selected(); rec == nil || rec.ID != 2 {
		t.Fatalf("expected newest report selected, got %+v", rec)
	}
	if !strings.Contains(m.detail.View(), "second detail") {
		t.Errorf("detail pane does not show selected report")
	}
}

func TestSelectionStopsFollowing(t *testing.T) {
	m, uc := newTestModel()
	m, _ = update(t, m, tickMsg(time.Now()))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.follow {
		t.Fatal("still following after manual selection")
	}
	if rec := m.selected(); rec == nil || rec.ID != 1 {
		t.Fatalf("expected first report selected, got %+v", rec)
	}

	uc.reports = append(uc.reports, &entity.ReportRecord{ID: 3, Summary: "IPv6 UDP [::1]:1 -> [::1]:2"})
	m, _ = update(t, m, tickMsg(time.Now()))
	if rec := m.selected(); rec == nil || rec.ID != 1 {
		t.Fatalf("selection moved while not following: %+v", rec)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	if rec := m.selected(); !m.follow || rec == nil || rec.ID != 3 {
		t.Fatalf("follow did not jump to newest report: %+v", rec)
	}
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel()

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("no command on quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("quit key did not quit")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[uint64]string{
		0:       "0 B",
		1023:    "1023 B",
		1024:    "1.00 KiB",
		1 << 20: "1.00 MiB",
		3 << 30: "3.00 GiB",
	}
	for n, want := range tests {
		if got := formatBytes(n); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", n, got, want)
		}
	}
}
