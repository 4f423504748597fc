package ui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

func newTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})
}

// StatsRow is one live room as reported by the coordinator.
type StatsRow struct {
	Key          string
	Members      int
	Waiting      int
	ChatMessages int
	Oldest       time.Duration
}

// StatsView renders the coordinator's room snapshot.
func StatsView(connections int, rows []StatsRow) string {
	header := fmt.Sprintf("%s %d connections, %d rooms", IconRoom, connections, len(rows))
	if len(rows) == 0 {
		return header + "\n" + MutedStyle.Render("No active meetings")
	}

	body := make([][]string, 0, len(rows))
	for _, r := range rows {
		body = append(body, []string{
			TruncateString(r.Key, 48),
			strconv.Itoa(r.Members),
			strconv.Itoa(r.Waiting),
			strconv.Itoa(r.ChatMessages),
			FormatDuration(r.Oldest),
		})
	}
	return header + "\n" + newTable([]string{"Meeting", "Members", "Waiting", "Chat", "Longest"}, body).Render()
}

// ProbeRow is the connectivity result for one remote member.
type ProbeRow struct {
	Name   string
	ID     string
	Status string
	RTT    time.Duration
	Err    string
}

func ProbeView(rows []ProbeRow) string {
	if len(rows) == 0 {
		return MutedStyle.Render("Nobody to probe")
	}

	body := make([][]string, 0, len(rows))
	for i, r := range rows {
		rtt := "-"
		if r.RTT > 0 {
			rtt = r.RTT.Round(100 * time.Microsecond).String()
		}
		name := r.Name
		if name == "" {
			name = MutedStyle.Render("(unnamed)")
		}
		body = append(body, []string{
			strconv.Itoa(i + 1),
			TruncateString(name, 24),
			TruncateString(r.ID, 12),
			r.Status,
			rtt,
			TruncateString(r.Err, 40),
		})
	}
	return newTable([]string{"#", "Member", "Connection", "Status", "RTT", "Error"}, body).Render()
}

// MeetingInfo is the banner printed before joining.
type MeetingInfo struct {
	Code string
	Link string
}

func (m MeetingInfo) View() string {
	content := fmt.Sprintf("%s Meeting\n\n%s Code:  %s\n%s Link:  %s",
		IconRoom,
		IconCopy, BoldStyle.Foreground(Primary).Render(m.Code),
		IconLink, MutedStyle.Render(m.Link),
	)
	return SuccessBoxStyle.Render(content)
}

// TruncateString shortens s to n runes, ending with an ellipsis.
func TruncateString(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// FormatDuration prints d as 1h02m, 3m05s or 12s.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
