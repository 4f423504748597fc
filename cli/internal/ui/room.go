package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/BioHazard786/Huddle/cli/internal/signaling"
)

var ErrDisconnected = errors.New("lost connection to the coordinator")

// Sender is the outbound half of the signaling connection.
type Sender interface {
	Send(event string, args ...any) error
}

// Command is a parsed line of input. Lines that do not start with "/" are
// chat.
type Command struct {
	Name string
	Arg  int
	Text string
}

const (
	CmdChat   = "chat"
	CmdAdmit  = "admit"
	CmdReject = "reject"
	CmdHand   = "hand"
	CmdMute   = "mute"
	CmdQuit   = "quit"
)

// ParseCommand reads one input line.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, errors.New("nothing to send")
	}
	if !strings.HasPrefix(line, "/") {
		return Command{Name: CmdChat, Text: line}, nil
	}

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return Command{}, errors.New("empty command")
	}
	name := strings.ToLower(fields[0])

	switch name {
	case CmdHand, CmdMute, CmdQuit:
		return Command{Name: name}, nil
	case CmdAdmit, CmdReject:
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("usage: /%s <number>", name)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return Command{}, fmt.Errorf("usage: /%s <number>", name)
		}
		return Command{Name: name, Arg: n}, nil
	default:
		return Command{}, fmt.Errorf("unknown command /%s", name)
	}
}

type chatLine struct {
	sender string
	body   string
	self   bool
}

type roomEventMsg struct{ event signaling.RoomEvent }

type disconnectedMsg struct{}

// RoomOptions wires the room view to a live connection.
type RoomOptions struct {
	Key          string
	Name         string
	Sender       Sender
	Events       <-chan signaling.RoomEvent
	Disconnected <-chan struct{}
}

// RoomModel is the interactive meeting view: roster, waiting queue, chat
// and a command line.
type RoomModel struct {
	key  string
	name string
	send Sender

	events       <-chan signaling.RoomEvent
	disconnected <-chan struct{}

	// self is learned from the first roster update after acceptance, which
	// always announces this connection.
	self    string
	host    bool
	members []signaling.Participant
	queue   []signaling.Participant
	hands   map[string]bool
	mutes   map[string]bool
	chat    []chatLine
	status  string

	handRaised bool
	muted      bool

	input textinput.Model
	width int
	err   error
	done  bool
}

const maxChatLines = 200

func NewRoomModel(opts RoomOptions) *RoomModel {
	ti := textinput.New()
	ti.Placeholder = "message, or /admit 1, /reject 1, /hand, /mute, /quit"
	ti.Prompt = SelfStyle.Render("› ")
	ti.CharLimit = 1000
	ti.Focus()

	return &RoomModel{
		key:          opts.Key,
		name:         opts.Name,
		send:         opts.Sender,
		events:       opts.Events,
		disconnected: opts.Disconnected,
		hands:        make(map[string]bool),
		mutes:        make(map[string]bool),
		input:        ti,
		width:        80,
	}
}

// Err is set when the view ended because the connection dropped.
func (m *RoomModel) Err() error { return m.err }

func (m *RoomModel) IsHost() bool { return m.host }

func (m *RoomModel) Members() []signaling.Participant { return m.members }

func (m *RoomModel) Queue() []signaling.Participant { return m.queue }

func (m *RoomModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listen())
}

func (m *RoomModel) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case e := <-m.events:
			return roomEventMsg{e}
		case <-m.disconnected:
			return disconnectedMsg{}
		}
	}
}

func (m *RoomModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.done = true
			return m, tea.Quit
		case tea.KeyEnter:
			line := m.input.Value()
			m.input.Reset()
			return m, m.execute(line)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(20, msg.Width-4)

	case roomEventMsg:
		m.apply(msg.event)
		return m, m.listen()

	case disconnectedMsg:
		m.err = ErrDisconnected
		m.done = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// apply folds one coordinator event into the view state.
func (m *RoomModel) apply(e signaling.RoomEvent) {
	switch e := e.(type) {
	case signaling.MemberJoined:
		if m.self == "" {
			m.self = e.ID
			m.host = len(e.Members) == 1
		}
		m.members = e.Members
		if e.ID != m.self {
			m.status = fmt.Sprintf("%s joined", m.nameOf(e.ID))
		}

	case signaling.MemberLeft:
		name := m.nameOf(e.ID)
		m.members = lo.Reject(m.members, func(p signaling.Participant, _ int) bool { return p.ID == e.ID })
		delete(m.hands, e.ID)
		delete(m.mutes, e.ID)
		m.status = fmt.Sprintf("%s left", name)

	case signaling.PromotedToHost:
		m.host = true
		m.status = "You are now the host"

	case signaling.QueueUpdate:
		m.queue = e.Queue
		if len(e.Queue) > 0 {
			m.status = fmt.Sprintf("%d waiting to join", len(e.Queue))
		}

	case signaling.ChatMessage:
		m.chat = append(m.chat, chatLine{sender: e.Sender, body: e.Body, self: e.SenderID == m.self})
		if len(m.chat) > maxChatLines {
			m.chat = m.chat[len(m.chat)-maxChatLines:]
		}

	case signaling.HandUpdate:
		m.hands[e.ID] = e.Raised
		if e.ID == m.self {
			m.handRaised = e.Raised
		}

	case signaling.MuteUpdate:
		m.mutes[e.ID] = e.Muted
		if e.ID == m.self {
			m.muted = e.Muted
		}
	}
}

func (m *RoomModel) execute(line string) tea.Cmd {
	cmd, err := ParseCommand(line)
	if err != nil {
		m.status = err.Error()
		return nil
	}

	switch cmd.Name {
	case CmdQuit:
		m.done = true
		return tea.Quit

	case CmdChat:
		err = m.send.Send(signaling.EventChat, cmd.Text, m.name)

	case CmdHand:
		err = m.send.Send(signaling.EventToggleHand, m.key, !m.handRaised)

	case CmdMute:
		err = m.send.Send(signaling.EventToggleMute, m.key, !m.muted)

	case CmdAdmit, CmdReject:
		if !m.host {
			m.status = "Only the host can do that"
			return nil
		}
		if cmd.Arg > len(m.queue) {
			m.status = fmt.Sprintf("No one is waiting at #%d", cmd.Arg)
			return nil
		}
		target := m.queue[cmd.Arg-1]
		event := signaling.EventAdmitUser
		if cmd.Name == CmdReject {
			event = signaling.EventRejectUser
		}
		err = m.send.Send(event, m.key, target.ID)
	}

	if err != nil {
		m.status = err.Error()
	}
	return nil
}

func (m *RoomModel) nameOf(id string) string {
	if p, ok := lo.Find(m.members, func(p signaling.Participant) bool { return p.ID == id }); ok && p.Username != "" {
		return p.Username
	}
	if p, ok := lo.Find(m.queue, func(p signaling.Participant) bool { return p.ID == id }); ok && p.Username != "" {
		return p.Username
	}
	return TruncateString(id, 8)
}

func (m *RoomModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder

	role := "guest"
	if m.host {
		role = IconHost + " host"
	}
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%s %s", IconRoom, TruncateString(m.key, max(20, m.width-20)))))
	b.WriteString(" " + MutedStyle.Render(role) + "\n")

	side := lipgloss.JoinVertical(lipgloss.Left, m.rosterView(), m.queueView())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, PanelStyle.Render(side), " ", PanelStyle.Render(m.chatView())))
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(MutedStyle.Render(m.status) + "\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	return b.String()
}

func (m *RoomModel) rosterView() string {
	lines := []string{BoldStyle.Render(fmt.Sprintf("%s In call (%d)", IconPeer, len(m.members)))}
	for _, p := range m.members {
		name := p.Username
		if p.ID == m.self {
			name = SelfStyle.Render(name + " (you)")
		}
		var marks string
		if m.hands[p.ID] {
			marks += " " + IconHand
		}
		if m.mutes[p.ID] {
			marks += " " + IconMuted
		}
		lines = append(lines, name+marks)
	}
	return strings.Join(lines, "\n")
}

func (m *RoomModel) queueView() string {
	if !m.host || len(m.queue) == 0 {
		return ""
	}
	lines := []string{"", WarningStyle.Render(fmt.Sprintf("%s Waiting (%d)", IconWaiting, len(m.queue)))}
	for i, p := range m.queue {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, p.Username))
	}
	return strings.Join(lines, "\n")
}

func (m *RoomModel) chatView() string {
	const visible = 12
	lines := []string{BoldStyle.Render(IconChat + " Chat")}
	start := max(0, len(m.chat)-visible)
	for _, c := range m.chat[start:] {
		sender := ChatSenderStyle.Render(c.sender)
		if c.self {
			sender = SelfStyle.Render(c.sender)
		}
		lines = append(lines, fmt.Sprintf("%s: %s", sender, c.body))
	}
	if len(m.chat) == 0 {
		lines = append(lines, MutedStyle.Render("No messages yet"))
	}
	return lipgloss.NewStyle().Width(max(30, m.width-34)).Render(strings.Join(lines, "\n"))
}

// RunRoom takes over the terminal until the user quits or the connection
// drops.
func RunRoom(m *RoomModel) error {
	if _, err := tea.NewProgram(m).Run(); err != nil {
		return fmt.Errorf("room view: %w", err)
	}
	return m.Err()
}
