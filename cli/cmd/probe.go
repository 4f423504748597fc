package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/BioHazard786/Huddle/cli/internal/meeting"
	"github.com/BioHazard786/Huddle/cli/internal/probe"
	"github.com/BioHazard786/Huddle/cli/internal/signaling"
	"github.com/BioHazard786/Huddle/cli/internal/ui"
)

var (
	probeFlags   serverFlags
	probeName    string
	probeTimeout time.Duration
	probeRelay   bool
)

var probeCmd = &cobra.Command{
	Use:     "probe <code|link>",
	Aliases: []string{"p"},
	Short:   "Check peer-to-peer connectivity with everyone in a meeting",
	Long: `Join a meeting as a silent participant, negotiate a data channel with every
other member through the coordinator and report whether each connection came
up and its round-trip time. Browser members answer the negotiation but not the
ping, so they show as connected without an RTT.

Examples:
  huddle probe kitten-waffle-stardust-happy
  huddle probe kitten-waffle-stardust-happy --relay --timeout 30s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := meeting.ParseCode(args[0])
		if err != nil {
			return err
		}
		return probeRoom(cmd.Context(), code)
	},
}

func probeRoom(parent context.Context, code string) error {
	cfg, err := LoadConfig(probeFlags.options())
	if err != nil {
		return err
	}
	if probeRelay && cfg.GetTURNServers() == nil {
		return fmt.Errorf("cannot force relay mode without TURN server configured")
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	key := cfg.MeetingLink(code)
	conn, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := joinMeeting(ctx, conn, key, probeName); err != nil {
		return err
	}

	self, roster, err := firstRoster(ctx, conn.Handler)
	if err != nil {
		return err
	}
	others := lo.Reject(roster, func(p signaling.Participant, _ int) bool { return p.ID == self })
	if len(others) == 0 {
		return probe.NewError("probe", probe.ErrNoPeers)
	}

	prober := probe.New(cfg, conn.Client, self, probeRelay)
	sp := ui.NewWaitingSpinner(fmt.Sprintf("Probing %d member(s)...", len(others)))
	sp.Start()

	run := newProbeRun(prober, self, others)
	for _, m := range others {
		if err := prober.Offer(m); err != nil {
			run.fail(m.ID, err)
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	run.wait(waitCtx, conn.Handler)
	complete := run.done()
	run.finish(prober.Close())
	sp.Stop()

	if !complete {
		ui.PrintWarning(fmt.Sprintf("Stopped after %s with members still negotiating", probeTimeout))
	}

	fmt.Println(ui.ProbeView(run.rows()))
	return nil
}

// firstRoster waits for the roster broadcast that follows acceptance. It
// always announces this connection, which is how the client learns its id.
func firstRoster(ctx context.Context, h *signaling.Handler) (string, []signaling.Participant, error) {
	timeout := time.After(10 * time.Second)
	for {
		select {
		case e := <-h.Room:
			if joined, ok := e.(signaling.MemberJoined); ok {
				return joined.ID, joined.Members, nil
			}
		case <-h.Disconnected:
			return "", nil, probe.NewError("read roster", probe.ErrHostLeft)
		case <-timeout:
			return "", nil, probe.NewError("read roster", probe.ErrTimeout)
		case <-ctx.Done():
			return "", nil, probe.NewError("read roster", ctx.Err())
		}
	}
}

// probeRun tracks which members still owe a result.
type probeRun struct {
	prober  *probe.Prober
	self    string
	names   map[string]string
	order   []string
	results map[string]probe.Result
}

func newProbeRun(p *probe.Prober, self string, members []signaling.Participant) *probeRun {
	r := &probeRun{
		prober:  p,
		self:    self,
		names:   make(map[string]string),
		results: make(map[string]probe.Result),
	}
	for _, m := range members {
		r.expect(m)
	}
	return r
}

func (r *probeRun) expect(m signaling.Participant) {
	if _, ok := r.names[m.ID]; ok {
		return
	}
	r.names[m.ID] = m.Username
	r.order = append(r.order, m.ID)
}

func (r *probeRun) record(res probe.Result) {
	if _, done := r.results[res.PeerID]; done {
		return
	}
	if _, ok := r.names[res.PeerID]; !ok {
		r.expect(signaling.Participant{ID: res.PeerID, Username: res.Name})
	}
	r.results[res.PeerID] = res
}

func (r *probeRun) fail(id string, err error) {
	r.record(probe.Result{PeerID: id, Status: probe.StatusFailed, Err: err})
}

func (r *probeRun) done() bool {
	return len(r.results) >= len(r.order)
}

// wait routes relayed signals and roster changes to the prober until every
// member has a result, the deadline passes or the coordinator goes away.
func (r *probeRun) wait(ctx context.Context, h *signaling.Handler) {
	for !r.done() {
		select {
		case res := <-r.prober.Results():
			r.record(res)

		case sig := <-h.Signal:
			if err := r.prober.HandleSignal(sig.From, sig.Payload); err != nil {
				slog.Debug("signal not applied", "from", sig.From, "err", err)
			}

		case e := <-h.Room:
			switch e := e.(type) {
			case signaling.MemberJoined:
				// Late joiners offer to everyone already in the room.
				for _, m := range e.Members {
					if m.ID == e.ID && m.ID != r.self {
						r.expect(m)
					}
				}
			case signaling.MemberLeft:
				r.prober.Forget(e.ID)
			}

		case <-h.Disconnected:
			return
		case <-ctx.Done():
			return
		}
	}
}

// finish drains anything reported meanwhile and merges the prober's final
// results.
func (r *probeRun) finish(rest []probe.Result) {
drain:
	for {
		select {
		case res := <-r.prober.Results():
			r.record(res)
		default:
			break drain
		}
	}
	for _, res := range rest {
		r.record(res)
	}
	for _, id := range r.order {
		if _, ok := r.results[id]; !ok {
			r.results[id] = probe.Result{PeerID: id, Status: probe.StatusTimeout}
		}
	}
}

func (r *probeRun) rows() []ui.ProbeRow {
	return lo.Map(r.order, func(id string, _ int) ui.ProbeRow {
		res := r.results[id]
		name := r.names[id]
		if name == "" {
			name = res.Name
		}
		row := ui.ProbeRow{
			Name:   name,
			ID:     id,
			Status: string(res.Status),
			RTT:    res.RTT,
		}
		if res.Err != nil {
			row.Err = res.Err.Error()
		}
		return row
	})
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeFlags.register(probeCmd)
	probeCmd.Flags().StringVarP(&probeName, "name", "n", "huddle-probe", "Display name shown to other members")
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 20*time.Second, "How long to wait for every member")
	probeCmd.Flags().BoolVarP(&probeRelay, "relay", "r", false, "Force relay mode (needs a TURN server)")
}
