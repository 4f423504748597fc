package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/Huddle/cli/internal/config"
	"github.com/BioHazard786/Huddle/cli/internal/probe"
	"github.com/BioHazard786/Huddle/cli/internal/signaling"
	"github.com/BioHazard786/Huddle/cli/internal/ui"
)

// serverFlags are shared by every command that talks to the coordinator.
type serverFlags struct {
	domain   string
	insecure bool
	stun     string
	turn     string
	turnUser string
	turnPass string
}

func (f *serverFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.domain, "domain", "d", "", "Coordinator domain (host[:port])")
	cmd.Flags().BoolVar(&f.insecure, "insecure", false, "Use ws:// and http:// (local servers)")
	cmd.Flags().StringVarP(&f.stun, "stun", "s", "", "Custom STUN server")
	cmd.Flags().StringVarP(&f.turn, "turn", "t", "", "Custom TURN server")
	cmd.Flags().StringVarP(&f.turnUser, "turn-user", "u", "", "TURN username")
	cmd.Flags().StringVarP(&f.turnPass, "turn-pass", "p", "", "TURN password")
}

func (f *serverFlags) options() config.Options {
	return config.Options{
		Domain:     f.domain,
		Insecure:   f.insecure,
		STUNServer: f.stun,
		TURNServer: f.turn,
		TURNUser:   f.turnUser,
		TURNPass:   f.turnPass,
	}
}

type ConnectionContext struct {
	Client  *signaling.Client
	Handler *signaling.Handler
	Config  *config.Config
}

func NewConnectionContext(ctx context.Context, cfg *config.Config) (*ConnectionContext, error) {
	client := signaling.NewClient(cfg.WebSocketURL)
	if err := client.Connect(ctx); err != nil {
		return nil, probe.NewError("connect to server", err)
	}

	handler := signaling.NewHandler(client.Incoming())
	go handler.Start()

	return &ConnectionContext{
		Client:  client,
		Handler: handler,
		Config:  cfg,
	}, nil
}

func (c *ConnectionContext) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}

func LoadConfig(opts config.Options) (*config.Config, error) {
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, probe.NewError("load config", err)
	}
	return cfg, nil
}

// connect dials the coordinator behind a spinner.
func connect(ctx context.Context, cfg *config.Config) (*ConnectionContext, error) {
	fmt.Println()
	sp := ui.NewConnectionSpinner("Connecting to " + cfg.Domain + "...")
	sp.Start()

	conn, err := NewConnectionContext(ctx, cfg)
	if err != nil {
		sp.Error("Could not reach the coordinator")
		return nil, err
	}
	sp.Success("Connected to " + cfg.Domain)
	return conn, nil
}

// joinMeeting asks to enter the meeting under key and blocks until the
// coordinator lets this connection in. The first joiner is let in
// immediately; everyone else waits for the host.
func joinMeeting(ctx context.Context, c *ConnectionContext, key, name string) error {
	if err := c.Client.Send(signaling.EventJoinCall, key, name); err != nil {
		return probe.NewError("join meeting", err)
	}

	var sp *ui.Spinner
	stop := func() {
		if sp != nil {
			sp.Stop()
		}
	}
	defer stop()

	for {
		select {
		case <-c.Handler.Accepted:
			stop()
			sp = nil
			ui.PrintSuccess("You are in the meeting")
			return nil

		case <-c.Handler.Rejected:
			stop()
			sp = nil
			return probe.WrapError("join meeting", probe.ErrAccessDenied, "the host declined your request")

		case <-c.Handler.Waiting:
			if sp == nil {
				sp = ui.NewWaitingSpinner("Waiting for the host to admit you (ctrl+c to give up)...")
				sp.Start()
			}

		case <-c.Handler.Disconnected:
			return probe.NewError("join meeting", probe.ErrHostLeft)

		case <-ctx.Done():
			return probe.NewError("join meeting", ctx.Err())
		}
	}
}
