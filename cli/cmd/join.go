package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/Huddle/cli/internal/meeting"
	"github.com/BioHazard786/Huddle/cli/internal/probe"
	"github.com/BioHazard786/Huddle/cli/internal/ui"
)

var (
	joinFlags serverFlags
	joinName  string
)

var joinCmd = &cobra.Command{
	Use:     "join [code|link]",
	Aliases: []string{"j"},
	Short:   "Join a meeting, or start a new one",
	Long: `Join a meeting by code or link. Without an argument a new meeting code is
generated and you become its host.

While you wait to be admitted, the meeting may end: if everyone inside leaves,
the waiting room is closed without notice. If nothing happens for a while,
press ctrl+c and join again.

Inside the meeting type to chat, or use:
  /admit <n>   let the n-th waiting person in (host only)
  /reject <n>  turn the n-th waiting person away (host only)
  /hand        raise or lower your hand
  /mute        toggle your mute status
  /quit        leave the meeting

Examples:
  huddle join
  huddle join kitten-waffle-stardust-happy --name sam
  huddle join https://huddle.qzz.io/kitten-waffle-stardust-happy`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code := meeting.NewCode()
		if len(args) == 1 {
			var err error
			if code, err = meeting.ParseCode(args[0]); err != nil {
				return err
			}
		}
		return joinRoom(cmd.Context(), code)
	},
}

func joinRoom(parent context.Context, code string) error {
	name := strings.TrimSpace(joinName)
	if name == "" {
		return errors.New("--name cannot be empty")
	}

	cfg, err := LoadConfig(joinFlags.options())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	// Browsers use the full meeting link as the room key.
	key := cfg.MeetingLink(code)
	fmt.Println(ui.MeetingInfo{Code: code, Link: key}.View())

	conn, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := joinMeeting(ctx, conn, key, name); err != nil {
		return err
	}
	// The room view owns the terminal from here, including ctrl+c.
	stop()

	room := ui.NewRoomModel(ui.RoomOptions{
		Key:          key,
		Name:         name,
		Sender:       conn.Client,
		Events:       conn.Handler.Room,
		Disconnected: conn.Handler.Disconnected,
	})
	if err := ui.RunRoom(room); err != nil {
		if errors.Is(err, ui.ErrDisconnected) {
			return probe.NewError("meeting", probe.ErrHostLeft)
		}
		return err
	}

	ui.PrintSuccess("Left the meeting")
	return nil
}

func init() {
	rootCmd.AddCommand(joinCmd)

	joinFlags.register(joinCmd)
	joinCmd.Flags().StringVarP(&joinName, "name", "n", defaultName(), "Display name shown to other members")
}

func defaultName() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "guest"
}
