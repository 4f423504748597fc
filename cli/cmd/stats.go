package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/BioHazard786/Huddle/cli/internal/probe"
	"github.com/BioHazard786/Huddle/cli/internal/ui"
)

var statsFlags serverFlags

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the meetings the coordinator is serving",
	Long: `Fetch the coordinator's live room snapshot: members, waiting queue length,
chat history size and the longest session in each meeting.

Examples:
  huddle stats
  huddle stats --domain localhost:8080 --insecure`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(statsFlags.options())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		stats, err := fetchStats(ctx, http.DefaultClient, cfg.StatsURL())
		if err != nil {
			return err
		}
		fmt.Println(ui.StatsView(stats.Connections, stats.rows()))
		return nil
	},
}

type roomStats struct {
	Key                 string  `json:"key"`
	Members             int     `json:"members"`
	Waiting             int     `json:"waiting"`
	ChatMessages        int     `json:"chat_messages"`
	OldestMemberSeconds float64 `json:"oldest_member_seconds"`
}

type statsResponse struct {
	Connections int         `json:"connections"`
	Rooms       []roomStats `json:"rooms"`
}

func (s statsResponse) rows() []ui.StatsRow {
	return lo.Map(s.Rooms, func(r roomStats, _ int) ui.StatsRow {
		return ui.StatsRow{
			Key:          r.Key,
			Members:      r.Members,
			Waiting:      r.Waiting,
			ChatMessages: r.ChatMessages,
			Oldest:       time.Duration(r.OldestMemberSeconds * float64(time.Second)),
		}
	})
}

func fetchStats(ctx context.Context, client *http.Client, url string) (statsResponse, error) {
	var out statsResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return out, probe.NewError("fetch stats", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return out, probe.NewError("fetch stats", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return out, probe.WrapError("fetch stats", fmt.Errorf("status %d", resp.StatusCode), "stats are disabled on this coordinator")
	default:
		return out, probe.NewError("fetch stats", fmt.Errorf("status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, probe.NewError("decode stats", err)
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsFlags.register(statsCmd)
}
