package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fieldservice/internal/chat"
	"fieldservice/pkg/authtoken"
)

var (
	chatServer  string
	chatStaffID string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Team chat tools",
}

var chatWatchCmd = &cobra.Command{
	Use:   "watch <channel-id>",
	Short: "Follow a chat channel, showing pending posts as they arrive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := streamURL(chatServer, args[0])
		if err != nil {
			return err
		}
		header := http.Header{}
		if chatStaffID != "" {
			tok, err := authtoken.Issue(cfg.Auth.JWTSecret, cfg.Auth.Issuer, chatStaffID, chatStaffID, time.Hour, time.Now())
			if err != nil {
				return err
			}
			header.Set("Authorization", "Bearer "+tok)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		return chat.Watch(ctx, u, header, func(tl chat.Timeline) {
			printTimeline(out, tl)
		})
	},
}

func init() {
	chatWatchCmd.Flags().StringVar(&chatServer, "server", "http://localhost:8081", "API base URL")
	chatWatchCmd.Flags().StringVar(&chatStaffID, "staff-id", "", "sign a token for this staff id (needs AUTH_JWT_SECRET)")
	chatCmd.AddCommand(chatWatchCmd)
}

func streamURL(base, channelID string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path += "/v1/chat/channels/" + url.PathEscape(channelID) + "/stream"
	return u.String(), nil
}

func printTimeline(w io.Writer, tl chat.Timeline) {
	fmt.Fprintln(w, "----")
	for _, e := range tl.Entries() {
		mark := " "
		if e.Pending {
			mark = "*"
		}
		m := e.Item
		line := m.Content
		if m.ImageURL != nil {
			line = strings.TrimSpace(line + " [image] " + *m.ImageURL)
		}
		fmt.Fprintf(w, "%s %s  %s: %s\n", mark, m.CreatedAt.Format("15:04"), m.SenderName, line)
	}
}
