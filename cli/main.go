// Package main provides a command-line client for the legal assistant relay.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/YinChingZ/LawAI/internal/domain"
)

var opts struct {
	Server   string
	Token    string
	Username string
	GuestID  string
}

var rootCmd = &cobra.Command{
	Use:   "lawai",
	Short: "A CLI for the legal assistant chat relay",
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&opts.Server, "server", "s", "http://localhost:8080", "Relay server address")
	rootCmd.PersistentFlags().StringVarP(&opts.Token, "token", "t", os.Getenv("LAWAI_TOKEN"), "Bearer token")
	rootCmd.PersistentFlags().StringVarP(&opts.Username, "username", "u", "", "Username (trusted front-end mode)")
	rootCmd.PersistentFlags().StringVarP(&opts.GuestID, "guest", "g", "", "Guest id")

	rootCmd.AddCommand(newChatCmd(), newAskCmd(), newStatsCmd(), newLoginCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// guestID falls back to a generated guest id when no other identity is given.
func guestID() string {
	if opts.GuestID != "" || opts.Token != "" || opts.Username != "" {
		return opts.GuestID
	}
	return fmt.Sprintf("cli_guest_%d", time.Now().UnixMilli())
}

func wsURL(server string) string {
	server = strings.TrimSuffix(server, "/")
	server = strings.Replace(server, "https://", "wss://", 1)
	server = strings.Replace(server, "http://", "ws://", 1)
	return server + "/ws/chat"
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat over WebSocket",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			client, err := NewClient(wsURL(opts.Server), opts.Token)
			cobra.CheckErr(err)
			defer client.Close()
			client.username = opts.Username
			client.guestID = guestID()

			p := newPrinter(os.Stdout)
			fmt.Println("Type a message and press Enter to send. /new starts a new conversation, /quit exits.")

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			go func() {
				<-interrupt
				fmt.Println("\nInterrupted")
				client.Close()
				os.Exit(0)
			}()

			scanner := bufio.NewScanner(os.Stdin)
			for {
				promptColor.Print("> ")
				if !scanner.Scan() {
					return
				}
				input := strings.TrimSpace(scanner.Text())
				switch input {
				case "":
					continue
				case "/quit":
					fmt.Println("Bye!")
					return
				case "/new":
					client.sessionID = ""
					continue
				}

				if err := client.SendChat(input); err != nil {
					p.Error(err)
					return
				}
				if err := client.ReadAnswer(p); err != nil {
					p.Error(err)
				}
			}
		},
	}
}

func newAskCmd() *cobra.Command {
	var chatID string
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Ask one question over server-sent events",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			p := newPrinter(os.Stdout)
			err := Ask(opts.Server, opts.Token, opts.Username, guestID(), chatID, strings.Join(args, " "), p)
			cobra.CheckErr(err)
		},
	}
	cmd.Flags().StringVarP(&chatID, "chat", "c", "", "Conversation to continue")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the number of queries answered this week",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := http.Get(strings.TrimSuffix(opts.Server, "/") + "/api/stats/weekly-queries")
			cobra.CheckErr(err)
			defer resp.Body.Close()

			var stats domain.WeeklyStats
			cobra.CheckErr(json.NewDecoder(resp.Body).Decode(&stats))
			metaColor.Printf("Queries this week: %d\n", stats.Count)
		},
	}
}

func newLoginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and print a bearer token",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			body, _ := json.Marshal(map[string]string{"username": args[0], "password": password})
			resp, err := http.Post(strings.TrimSuffix(opts.Server, "/")+"/api/auth/login", "application/json", strings.NewReader(string(body)))
			cobra.CheckErr(err)
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				var errResp domain.ErrorResponse
				json.NewDecoder(resp.Body).Decode(&errResp)
				cobra.CheckErr(fmt.Errorf("login failed: %s", errResp.Error))
			}
			var res struct {
				Token string `json:"token"`
			}
			cobra.CheckErr(json.NewDecoder(resp.Body).Decode(&res))
			fmt.Println(res.Token)
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	return cmd
}
