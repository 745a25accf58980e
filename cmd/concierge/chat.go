package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/zulandar/concierge/internal/server"
	"golang.org/x/term"
)

// chatFunc sends one guest message and returns the reply.
type chatFunc func(ctx context.Context, sessionID, message string) (string, error)

func newChatCmd() *cobra.Command {
	var (
		configPath string
		url        string
		sessionID  string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the concierge from the terminal",
		Long: `Reads guest messages line by line and prints the concierge's replies.
Runs in-process against the configured database, or against a running
server with --url. Type "exit" or press Ctrl-D to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, configPath, url, sessionID)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Concierge config file")
	cmd.Flags().StringVar(&url, "url", "", "base URL of a running concierge server")
	cmd.Flags().StringVar(&sessionID, "session", "", "session id to resume (default: a new one)")
	return cmd
}

func runChat(cmd *cobra.Command, configPath, url, sessionID string) error {
	ctx, cancel := signalContext()
	defer cancel()

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var send chatFunc
	if url != "" {
		send = remoteChat(&http.Client{Timeout: 30 * time.Second}, url)
	} else {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		a, logger, err := openApp(ctx, cmd, cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()
		defer a.close()
		send = func(ctx context.Context, sid, msg string) (string, error) {
			return a.router.Route(ctx, sid, msg), nil
		}
	}

	return chatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), isInteractive(cmd.InOrStdin()), sessionID, send)
}

// isInteractive reports whether in is a terminal, in which case the loop
// prints a prompt before each line.
func isInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// chatLoop reads messages from in until EOF, "exit" or ctx is done.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, prompt bool, sessionID string, send chatFunc) error {
	if prompt {
		fmt.Fprintf(out, "Concierge chat (session %s). Type \"exit\" to quit.\n", sessionID)
	}
	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprint(out, "you> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		reply, err := send(ctx, sessionID, line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "concierge> %s\n", reply)
		if ctx.Err() != nil {
			break
		}
	}
	return scanner.Err()
}

// remoteChat posts messages to a running server's /chat endpoint.
func remoteChat(client *http.Client, baseURL string) chatFunc {
	endpoint := strings.TrimRight(baseURL, "/") + "/chat"
	return func(ctx context.Context, sessionID, message string) (string, error) {
		body, err := json.Marshal(server.ChatRequest{SessionID: sessionID, Message: message})
		if err != nil {
			return "", fmt.Errorf("encode request: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("post %s: %w", endpoint, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return "", fmt.Errorf("post %s: %s: %s", endpoint, resp.Status, strings.TrimSpace(string(msg)))
		}

		var cr server.ChatResponse
		if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		return cr.Response, nil
	}
}
