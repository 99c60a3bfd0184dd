package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"epic-tech-ai/backend/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// frame mirrors the socket envelope; content stays raw because effect cues are objects
type frame struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

func newChatCmd() *cobra.Command {
	var (
		url  string
		wait time.Duration
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a running server over its websocket",
		Long: `Opens the server's websocket and sends each line of input as a message.
Replies and effect cues are printed as they arrive. On end of input nebula
waits up to --wait for outstanding replies before disconnecting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runChat(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), url, wait)
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "ws://localhost:3000/ws", "Websocket URL of the server")
	cmd.Flags().DurationVarP(&wait, "wait", "w", 3*time.Second, "How long to wait for replies after input ends")

	return cmd
}

func runChat(ctx context.Context, in io.Reader, out io.Writer, url string, wait time.Duration) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer conn.Close()

	replies := make(chan struct{}, 64)
	done := make(chan error, 1)
	go func() {
		done <- readFrames(conn, out, replies)
	}()

	// The greeting is the first reply; everything after answers a sent line
	expected := 1
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := conn.WriteJSON(ws.Message{Type: ws.EventMessage, Content: line}); err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}
		expected++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	timeout := time.After(wait)
	for received := 0; received < expected; {
		select {
		case <-replies:
			received++
		case err := <-done:
			return err
		case <-timeout:
			received = expected
		}
	}

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	conn.Close()
	<-done
	return nil
}

// readFrames prints frames until the connection closes. A normal close or a
// local Close is not an error.
func readFrames(conn *websocket.Conn, out io.Writer, replies chan<- struct{}) error {
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return fmt.Errorf("connection lost: %w", err)
			}
			return nil
		}

		switch f.Type {
		case ws.EventReply:
			var text string
			if err := json.Unmarshal(f.Content, &text); err != nil {
				continue
			}
			fmt.Fprintf(out, "🤖: %s\n", text)
			select {
			case replies <- struct{}{}:
			default:
			}
		case ws.EventEffect:
			fmt.Fprintf(out, "   ~ %s\n", string(f.Content))
		}
	}
}
