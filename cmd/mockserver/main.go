// Command mockserver is a local OneBot-style websocket feed for trying
// "timeclock listen" without a real chat bridge.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"
	"nhooyr.io/websocket"
)

var (
	fAddr      = pflag.String("addr", "127.0.0.1:8081", "address to listen on")
	fOwner     = pflag.Int64("owner", 10001, "user id the fake in/out messages come from")
	fSelf      = pflag.Int64("self", 1, "bot account id")
	fInterval  = pflag.Duration("interval", 10*time.Second, "time between fake messages")
	fHeartbeat = pflag.Duration("heartbeat", 5*time.Second, "time between heartbeat meta events")
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

func main() {
	pflag.Parse()

	http.HandleFunc("/ws", serveWS)

	logger.Info("mock ws server", "url", "ws://"+*fAddr+"/ws", "owner", *fOwner)
	if err := http.ListenAndServe(*fAddr, nil); err != nil {
		logger.Error("listen", "error", err)
		os.Exit(1)
	}
}

func serveWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		logger.Warn("accept", "error", err)
		return
	}
	defer c.Close(websocket.StatusNormalClosure, "bye")

	logger.Info("client connected", "remote", r.RemoteAddr)

	ctx := c.CloseRead(r.Context())

	msgs := time.NewTicker(*fInterval)
	defer msgs.Stop()
	beats := time.NewTicker(*fHeartbeat)
	defer beats.Stop()

	words := []string{"in", "out"}
	next := 0
	for {
		select {
		case <-ctx.Done():
			logger.Info("client gone", "remote", r.RemoteAddr)
			return
		case <-beats.C:
			if err := send(ctx, c, map[string]any{
				"time":            time.Now().Unix(),
				"self_id":         *fSelf,
				"post_type":       "meta_event",
				"meta_event_type": "heartbeat",
				"interval":        fHeartbeat.Milliseconds(),
			}); err != nil {
				logger.Warn("write heartbeat", "error", err)
				return
			}
		case <-msgs.C:
			word := words[next%2]
			next++
			if err := send(ctx, c, map[string]any{
				"time":         time.Now().Unix(),
				"self_id":      *fSelf,
				"post_type":    "message",
				"message_type": "private",
				"user_id":      *fOwner,
				"raw_message":  word,
				"message":      word,
			}); err != nil {
				logger.Warn("write message", "error", err)
				return
			}
			logger.Info("sent", "text", word)
		}
	}
}

func send(ctx context.Context, c *websocket.Conn, payload map[string]any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.Write(wctx, websocket.MessageText, b)
}
