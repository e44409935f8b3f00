package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"galleryserver/internal/model"
	"galleryserver/internal/search"

	"github.com/gorilla/websocket"
)

const (
	searchDelay = search.Delay

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// searchRequest is a keystroke update sent by the page script.
type searchRequest struct {
	Query string `json:"query"`
}

// searchResult is pushed after the query settles. Fallback results are the
// home images shown when the query is too short to search.
type searchResult struct {
	Query    string        `json:"query"`
	Images   []model.Image `json:"images"`
	Fallback bool          `json:"fallback"`
	Error    string        `json:"error,omitempty"`
}

type searchClient struct {
	s    *server
	conn *websocket.Conn
	send chan searchResult
}

func (s *server) getSearchSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("upgrading search socket", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	c := &searchClient{
		s:    s,
		conn: conn,
		send: make(chan searchResult, 4),
	}

	d := search.NewDebouncer(s.searchDelay, func(q string) {
		c.lookup(ctx, q)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump(ctx)
	}()

	c.readPump(d)

	d.Stop()
	cancel()
	<-done
	conn.Close()
}

// lookup runs the settled query and queues its result.
func (c *searchClient) lookup(ctx context.Context, q string) {
	res := searchResult{Query: q}

	if search.Effective(q) {
		images, err := c.s.search(ctx, q)
		if err != nil {
			slog.Warn("live search", "query", q, "error", err)
			res.Error = "Search failed."
		}
		res.Images = images
	} else {
		home, err := c.s.home(ctx)
		if err != nil {
			slog.Warn("live search fallback", "error", err)
			res.Error = "Could not load images."
		} else {
			res.Images = home.Images
		}
		res.Fallback = true
	}

	if res.Images == nil {
		res.Images = []model.Image{}
	}

	select {
	case c.send <- res:
	case <-ctx.Done():
	}
}

func (c *searchClient) readPump(d *search.Debouncer) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("reading search socket", "error", err)
			}
			return
		}

		var req searchRequest
		if err := json.Unmarshal(message, &req); err != nil {
			slog.Info("invalid search message", "error", err)
			continue
		}

		d.Push(search.Normalize(req.Query))
	}
}

func (c *searchClient) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case res := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(res); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ctx.Done():
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
