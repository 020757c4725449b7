package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// Watch connects to a channel stream at url and calls onUpdate with the timeline after the
// history frame and after every event. It returns nil when ctx ends or the server closes the
// stream normally.
func Watch(ctx context.Context, url string, header http.Header, onUpdate func(Timeline)) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %s", url, resp.Status)
		}
		return fmt.Errorf("dial %s: %w", url, err)
	}

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stopped:
			_ = conn.Close()
		}
	}()

	var tl Timeline
	started := false
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		switch f.Type {
		case "history":
			tl = NewTimeline(f.Messages)
			started = true
		case "event":
			if !started {
				return errors.New("event before history")
			}
			if f.Event == nil {
				continue
			}
			tl = tl.Apply(*f.Event)
		default:
			continue
		}
		onUpdate(tl)
	}
}
