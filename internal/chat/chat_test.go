package chat

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"fieldservice/internal/optimistic"
)

type memRepo struct {
	mu       sync.Mutex
	channels map[string]bool
	messages []Message
	fail     error
	seq      int
}

func newMemRepo(channels ...string) *memRepo {
	r := &memRepo{channels: map[string]bool{}}
	for _, c := range channels {
		r.channels[c] = true
	}
	return r
}

func (r *memRepo) ListChannels(ctx context.Context) ([]Channel, error) { return nil, nil }

func (r *memRepo) CreateChannel(ctx context.Context, name, description string) (*Channel, error) {
	return &Channel{ID: name, Name: name}, nil
}

func (r *memRepo) ChannelExists(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channels[id], nil
}

func (r *memRepo) ListMessages(ctx context.Context, channelID string) ([]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.messages {
		if m.ChannelID == channelID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memRepo) CreateMessage(ctx context.Context, m Message) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	r.seq++
	m.ID = "m" + string(rune('0'+r.seq))
	r.messages = append(r.messages, m)
	return &m, nil
}

type fakeImages struct{ url string }

func (f fakeImages) UploadImage(ctx context.Context, r io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	return f.url, nil
}

func collect(t *testing.T, ch <-chan Event, n int) []Event {
	t.Helper()
	var out []Event
	for len(out) < n {
		select {
		case ev := <-ch:
			out = append(out, ev)
		case <-time.After(2 * time.Second):
			t.Fatalf("got %d events, want %d", len(out), n)
		}
	}
	return out
}

func TestPoster_PendingThenConfirmed(t *testing.T) {
	defer goleak.VerifyNone(t)

	broker := NewMemoryBroker(zap.NewNop())
	repo := newMemRepo("general")
	p := Poster{Repo: repo, Images: fakeImages{url: "https://img/x.png"}, Broker: broker, Log: zap.NewNop()}

	events, cancel, err := broker.Subscribe(context.Background(), "general")
	require.NoError(t, err)
	defer cancel()

	m, err := p.Post(context.Background(), Post{
		ChannelID: "general", SenderID: "s1", SenderName: "Sam", Content: " hi ", Image: strings.NewReader("png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hi", m.Content)
	require.NotNil(t, m.ImageURL)
	assert.Equal(t, "https://img/x.png", *m.ImageURL)

	got := collect(t, events, 2)
	assert.Equal(t, EventPending, got[0].Type)
	assert.True(t, optimistic.IsTemp(got[0].TempID))
	assert.Equal(t, got[0].TempID, got[0].Message.ID)
	assert.Equal(t, EventConfirmed, got[1].Type)
	assert.Equal(t, got[0].TempID, got[1].TempID)
	assert.Equal(t, m.ID, got[1].Message.ID)

	tl := NewTimeline(nil)
	for _, ev := range got {
		tl = tl.Apply(ev)
	}
	require.Len(t, tl.Messages(), 1)
	assert.Equal(t, m.ID, tl.Messages()[0].ID)
	assert.False(t, tl.Entries()[0].Pending)
}

func TestPoster_FailureRetracts(t *testing.T) {
	defer goleak.VerifyNone(t)

	broker := NewMemoryBroker(zap.NewNop())
	repo := newMemRepo("general")
	repo.fail = errors.New("insert failed")
	p := Poster{Repo: repo, Broker: broker, Log: zap.NewNop()}

	events, cancel, err := broker.Subscribe(context.Background(), "general")
	require.NoError(t, err)
	defer cancel()

	_, err = p.Post(context.Background(), Post{ChannelID: "general", SenderID: "s1", Content: "hello"})
	require.Error(t, err)

	got := collect(t, events, 2)
	assert.Equal(t, EventRetracted, got[1].Type)

	tl := NewTimeline([]Message{{ID: "old", ChannelID: "general"}})
	for _, ev := range got {
		tl = tl.Apply(ev)
	}
	assert.Equal(t, []string{"old"}, ids(tl.Messages()))
}

func TestPoster_Validation(t *testing.T) {
	p := Poster{Repo: newMemRepo("general"), Broker: NewMemoryBroker(zap.NewNop()), Log: zap.NewNop()}

	_, err := p.Post(context.Background(), Post{ChannelID: "general", Content: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = p.Post(context.Background(), Post{ChannelID: "nope", Content: "x"})
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func TestMemoryBroker_CancelUnsubscribes(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewMemoryBroker(zap.NewNop())
	ctx, stop := context.WithCancel(context.Background())
	events, cancel, err := b.Subscribe(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, b.subscribers("c1"))

	stop()
	_, open := <-events
	assert.False(t, open)
	assert.Equal(t, 0, b.subscribers("c1"))
	cancel()

	require.NoError(t, b.Publish(context.Background(), Event{ChannelID: "c1"}))
}

func TestStream_DeliversHistoryAndEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	broker := NewMemoryBroker(zap.NewNop())
	repo := newMemRepo("general")
	repo.messages = []Message{{ID: "m0", ChannelID: "general", Content: "earlier"}}

	r := chi.NewRouter()
	r.Get("/channels/{id}/stream", NewStream(repo, broker, zap.NewNop(), nil).ServeHTTP)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/channels/general/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()

	var first frame
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "history", first.Type)
	assert.Equal(t, []string{"m0"}, ids(first.Messages))

	tl := NewTimeline(first.Messages)
	p := Poster{Repo: repo, Broker: broker, Log: zap.NewNop()}
	_, err = p.Post(context.Background(), Post{ChannelID: "general", SenderID: "s1", Content: "new"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		var f frame
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&f))
		require.Equal(t, "event", f.Type)
		tl = tl.Apply(*f.Event)
	}
	assert.Equal(t, []string{"m0", "m1"}, ids(tl.Messages()))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return broker.subscribers("general") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatch_FollowsTimeline(t *testing.T) {
	defer goleak.VerifyNone(t)

	broker := NewMemoryBroker(zap.NewNop())
	repo := newMemRepo("general")

	r := chi.NewRouter()
	r.Get("/channels/{id}/stream", NewStream(repo, broker, zap.NewNop(), nil).ServeHTTP)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan Timeline, 8)
	done := make(chan error, 1)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/channels/general/stream"
	go func() {
		done <- Watch(ctx, url, nil, func(tl Timeline) { updates <- tl })
	}()

	first := <-updates
	assert.Empty(t, first.Messages())

	p := Poster{Repo: repo, Broker: broker, Log: zap.NewNop()}
	_, err := p.Post(context.Background(), Post{ChannelID: "general", SenderID: "s1", Content: "hi"})
	require.NoError(t, err)

	pending := <-updates
	require.Len(t, pending.Entries(), 1)
	assert.True(t, pending.Entries()[0].Pending)

	confirmed := <-updates
	require.Len(t, confirmed.Entries(), 1)
	assert.False(t, confirmed.Entries()[0].Pending)
	assert.Equal(t, []string{"m1"}, ids(confirmed.Messages()))

	cancel()
	require.NoError(t, <-done)
	require.Eventually(t, func() bool { return broker.subscribers("general") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStream_UnknownChannel(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/channels/{id}/stream", NewStream(newMemRepo(), NewMemoryBroker(zap.NewNop()), zap.NewNop(), nil).ServeHTTP)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/channels/missing/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, 404, resp.StatusCode)
}

func ids(ms []Message) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ID)
	}
	return out
}
