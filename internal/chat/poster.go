package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"fieldservice/internal/optimistic"
	"fieldservice/internal/storage"
)

var (
	ErrEmptyMessage   = errors.New("message needs text or an image")
	ErrUnknownChannel = errors.New("channel not found")
)

type Store interface {
	ListChannels(ctx context.Context) ([]Channel, error)
	CreateChannel(ctx context.Context, name, description string) (*Channel, error)
	ChannelExists(ctx context.Context, id string) (bool, error)
	ListMessages(ctx context.Context, channelID string) ([]Message, error)
	CreateMessage(ctx context.Context, m Message) (*Message, error)
}

type Post struct {
	ChannelID  string
	SenderID   string
	SenderName string
	Content    string
	Image      io.Reader
}

// Poster stores chat posts and announces them. Subscribers see the post as pending right away,
// then confirmed once it is stored or retracted when storing fails.
type Poster struct {
	Repo   Store
	Images storage.ImageStore
	Broker Broker
	Log    *zap.Logger
	Now    func() time.Time
}

func (p Poster) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p Poster) Post(ctx context.Context, in Post) (*Message, error) {
	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" && in.Image == nil {
		return nil, ErrEmptyMessage
	}
	ok, err := p.Repo.ChannelExists(ctx, in.ChannelID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnknownChannel
	}

	tempID := optimistic.NewTempID()
	placeholder := Message{
		ID:         tempID,
		ChannelID:  in.ChannelID,
		SenderID:   in.SenderID,
		SenderName: in.SenderName,
		Content:    in.Content,
		CreatedAt:  p.now(),
	}
	p.publish(ctx, Event{Type: EventPending, ChannelID: in.ChannelID, TempID: tempID, Message: &placeholder})

	stored, err := p.store(ctx, placeholder, in.Image)
	if err != nil {
		p.Log.Error("chat post failed", zap.String("channel_id", in.ChannelID), zap.Error(err))
		p.publish(ctx, Event{Type: EventRetracted, ChannelID: in.ChannelID, TempID: tempID})
		return nil, err
	}
	p.publish(ctx, Event{Type: EventConfirmed, ChannelID: in.ChannelID, TempID: tempID, Message: stored})
	return stored, nil
}

func (p Poster) store(ctx context.Context, m Message, image io.Reader) (*Message, error) {
	if image != nil {
		url, err := p.Images.UploadImage(ctx, image)
		if err != nil {
			return nil, err
		}
		m.ImageURL = &url
	}
	m.ID = ""
	return p.Repo.CreateMessage(ctx, m)
}

// publish is best effort; the stored message is still returned to the poster.
func (p Poster) publish(ctx context.Context, ev Event) {
	if err := p.Broker.Publish(ctx, ev); err != nil {
		p.Log.Warn("chat publish failed", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}
