package chat

import "fieldservice/internal/optimistic"

// Timeline is a channel's message list as a subscriber sees it, including pending posts.
type Timeline struct {
	feed optimistic.Feed[Message]
}

func NewTimeline(history []Message) Timeline {
	return Timeline{feed: optimistic.FromItems(history, messageID)}
}

// Apply folds one event into the timeline.
func (t Timeline) Apply(ev Event) Timeline {
	switch ev.Type {
	case EventPending:
		if ev.Message != nil {
			t.feed = t.feed.Apply(ev.TempID, *ev.Message)
		}
	case EventConfirmed:
		if ev.Message != nil {
			t.feed = t.feed.Resolve(ev.TempID, ev.Message.ID, *ev.Message)
		}
	case EventRetracted:
		t.feed = t.feed.Discard(ev.TempID)
	}
	return t
}

func (t Timeline) Entries() []optimistic.Entry[Message] { return t.feed.Entries() }

func (t Timeline) Messages() []Message { return t.feed.Items() }
