package chat

import "time"

type Channel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Message struct {
	ID         string    `json:"id"`
	ChannelID  string    `json:"channelId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Content    string    `json:"content"`
	ImageURL   *string   `json:"imageUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func messageID(m Message) string { return m.ID }

type EventType string

const (
	// EventPending announces a post that is still being stored. Message.ID is the temp id.
	EventPending EventType = "pending"
	// EventConfirmed replaces the pending post TempID with the stored Message.
	EventConfirmed EventType = "confirmed"
	// EventRetracted withdraws the pending post TempID.
	EventRetracted EventType = "retracted"
)

type Event struct {
	Type      EventType `json:"type"`
	ChannelID string    `json:"channelId"`
	TempID    string    `json:"tempId"`
	Message   *Message  `json:"message,omitempty"`
}
