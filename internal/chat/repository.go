package chat

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListChannels(ctx context.Context) ([]Channel, error) {
	const q = `SELECT id, name, description, created_at FROM channels ORDER BY created_at`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Channel
	for rows.Next() {
		var c Channel
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) CreateChannel(ctx context.Context, name, description string) (*Channel, error) {
	const q = `
INSERT INTO channels (name, description)
VALUES ($1, $2)
RETURNING id, name, description, created_at
`
	var c Channel
	if err := r.db.QueryRow(ctx, q, name, description).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) ChannelExists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM channels WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (r *Repository) ListMessages(ctx context.Context, channelID string) ([]Message, error) {
	const q = `
SELECT id, channel_id, sender_id, sender_name, content, image_url, created_at
FROM messages
WHERE channel_id = $1
ORDER BY created_at
`
	rows, err := r.db.Query(ctx, q, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChannelID, &m.SenderID, &m.SenderName, &m.Content, &m.ImageURL, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) CreateMessage(ctx context.Context, m Message) (*Message, error) {
	const q = `
INSERT INTO messages (channel_id, sender_id, sender_name, content, image_url)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at
`
	if err := r.db.QueryRow(ctx, q, m.ChannelID, m.SenderID, m.SenderName, m.Content, m.ImageURL).Scan(&m.ID, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
