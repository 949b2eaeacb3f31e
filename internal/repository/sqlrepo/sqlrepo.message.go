package sqlrepo

import (
	"context"

	"github.com/itsatony/talkingplants/internal/database"
	"github.com/itsatony/talkingplants/internal/models"
)

type MessageRepo struct {
	baseRepo
}

func NewMessageRepository() *MessageRepo {
	return &MessageRepo{baseRepo: baseRepo{entity: "message"}}
}

// Recent returns up to limit messages for the user's plant, newest first
func (r *MessageRepo) Recent(ctx context.Context, q database.Querier, userID string, plantID int64, limit int) ([]models.Message, error) {
	messages := []models.Message{}
	query := `
		SELECT id, user_id, device_id, plant_id, role, message_text, created_at
		FROM messages
		WHERE user_id = ? AND plant_id = ?
		ORDER BY created_at DESC
		LIMIT ?`
	if err := r.selectAll(ctx, q, &messages, query, userID, plantID, limit); err != nil {
		return nil, err
	}
	return messages, nil
}
