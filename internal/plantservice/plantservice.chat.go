package plantservice

import (
	"context"
	"strings"

	"github.com/itsatony/talkingplants/internal/brain"
	"github.com/itsatony/talkingplants/internal/errors"
	"github.com/itsatony/talkingplants/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const chatHistoryLimit = 10

// Chat asks the brain to answer as the user's plant. Brain failures are not retried.
func (s *PlantService) Chat(ctx context.Context, userID, deviceID, text string) (*models.ChatReply, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.NewValidationError("text is required", nil)
	}
	plantID, err := s.syncedPlant(ctx, s.reader(), userID, deviceID, false)
	if err != nil {
		return nil, err
	}

	reply, err := s.Brain.Ask(ctx, brain.Request{UserID: userID, DeviceID: deviceID, PlantID: plantID, Text: text})
	if err != nil {
		nuts.L.Warnf("[PlantService] Chat for device %s failed: %v", deviceID, err)
		if errors.TypeOf(err) == errors.ErrorTypeUnavailable {
			return nil, err
		}
		return nil, errors.NewUnavailableError("brain offline", err)
	}
	return &models.ChatReply{Reply: reply}, nil
}

// ChatHistory returns the last messages with the user's plant, newest first
func (s *PlantService) ChatHistory(ctx context.Context, userID, deviceID string) ([]models.ChatLine, error) {
	plantID, err := s.syncedPlant(ctx, s.reader(), userID, deviceID, false)
	if err != nil {
		return nil, err
	}
	msgs, err := s.Messages.Recent(ctx, s.reader(), userID, plantID, chatHistoryLimit)
	if err != nil {
		return nil, err
	}
	lines := make([]models.ChatLine, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, models.ChatLine{Text: m.MessageText, IsUser: m.Role == models.RoleCaretaker})
	}
	return lines, nil
}
