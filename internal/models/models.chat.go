package models

import "time"

const RoleCaretaker = "caretaker"

// Message is a stored chat line between a caretaker and their plant
type Message struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	DeviceID    string    `json:"device_id" db:"device_id"`
	PlantID     int64     `json:"plant_id" db:"plant_id"`
	Role        string    `json:"role" db:"role"`
	MessageText string    `json:"message_text" db:"message_text"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type ChatLine struct {
	Text   string `json:"text"`
	IsUser bool   `json:"is_user"`
}

type ChatReply struct {
	Reply string `json:"reply"`
}
