package chat

import (
	"time"

	"github.com/oncolens/assistant/internal/model/role"
)

// Session captures a transient anonymous conversation bound to a role.
type Session struct {
	ID         string    `json:"id"`
	Role       role.Role `json:"role"`
	WidgetOpen bool      `json:"widgetOpen"`
	CreatedAt  time.Time `json:"createdAt"`
}
