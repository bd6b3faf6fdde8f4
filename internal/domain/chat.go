package domain

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat agrupa una conversación completa: los mensajes se guardan embebidos
// y su orden de inserción es el orden de la conversación.
type Chat struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatSummary es la vista liviana que devuelve el historial paginado.
type ChatSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
