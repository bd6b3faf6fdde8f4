package domain

import "time"

const (
	TierFree = "free"
	TierPaid = "paid"
)

type User struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	Tier            string     `json:"tier"`
	MessageCount    int        `json:"message_count"`
	LastMessageDate *time.Time `json:"last_message_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// SameDay indica si la última fecha de mensaje cae en el día calendario dado.
// Un usuario sin fecha registrada nunca coincide, lo que fuerza el reset perezoso.
func (u User) SameDay(day time.Time) bool {
	if u.LastMessageDate == nil {
		return false
	}
	y1, m1, d1 := u.LastMessageDate.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
