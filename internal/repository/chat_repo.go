package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"chat-llm/internal/domain"
)

// ChatRepository define el contrato de persistencia para conversaciones.
// La propiedad se verifica como predicado de la consulta: un chat ajeno
// es indistinguible de uno inexistente.
type ChatRepository interface {
	Create(ctx context.Context, chat domain.Chat) error
	GetByID(ctx context.Context, chatID, ownerID string) (domain.Chat, error)
	AppendMessages(ctx context.Context, chatID, ownerID string, msgs []domain.Message, now time.Time) (domain.Chat, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.ChatSummary, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	Delete(ctx context.Context, chatID, ownerID string) (int64, error)
}

// PgChatRepository implementa ChatRepository usando pgxpool. Los mensajes se
// guardan embebidos en una columna jsonb, en orden de inserción.
type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

func (r *PgChatRepository) Create(ctx context.Context, chat domain.Chat) error {
	const query = `
		INSERT INTO chats (id, user_id, title, messages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	payload, err := json.Marshal(chat.Messages)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, query,
		chat.ID,
		chat.UserID,
		chat.Title,
		payload,
		chat.CreatedAt,
		chat.UpdatedAt,
	)
	return err
}

func (r *PgChatRepository) GetByID(ctx context.Context, chatID, ownerID string) (domain.Chat, error) {
	const query = `
		SELECT id, user_id, title, messages, created_at, updated_at
		FROM chats
		WHERE id = $1 AND user_id = $2
	`
	return r.scanChat(r.pool.QueryRow(ctx, query, chatID, ownerID))
}

// AppendMessages concatena los mensajes al final de la secuencia en un único
// UPDATE: dos appends concurrentes al mismo chat se serializan en el storage
// y ninguno se pierde. Devuelve el chat completo ya actualizado.
func (r *PgChatRepository) AppendMessages(ctx context.Context, chatID, ownerID string, msgs []domain.Message, now time.Time) (domain.Chat, error) {
	const query = `
		UPDATE chats
		SET messages = messages || $3::jsonb, updated_at = $4
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, title, messages, created_at, updated_at
	`
	payload, err := json.Marshal(msgs)
	if err != nil {
		return domain.Chat{}, err
	}
	return r.scanChat(r.pool.QueryRow(ctx, query, chatID, ownerID, payload, now))
}

func (r *PgChatRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.ChatSummary, error) {
	const query = `
		SELECT id, title
		FROM chats
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []domain.ChatSummary{}
	for rows.Next() {
		var s domain.ChatSummary
		if err := rows.Scan(&s.ID, &s.Title); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *PgChatRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	const query = `
		SELECT COUNT(*) FROM chats WHERE user_id = $1
	`
	var total int
	err := r.pool.QueryRow(ctx, query, ownerID).Scan(&total)
	return total, err
}

func (r *PgChatRepository) Delete(ctx context.Context, chatID, ownerID string) (int64, error) {
	const query = `
		DELETE FROM chats WHERE id = $1 AND user_id = $2
	`
	tag, err := r.pool.Exec(ctx, query, chatID, ownerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgChatRepository) scanChat(row rowScanner) (domain.Chat, error) {
	var c domain.Chat
	var payload []byte
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Title,
		&payload,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return domain.Chat{}, err
	}
	if err := json.Unmarshal(payload, &c.Messages); err != nil {
		return domain.Chat{}, err
	}
	return c, nil
}
