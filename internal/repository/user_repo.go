package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chat-llm/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	ConsumeDailyQuota(ctx context.Context, id string, day time.Time, limit int) (int, error)
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, username, email, password_hash, tier, message_count, last_message_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Tier,
		user.MessageCount,
		user.LastMessageDate,
		user.CreatedAt,
	)
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `
		SELECT id, username, email, password_hash, tier, message_count, last_message_date, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `
		SELECT id, username, email, password_hash, tier, message_count, last_message_date, created_at
		FROM users
		WHERE email = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM users WHERE username = $1 OR email = $2
		)
	`
	var exists bool
	err := r.pool.QueryRow(ctx, query, username, email).Scan(&exists)
	return exists, err
}

// ConsumeDailyQuota incrementa el contador diario de forma atómica. Si la
// última fecha registrada no es el día dado, reinicia el contador a 1 como
// parte del mismo UPDATE (reset perezoso). Devuelve pgx.ErrNoRows cuando el
// usuario no existe o ya alcanzó el tope del día: cero filas actualizadas es
// la señal de denegación, sin ventana entre leer y escribir.
func (r *PgUserRepository) ConsumeDailyQuota(ctx context.Context, id string, day time.Time, limit int) (int, error) {
	const query = `
		UPDATE users
		SET message_count = CASE
				WHEN last_message_date IS DISTINCT FROM $2::date THEN 1
				ELSE message_count + 1
			END,
			last_message_date = $2::date
		WHERE id = $1
		  AND (last_message_date IS DISTINCT FROM $2::date OR message_count < $3)
		RETURNING message_count
	`
	var count int
	err := r.pool.QueryRow(ctx, query, id, day, limit).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PgUserRepository) scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Tier,
		&u.MessageCount,
		&u.LastMessageDate,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}
	return u, err
}
