package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"chat-llm/internal/cache"
	"chat-llm/internal/domain"
	"chat-llm/internal/llm"
	"chat-llm/internal/repository"
)

var (
	ErrChatNotFound     = errors.New("chat not found")
	ErrChatInvalidInput = errors.New("chat invalid input")
)

// QuotaDeniedMessage es la respuesta de denegación suave que ve el usuario.
const QuotaDeniedMessage = "Daily message limit reached for free users. Please upgrade your account."

const titleMaxLen = 50

// SendResult es el resultado etiquetado de SendMessage: o bien una denegación
// suave por cupo, o bien el turno generado con el chat al que quedó anexado.
type SendResult struct {
	Denied        bool
	DenialMessage string
	ChatID        string
	Reply         domain.Message
}

// Pagination acompaña al historial paginado.
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// ChatService orquesta el envío de mensajes: cupo, proveedor, persistencia y
// cache write-through. El cache es mejora de latencia, nunca dependencia de
// corrección: sus fallos se loguean y se sigue por el camino durable.
type ChatService struct {
	logger          *zap.Logger
	chats           repository.ChatRepository
	users           repository.UserRepository
	chatCache       cache.ChatCache
	llmClient       llm.LLMClient
	quota           QuotaTracker
	sendFullHistory bool
	now             func() time.Time
}

func NewChatService(
	logger *zap.Logger,
	chats repository.ChatRepository,
	users repository.UserRepository,
	chatCache cache.ChatCache,
	llmClient llm.LLMClient,
	quota QuotaTracker,
	sendFullHistory bool,
) *ChatService {
	return &ChatService{
		logger:          logger,
		chats:           chats,
		users:           users,
		chatCache:       chatCache,
		llmClient:       llmClient,
		quota:           quota,
		sendFullHistory: sendFullHistory,
		now:             time.Now,
	}
}

// SendMessage cobra el cupo, genera la respuesta del asistente, persiste el
// par de turnos y actualiza el cache. El cobro no se revierte si el proveedor
// falla después.
func (s *ChatService) SendMessage(ctx context.Context, userID, chatID, content string) (SendResult, error) {
	content = strings.TrimSpace(content)
	if content == "" || !isValidID(userID) {
		return SendResult{}, ErrChatInvalidInput
	}
	if chatID != "" && !isValidID(chatID) {
		return SendResult{}, ErrChatInvalidInput
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return SendResult{}, fmt.Errorf("load user: %w", err)
	}

	allowed, err := s.quota.CheckAndCharge(ctx, user)
	if err != nil {
		return SendResult{}, fmt.Errorf("check quota: %w", err)
	}
	if !allowed {
		return SendResult{Denied: true, DenialMessage: QuotaDeniedMessage}, nil
	}

	userMsg := domain.Message{Role: domain.RoleUser, Content: content}

	history := []domain.Message{userMsg}
	if s.sendFullHistory && chatID != "" {
		stored, err := s.chats.GetByID(ctx, chatID, userID)
		if errors.Is(err, pgx.ErrNoRows) {
			return SendResult{}, ErrChatNotFound
		}
		if err != nil {
			return SendResult{}, fmt.Errorf("load history: %w", err)
		}
		history = append(stored.Messages, userMsg)
	}

	reply, err := s.llmClient.Complete(ctx, history)
	if err != nil {
		// El cupo ya cobrado no se devuelve.
		return SendResult{}, fmt.Errorf("llm generate: %w", err)
	}

	now := s.now().UTC()
	var chat domain.Chat
	if chatID == "" {
		chat = domain.Chat{
			ID:        uuid.NewString(),
			UserID:    userID,
			Title:     makeTitle(content),
			Messages:  []domain.Message{userMsg, reply},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.chats.Create(ctx, chat); err != nil {
			return SendResult{}, fmt.Errorf("create chat: %w", err)
		}
	} else {
		chat, err = s.chats.AppendMessages(ctx, chatID, userID, []domain.Message{userMsg, reply}, now)
		if errors.Is(err, pgx.ErrNoRows) {
			return SendResult{}, ErrChatNotFound
		}
		if err != nil {
			return SendResult{}, fmt.Errorf("append messages: %w", err)
		}
	}

	s.putCache(ctx, chat.ID, chat.Messages)

	return SendResult{ChatID: chat.ID, Reply: reply}, nil
}

// GetChat devuelve los mensajes del chat, del cache si hay hit y del store en
// caso contrario, repoblando el cache tras el miss.
func (s *ChatService) GetChat(ctx context.Context, userID, chatID string) ([]domain.Message, error) {
	if !isValidID(userID) || !isValidID(chatID) {
		return nil, ErrChatInvalidInput
	}

	if s.chatCache != nil {
		msgs, hit, err := s.chatCache.GetMessages(ctx, chatID)
		if err != nil && s.logger != nil {
			s.logger.Warn("cache get failed", zap.Error(err), zap.String("chat_id", chatID))
		}
		if hit {
			return msgs, nil
		}
	}

	chat, err := s.chats.GetByID(ctx, chatID, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}

	s.putCache(ctx, chat.ID, chat.Messages)

	return chat.Messages, nil
}

// DeleteChat borra el chat y lo invalida en el cache antes de responder, para
// no servir una copia cacheada de un chat borrado dentro de su TTL.
func (s *ChatService) DeleteChat(ctx context.Context, userID, chatID string) error {
	if !isValidID(userID) || !isValidID(chatID) {
		return ErrChatInvalidInput
	}

	deleted, err := s.chats.Delete(ctx, chatID, userID)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if deleted == 0 {
		return ErrChatNotFound
	}

	if s.chatCache != nil {
		if err := s.chatCache.Invalidate(ctx, chatID); err != nil && s.logger != nil {
			s.logger.Error("cache invalidate failed", zap.Error(err), zap.String("chat_id", chatID))
		}
	}
	return nil
}

// ListHistory pagina los chats del usuario por recencia. Una página fuera de
// rango devuelve lista vacía con totales válidos; el historial no se cachea.
func (s *ChatService) ListHistory(ctx context.Context, userID string, page, limit int) ([]domain.ChatSummary, Pagination, error) {
	if !isValidID(userID) {
		return nil, Pagination{}, ErrChatInvalidInput
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 5
	}

	offset := (page - 1) * limit
	items, err := s.chats.ListByOwner(ctx, userID, limit, offset)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list chats: %w", err)
	}

	total, err := s.chats.CountByOwner(ctx, userID)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("count chats: %w", err)
	}

	return items, Pagination{
		CurrentPage:  page,
		TotalPages:   (total + limit - 1) / limit,
		TotalItems:   total,
		ItemsPerPage: limit,
	}, nil
}

func (s *ChatService) putCache(ctx context.Context, chatID string, msgs []domain.Message) {
	if s.chatCache == nil {
		return
	}
	if err := s.chatCache.PutMessages(ctx, chatID, msgs); err != nil && s.logger != nil {
		s.logger.Warn("cache put failed", zap.Error(err), zap.String("chat_id", chatID))
	}
}

func makeTitle(content string) string {
	runes := []rune(content)
	if len(runes) > titleMaxLen {
		runes = runes[:titleMaxLen]
	}
	return string(runes) + "..."
}

func isValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
