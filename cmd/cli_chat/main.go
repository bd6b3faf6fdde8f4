package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chat-llm/internal/cache"
	"chat-llm/internal/config"
	"chat-llm/internal/db"
	"chat-llm/internal/domain"
	"chat-llm/internal/llm"
	"chat-llm/internal/repository"
	"chat-llm/internal/service"
)

// Cliente de terminal para probar el servicio de chat contra infraestructura
// real, sin pasar por HTTP.
func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	chatRepo := repository.NewPgChatRepository(pool)

	var chatCache cache.ChatCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		chatCache = cache.NewRedisChatCache(redisClient, time.Duration(cfg.CacheTTLMinutes)*time.Minute)
	}

	llmClient := llm.NewHTTPClient(
		cfg.LLMBaseURL,
		cfg.LLMAPIKey,
		cfg.LLMModel,
		cfg.LLMSystemPrompt,
		time.Duration(cfg.LLMTimeoutSeconds)*time.Second,
		logger,
	)
	quotaTracker := service.NewDailyQuotaTracker(logger, userRepo, cfg.FreeDailyLimit)
	userSvc := service.NewUserService(logger, userRepo)
	chatSvc := service.NewChatService(logger, chatRepo, userRepo, chatCache, llmClient, quotaTracker, cfg.LLMSendFullHistory)

	user, err := ensureUser(ctx, userRepo, userSvc, "cli_test@example.com")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Usuario: %s (tier=%s)\n", user.Email, user.Tier)
	fmt.Println("Comandos: /history, /open <chatId>, /delete <chatId>, /quit")

	currentChat := ""
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return
		case line == "/history":
			items, pagination, err := chatSvc.ListHistory(ctx, user.ID, 1, 10)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			for _, item := range items {
				fmt.Printf("  %s  %s\n", item.ID, item.Title)
			}
			fmt.Printf("  (%d chats en total)\n", pagination.TotalItems)
		case strings.HasPrefix(line, "/open "):
			chatID := strings.TrimSpace(strings.TrimPrefix(line, "/open "))
			msgs, err := chatSvc.GetChat(ctx, user.ID, chatID)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			currentChat = chatID
			for _, m := range msgs {
				fmt.Printf("[%s] %s\n", m.Role, m.Content)
			}
		case strings.HasPrefix(line, "/delete "):
			chatID := strings.TrimSpace(strings.TrimPrefix(line, "/delete "))
			if err := chatSvc.DeleteChat(ctx, user.ID, chatID); err != nil {
				fmt.Println("error:", err)
				continue
			}
			if currentChat == chatID {
				currentChat = ""
			}
			fmt.Println("chat borrado")
		default:
			result, err := chatSvc.SendMessage(ctx, user.ID, currentChat, line)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			if result.Denied {
				fmt.Println(result.DenialMessage)
				continue
			}
			currentChat = result.ChatID
			fmt.Printf("[assistant] %s\n", result.Reply.Content)
		}
	}
}

func ensureUser(ctx context.Context, repo repository.UserRepository, svc *service.UserService, email string) (domain.User, error) {
	user, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}
	return svc.Signup(ctx, service.SignupInput{
		Username: "cli_test",
		Email:    email,
		Password: "cli_test_password",
	})
}
