package llm

import (
	"context"

	"chat-llm/internal/domain"
)

// MockClient permite tests sin llamar a un LLM real.
type MockClient struct {
	Response    string
	Err         error
	LastHistory []domain.Message
}

func (m *MockClient) Complete(_ context.Context, history []domain.Message) (domain.Message, error) {
	m.LastHistory = history
	if m.Err != nil {
		return domain.Message{}, m.Err
	}
	return domain.Message{Role: domain.RoleAssistant, Content: m.Response}, nil
}
