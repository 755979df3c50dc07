// Package ai wraps the language-model provider behind a stateless client:
// transcript in, raw completion text or a classified ModelError out.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/figmentlabs/figment/internal/config"
	"github.com/figmentlabs/figment/internal/model/app"
)

// ErrEmptyTranscript is returned when Complete is called without a pending
// user turn to answer.
var ErrEmptyTranscript = errors.New("transcript must end with a user turn")

// Service runs completions through a compiled eino chain. It holds no
// session-specific state and is safe for concurrent use across sessions.
type Service struct {
	chain   compose.Runnable[map[string]any, *schema.Message]
	timeout time.Duration
}

// NewService creates the model client from configuration.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{chain: runnable, timeout: cfg.RequestTimeout()}, nil
}

// Complete sends the ordered transcript to the model and returns the raw
// completion text. The final turn must be the pending user turn. Failures
// come back as *ModelError; exceeding the configured timeout yields
// KindTimeout rather than blocking.
func (s *Service) Complete(ctx context.Context, sessionID string, turns []app.Turn) (string, error) {
	if len(turns) == 0 || turns[len(turns)-1].Role != app.RoleUser {
		return "", ErrEmptyTranscript
	}

	query := turns[len(turns)-1].Content
	input := map[string]any{
		"system":  systemInstructions,
		"history": historyMessages(turns[:len(turns)-1]),
		"query":   query,
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		modelErr := classify(err)
		log.Printf("[ai] completion failed session=%s kind=%s: %v", sessionID, modelErr.Kind, err)
		return "", modelErr
	}

	if response == nil || strings.TrimSpace(response.Content) == "" {
		modelErr := &ModelError{Kind: KindEmptyResponse, Err: errors.New("provider returned no content")}
		log.Printf("[ai] completion failed session=%s kind=%s", sessionID, modelErr.Kind)
		return "", modelErr
	}

	log.Printf("[ai] generated completion session=%s length=%d", sessionID, len(response.Content))
	return response.Content, nil
}

// historyMessages maps recorded turns onto eino schema messages.
func historyMessages(turns []app.Turn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case app.RoleUser:
			history = append(history, schema.UserMessage(turn.Content))
		case app.RoleModel:
			history = append(history, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return history
}
