package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/veridoc/veridoc/core/retrieval"
	"github.com/veridoc/veridoc/helper"
	"github.com/veridoc/veridoc/model"
)

// DefaultModel is used when no model is configured
const DefaultModel = "claude-3-5-sonnet-latest"

const (
	defaultMaxTokens   = 4000
	defaultTemperature = 0.7
	maxHistoryTurns    = 10
)

// RetryConfig controls the retry with exponential backoff around the
// Messages API. This is the answer client's own policy, nothing else in
// the pipeline retries.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Timeout        time.Duration
}

// DefaultRetryConfig returns the retry configuration used for answer calls
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		Timeout:        60 * time.Second,
	}
}

// Turn is one prior message of a conversation, role "user" or "assistant"
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Answer is the generated reply plus usage metadata
type Answer struct {
	Text         string `json:"text"`
	Model        string `json:"model"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
}

// Service generates grounded answers through the Anthropic Messages API
type Service struct {
	client *anthropic.Client
	model  string
	retry  RetryConfig
	log    *slog.Logger
}

// NewService creates a new answer service. An empty API key falls back to
// the ANTHROPIC_API_KEY environment variable, an empty model to DefaultModel
// and a zero retry config to DefaultRetryConfig.
func NewService(apiKey string, model string, retry RetryConfig, logger *slog.Logger) (*Service, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, helper.NewError("answer service validation", fmt.Errorf("ANTHROPIC_API_KEY not set"))
		}
	}
	if model == "" {
		model = DefaultModel
	}
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Service{
		client: &client,
		model:  model,
		retry:  retry,
		log:    logger,
	}, nil
}

// Ask answers a question for a discipline, grounded on the formatted
// retrieval context. History is truncated to the most recent turns before
// the call.
func (s *Service) Ask(ctx context.Context, discipline model.Discipline, question string, contextBlock string, history []Turn) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, helper.NewError("question validation", fmt.Errorf("question is empty"))
	}

	messages := make([]anthropic.MessageParam, 0, maxHistoryTurns+1)
	for _, turn := range truncateHistory(history, maxHistoryTurns) {
		if turn.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage(question, contextBlock))))

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(s.model),
		MaxTokens:   defaultMaxTokens,
		Temperature: anthropic.Float(defaultTemperature),
		System: []anthropic.TextBlockParam{
			{Text: SystemPrompt(discipline)},
		},
		Messages: messages,
	}

	var response *anthropic.Message
	err := s.retryWithBackoff(ctx, "answer", func(attemptCtx context.Context) error {
		resp, apiErr := s.client.Messages.New(attemptCtx, params)
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return nil, helper.NewError("answer", err)
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	s.log.Info("Generated answer",
		slog.String("discipline", string(discipline)),
		slog.Int64("input_tokens", response.Usage.InputTokens),
		slog.Int64("output_tokens", response.Usage.OutputTokens))

	return &Answer{
		Text:         text.String(),
		Model:        s.model,
		InputTokens:  response.Usage.InputTokens,
		OutputTokens: response.Usage.OutputTokens,
	}, nil
}

// userMessage combines the retrieval context with the user's question. An
// empty context falls back to the no-context marker so the prompt shape
// stays intact.
func userMessage(question string, contextBlock string) string {
	if strings.TrimSpace(contextBlock) == "" {
		contextBlock = retrieval.NoContextMarker
	}

	return fmt.Sprintf(`%v

# User Question

%v

Please answer based on the context provided above. Cite specific document sections and page numbers when referencing information.`, contextBlock, question)
}

// truncateHistory keeps only the most recent turns
func truncateHistory(history []Turn, maxTurns int) []Turn {
	if len(history) <= maxTurns {
		return history
	}
	return history[len(history)-maxTurns:]
}

// retryWithBackoff executes one API operation with retry and exponential
// backoff. Only transient errors are retried.
func (s *Service) retryWithBackoff(ctx context.Context, operation string, fn func(context.Context) error) error {
	var lastErr error
	backoff := s.retry.InitialBackoff

	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.retry.Timeout)
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			if attempt > 0 {
				s.log.Info("Answer call succeeded after retries",
					slog.String("operation", operation),
					slog.Int("num_retries", attempt))
			}
			return nil
		}

		lastErr = err

		if !isRetriableError(err) {
			return err
		}
		if attempt == s.retry.MaxRetries {
			break
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%v failed: context canceled: %w", operation, ctx.Err())
		}

		s.log.Warn("Answer call failed, retrying",
			slog.String("operation", operation),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()))

		select {
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * s.retry.Multiplier)
			if backoff > s.retry.MaxBackoff {
				backoff = s.retry.MaxBackoff
			}
		case <-ctx.Done():
			return fmt.Errorf("%v failed: context canceled during backoff: %w", operation, ctx.Err())
		}
	}

	return fmt.Errorf("%v failed after %v attempts: %w", operation, s.retry.MaxRetries+1, lastErr)
}

// isRetriableError reports whether an error is transient. Rate limits,
// server errors and network failures are retried, other client errors
// are not.
func isRetriableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	message := err.Error()
	if strings.Contains(message, "429") || strings.Contains(message, "rate limit") {
		return true
	}
	if strings.Contains(message, "500") || strings.Contains(message, "502") ||
		strings.Contains(message, "503") || strings.Contains(message, "504") ||
		strings.Contains(message, "internal server error") ||
		strings.Contains(message, "service unavailable") {
		return true
	}
	if strings.Contains(message, "connection refused") ||
		strings.Contains(message, "connection reset") ||
		strings.Contains(message, "timeout") {
		return true
	}

	return false
}
