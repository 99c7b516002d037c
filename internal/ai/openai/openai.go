package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-radar/internal/logger"
)

const (
	Provider = "openai"

	DefaultEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultModel    = "gpt-4.1-mini"
	defaultTimeout  = 2 * time.Minute
)

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generator talks to an OpenAI compatible chat completions endpoint.
type Generator struct {
	apiKey     string
	model      string
	endpoint   string
	HTTPClient *http.Client
	logger     *zap.Logger
}

func NewGenerator(apiKey, model, endpoint string, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if endpoint = strings.TrimSpace(endpoint); endpoint == "" {
		endpoint = DefaultEndpoint
	}

	return &Generator{
		apiKey:     apiKey,
		model:      model,
		endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.WithOracle(log, Provider, model),
	}, nil
}

func (g *Generator) GenerateContent(ctx context.Context, instruction, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	messages := make([]chatMessage, 0, 2)
	if instruction = strings.TrimSpace(instruction); instruction != "" {
		messages = append(messages, chatMessage{Role: "system", Content: instruction})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	b, err := json.Marshal(chatRequest{Model: g.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	g.logger.Debug("chat completion request", zap.String("endpoint", g.endpoint), zap.Int("messages", len(messages)))

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read openai response: %w", err)
	}

	var cr chatResponse
	decodeErr := json.Unmarshal(body, &cr)

	if resp.StatusCode >= http.StatusBadRequest {
		if decodeErr == nil && cr.Error != nil && cr.Error.Message != "" {
			return "", fmt.Errorf("openai http %d: %s", resp.StatusCode, cr.Error.Message)
		}
		return "", fmt.Errorf("openai http %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode openai response: %w", decodeErr)
	}
	if len(cr.Choices) == 0 {
		return "", errors.New("no choices in openai response")
	}

	output := strings.TrimSpace(cr.Choices[0].Message.Content)
	if output == "" {
		return "", errors.New("openai returned empty response")
	}

	return output, nil
}

func (g *Generator) Provider() string { return Provider }

func (g *Generator) Model() string { return g.model }
