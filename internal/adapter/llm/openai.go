package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Passages longer than this are truncated before prompt assembly so a
// handful of large contexts cannot blow up the request.
const maxContextRunes = 2000

// OpenAIAnswerer generates answers through an OpenAI-compatible chat
// completions endpoint.
type OpenAIAnswerer struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
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
	} `json:"error,omitempty"`
}

// NewOpenAIAnswerer builds an answerer reading its API key from the
// named environment variable.
func NewOpenAIAnswerer(apiKeyEnv, model, baseURL string) (*OpenAIAnswerer, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("answer provider unavailable: API key not set in %s", apiKeyEnv)
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIAnswerer{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Answer generates an answer grounded in the given context passages.
// With no contexts it answers from the model alone.
func (a *OpenAIAnswerer) Answer(question string, contexts []string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(question, contexts)},
		},
		MaxTokens:   256,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, data)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("parse chat response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("chat API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// ModelName returns the name of the model.
func (a *OpenAIAnswerer) ModelName() string { return a.model }

func buildPrompt(question string, contexts []string) string {
	if len(contexts) == 0 {
		return question
	}

	parts := make([]string, 0, len(contexts))
	for _, c := range contexts {
		runes := []rune(c)
		if len(runes) > maxContextRunes {
			c = string(runes[:maxContextRunes])
		}
		parts = append(parts, c)
	}

	var b strings.Builder
	b.WriteString("Use the following context to answer the question. Cite sources when possible.\n\n")
	b.WriteString("CONTEXT:\n")
	b.WriteString(strings.Join(parts, "\n\n"))
	b.WriteString("\n\nQUESTION: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer concisely.")
	return b.String()
}

// StubAnswerer is the fallback used when no chat model is configured.
// It keeps the QA endpoint functional with retrieval-only results.
type StubAnswerer struct{}

// Answer returns a canned answer.
func (StubAnswerer) Answer(question string, contexts []string) (string, error) {
	return "No answer model available; see retrieved sources.", nil
}

// ModelName returns the name of the model.
func (StubAnswerer) ModelName() string { return "stub" }
