package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OpenAI paraphrases text through a chat-completions endpoint. Any failure
// is returned to the caller, which falls back to suffix decoration.
type OpenAI struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

const paraphrasePrompt = "Paraphrase the user's message. Keep the meaning, tone and language. Reply with the paraphrase only."

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
}

func (c *OpenAI) Rewrite(ctx context.Context, text string) (string, error) {
	if c.APIKey == "" || c.BaseURL == "" {
		return "", fmt.Errorf("openai rewriter not configured")
	}
	payload := chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: paraphrasePrompt},
			{Role: "user", Content: text},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("rewrite request failed with status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("rewrite response missing choices")
	}
	rewritten := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if rewritten == "" {
		return "", fmt.Errorf("rewrite response empty")
	}
	return rewritten, nil
}
