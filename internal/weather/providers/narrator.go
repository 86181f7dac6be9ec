package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-timeline/internal/resilience"
	"github.com/i474232898/weather-timeline/internal/weather"
)

const narratorSystemPrompt = "You are a concise and witty weather narrator. Summarize the provided weather data " +
	"in a single, engaging sentence (max 20 words). Focus on key changes or implications. " +
	"E.g., 'Expect a warm and sunny day, perfect for outdoor activities!' or 'A cold front is moving in, so bundle up!'"

// LLMNarrator implements weather.Narrator against an OpenAI-compatible
// chat-completions endpoint such as OpenRouter.
type LLMNarrator struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	httpCfg     resilience.HTTPClientConfig
	circuit     *gobreaker.CircuitBreaker
	limiter     *rate.Limiter
}

// NewLLMNarrator creates a narrator. rps bounds outbound calls per second,
// burst is the limiter's bucket size.
func NewLLMNarrator(client *http.Client, baseURL, apiKey, model string, rps float64, burst int) *LLMNarrator {
	return &LLMNarrator{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: 0.7,
		httpCfg: resilience.HTTPClientConfig{
			Client:  client,
			Backoff: resilience.DefaultBackoff,
		},
		circuit: resilience.NewBreaker("narrator"),
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Narrate implements weather.Narrator.
func (n *LLMNarrator) Narrate(ctx context.Context, in weather.BriefingInput) (string, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait canceled: %w", err)
	}

	data, err := json.Marshal(in)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(map[string]any{
		"model":       n.model,
		"temperature": n.temperature,
		"messages": []chatMessage{
			{Role: "system", Content: narratorSystemPrompt},
			{Role: "user", Content: "Here is the weather data: " + string(data)},
		},
	})
	if err != nil {
		return "", err
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, n.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+n.apiKey)
		return req, nil
	}

	resp, err := resilience.Do(ctx, n.httpCfg, n.circuit, buildRequest)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("narrator returned no choices")
	}

	return strings.TrimSpace(payload.Choices[0].Message.Content), nil
}
