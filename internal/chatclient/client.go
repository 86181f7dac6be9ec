// Package chatclient talks to the weather service's /chat and /narrate
// endpoints and is the navigation core's data source.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-timeline/internal/resilience"
	"github.com/i474232898/weather-timeline/internal/weather"
)

const unexpectedResponseMessage = "Received an unexpected response from the server."

// ErrUnexpectedResponse is returned when /chat answers with a shape the
// client does not understand.
var ErrUnexpectedResponse = unexpectedResponseError{}

type unexpectedResponseError struct{}

func (unexpectedResponseError) Error() string       { return "unexpected chat response" }
func (unexpectedResponseError) UserMessage() string { return unexpectedResponseMessage }

// ServiceError is an error the service reported in its response body. Its
// message is meant for the user.
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string       { return "weather service: " + e.Message }
func (e *ServiceError) UserMessage() string { return e.Message }

// Client calls the weather service with retries and a circuit breaker.
type Client struct {
	baseURL string
	cfg     resilience.HTTPClientConfig
	cb      *gobreaker.CircuitBreaker
}

// New creates a client for the service at baseURL.
func New(client *http.Client, baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		cfg: resilience.HTTPClientConfig{
			Client:  client,
			Backoff: resilience.DefaultBackoff,
		},
		cb: resilience.NewBreaker("weather-service"),
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response json.RawMessage `json:"response"`
}

// responseProbe detects which of the /chat response shapes arrived.
type responseProbe struct {
	Error           *string          `json:"error"`
	City            string           `json:"city"`
	TimelineData    json.RawMessage  `json:"timeline_data"`
	CurrentSnapshot *json.RawMessage `json:"current_snapshot"`
}

// singlePoint is the older single-observation shape of a /chat answer.
type singlePoint struct {
	City      string            `json:"city"`
	Condition string            `json:"condition"`
	Temp      float64           `json:"temp"`
	FeelsLike float64           `json:"feels_like"`
	Humidity  int               `json:"humidity"`
	WindSpeed float64           `json:"wind_speed"`
	TimeOfDay weather.TimeOfDay `json:"time_of_day"`
}

// Query sends a chat message and returns the report it resolves to.
func (c *Client) Query(ctx context.Context, message string) (weather.Report, error) {
	var out chatResponse
	if err := c.post(ctx, "/chat", chatRequest{Message: message}, &out); err != nil {
		return weather.Report{}, err
	}
	return decodeChatResponse(out.Response)
}

func decodeChatResponse(raw json.RawMessage) (weather.Report, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		log.Printf("ERROR: chat response missing")
		return weather.Report{}, ErrUnexpectedResponse
	}

	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return weather.Report{}, fmt.Errorf("decode chat response: %w", err)
		}
		return weather.Report{}, &ServiceError{Message: text}
	}

	var probe responseProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		log.Printf("ERROR: unexpected chat response: %s", truncate(raw))
		return weather.Report{}, ErrUnexpectedResponse
	}

	switch {
	case probe.Error != nil:
		return weather.Report{}, &ServiceError{Message: *probe.Error}
	case probe.TimelineData != nil || probe.CurrentSnapshot != nil:
		var report weather.Report
		if err := json.Unmarshal(raw, &report); err != nil {
			return weather.Report{}, fmt.Errorf("decode report: %w", err)
		}
		if report.City == "" {
			report.City = report.CurrentSnapshot.City
		}
		return report, nil
	case probe.City != "":
		var p singlePoint
		if err := json.Unmarshal(raw, &p); err != nil {
			return weather.Report{}, fmt.Errorf("decode snapshot: %w", err)
		}
		return weather.Report{
			City: p.City,
			CurrentSnapshot: weather.CurrentSnapshot{
				City:      p.City,
				TimeOfDay: p.TimeOfDay,
				TimelinePoint: weather.TimelinePoint{
					Temp:      p.Temp,
					FeelsLike: p.FeelsLike,
					Humidity:  p.Humidity,
					WindSpeed: p.WindSpeed,
					Condition: p.Condition,
					IsDay:     p.TimeOfDay != weather.TimeOfDayNight,
				},
			},
		}, nil
	}

	log.Printf("ERROR: unexpected chat response: %s", truncate(raw))
	return weather.Report{}, ErrUnexpectedResponse
}

type narrateRequest struct {
	WeatherData weather.BriefingInput `json:"weather_data"`
}

type narrateResponse struct {
	Briefing string `json:"briefing"`
}

// Narrate asks the service for a one-sentence caption of in.
func (c *Client) Narrate(ctx context.Context, in weather.BriefingInput) (string, error) {
	var out narrateResponse
	if err := c.post(ctx, "/narrate", narrateRequest{WeatherData: in}, &out); err != nil {
		return "", err
	}
	return out.Briefing, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := resilience.Do(ctx, c.cfg, c.cb, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Printf("ERROR: malformed %s response: %s", path, truncate(data))
		return errors.Join(ErrUnexpectedResponse, err)
	}
	return nil
}

func truncate(b []byte) string {
	const limit = 256
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
