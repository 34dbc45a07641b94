// Package advice asks a language model for constraint suggestions on the
// current sketch: missing dimensions, under-constrained chains, likely
// intent. It is best-effort; the caller degrades gracefully when no API
// key is configured.
package advice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/chazu/planar/pkg/sketch"
)

const apiURL = "https://api.anthropic.com/v1/messages"

const defaultModel = "claude-sonnet-4-5"

const systemPrompt = `You are a CAD constraint advisor for a 2D parametric
sketcher. Given a summary of sketch entities and constraints, suggest up to
five concrete improvements: missing dimensions, under-constrained geometry,
redundant constraints. Answer as a short plain-text list.`

// Client talks to the model API with a key and model taken from the
// environment (PLANAR_API_KEY, PLANAR_MODEL).
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient builds a client from the environment. It returns an error when
// no API key is configured so callers can skip advice entirely.
func NewClient() (*Client, error) {
	key := os.Getenv("PLANAR_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("PLANAR_API_KEY not set")
	}
	model := os.Getenv("PLANAR_MODEL")
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey: key,
		model:  model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

type apiRequest struct {
	Model     string   `json:"model"`
	MaxTokens int      `json:"max_tokens"`
	System    string   `json:"system,omitempty"`
	Messages  []apiMsg `json:"messages"`
}

type apiMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Advise summarizes the sketch and returns the model's suggestions.
func (c *Client) Advise(ctx context.Context, s *sketch.Sketch) (string, error) {
	reqBody := apiRequest{
		Model:     c.model,
		MaxTokens: 1024,
		System:    systemPrompt,
		Messages:  []apiMsg{{Role: "user", Content: Summarize(s)}},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling advice request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating advice request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("advice request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading advice response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var ae apiError
		if err := json.Unmarshal(body, &ae); err == nil && ae.Error.Message != "" {
			return "", fmt.Errorf("advice API error (%d): %s", resp.StatusCode, ae.Error.Message)
		}
		return "", fmt.Errorf("advice API error (%d)", resp.StatusCode)
	}

	var ar apiResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return "", fmt.Errorf("parsing advice response: %w", err)
	}

	var out strings.Builder
	for _, block := range ar.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return out.String(), nil
}

// Summarize renders the sketch as a compact text description suitable as
// model input: entity counts plus one line per constraint.
func Summarize(s *sketch.Sketch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sketch: %d points, %d lines, %d circles, %d arcs, %d constraints.\n",
		len(s.Points), len(s.Lines), len(s.Circles), len(s.Arcs), len(s.Constraints))

	fixed := 0
	for _, p := range s.Points {
		if p.Fixed {
			fixed++
		}
	}
	fmt.Fprintf(&b, "Fixed points: %d.\n", fixed)

	construction := 0
	for _, l := range s.Lines {
		if l.Construction {
			construction++
		}
	}
	if construction > 0 {
		fmt.Fprintf(&b, "Construction lines: %d.\n", construction)
	}

	for _, c := range s.Constraints {
		fmt.Fprintf(&b, "- %s", c.Kind)
		switch c.Kind {
		case sketch.Distance, sketch.Angle, sketch.Radius:
			fmt.Fprintf(&b, " value=%g", c.Value)
		}
		fmt.Fprintf(&b, " (points=%d lines=%d circles=%d)\n",
			len(c.Points), len(c.Lines), len(c.Circles))
	}
	return b.String()
}
