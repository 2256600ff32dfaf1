// Package translation talks to a LibreTranslate-compatible endpoint to
// translate final segment text on request.
package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client is a thin HTTP client for the /translate endpoint.
type Client struct {
	base string
	http *http.Client
}

// New returns a client for base. A non-positive timeout defaults to 8s.
func New(base string, timeoutSec int) *Client {
	if timeoutSec <= 0 {
		timeoutSec = 8
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

// Translate translates text from source (or "auto") into target and
// returns the primary translation.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	if c == nil || c.base == "" || strings.TrimSpace(text) == "" || target == "" {
		return "", nil
	}
	src := strings.TrimSpace(source)
	if src == "" {
		src = "auto"
	}

	payload, err := json.Marshal(map[string]any{
		"q":      text,
		"source": src,
		"target": target,
		"format": "text",
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/translate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("translation: http %d for target %s", resp.StatusCode, target)
	}

	var out struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.TranslatedText), nil
}
