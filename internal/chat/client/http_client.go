package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"villagesq/internal/chat/handler"
	"villagesq/internal/chat/models"
	"villagesq/internal/common"
)

// HTTPClient implements API against the chat HTTP surface.
type HTTPClient struct {
	base  string
	token string
	hc    *http.Client
}

func NewHTTPClient(base, token string) *HTTPClient {
	return &HTTPClient{
		base:  strings.TrimRight(base, "/"),
		token: token,
		hc:    &http.Client{},
	}
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Error == "" {
		body.Error = resp.Status
	}
	if resp.StatusCode == http.StatusBadRequest {
		return common.NewValidationError("request", body.Error)
	}
	return &common.TransientStoreError{Op: "request", Err: fmt.Errorf("%s", body.Error)}
}

func (c *HTTPClient) Messages(ctx context.Context, chatID string) ([]models.Message, error) {
	req, err := c.newRequest(ctx, "GET", "/api/chat/"+chatID+"/messages", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var messages []models.Message
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, err
	}
	return messages, nil
}

type sendResult struct {
	Success   bool            `json:"success"`
	MessageID string          `json:"messageId"`
	Message   *models.Message `json:"message"`
}

func (c *HTTPClient) Send(ctx context.Context, chatID, text string, kind models.MessageKind) (*models.Message, error) {
	payload, err := json.Marshal(map[string]interface{}{"text": text, "type": kind})
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, "POST", "/api/chat/"+chatID+"/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var result sendResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if result.Message == nil {
		return nil, fmt.Errorf("send succeeded but no message returned")
	}
	return result.Message, nil
}

// Stream opens the SSE endpoint and decodes data frames onto a channel.
// The channel closes when the server ends the stream or ctx is
// cancelled.
func (c *HTTPClient) Stream(ctx context.Context, chatID string) (<-chan handler.StreamEvent, error) {
	req, err := c.newRequest(ctx, "GET", "/api/chat/"+chatID+"/stream", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}

	ch := make(chan handler.StreamEvent)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var ev handler.StreamEvent
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
				continue
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
