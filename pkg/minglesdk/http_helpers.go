package minglesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// doRequest sends a request, adding the guest email header when configured.
func (c *Client) doRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
	headers map[string]string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.GuestEmail != "" {
		req.Header.Set(GuestEmailHeader, c.GuestEmail)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// call JSON-encodes in (when non-nil), expects status and decodes into out
// (when non-nil).
func (c *Client) call(ctx context.Context, method, path string, in any, status int, out any) error {
	var body io.Reader
	var headers map[string]string
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
		headers = map[string]string{"Content-Type": "application/json"}
	}

	resp, err := c.doRequest(ctx, method, path, body, headers)
	if err != nil {
		return err
	}

	if out == nil {
		if status == http.StatusNoContent {
			return checkStatusNoContent(resp)
		}
		return checkStatus(resp, status)
	}
	return decodeJSON(resp, out, status)
}

// decodeJSON decodes a JSON response into target, or returns an *APIError
// when the status is not the expected one.
func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, bodyBytes)
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func checkStatusNoContent(resp *http.Response) error {
	return checkStatus(resp, http.StatusNoContent)
}

func checkStatus(resp *http.Response, expected int) error {
	defer resp.Body.Close()

	if resp.StatusCode != expected {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return parseErrorResponse(resp, bodyBytes)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
