package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/threatlinker/threatlinker/dtos"
)

const callbackMaxRetries = 3

type callbackClient struct {
	httpClient *http.Client
	apiKey     string
}

// NewCallbackClient builds the client used to notify external systems of
// task completion. The api key ends up in the X-API-KEY header when set.
func NewCallbackClient(apiKey string, timeout time.Duration) *callbackClient {
	return &callbackClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey: apiKey,
	}
}

func (c *callbackClient) SendCompletion(ctx context.Context, url string, payload dtos.CallbackPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "could not marshal callback payload")
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(errors.Wrap(err, "could not create callback request"))
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-API-KEY", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return errors.Wrap(err, "could not send callback")
		}
		defer func() {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()

		if resp.StatusCode >= 400 {
			return errors.Errorf("callback endpoint returned status %d", resp.StatusCode)
		}
		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), callbackMaxRetries), ctx))
}
