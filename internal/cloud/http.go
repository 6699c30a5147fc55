package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/logging"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 4096

// request describes one API call.
type request struct {
	op          string
	method      string
	path        string
	body        []byte
	contentType string
	// idempotent calls are retried on network errors, 429 and 5xx.
	idempotent bool
}

func jsonRequest(op, method, path string, in any, idempotent bool) (*request, error) {
	req := &request{op: op, method: method, path: path, idempotent: idempotent}
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, errors.Wrapf(err, "encode %s request", op)
		}
		req.body = data
		req.contentType = "application/json"
	}
	return req, nil
}

// do sends req with retry and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, req *request, out any) error {
	attempts := 1
	if req.idempotent {
		attempts = c.maxRetries
		if attempts < 1 {
			attempts = 1
		}
	}

	var lastErr *errors.NetworkError
	for attempt := 0; attempt < attempts; attempt++ {
		// Wait before retry (except first attempt)
		if attempt > 0 && attempt < len(c.retryDelays) && c.retryDelays[attempt] > 0 {
			select {
			case <-ctx.Done():
				return errors.NewNetworkError(req.op, 0, "", ctx.Err())
			case <-time.After(c.retryDelays[attempt]):
			}
		}

		start := time.Now()
		err := c.send(ctx, req, out)
		if err == nil {
			logging.LogOperation("cloud."+req.op, start, "attempt", attempt+1)
			return nil
		}
		lastErr = err
		logging.FromContext(ctx).Debug("cloud call failed", logging.KeyOperation, req.op,
			"attempt", attempt+1, "status_code", err.StatusCode, logging.KeyError, err)
		if !err.Retryable() || ctx.Err() != nil {
			break
		}
	}
	return lastErr
}

func (c *Client) send(ctx context.Context, req *request, out any) *errors.NetworkError {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return errors.NewNetworkError(req.op, 0, "", err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		httpReq.Header.Set(HeaderRequestID, id)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		cause := err
		if ctx.Err() == context.DeadlineExceeded {
			cause = fmt.Errorf("%w: %w", errors.ErrTimeout, err)
		} else if ctx.Err() == nil {
			cause = fmt.Errorf("%w: %w", errors.ErrNetworkUnavailable, err)
		}
		return errors.NewNetworkError(req.op, 0, "", cause)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var er ErrorResponse
		msg := ""
		if json.Unmarshal(data, &er) == nil {
			msg = er.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return errors.NewNetworkError(req.op, resp.StatusCode, msg, nil)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewNetworkError(req.op, resp.StatusCode, "malformed response", err)
	}
	return nil
}
