package delegate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
)

// Sentinel errors for delegate client failures.
var (
	ErrDelegateUnreachable = errors.New("inference delegate unreachable")
	ErrDelegateTimeout     = errors.New("inference delegate timeout")
	ErrPayloadTooLarge     = errors.New("inference payload exceeds maximum size")
)

// AppError is an application-level error reported by the delegate
// itself, as opposed to a transport failure. The code is surfaced to
// pollers as the job's error code.
type AppError struct {
	Code    int
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("delegate error %d: %s", e.Code, e.Message)
}

// Client is the interface for calling the external prediction service.
type Client interface {
	Predict(ctx context.Context, contents []*models.Content, modelID int) (json.RawMessage, error)
}

// HTTPClient implements Client against the delegate's HTTP API.
type HTTPClient struct {
	baseURL         string
	maxPayloadBytes int64
	retryBackoff    time.Duration
	client          *http.Client
}

// NewHTTPClient creates a new delegate HTTP client.
func NewHTTPClient(baseURL string, timeout time.Duration, maxPayloadBytes int64, retryBackoff time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:         baseURL,
		maxPayloadBytes: maxPayloadBytes,
		retryBackoff:    retryBackoff,
		client:          &http.Client{Timeout: timeout},
	}
}

// predictRequest is the delegate wire format: each content item is a
// [name, type, bytes] tuple, bytes base64-encoded by the JSON encoder.
type predictRequest struct {
	Content [][3]any `json:"content"`
	ModelID int      `json:"modelId"`
}

type delegateError struct {
	Error     string `json:"error"`
	ErrorCode int    `json:"error_code"`
}

// Predict sends the content batch to the delegate and returns the raw
// prediction payload. Transport failures are retried once after a
// backoff; application errors reported by the delegate are not.
func (c *HTTPClient) Predict(ctx context.Context, contents []*models.Content, modelID int) (json.RawMessage, error) {
	req := predictRequest{
		Content: make([][3]any, 0, len(contents)),
		ModelID: modelID,
	}
	for _, content := range contents {
		req.Content = append(req.Content, [3]any{content.Name, string(content.Type), content.Data})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding predict request: %w", err)
	}
	if c.maxPayloadBytes > 0 && int64(len(body)) > c.maxPayloadBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(body), c.maxPayloadBytes)
	}

	result, err := c.doPredict(ctx, body)
	if err != nil && isRetryable(err) && ctx.Err() == nil {
		select {
		case <-time.After(c.retryBackoff):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrDelegateTimeout, ctx.Err())
		}
		result, err = c.doPredict(ctx, body)
	}
	return result, err
}

func (c *HTTPClient) doPredict(ctx context.Context, body []byte) (json.RawMessage, error) {
	u := fmt.Sprintf("%s/predict", c.baseURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	var payload json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding predict response: %w", err)
	}

	// The delegate reports its own failures in-band as
	// {error, error_code}, regardless of HTTP status.
	var delErr delegateError
	if err := json.Unmarshal(payload, &delErr); err == nil && delErr.ErrorCode != 0 {
		return nil, &AppError{Code: delErr.ErrorCode, Message: delErr.Error}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &AppError{Code: resp.StatusCode, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	return payload, nil
}

// isRetryable reports whether the error is a transport failure worth a
// single retry. Application errors and payload rejections are final.
func isRetryable(err error) bool {
	return errors.Is(err, ErrDelegateUnreachable) || errors.Is(err, ErrDelegateTimeout)
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrDelegateTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrDelegateTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrDelegateUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrDelegateUnreachable, err)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
