package integration

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduline/homework-service/internal/apperr"
)

// AIClient talks to the external AI provider: OCR text extraction is a
// single synchronous call, feedback generation is an asynchronous job the
// client polls to completion.
type AIClient interface {
	ExtractText(ctx context.Context, image []byte) (*ExtractionResult, error)
	GenerateFeedback(ctx context.Context, text, englishLevel, ageGroup string) (string, error)
}

type ExtractionResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type aiClient struct {
	baseURL      string
	apiKey       string
	retryCount   int
	retryDelay   time.Duration
	pollInterval time.Duration
	pollAttempts int
	client       *http.Client
	logger       zerolog.Logger
}

type AIClientOptions struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	RetryCount   int
	RetryDelay   time.Duration
	PollInterval time.Duration
	PollAttempts int
}

func NewAIClient(opts AIClientOptions, logger zerolog.Logger) AIClient {
	return &aiClient{
		baseURL:      opts.BaseURL,
		apiKey:       opts.APIKey,
		retryCount:   opts.RetryCount,
		retryDelay:   opts.RetryDelay,
		pollInterval: opts.PollInterval,
		pollAttempts: opts.PollAttempts,
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		logger: logger,
	}
}

type extractRequest struct {
	ImageBase64 string `json:"image_base64"`
}

func (c *aiClient) ExtractText(ctx context.Context, image []byte) (*ExtractionResult, error) {
	if len(image) == 0 {
		return nil, apperr.Validation("image is empty")
	}

	body, err := json.Marshal(extractRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extraction request: %w", err)
	}

	data, err := c.post(ctx, "/v1/ocr/extract", body)
	if err != nil {
		return nil, err
	}

	var result ExtractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, apperr.MalformedResponse("AI provider returned malformed extraction result", err)
	}
	if result.Text == "" {
		return nil, apperr.MalformedResponse("AI provider returned no extracted text", nil)
	}

	// models occasionally report confidence outside [0,1]
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}

	return &result, nil
}

type feedbackJobRequest struct {
	Text         string `json:"text"`
	EnglishLevel string `json:"english_level"`
	AgeGroup     string `json:"age_group"`
}

type feedbackJob struct {
	JobID    string `json:"job_id"`
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
	Error    string `json:"error"`
}

func (c *aiClient) GenerateFeedback(ctx context.Context, text, englishLevel, ageGroup string) (string, error) {
	body, err := json.Marshal(feedbackJobRequest{
		Text:         text,
		EnglishLevel: englishLevel,
		AgeGroup:     ageGroup,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal feedback request: %w", err)
	}

	data, err := c.post(ctx, "/v1/feedback/jobs", body)
	if err != nil {
		return "", err
	}

	var job feedbackJob
	if err := json.Unmarshal(data, &job); err != nil {
		return "", apperr.MalformedResponse("AI provider returned malformed job", err)
	}
	if job.JobID == "" {
		return "", apperr.MalformedResponse("AI provider returned job without id", nil)
	}

	return c.pollFeedbackJob(ctx, job.JobID)
}

func (c *aiClient) pollFeedbackJob(ctx context.Context, jobID string) (string, error) {
	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}

		data, err := c.get(ctx, "/v1/feedback/jobs/"+jobID)
		if err != nil {
			return "", err
		}

		var job feedbackJob
		if err := json.Unmarshal(data, &job); err != nil {
			return "", apperr.MalformedResponse("AI provider returned malformed job status", err)
		}

		switch job.Status {
		case "succeeded":
			return job.Feedback, nil
		case "failed", "cancelled", "expired":
			return "", apperr.External(apperr.ExternalOther,
				fmt.Sprintf("feedback job %s: %s", job.Status, job.Error), nil)
		default:
			// queued or running, keep polling
		}
	}

	return "", apperr.Timeout(fmt.Sprintf("feedback job did not complete within %d attempts", c.pollAttempts))
}

func (c *aiClient) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *aiClient) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *aiClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var lastErr error

	for i := 0; i <= c.retryCount; i++ {
		if i > 0 {
			c.logger.Warn().Int("attempt", i).Str("path", path).Msg("Retrying AI provider call")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(i)):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			lastErr = fmt.Errorf("failed to create request: %w", err)
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("AI provider call failed: %w", err)
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			// quota errors do not get retried here; the caller surfaces
			// them to the user as a distinct category
			return nil, apperr.QuotaExceeded(fmt.Errorf("AI provider returned 429"))
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("AI provider returned status %d: %s", resp.StatusCode, string(data))
			continue
		case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
			return nil, apperr.External(apperr.ExternalOther,
				fmt.Sprintf("AI provider returned status %d", resp.StatusCode), nil)
		case readErr != nil:
			lastErr = fmt.Errorf("failed to read response: %w", readErr)
			continue
		}

		return data, nil
	}

	// a transport timeout is transient; callers roll the submission back to
	// uploaded instead of marking it failed
	var netErr net.Error
	if errors.As(lastErr, &netErr) && netErr.Timeout() {
		return nil, apperr.Timeout(fmt.Sprintf("AI provider timed out after %d attempts", c.retryCount+1))
	}

	return nil, apperr.External(apperr.ExternalOther,
		fmt.Sprintf("AI provider unavailable after %d attempts", c.retryCount+1), lastErr)
}
