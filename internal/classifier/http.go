package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/reviewguard/reviewguard/internal/models"
	"github.com/sirupsen/logrus"
)

// HTTPService calls the classification backend's /analyze endpoint.
// The request timeout keeps the pipeline from stalling indefinitely while a
// classification is outstanding.
type HTTPService struct {
	client  *resty.Client
	baseURL string
	apiKey  string
}

var _ Service = (*HTTPService)(nil)

func NewHTTPService(baseURL, apiKey string, timeout time.Duration) *HTTPService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPService{
		client:  resty.New().SetTimeout(timeout),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Classify sends the comment batch for analysis and returns per-comment
// results, padded to the batch length so callers can reconcile by index.
func (s *HTTPService) Classify(ctx context.Context, req *models.ClassificationRequest) (*models.ClassificationResponse, error) {
	if s.apiKey != "" && req.APIKey == "" {
		req.APIKey = s.apiKey
	}

	logrus.Debugf("Sending %d comments to classification backend", len(req.Comments))

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(s.baseURL + "/analyze")

	if err != nil {
		return nil, fmt.Errorf("classification request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("classification backend returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var parsed models.ClassificationResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("malformed classification response: %w", err)
	}
	if parsed.Error {
		return nil, fmt.Errorf("classification backend error: %s", parsed.Message)
	}
	if parsed.Results == nil {
		return nil, fmt.Errorf("no results returned from backend")
	}

	padResults(&parsed, req.Comments)

	if parsed.Message == "" {
		parsed.Message = fmt.Sprintf("Processed %d comments", len(parsed.Results))
	}
	return &parsed, nil
}

// padResults aligns the result list with the input batch: missing trailing
// entries become empty results and each entry without a comment echo gets a
// truncated copy of its input.
func padResults(resp *models.ClassificationResponse, comments []string) {
	for i := range comments {
		if i >= len(resp.Results) {
			resp.Results = append(resp.Results, models.ClassificationResult{})
		}
		if resp.Results[i].Comment == "" {
			resp.Results[i].Comment = truncate(comments[i], 50)
		}
	}
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length] + "..."
}
