package classifier

import (
	"context"

	"github.com/reviewguard/reviewguard/internal/models"
)

// Service defines the contract for the external review-authenticity
// classification backend.
type Service interface {
	Classify(ctx context.Context, req *models.ClassificationRequest) (*models.ClassificationResponse, error)
}
