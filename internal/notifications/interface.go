package notifications

import "github.com/reviewguard/reviewguard/internal/models"

// NotificationInterface defines the contract for notification services
type NotificationInterface interface {
	SendReport(report *models.AnalysisReport) error
}
