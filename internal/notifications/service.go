package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/reviewguard/reviewguard/internal/config"
	"github.com/reviewguard/reviewguard/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service sends analysis reports via configured channels (Teams webhook,
// email). It is a no-op when neither is configured.
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	ActivityText  string      `json:"activityText,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendReport sends a report via configured notification channels
func (s *Service) SendReport(report *models.AnalysisReport) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(report); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent report to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent report via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(report *models.AnalysisReport) error {
	message := s.buildTeamsMessage(report)

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsMessage(report *models.AnalysisReport) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("Review Analysis - %s", report.ProductName),
		Text:    fmt.Sprintf("Analyzed %d reviews on %s", report.TotalComments, report.PageIdentity),
	}

	facts := []TeamsFact{
		{Name: "Product", Value: report.ProductName},
		{Name: "Total Reviews", Value: fmt.Sprintf("%d", report.TotalComments)},
		{Name: "Generated", Value: report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
	}
	for verdict, count := range report.VerdictBreakdown {
		facts = append(facts, TeamsFact{
			Name:  fmt.Sprintf("%s Reviews", verdict),
			Value: fmt.Sprintf("%d", count),
		})
	}
	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	// Call out flagged reviews individually, up to five.
	var flagged []string
	for _, result := range report.Results {
		if result.Verdict != "FAKE" && result.Verdict != "SUSPICIOUS" {
			continue
		}
		flagged = append(flagged, fmt.Sprintf("**%s** (%s): %s", result.Verdict, result.Record.Username, truncate(result.Record.Text, 120)))
		if len(flagged) >= 5 {
			break
		}
	}
	if len(flagged) > 0 {
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Flagged Reviews",
			ActivityText:  strings.Join(flagged, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) sendEmail(report *models.AnalysisReport) error {
	subject := fmt.Sprintf("Review Analysis - %s (%d reviews)", report.ProductName, report.TotalComments)

	htmlBody, err := s.buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", s.buildEmailText(report))
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *Service) buildEmailHTML(report *models.AnalysisReport) (string, error) {
	tmpl := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Review Analysis Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #ee4d2d; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .review { border-left: 4px solid #605e5c; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .review-meta { color: #666; font-size: 0.9em; }
        .FAKE { border-left-color: #d13438; }
        .SUSPICIOUS { border-left-color: #ffa500; }
        .REAL, .GENUINE { border-left-color: #107c10; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Review Analysis Report</h1>
        <p>{{.ProductName}} &mdash; generated {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>Total Reviews:</strong> {{.TotalComments}}</p>
        {{range $verdict, $count := .VerdictBreakdown}}
            <p><strong>{{$verdict}}:</strong> {{$count}}</p>
        {{end}}
    </div>

    {{if .Results}}
    <h2>Reviews</h2>
    {{range $index, $result := .Results}}
        {{if lt $index 10}}
        <div class="review {{$result.Verdict}}">
            <div class="review-meta">
                {{$result.Record.Username}} | {{$result.Record.Timestamp}} | {{$result.Record.StarRating}} stars
            </div>
            <p>{{truncate $result.Record.Text 200}}</p>
            <p><strong>{{$result.Verdict}}</strong>: {{$result.Explanation}}</p>
        </div>
        {{end}}
    {{end}}
    {{end}}

    <hr>
    <p><small>This report was generated automatically by ReviewGuard.</small></p>
</body>
</html>
`

	t := template.New("email").Funcs(template.FuncMap{
		"truncate": truncate,
	})

	t, err := t.Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, report); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Service) buildEmailText(report *models.AnalysisReport) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Review Analysis Report - %s\n", report.ProductName))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Total Reviews: %d\n", report.TotalComments))
	for verdict, count := range report.VerdictBreakdown {
		text.WriteString(fmt.Sprintf("%s: %d\n", verdict, count))
	}

	if len(report.Results) > 0 {
		text.WriteString("\nREVIEWS\n")
		text.WriteString("=======\n")

		limit := 10
		if len(report.Results) < limit {
			limit = len(report.Results)
		}

		for i := 0; i < limit; i++ {
			result := report.Results[i]
			text.WriteString(fmt.Sprintf("\n%d. [%s] %s\n", i+1, result.Verdict, truncate(result.Record.Text, 200)))
			text.WriteString(fmt.Sprintf("   By: %s | %s | %d stars\n", result.Record.Username, result.Record.Timestamp, result.Record.StarRating))
			if result.Explanation != "" {
				text.WriteString(fmt.Sprintf("   Reason: %s\n", result.Explanation))
			}
		}
	}

	text.WriteString("\n---\nThis report was generated automatically by ReviewGuard.\n")

	return text.String()
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length] + "..."
}
