package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/reviewguard/reviewguard/internal/models"
	"github.com/reviewguard/reviewguard/internal/storage"
	"github.com/sirupsen/logrus"
)

// csvHeader matches the export format consumers of the old CSV download
// already ingest.
var csvHeader = []string{"Comment", "Username", "Rating", "Source", "Product", "Page Timestamp"}

// Service writes analysis reports and comment exports through the storage
// backend.
type Service struct {
	storage storage.StorageInterface
}

func NewService(store storage.StorageInterface) *Service {
	return &Service{storage: store}
}

// ExportCSV stores the report's comments as a CSV file and returns the
// stored filename.
func (s *Service) ExportCSV(report *models.AnalysisReport) (string, error) {
	if report == nil || len(report.Results) == 0 {
		return "", fmt.Errorf("no comments to export")
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range report.Results {
		record := result.Record
		row := []string{
			record.Text,
			record.Username,
			strconv.Itoa(record.StarRating),
			report.SourceURL,
			report.ProductName,
			timestampColumn(record),
		}
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}

	filename := fmt.Sprintf("review-comments-%s.csv", report.GeneratedAt.Format("2006-01-02-15-04-05"))
	if err := s.storage.Store(filename, buf.Bytes()); err != nil {
		return "", err
	}

	logrus.Infof("Exported %d comments to %s", len(report.Results), filename)
	return filename, nil
}

// ExportReport stores the full report as JSON and returns the stored
// filename.
func (s *Service) ExportReport(report *models.AnalysisReport) (string, error) {
	if report == nil {
		return "", fmt.Errorf("no report to export")
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	filename := fmt.Sprintf("review-report-%s.json", report.GeneratedAt.Format("2006-01-02-15-04-05"))
	if err := s.storage.Store(filename, data); err != nil {
		return "", err
	}
	return filename, nil
}

// timestampColumn prefers the parsed timestamp; failing that it takes
// whatever sits before the pipe in the raw metadata, matching the old
// export's fallback.
func timestampColumn(record models.CommentRecord) string {
	if record.Timestamp != "" {
		return record.Timestamp
	}
	if i := strings.Index(record.RawTimestampText, "|"); i >= 0 {
		return strings.TrimSpace(record.RawTimestampText[:i])
	}
	return record.RawTimestampText
}
