package models

import "time"

// UnknownUser is the sentinel username used when a review cluster carries no
// readable username marker.
const UnknownUser = "Unknown user"

// CommentRecord represents one extracted product review comment.
type CommentRecord struct {
	ID               string `json:"id"`
	Text             string `json:"text"`
	Username         string `json:"username"`
	IsCensored       bool   `json:"is_censored"`
	RawTimestampText string `json:"raw_timestamp_text"`
	Timestamp        string `json:"timestamp"` // "YYYY-MM-DD HH:MM", empty if unparseable
	Variation        string `json:"variation,omitempty"`
	Location         string `json:"location,omitempty"`
	StarRating       int    `json:"star_rating"` // 0 means "not found", not zero stars
}

// CommentMetadata is the per-comment metadata block sent to the
// classification backend.
type CommentMetadata struct {
	Comment   string `json:"comment"`
	Username  string `json:"username"`
	Rating    int    `json:"rating"`
	Source    string `json:"source"`
	Product   string `json:"product"`
	Timestamp string `json:"timestamp"`
}

// ClassificationRequest is the request body for the backend /analyze endpoint.
type ClassificationRequest struct {
	Comments []string          `json:"comments"`
	Prompt   string            `json:"prompt,omitempty"`
	Product  string            `json:"product,omitempty"`
	APIKey   string            `json:"gemini_api_key,omitempty"`
	Metadata []CommentMetadata `json:"metadata,omitempty"`
}

// ClassificationResult is one per-comment verdict as returned by the backend.
// Backend versions differ in which fields they populate; the
// verdict/explanation/is_fake fallback chain is resolved in the analysis
// package.
type ClassificationResult struct {
	Comment     string `json:"comment"`
	IsFake      *bool  `json:"is_fake,omitempty"`
	Verdict     string `json:"verdict,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// ClassificationResponse is the backend /analyze response envelope.
type ClassificationResponse struct {
	Message string                 `json:"message,omitempty"`
	Results []ClassificationResult `json:"results"`
	Error   bool                   `json:"error,omitempty"`
}

// AnalysisResult binds a normalized verdict to an extracted record.
type AnalysisResult struct {
	Record      CommentRecord `json:"record"`
	Verdict     string        `json:"verdict"`
	Explanation string        `json:"explanation"`
}

// AnalysisReport summarizes one completed analysis pass over a page.
type AnalysisReport struct {
	GeneratedAt      time.Time        `json:"generated_at"`
	PageIdentity     string           `json:"page_identity"`
	ProductName      string           `json:"product_name"`
	SourceURL        string           `json:"source_url"`
	TotalComments    int              `json:"total_comments"`
	VerdictBreakdown map[string]int   `json:"verdict_breakdown"`
	Results          []AnalysisResult `json:"results"`
}
