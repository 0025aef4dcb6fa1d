package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/reviewguard/reviewguard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Success(t *testing.T) {
	var captured models.ClassificationRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/analyze", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(models.ClassificationResponse{
			Message: "2 comments analyzed",
			Results: []models.ClassificationResult{
				{Comment: "Great product", Verdict: "REAL", Explanation: "Looks authentic."},
				{Comment: "Too good to be true", Verdict: "FAKE", Explanation: "Template text."},
			},
		})
	}))
	defer server.Close()

	service := NewHTTPService(server.URL, "env-key", 5*time.Second)
	resp, err := service.Classify(context.Background(), &models.ClassificationRequest{
		Comments: []string{"Great product", "Too good to be true"},
		Product:  "Wireless Earbuds",
	})

	require.NoError(t, err)
	assert.Equal(t, "2 comments analyzed", resp.Message)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "FAKE", resp.Results[1].Verdict)

	// Service key is injected when the request carries none.
	assert.Equal(t, "env-key", captured.APIKey)
	assert.Equal(t, "Wireless Earbuds", captured.Product)
}

func TestClassify_RequestKeyWins(t *testing.T) {
	var captured models.ClassificationRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(models.ClassificationResponse{
			Results: []models.ClassificationResult{},
		})
	}))
	defer server.Close()

	service := NewHTTPService(server.URL, "env-key", 5*time.Second)
	_, err := service.Classify(context.Background(), &models.ClassificationRequest{
		Comments: []string{},
		APIKey:   "stored-key",
	})

	require.NoError(t, err)
	assert.Equal(t, "stored-key", captured.APIKey)
}

func TestClassify_PadsShortResults(t *testing.T) {
	longComment := strings.Repeat("a", 80)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.ClassificationResponse{
			Results: []models.ClassificationResult{
				{Verdict: "REAL", Explanation: "Fine."},
			},
		})
	}))
	defer server.Close()

	service := NewHTTPService(server.URL, "", 5*time.Second)
	resp, err := service.Classify(context.Background(), &models.ClassificationRequest{
		Comments: []string{"short one", longComment, "third"},
	})

	require.NoError(t, err)
	require.Len(t, resp.Results, 3)

	// Missing comment echoes are filled from the input, truncated.
	assert.Equal(t, "short one", resp.Results[0].Comment)
	assert.Equal(t, longComment[:50]+"...", resp.Results[1].Comment)

	// Padded trailing entries carry no verdict.
	assert.Empty(t, resp.Results[2].Verdict)
	assert.Equal(t, "Processed 3 comments", resp.Message)
}

func TestClassify_BackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.ClassificationResponse{
			Message: "quota exceeded",
			Error:   true,
		})
	}))
	defer server.Close()

	service := NewHTTPService(server.URL, "", 5*time.Second)
	_, err := service.Classify(context.Background(), &models.ClassificationRequest{Comments: []string{"x y z"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestClassify_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	service := NewHTTPService(server.URL, "", 5*time.Second)
	_, err := service.Classify(context.Background(), &models.ClassificationRequest{Comments: []string{"x y z"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClassify_MissingResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": "ok"}`))
	}))
	defer server.Close()

	service := NewHTTPService(server.URL, "", 5*time.Second)
	_, err := service.Classify(context.Background(), &models.ClassificationRequest{Comments: []string{"x y z"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no results")
}

func TestClassify_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	service := NewHTTPService(server.URL, "", 5*time.Second)
	_, err := service.Classify(ctx, &models.ClassificationRequest{Comments: []string{"x y z"}})
	require.Error(t, err)
}
