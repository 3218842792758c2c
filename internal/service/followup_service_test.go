package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvass/internal/config"
)

func geminiStub(t *testing.T, hits *int, decision string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"parts": []map[string]string{
							{"text": decision},
						},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func stubConfig(baseURL string) *config.AIConfig {
	return &config.AIConfig{
		APIKey:    "test-key",
		BaseURL:   baseURL,
		Model:     "gemini-2.0-flash",
		TimeoutMS: 2000,
	}
}

func TestFollowUpService_NilAnswerShortCircuits(t *testing.T) {
	var hits int
	srv := geminiStub(t, &hits, `{"followUp": "should not be reached"}`)
	defer srv.Close()

	svc := NewFollowUpService(stubConfig(srv.URL))
	text, err := svc.Evaluate(context.Background(), "Survey", "Question?", nil, "")
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, 0, hits, "nil answer must not hit the API")
}

func TestFollowUpService_DisabledWithoutKey(t *testing.T) {
	var hits int
	srv := geminiStub(t, &hits, `{"followUp": "should not be reached"}`)
	defer srv.Close()

	cfg := stubConfig(srv.URL)
	cfg.APIKey = ""

	svc := NewFollowUpService(cfg)
	text, err := svc.Evaluate(context.Background(), "Survey", "Question?", "an answer", "")
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, 0, hits)
}

func TestFollowUpService_ReturnsFollowUp(t *testing.T) {
	var hits int
	srv := geminiStub(t, &hits, `{"followUp": "Which feature specifically?"}`)
	defer srv.Close()

	svc := NewFollowUpService(stubConfig(srv.URL))
	text, err := svc.Evaluate(context.Background(), "Launch Feedback", "What do you like?", "the camera", "")
	require.NoError(t, err)
	assert.Equal(t, "Which feature specifically?", text)
	assert.Equal(t, 1, hits)
}

func TestFollowUpService_NullAndNoneMeanNoFollowUp(t *testing.T) {
	cases := map[string]string{
		"null":     `{"followUp": null}`,
		"none":     `{"followUp": "NONE"}`,
		"nonecase": `{"followUp": "none"}`,
		"padded":   `{"followUp": "  NONE  "}`,
	}

	for name, decision := range cases {
		t.Run(name, func(t *testing.T) {
			var hits int
			srv := geminiStub(t, &hits, decision)
			defer srv.Close()

			svc := NewFollowUpService(stubConfig(srv.URL))
			text, err := svc.Evaluate(context.Background(), "Survey", "Question?", "an answer", "")
			require.NoError(t, err)
			assert.Empty(t, text)
		})
	}
}

func TestFollowUpService_UpstreamErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc := NewFollowUpService(stubConfig(srv.URL))
	_, err := svc.Evaluate(context.Background(), "Survey", "Question?", "an answer", "")
	assert.Error(t, err)
}

func TestFollowUpService_MalformedDecision(t *testing.T) {
	var hits int
	srv := geminiStub(t, &hits, `not json at all`)
	defer srv.Close()

	svc := NewFollowUpService(stubConfig(srv.URL))
	_, err := svc.Evaluate(context.Background(), "Survey", "Question?", "an answer", "")
	assert.Error(t, err)
}
