package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"canvass/internal/config"
)

// FollowUpService implements FollowUpPolicy on the Gemini API. It is pure
// from the flow engine's point of view: no ledger side effects, one bounded
// HTTP call per evaluation at most.
type FollowUpService struct {
	config *config.AIConfig
	client *http.Client
}

// NewFollowUpService creates a new follow-up policy backed by Gemini
func NewFollowUpService(cfg *config.AIConfig) *FollowUpService {
	return &FollowUpService{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

// Evaluate returns a clarifying follow-up question for the answer, or ""
// when none is warranted. A nil answer (skipped/empty) never reaches the
// API: there is nothing to clarify and the call costs money and latency.
func (s *FollowUpService) Evaluate(ctx context.Context, surveyTitle, questionText string, answer interface{}, questionDescription string) (string, error) {
	if answer == nil {
		return "", nil
	}
	if !s.config.IsEnabled() {
		return "", nil
	}

	prompt := s.buildPrompt(surveyTitle, questionText, answer, questionDescription)
	response, err := s.callGemini(ctx, prompt)
	if err != nil {
		return "", err
	}

	var decision struct {
		FollowUp *string `json:"followUp"`
	}
	if err := json.Unmarshal([]byte(response), &decision); err != nil {
		return "", fmt.Errorf("decode follow-up decision: %w", err)
	}
	if decision.FollowUp == nil {
		return "", nil
	}

	text := strings.TrimSpace(*decision.FollowUp)
	if strings.EqualFold(text, "NONE") {
		return "", nil
	}
	return text, nil
}

// callGemini makes a request to the Gemini API
func (s *FollowUpService) callGemini(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"temperature":      0.2,
			"maxOutputTokens":  120,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s?key=%s", s.config.ModelEndpoint(), s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", err
	}

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return geminiResp.Candidates[0].Content.Parts[0].Text, nil
	}
	return "", fmt.Errorf("empty response from Gemini")
}

func (s *FollowUpService) buildPrompt(surveyTitle, questionText string, answer interface{}, questionDescription string) string {
	answerJSON, err := json.Marshal(answer)
	if err != nil {
		answerJSON = []byte(fmt.Sprintf("%v", answer))
	}

	contextLine := ""
	if questionDescription != "" {
		contextLine = "Question context: " + questionDescription + "\n"
	}

	return fmt.Sprintf(`You are an expert survey analyst helping to improve data quality.
Decide if ONE short follow-up question would improve the data collected.
Return ONLY valid JSON: {"followUp": "the question"} or {"followUp": null}.

If the participant's answer is complete, specific and gives enough context,
return null. If it is ambiguous, too general, or would benefit from a brief
clarification, return one short follow-up question directly related to the
original question. Never ask for personal information.

Survey topic: %s
Original question: %s
%sParticipant's answer: %s`,
		surveyTitle, questionText, contextLine, answerJSON)
}
