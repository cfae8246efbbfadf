package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OllamaService implements Service using an Ollama local LLM
type OllamaService struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaService creates a new Ollama service
func NewOllamaService(baseURL, model string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return &OllamaService{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
	}
}

// ClassifyEmail implements Service
func (o *OllamaService) ClassifyEmail(ctx context.Context, subject, body, sender string, labels []string) (*Classification, error) {
	prompt := buildClassifyPrompt(subject, body, sender, labels)

	response, err := o.generate(ctx, prompt, 100)
	if err != nil {
		return nil, err
	}

	var result Classification
	if err := json.Unmarshal([]byte(extractJSONObject(response)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse classification JSON: %w", err)
	}
	if result.Label == "" {
		return nil, fmt.Errorf("no category returned")
	}
	result.Confidence = Clamp01(result.Confidence)
	return &result, nil
}

// GenerateReply implements Service
func (o *OllamaService) GenerateReply(ctx context.Context, knowledgeContext, emailText string) (*ReplySuggestion, error) {
	prompt := buildReplyPrompt(knowledgeContext, emailText)

	response, err := o.generate(ctx, prompt, 500)
	if err != nil {
		return nil, err
	}

	var result ReplySuggestion
	if err := json.Unmarshal([]byte(extractJSONObject(response)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse reply JSON: %w", err)
	}
	if result.Reply == "" {
		return nil, fmt.Errorf("no reply returned")
	}
	result.Confidence = Clamp01(result.Confidence)
	return &result, nil
}

// EmbedText implements Service
func (o *OllamaService) EmbedText(ctx context.Context, text string) ([]float64, error) {
	payload := map[string]interface{}{
		"model":  o.model,
		"prompt": text,
	}

	respBody, err := o.post(ctx, "/api/embeddings", payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return result.Embedding, nil
}

// generate runs a non-streaming /api/generate call and returns the raw
// response text.
func (o *OllamaService) generate(ctx context.Context, prompt string, numPredict int) (string, error) {
	payload := map[string]interface{}{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": 0.2,
			"num_predict": numPredict,
		},
	}

	respBody, err := o.post(ctx, "/api/generate", payload)
	if err != nil {
		return "", err
	}

	var result struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return result.Response, nil
}

func (o *OllamaService) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
