package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	openAIDefaultModel   = "gpt-4o-mini"
	openAIEmbeddingModel = "text-embedding-3-small"
)

// OpenAIService implements Service against the OpenAI HTTP API.
type OpenAIService struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIService creates a new OpenAI service
func NewOpenAIService(apiKey, model string) *OpenAIService {
	if model == "" {
		model = openAIDefaultModel
	}
	return &OpenAIService{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.openai.com/v1",
		client:  &http.Client{},
	}
}

// ClassifyEmail implements Service
func (o *OpenAIService) ClassifyEmail(ctx context.Context, subject, body, sender string, labels []string) (*Classification, error) {
	prompt := buildClassifyPrompt(subject, body, sender, labels)

	content, err := o.chatCompletion(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var result Classification
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse classification JSON: %w", err)
	}
	if result.Label == "" {
		return nil, fmt.Errorf("no category returned")
	}
	result.Confidence = Clamp01(result.Confidence)
	return &result, nil
}

// GenerateReply implements Service
func (o *OpenAIService) GenerateReply(ctx context.Context, knowledgeContext, emailText string) (*ReplySuggestion, error) {
	prompt := buildReplyPrompt(knowledgeContext, emailText)

	content, err := o.chatCompletion(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var result ReplySuggestion
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse reply JSON: %w", err)
	}
	if result.Reply == "" {
		return nil, fmt.Errorf("no reply returned")
	}
	result.Confidence = Clamp01(result.Confidence)
	return &result, nil
}

// EmbedText implements Service
func (o *OpenAIService) EmbedText(ctx context.Context, text string) ([]float64, error) {
	payload := map[string]interface{}{
		"model": openAIEmbeddingModel,
		"input": text,
	}

	respBody, err := o.post(ctx, "/embeddings", payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	if len(result.Data) == 0 || len(result.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return result.Data[0].Embedding, nil
}

// chatCompletion sends a single-user-message completion request and returns
// the assistant's text content.
func (o *OpenAIService) chatCompletion(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature":     0.2,
		"response_format": map[string]string{"type": "json_object"},
	}

	respBody, err := o.post(ctx, "/chat/completions", payload)
	if err != nil {
		return "", err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse completion response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}
	return result.Choices[0].Message.Content, nil
}

func (o *OpenAIService) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai API error (%d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
