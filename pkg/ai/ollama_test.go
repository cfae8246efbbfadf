package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ollamaTestServer(t *testing.T, generateResponse string, embedding []float64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/generate":
			var req map[string]interface{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, false, req["stream"])

			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"response": generateResponse,
				"done":     true,
			})
		case "/api/embeddings":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"embedding": embedding,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestOllamaClassifyEmail(t *testing.T) {
	srv := ollamaTestServer(t, `The answer is {"category": "Interested", "confidence": 0.92} hope that helps`, nil)
	defer srv.Close()

	svc := NewOllamaService(srv.URL, "llama3")
	result, err := svc.ClassifyEmail(context.Background(), "Re: demo", "let's do it", "ada@example.com", []string{"Interested", "Spam"})
	assert.NoError(t, err)
	assert.Equal(t, "Interested", result.Label)
	assert.InDelta(t, 0.92, result.Confidence, 1e-9)
}

func TestOllamaClassifyRejectsEmptyCategory(t *testing.T) {
	srv := ollamaTestServer(t, `{"confidence": 0.5}`, nil)
	defer srv.Close()

	svc := NewOllamaService(srv.URL, "llama3")
	_, err := svc.ClassifyEmail(context.Background(), "s", "b", "f", []string{"Spam"})
	assert.Error(t, err)
}

func TestOllamaClassifyRejectsNonJSON(t *testing.T) {
	srv := ollamaTestServer(t, "I cannot classify this email.", nil)
	defer srv.Close()

	svc := NewOllamaService(srv.URL, "llama3")
	_, err := svc.ClassifyEmail(context.Background(), "s", "b", "f", []string{"Spam"})
	assert.Error(t, err)
}

func TestOllamaGenerateReplyClampsConfidence(t *testing.T) {
	srv := ollamaTestServer(t, `{"reply": "Sounds great, let's talk.", "confidence": 2.5}`, nil)
	defer srv.Close()

	svc := NewOllamaService(srv.URL, "llama3")
	result, err := svc.GenerateReply(context.Background(), "context", "email")
	assert.NoError(t, err)
	assert.Equal(t, "Sounds great, let's talk.", result.Reply)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestOllamaEmbedText(t *testing.T) {
	srv := ollamaTestServer(t, "", []float64{0.1, 0.2, 0.3})
	defer srv.Close()

	svc := NewOllamaService(srv.URL, "llama3")
	embedding, err := svc.EmbedText(context.Background(), "some content")
	assert.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, embedding)
}

func TestOllamaEmbedTextEmptyResponse(t *testing.T) {
	srv := ollamaTestServer(t, "", nil)
	defer srv.Close()

	svc := NewOllamaService(srv.URL, "llama3")
	_, err := svc.EmbedText(context.Background(), "some content")
	assert.Error(t, err)
}

func TestOllamaServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewOllamaService(srv.URL, "llama3")
	_, err := svc.ClassifyEmail(context.Background(), "s", "b", "f", []string{"Spam"})
	assert.Error(t, err)
}
