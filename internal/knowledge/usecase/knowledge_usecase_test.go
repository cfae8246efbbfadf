package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"unibox-backend/internal/knowledge/domain"
	"unibox-backend/internal/knowledge/dto"
	"unibox-backend/pkg/ai"
)

type fakeKnowledgeRepo struct {
	entries map[string]*domain.KnowledgeEntry
}

func newFakeKnowledgeRepo() *fakeKnowledgeRepo {
	return &fakeKnowledgeRepo{entries: make(map[string]*domain.KnowledgeEntry)}
}

func (r *fakeKnowledgeRepo) GetAll() ([]*domain.KnowledgeEntry, error) {
	out := make([]*domain.KnowledgeEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeKnowledgeRepo) GetByID(id string) (*domain.KnowledgeEntry, error) {
	return r.entries[id], nil
}

func (r *fakeKnowledgeRepo) Create(entry *domain.KnowledgeEntry) error {
	r.entries[entry.ID] = entry
	return nil
}

func (r *fakeKnowledgeRepo) Update(entry *domain.KnowledgeEntry) error {
	r.entries[entry.ID] = entry
	return nil
}

func (r *fakeKnowledgeRepo) Delete(id string) error {
	delete(r.entries, id)
	return nil
}

// fakeAIService embeds by content lookup and records what generation saw.
type fakeAIService struct {
	embeddings      map[string][]float64
	queryEmbedding  []float64
	embedCalls      int
	lastContext     string
	replyConfidence float64
	generateErr     error
	embedErr        error
}

func (f *fakeAIService) ClassifyEmail(ctx context.Context, subject, body, sender string, labels []string) (*ai.Classification, error) {
	return nil, fmt.Errorf("not used")
}

func (f *fakeAIService) EmbedText(ctx context.Context, text string) ([]float64, error) {
	f.embedCalls++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	if emb, ok := f.embeddings[text]; ok {
		return emb, nil
	}
	return f.queryEmbedding, nil
}

func (f *fakeAIService) GenerateReply(ctx context.Context, knowledgeContext, emailText string) (*ai.ReplySuggestion, error) {
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	f.lastContext = knowledgeContext
	return &ai.ReplySuggestion{Reply: "Thanks for reaching out!", Confidence: f.replyConfidence}, nil
}

func seedEntry(repo *fakeKnowledgeRepo, id, content string, embedding []float64) {
	repo.entries[id] = &domain.KnowledgeEntry{
		ID:        id,
		Content:   content,
		Category:  "general",
		Embedding: embedding,
	}
}

func TestCreateEmbedsContent(t *testing.T) {
	repo := newFakeKnowledgeRepo()
	aiSvc := &fakeAIService{embeddings: map[string][]float64{
		"We offer a 14 day trial.": {1, 0, 0},
	}}
	uc := NewKnowledgeUsecase(repo, aiSvc)

	entry, err := uc.Create(context.Background(), &dto.CreateEntryRequest{Content: "We offer a 14 day trial."})
	assert.NoError(t, err)
	assert.Equal(t, domain.Vector{1, 0, 0}, entry.Embedding)
	assert.Equal(t, "general", entry.Category)
	assert.Len(t, repo.entries, 1)
}

func TestCreateFailsWhenEmbeddingFails(t *testing.T) {
	repo := newFakeKnowledgeRepo()
	aiSvc := &fakeAIService{embedErr: fmt.Errorf("provider down")}
	uc := NewKnowledgeUsecase(repo, aiSvc)

	_, err := uc.Create(context.Background(), &dto.CreateEntryRequest{Content: "anything"})
	assert.Error(t, err)
	assert.Empty(t, repo.entries)
}

func TestUpdateReembeds(t *testing.T) {
	repo := newFakeKnowledgeRepo()
	seedEntry(repo, "k1", "old content", []float64{0, 1, 0})
	aiSvc := &fakeAIService{embeddings: map[string][]float64{
		"new content": {0, 0, 1},
	}}
	uc := NewKnowledgeUsecase(repo, aiSvc)

	entry, err := uc.Update(context.Background(), "k1", &dto.UpdateEntryRequest{Content: "new content"})
	assert.NoError(t, err)
	assert.Equal(t, domain.Vector{0, 0, 1}, entry.Embedding)
	assert.Equal(t, "new content", repo.entries["k1"].Content)
}

func TestUpdateUnknownEntry(t *testing.T) {
	uc := NewKnowledgeUsecase(newFakeKnowledgeRepo(), &fakeAIService{})
	_, err := uc.Update(context.Background(), "missing", &dto.UpdateEntryRequest{Content: "x"})
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestSuggestReplyGroundsOnTopThreeEntries(t *testing.T) {
	repo := newFakeKnowledgeRepo()
	seedEntry(repo, "k1", "closest", []float64{1, 0, 0})
	seedEntry(repo, "k2", "second", []float64{0.9, 0.1, 0})
	seedEntry(repo, "k3", "third", []float64{0.5, 0.5, 0})
	seedEntry(repo, "k4", "unrelated", []float64{0, 0, 1})

	aiSvc := &fakeAIService{queryEmbedding: []float64{1, 0, 0}, replyConfidence: 0.8}
	uc := NewKnowledgeUsecase(repo, aiSvc)

	suggestion, err := uc.SuggestReply(context.Background(), "Pricing", "ada@example.com", "how much?")
	assert.NoError(t, err)
	assert.Equal(t, "Thanks for reaching out!", suggestion.Reply)

	parts := strings.Split(aiSvc.lastContext, "\n\n")
	assert.Equal(t, []string{"closest", "second", "third"}, parts)
}

func TestSuggestReplyWithEmptyKnowledgeBase(t *testing.T) {
	aiSvc := &fakeAIService{replyConfidence: 0.5}
	uc := NewKnowledgeUsecase(newFakeKnowledgeRepo(), aiSvc)

	suggestion, err := uc.SuggestReply(context.Background(), "Hello", "ada@example.com", "hi")
	assert.NoError(t, err)
	assert.NotEmpty(t, suggestion.Reply)

	// No entries means no retrieval: the query is never embedded.
	assert.Equal(t, 0, aiSvc.embedCalls)
	assert.Empty(t, aiSvc.lastContext)
}

func TestSuggestReplyClampsConfidence(t *testing.T) {
	aiSvc := &fakeAIService{replyConfidence: 1.7}
	uc := NewKnowledgeUsecase(newFakeKnowledgeRepo(), aiSvc)

	suggestion, err := uc.SuggestReply(context.Background(), "Hello", "ada@example.com", "hi")
	assert.NoError(t, err)
	assert.Equal(t, 1.0, suggestion.Confidence)
}

func TestSuggestReplyPropagatesGenerationFailure(t *testing.T) {
	aiSvc := &fakeAIService{generateErr: fmt.Errorf("provider down")}
	uc := NewKnowledgeUsecase(newFakeKnowledgeRepo(), aiSvc)

	// No canned fallback text: the failure reaches the caller.
	_, err := uc.SuggestReply(context.Background(), "Hello", "ada@example.com", "hi")
	assert.Error(t, err)
}

func TestSuggestReplyTruncatesLongBodies(t *testing.T) {
	aiSvc := &fakeAIService{replyConfidence: 0.5}
	uc := NewKnowledgeUsecase(newFakeKnowledgeRepo(), aiSvc)

	long := strings.Repeat("a", 5000)
	_, err := uc.SuggestReply(context.Background(), "Hello", "ada@example.com", long)
	assert.NoError(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-9)

	// Malformed vectors rank last instead of panicking.
	assert.Equal(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{1}))
	assert.Equal(t, 0.0, cosineSimilarity(nil, nil))
	assert.Equal(t, 0.0, cosineSimilarity([]float64{0, 0}, []float64{0, 0}))
}
