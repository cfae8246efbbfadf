package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"unibox-backend/internal/knowledge/domain"
	"unibox-backend/internal/knowledge/dto"
	knowledgerepo "unibox-backend/internal/knowledge/repository"
	"unibox-backend/pkg/ai"
)

// ErrEntryNotFound is returned for operations on unknown entries.
var ErrEntryNotFound = errors.New("knowledge entry not found")

const (
	// topKEntries is how many knowledge entries ground a reply.
	topKEntries = 3

	// queryBodyLimit is how much of the email body goes into the
	// similarity query.
	queryBodyLimit = 1000
)

// KnowledgeUsecase manages the reply-grounding knowledge base. Every write
// re-embeds the entry so stored vectors never go stale against the content.
type KnowledgeUsecase interface {
	GetAll() ([]*domain.KnowledgeEntry, error)
	GetByID(id string) (*domain.KnowledgeEntry, error)
	Create(ctx context.Context, req *dto.CreateEntryRequest) (*domain.KnowledgeEntry, error)
	Update(ctx context.Context, id string, req *dto.UpdateEntryRequest) (*domain.KnowledgeEntry, error)
	Delete(id string) error
	SuggestReply(ctx context.Context, subject, from, body string) (*ai.ReplySuggestion, error)
}

// knowledgeUsecase implements KnowledgeUsecase
type knowledgeUsecase struct {
	knowledgeRepo knowledgerepo.KnowledgeRepository
	aiService     ai.Service
}

func NewKnowledgeUsecase(knowledgeRepo knowledgerepo.KnowledgeRepository, aiService ai.Service) KnowledgeUsecase {
	return &knowledgeUsecase{
		knowledgeRepo: knowledgeRepo,
		aiService:     aiService,
	}
}

func (u *knowledgeUsecase) GetAll() ([]*domain.KnowledgeEntry, error) {
	return u.knowledgeRepo.GetAll()
}

func (u *knowledgeUsecase) GetByID(id string) (*domain.KnowledgeEntry, error) {
	entry, err := u.knowledgeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	return entry, nil
}

// Create embeds the content before persisting. A failed embedding fails
// the create; an entry without a vector would be invisible to retrieval.
func (u *knowledgeUsecase) Create(ctx context.Context, req *dto.CreateEntryRequest) (*domain.KnowledgeEntry, error) {
	embedding, err := u.embed(ctx, req.Content)
	if err != nil {
		return nil, err
	}

	category := req.Category
	if category == "" {
		category = "general"
	}

	now := time.Now()
	entry := &domain.KnowledgeEntry{
		ID:        uuid.New().String(),
		Content:   req.Content,
		Category:  category,
		Embedding: embedding,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := u.knowledgeRepo.Create(entry); err != nil {
		return nil, fmt.Errorf("failed to create knowledge entry: %w", err)
	}
	return entry, nil
}

// Update replaces content and category and re-embeds unconditionally, even
// when the content is unchanged.
func (u *knowledgeUsecase) Update(ctx context.Context, id string, req *dto.UpdateEntryRequest) (*domain.KnowledgeEntry, error) {
	entry, err := u.knowledgeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}

	embedding, err := u.embed(ctx, req.Content)
	if err != nil {
		return nil, err
	}

	entry.Content = req.Content
	if req.Category != "" {
		entry.Category = req.Category
	}
	entry.Embedding = embedding
	entry.UpdatedAt = time.Now()

	if err := u.knowledgeRepo.Update(entry); err != nil {
		return nil, fmt.Errorf("failed to update knowledge entry: %w", err)
	}
	return entry, nil
}

func (u *knowledgeUsecase) Delete(id string) error {
	entry, err := u.knowledgeRepo.GetByID(id)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrEntryNotFound
	}
	return u.knowledgeRepo.Delete(id)
}

// SuggestReply drafts a reply grounded in the most similar knowledge
// entries. With an empty knowledge base it goes straight to generation
// with no context rather than failing.
func (u *knowledgeUsecase) SuggestReply(ctx context.Context, subject, from, body string) (*ai.ReplySuggestion, error) {
	if u.aiService == nil {
		return nil, fmt.Errorf("AI service not configured")
	}

	body = ai.TruncateText(body, queryBodyLimit)
	emailText := fmt.Sprintf("Subject: %s\nFrom: %s\n\n%s", subject, from, body)

	entries, err := u.knowledgeRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}

	var contextText string
	if len(entries) > 0 {
		queryEmbedding, err := u.aiService.EmbedText(ctx, emailText)
		if err != nil {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}
		contextText = buildContext(rankEntries(entries, queryEmbedding))
	} else {
		log.Debug("knowledge base empty, generating reply without context")
	}

	suggestion, err := u.aiService.GenerateReply(ctx, contextText, emailText)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}

	suggestion.Confidence = ai.Clamp01(suggestion.Confidence)
	return suggestion, nil
}

func (u *knowledgeUsecase) embed(ctx context.Context, content string) (domain.Vector, error) {
	if u.aiService == nil {
		return nil, fmt.Errorf("AI service not configured")
	}
	embedding, err := u.aiService.EmbedText(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	return embedding, nil
}

// rankEntries orders entries by cosine similarity to the query, most
// similar first, and keeps the top K.
func rankEntries(entries []*domain.KnowledgeEntry, query []float64) []*domain.KnowledgeEntry {
	type scored struct {
		entry *domain.KnowledgeEntry
		score float64
	}

	ranked := make([]scored, 0, len(entries))
	for _, entry := range entries {
		ranked = append(ranked, scored{
			entry: entry,
			score: cosineSimilarity(query, entry.Embedding),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	k := topKEntries
	if len(ranked) < k {
		k = len(ranked)
	}

	top := make([]*domain.KnowledgeEntry, 0, k)
	for _, s := range ranked[:k] {
		top = append(top, s.entry)
	}
	return top
}

func buildContext(entries []*domain.KnowledgeEntry) string {
	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		parts = append(parts, entry.Content)
	}
	return strings.Join(parts, "\n\n")
}

// cosineSimilarity returns 0 for mismatched or zero-magnitude vectors so a
// malformed stored embedding ranks last instead of breaking retrieval.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
