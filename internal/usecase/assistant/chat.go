package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"blog-api/internal/domain/entity"
	"blog-api/internal/observability/metrics"
	"blog-api/internal/utils/text"
)

const (
	// MaxQueryRunes bounds a chat query.
	MaxQueryRunes = 1000

	// ProviderFallback names the canned answer used when every provider fails.
	ProviderFallback = "fallback"

	maxPostContextRunes = 7000
	fallbackSnippetRunes = 500
)

const systemPrompt = `You are me - Lorenzo Scaturchio, a software engineer and data scientist based in Los Angeles. Respond in first person as if you were me, drawing from the following context about my background, work, and expertise.

When introducing yourself, simply say "Hi, I'm Lorenzo" or something similarly natural. Avoid mentioning that you're an AI - just be me. Use a friendly, professional tone and speak from my perspective about my work, experience, and services.

If asked about specific experiences or project details not covered in the context, you can say something like "I'd be happy to discuss that in more detail over a call" or suggest reaching out directly.`

// ChatRequest is one chat turn.
type ChatRequest struct {
	Query string `json:"query"`
	// ContextSlug names the post the reader is on, optional.
	ContextSlug string `json:"contextSlug,omitempty"`
}

// ChatAnswer is the assistant reply.
type ChatAnswer struct {
	Answer   string `json:"answer"`
	Provider string `json:"provider"`
	Degraded bool   `json:"degraded"`
}

// Validate checks the query length and the optional context slug.
func (r ChatRequest) Validate() error {
	q := strings.TrimSpace(r.Query)
	if q == "" {
		return &entity.ValidationError{Field: "query", Message: "query is required", Err: ErrEmptyQuery}
	}
	if text.CountRunes(q) > MaxQueryRunes {
		return &entity.ValidationError{Field: "query", Message: "query must be at most 1000 characters", Err: ErrQueryTooLong}
	}
	if r.ContextSlug != "" {
		return entity.ValidateSlug(r.ContextSlug)
	}
	return nil
}

// Chat answers req. Providers are tried in order; when all fail the reply
// is a canned answer quoting the semantic context, marked degraded. Chat
// only errors on invalid input.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (ChatAnswer, error) {
	if err := req.Validate(); err != nil {
		return ChatAnswer{}, err
	}
	query := strings.TrimSpace(req.Query)

	semantic := s.semanticContext(ctx, query)
	prompt := buildSystemPrompt(s.postContext(ctx, req.ContextSlug), semantic)

	for _, p := range s.Providers {
		start := time.Now()
		answer, err := p.Complete(ctx, prompt, query)
		if err == nil && strings.TrimSpace(answer) != "" {
			metrics.RecordChatResponse(p.Name(), time.Since(start))
			return ChatAnswer{Answer: answer, Provider: p.Name()}, nil
		}
		if err == nil {
			err = errors.New("empty answer")
		}
		slog.WarnContext(ctx, "chat provider failed, trying next",
			slog.String("provider", p.Name()),
			slog.String("error", err.Error()))
	}

	metrics.RecordChatResponse(ProviderFallback, 0)
	return ChatAnswer{Answer: fallbackAnswer(semantic), Provider: ProviderFallback, Degraded: true}, nil
}

// postContext describes the post the reader is on, or "" when unknown.
func (s *Service) postContext(ctx context.Context, slug string) string {
	if slug == "" || s.Catalog == nil {
		return ""
	}
	p, err := s.Catalog.Get(ctx, slug)
	if err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			slog.WarnContext(ctx, "failed to load post context",
				slog.String("slug", slug), slog.String("error", err.Error()))
		}
		return ""
	}

	var b strings.Builder
	b.WriteString("Blog post context:\n")
	if p.Title != "" {
		b.WriteString("Title: " + p.Title)
	} else {
		b.WriteString("Slug: " + p.Slug)
	}
	if p.Description != "" {
		b.WriteString("\nDescription: " + p.Description)
	}
	if content := strings.TrimSpace(p.Content); content != "" {
		if text.CountRunes(content) > maxPostContextRunes {
			content = text.Truncate(content, maxPostContextRunes) + "\n\n[truncated]"
		}
		b.WriteString("\n\nPost content:\n" + content)
	}
	return b.String()
}

func buildSystemPrompt(postContext, semantic string) string {
	parts := []string{systemPrompt}
	if postContext != "" {
		parts = append(parts, postContext)
	}
	if semantic != "" {
		parts = append(parts, "Additional context (semantic matches):\n"+semantic)
	}
	return strings.Join(parts, "\n\n")
}

func fallbackAnswer(semantic string) string {
	collapsed := strings.Join(strings.Fields(semantic), " ")
	if collapsed == "" {
		return "I’m temporarily unable to run full AI responses right now. Please try again shortly or reach out through the contact page."
	}
	snippet := text.Truncate(collapsed, fallbackSnippetRunes)
	if text.CountRunes(snippet) >= fallbackSnippetRunes {
		snippet += "…"
	}
	return "I can’t reach my AI backend right now, but here’s relevant context from my writing: " + snippet
}
