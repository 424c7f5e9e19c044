package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/lumehq/lume-backend/internal/clients/openai"
	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/breaker"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

const generationSystemPrompt = "You write one short, warm, second-person " +
	"nudge for a personal productivity assistant. One or two sentences, " +
	"no emoji, no preamble."

// GenerationService phrases an intervention in natural language. The
// model call runs behind the openai breaker; on failure or an open
// circuit the deterministic template wins. Phrase never fails.
type GenerationService interface {
	Phrase(ctx context.Context, u *types.User, c Candidate, state *types.DailyState) string
}

type generationService struct {
	log     *logger.Logger
	client  openai.Client
	breaker *breaker.Breaker
}

func NewGenerationService(log *logger.Logger, client openai.Client, reg *breaker.Registry) GenerationService {
	return &generationService{
		log:     log.With("service", "GenerationService"),
		client:  client,
		breaker: reg.Get("openai"),
	}
}

func (s *generationService) Phrase(ctx context.Context, u *types.User, c Candidate, state *types.DailyState) string {
	fallback := templateFor(c)
	if s.client == nil {
		return fallback
	}

	return breaker.DoWithFallback(s.breaker, func() (string, error) {
		text, err := s.client.GenerateText(ctx, generationSystemPrompt, buildPrompt(u, c, state))
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return "", fmt.Errorf("empty generation")
		}
		return text, nil
	}, fallback)
}

func buildPrompt(u *types.User, c Candidate, state *types.DailyState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Intervention type: %s.\n", c.ActionType)
	if c.TargetText != "" {
		fmt.Fprintf(&b, "Subject: %s.\n", c.TargetText)
	}
	if u != nil && u.DisplayName != "" {
		fmt.Fprintf(&b, "User name: %s.\n", u.DisplayName)
	}
	if state != nil {
		fmt.Fprintf(&b, "Today: %d items, %d completed, %d skipped, %d pending. Energy %d/10, stress %d/10.\n",
			state.TotalItems, state.CompletedItems, state.SkippedItems, state.PendingItems,
			state.EnergyLevel, state.StressLevel)
	}
	fmt.Fprintf(&b, "Fallback wording to improve on: %s", templateFor(c))
	return b.String()
}

func templateFor(c Candidate) string {
	switch c.ActionType {
	case types.ActionRiskAlert:
		return "Today looks heavy. Consider dropping or moving one thing before it drops you."
	case types.ActionPacingAdjust:
		return "A few items are still open this evening. Pick one to finish and let the rest wait."
	case types.ActionAddSchedule:
		return "You have room today. Want to slot in something you have been putting off?"
	case types.ActionCelebration:
		return "Strong day so far. Nice work keeping the streak going."
	default:
		return "Quick check-in: how is your day going?"
	}
}
