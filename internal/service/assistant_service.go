package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tapolio/tapolio-server/internal/logger"
	"github.com/tapolio/tapolio-server/internal/model"
	"github.com/tapolio/tapolio-server/internal/store"
)

const AnswerUnavailable = "Answer unavailable."

type SuggestResult struct {
	Suggestion   string
	Conversation []model.ConversationEntry
}

type AssistantService interface {
	Suggest(ctx context.Context, transcript string) (*SuggestResult, error)
	Reset()
}

type assistantService struct {
	llm           LLMService
	conversations *store.ConversationStore
}

func NewAssistantService(llm LLMService, conversations *store.ConversationStore) AssistantService {
	return &assistantService{llm: llm, conversations: conversations}
}

// Suggest extracts the last question in transcript and answers it once.
// A repeated question gets the stored answer without a second model call.
func (s *assistantService) Suggest(ctx context.Context, transcript string) (*SuggestResult, error) {
	trimmed := strings.TrimSpace(transcript)

	detected, err := s.llm.Complete(ctx, newRequest(PurposeDetect, detectionPrompt(trimmed), detectParams))
	if err != nil {
		return nil, fmt.Errorf("detect question: %w", err)
	}
	if isNotAQuestion(detected) {
		log.Debug().Str("transcript", logger.Truncate(trimmed, 100)).Msg("Transcript has no question")
		return s.result(""), nil
	}

	question := store.NormalizeQuestion(detected)
	if answer, ok := s.conversations.Lookup(question); ok {
		log.Debug().Str("question", logger.Truncate(question, 100)).Msg("Question already answered")
		return s.result(answer), nil
	}

	answer, err := s.llm.Complete(ctx, newRequest(PurposeAnswer, answerPrompt(question), answerParams))
	if err != nil {
		return nil, fmt.Errorf("answer question: %w", err)
	}
	if answer == "" {
		answer = AnswerUnavailable
	}

	if !s.conversations.Add(question, answer) {
		// a concurrent request answered it first; keep the stored answer
		if stored, ok := s.conversations.Lookup(question); ok {
			answer = stored
		}
	}
	log.Info().Str("question", logger.Truncate(question, 100)).Msg("Answered question")
	return s.result(answer), nil
}

func (s *assistantService) Reset() {
	s.conversations.Reset()
	log.Info().Msg("Conversation history cleared")
}

func (s *assistantService) result(suggestion string) *SuggestResult {
	return &SuggestResult{Suggestion: suggestion, Conversation: s.conversations.Snapshot()}
}

func isNotAQuestion(reply string) bool {
	r := strings.Trim(strings.TrimSpace(reply), `"'.`)
	return r == "" || strings.EqualFold(r, NotAQuestion)
}
