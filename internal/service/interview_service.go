package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/tapolio/tapolio-server/internal/event"
	"github.com/tapolio/tapolio-server/internal/metrics"
	"github.com/tapolio/tapolio-server/internal/model"
	"github.com/tapolio/tapolio-server/internal/repository"
	"github.com/tapolio/tapolio-server/internal/store"
)

const DefaultHint = "Think about the key concepts and your practical experience."

type StartResult struct {
	SessionID      string
	FirstQuestion  string
	TotalQuestions int
}

type AnswerResult struct {
	Score          int
	Feedback       string
	NextQuestion   *string
	Complete       bool
	QuestionNumber int
	AverageScore   float64
}

type InterviewService interface {
	Start(ctx context.Context, topic model.Topic, clientID string) (*StartResult, error)
	SubmitAnswer(ctx context.Context, sessionID, answer string) (*AnswerResult, error)
	Hint(ctx context.Context, sessionID string) (string, error)
}

type interviewService struct {
	sessions  *store.SessionStore
	llm       LLMService
	results   repository.InterviewResultRepository
	publisher event.Publisher
	metrics   *metrics.Metrics
}

func NewInterviewService(
	sessions *store.SessionStore,
	llm LLMService,
	results repository.InterviewResultRepository,
	publisher event.Publisher,
	m *metrics.Metrics,
) InterviewService {
	return &interviewService{
		sessions:  sessions,
		llm:       llm,
		results:   results,
		publisher: publisher,
		metrics:   m,
	}
}

func (s *interviewService) Start(ctx context.Context, topic model.Topic, clientID string) (*StartResult, error) {
	// Check the cap before paying for a model call; Create checks again atomically.
	if s.sessions.AtCapacity(clientID) {
		return nil, store.ErrTooManySessions
	}

	question, err := s.generateQuestion(ctx, topic, 1, nil)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Create(topic, clientID, question)
	if err != nil {
		return nil, err
	}

	log.Info().Str("session_id", sess.ID).Str("topic", topic.String()).Msg("Interview started")
	return &StartResult{
		SessionID:      sess.ID,
		FirstQuestion:  question,
		TotalQuestions: sess.MaxQuestions(),
	}, nil
}

// SubmitAnswer grades the answer to the current question. The session only changes
// once every model call has succeeded, so a failed request can be retried.
func (s *interviewService) SubmitAnswer(ctx context.Context, sessionID, answer string) (*AnswerResult, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsComplete() {
		return nil, store.ErrInterviewComplete
	}

	question := sess.CurrentQuestion()
	raw, err := s.llm.Complete(ctx, newRequest(PurposeEvaluate, evaluationPrompt(sess.Topic, question, answer), evaluateParams))
	if err != nil {
		return nil, fmt.Errorf("evaluate answer: %w", err)
	}
	ev := ParseEvaluation(raw)

	var next string
	if !sess.IsFinalQuestion() {
		next, err = s.generateQuestion(ctx, sess.Topic, sess.QuestionNumber+1, sess.Questions)
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.sessions.RecordAnswer(sess.ID, sess.QuestionNumber, answer, ev.Score, next)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("session_id", updated.ID).
		Int("question", sess.QuestionNumber).
		Int("score", ev.Score).
		Msg("Answer scored")

	result := &AnswerResult{
		Score:          ev.Score,
		Feedback:       ev.Feedback,
		Complete:       updated.IsComplete(),
		QuestionNumber: updated.QuestionNumber,
		AverageScore:   updated.AverageScore(),
	}
	if updated.IsComplete() {
		s.finish(ctx, updated)
	} else {
		result.NextQuestion = &next
	}
	return result, nil
}

// Hint consumes the allowance for the current question before asking the model,
// so a slow model call cannot be raced into a second hint.
func (s *interviewService) Hint(ctx context.Context, sessionID string) (string, error) {
	sess, err := s.sessions.UseHint(sessionID)
	if err != nil {
		return "", err
	}

	hint, err := s.llm.Complete(ctx, newRequest(PurposeHint, hintPrompt(sess.CurrentQuestion()), hintParams))
	if err != nil {
		return "", fmt.Errorf("generate hint: %w", err)
	}
	if hint == "" {
		hint = DefaultHint
	}
	log.Info().Str("session_id", sess.ID).Int("question", sess.QuestionNumber).Msg("Hint given")
	return hint, nil
}

func (s *interviewService) generateQuestion(ctx context.Context, topic model.Topic, n int, previous []string) (string, error) {
	q, err := s.llm.Complete(ctx, newRequest(PurposeQuestion, questionPrompt(topic, n, previous), questionParams))
	if err != nil {
		return "", fmt.Errorf("generate question %d: %w", n, err)
	}
	if q != "" {
		return q, nil
	}
	if n == 1 {
		return fmt.Sprintf("What is %s?", topic), nil
	}
	return fmt.Sprintf("Question %d about %s", n, topic), nil
}

// finish archives and announces a completed interview. Neither step may fail the answer.
func (s *interviewService) finish(ctx context.Context, sess *model.InterviewSession) {
	if s.metrics != nil {
		s.metrics.InterviewsDone.WithLabelValues(sess.Topic.String()).Inc()
	}
	log.Info().
		Str("session_id", sess.ID).
		Str("average_score", fmt.Sprintf("%.1f", sess.AverageScore())).
		Msg("Interview completed")

	result, err := toInterviewResult(sess)
	if err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("Failed to map interview result")
		return
	}
	if s.results != nil {
		if err := s.results.Create(result); err != nil {
			log.Error().Err(err).Str("session_id", sess.ID).Msg("Failed to archive interview result")
		}
	}

	if s.publisher == nil {
		return
	}
	err = s.publisher.Publish(ctx, event.RoutingInterviewCompleted, event.InterviewCompleted{
		SessionID:    sess.ID,
		Topic:        sess.Topic.String(),
		Questions:    len(sess.Questions),
		Scores:       sess.Scores,
		AverageScore: result.AverageScore,
		CompletedAt:  result.CompletedAt,
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("Failed to publish interview completion")
	}
}

func toInterviewResult(sess *model.InterviewSession) (*model.InterviewResult, error) {
	if sess.CompletedAt == nil {
		return nil, errors.New("session is not complete")
	}
	var result model.InterviewResult
	if err := copier.Copy(&result, sess); err != nil {
		return nil, err
	}
	result.SessionID = sess.ID
	result.AverageScore = sess.AverageScore()
	result.StartedAt = sess.CreatedAt
	result.CompletedAt = sess.CompletedAt.UTC().Truncate(time.Millisecond)
	return &result, nil
}
