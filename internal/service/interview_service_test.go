package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tapolio/tapolio-server/internal/event"
	"github.com/tapolio/tapolio-server/internal/metrics"
	"github.com/tapolio/tapolio-server/internal/model"
	"github.com/tapolio/tapolio-server/internal/repository"
	"github.com/tapolio/tapolio-server/internal/store"
)

type interviewFixture struct {
	svc       InterviewService
	llm       *fakeLLM
	sessions  *store.SessionStore
	results   repository.InterviewResultRepository
	publisher *fakePublisher
	metrics   *metrics.Metrics
	now       time.Time
	mu        sync.Mutex
}

func newInterviewFixture(t *testing.T) *interviewFixture {
	t.Helper()
	f := &interviewFixture{
		llm:       newFakeLLM(),
		publisher: &fakePublisher{},
		metrics:   metrics.NewMetrics(),
		now:       time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
	}
	f.sessions = store.NewSessionStore(store.SessionStoreConfig{
		TTL:          30 * time.Minute,
		Grace:        5 * time.Second,
		MaxPerClient: 3,
	}, f.clock)
	f.results = repository.NewInterviewResultRepository(newTestDB(t))
	f.svc = NewInterviewService(f.sessions, f.llm, f.results, f.publisher, f.metrics)
	return f
}

func (f *interviewFixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *interviewFixture) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestInterviewRunsToCompletion(t *testing.T) {
	f := newInterviewFixture(t)
	f.llm.on(PurposeQuestion, "Q1?", "Q2?", "Q3?", "Q4?", "Q5?")
	f.llm.on(PurposeEvaluate,
		"SCORE: 8\nFEEDBACK: good",
		"SCORE: 6\nFEEDBACK: ok",
		"SCORE: 10\nFEEDBACK: great",
		"SCORE: 4\nFEEDBACK: weak",
		"SCORE: 7\nFEEDBACK: fine",
	)
	ctx := context.Background()

	start, err := f.svc.Start(ctx, "React", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "Q1?", start.FirstQuestion)
	assert.Equal(t, 5, start.TotalQuestions)
	assert.NotEmpty(t, start.SessionID)

	for i := 1; i <= 4; i++ {
		res, err := f.svc.SubmitAnswer(ctx, start.SessionID, fmt.Sprintf("answer %d", i))
		require.NoError(t, err)
		assert.False(t, res.Complete)
		require.NotNil(t, res.NextQuestion)
		assert.Equal(t, fmt.Sprintf("Q%d?", i+1), *res.NextQuestion)
		assert.Equal(t, i+1, res.QuestionNumber)
	}

	// the last next-question prompt carries all previous questions
	assert.Contains(t, f.llm.last(PurposeQuestion).Prompt, "Previous questions: Q1?; Q2?; Q3?; Q4?")

	res, err := f.svc.SubmitAnswer(ctx, start.SessionID, "answer 5")
	require.NoError(t, err)
	assert.True(t, res.Complete)
	assert.Nil(t, res.NextQuestion)
	assert.Equal(t, 7, res.Score)
	assert.Equal(t, "fine", res.Feedback)
	assert.InDelta(t, 7.0, res.AverageScore, 0.001)
	assert.Equal(t, 5, f.llm.count(PurposeQuestion), "no question generated after the last answer")

	archived, err := f.results.FindBySessionID(start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "React", archived.Topic)
	assert.Equal(t, "10.0.0.1", archived.ClientID)
	assert.Equal(t, []int{8, 6, 10, 4, 7}, archived.Scores)
	assert.Equal(t, []string{"Q1?", "Q2?", "Q3?", "Q4?", "Q5?"}, archived.Questions)
	assert.Len(t, archived.Answers, 5)
	assert.InDelta(t, 7.0, archived.AverageScore, 0.001)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, event.RoutingInterviewCompleted, f.publisher.events[0].key)
	payload := f.publisher.events[0].payload.(event.InterviewCompleted)
	assert.Equal(t, start.SessionID, payload.SessionID)
	assert.Equal(t, 5, payload.Questions)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.InterviewsDone.WithLabelValues("React")))

	_, err = f.svc.SubmitAnswer(ctx, start.SessionID, "one more")
	assert.ErrorIs(t, err, store.ErrInterviewComplete)

	f.advance(5 * time.Second)
	_, err = f.svc.SubmitAnswer(ctx, start.SessionID, "one more")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestGeneralKnowledgeCompletesAfterThree(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	start, err := f.svc.Start(ctx, model.TopicGeneralKnowledge, "c")
	require.NoError(t, err)
	assert.Equal(t, 3, start.TotalQuestions)
	assert.Contains(t, f.llm.last(PurposeQuestion).Prompt, "warm-up quiz")

	var res *AnswerResult
	for i := 0; i < 3; i++ {
		res, err = f.svc.SubmitAnswer(ctx, start.SessionID, "green")
		require.NoError(t, err)
	}
	assert.True(t, res.Complete)
	assert.Contains(t, f.llm.last(PurposeEvaluate).Prompt, "Be generous")
}

func TestFallbacksOnEmptyModelReplies(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	start, err := f.svc.Start(ctx, "Angular", "c")
	require.NoError(t, err)
	assert.Equal(t, "What is Angular?", start.FirstQuestion)

	res, err := f.svc.SubmitAnswer(ctx, start.SessionID, "no idea")
	require.NoError(t, err)
	assert.Equal(t, DefaultScore, res.Score)
	assert.Equal(t, DefaultFeedback, res.Feedback)
	require.NotNil(t, res.NextQuestion)
	assert.Equal(t, "Question 2 about Angular", *res.NextQuestion)

	hint, err := f.svc.Hint(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, DefaultHint, hint)
}

func TestStartEnforcesClientCap(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Start(ctx, "React", "same-client")
		require.NoError(t, err)
	}
	calls := f.llm.count(PurposeQuestion)

	_, err := f.svc.Start(ctx, "React", "same-client")
	assert.ErrorIs(t, err, store.ErrTooManySessions)
	assert.Equal(t, calls, f.llm.count(PurposeQuestion), "rejected start must not call the model")

	_, err = f.svc.Start(ctx, "React", "other-client")
	assert.NoError(t, err)
}

func TestFailedEvaluationLeavesSessionUntouched(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	start, err := f.svc.Start(ctx, "React", "c")
	require.NoError(t, err)

	f.llm.fail(PurposeEvaluate, errModelDown)
	_, err = f.svc.SubmitAnswer(ctx, start.SessionID, "answer")
	require.ErrorIs(t, err, errModelDown)

	sess, err := f.sessions.Get(start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.QuestionNumber)
	assert.Empty(t, sess.Answers)
	assert.Empty(t, sess.Scores)
}

func TestHintOncePerQuestion(t *testing.T) {
	f := newInterviewFixture(t)
	f.llm.on(PurposeHint, "Think about the virtual DOM.", "Consider state.")
	ctx := context.Background()

	start, err := f.svc.Start(ctx, "React", "c")
	require.NoError(t, err)

	hint, err := f.svc.Hint(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Think about the virtual DOM.", hint)
	req := f.llm.last(PurposeHint)
	assert.InDelta(t, 0.7, req.Temperature, 1e-6)
	assert.Equal(t, 100, req.MaxTokens)

	_, err = f.svc.Hint(ctx, start.SessionID)
	assert.ErrorIs(t, err, store.ErrHintAlreadyUsed)

	_, err = f.svc.SubmitAnswer(ctx, start.SessionID, "answer")
	require.NoError(t, err)

	hint, err = f.svc.Hint(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Consider state.", hint)
}

func TestUnknownSession(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitAnswer(ctx, "nope", "answer")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
	_, err = f.svc.Hint(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestPublishFailureDoesNotFailAnswer(t *testing.T) {
	f := newInterviewFixture(t)
	f.publisher.err = fmt.Errorf("broker down")
	ctx := context.Background()

	start, err := f.svc.Start(ctx, model.TopicGeneralKnowledge, "c")
	require.NoError(t, err)
	var res *AnswerResult
	for i := 0; i < 3; i++ {
		res, err = f.svc.SubmitAnswer(ctx, start.SessionID, "a")
		require.NoError(t, err)
	}
	assert.True(t, res.Complete)
}
