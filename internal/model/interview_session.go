package model

import "time"

// InterviewSession is the in-memory record of one mock interview.
// Invariant: len(Answers) == len(Scores) <= len(Questions) == QuestionNumber.
type InterviewSession struct {
	ID             string
	Topic          Topic
	Questions      []string
	Answers        []string
	Scores         []int
	QuestionNumber int
	ClientID       string
	CreatedAt      time.Time
	CompletedAt    *time.Time
	HintsUsed      map[int]struct{}
}

func (s *InterviewSession) MaxQuestions() int {
	return s.Topic.QuestionCount()
}

// CurrentQuestion is the question waiting for an answer (or the last one once complete).
func (s *InterviewSession) CurrentQuestion() string {
	if s.QuestionNumber < 1 || s.QuestionNumber > len(s.Questions) {
		return ""
	}
	return s.Questions[s.QuestionNumber-1]
}

// IsFinalQuestion reports whether answering the current question ends the interview.
func (s *InterviewSession) IsFinalQuestion() bool {
	return s.QuestionNumber >= s.MaxQuestions()
}

func (s *InterviewSession) IsComplete() bool {
	return s.CompletedAt != nil
}

func (s *InterviewSession) HintUsed(questionNumber int) bool {
	_, ok := s.HintsUsed[questionNumber]
	return ok
}

func (s *InterviewSession) AverageScore() float64 {
	if len(s.Scores) == 0 {
		return 0
	}
	total := 0
	for _, sc := range s.Scores {
		total += sc
	}
	return float64(total) / float64(len(s.Scores))
}

// Clone returns a deep copy so callers can read it without holding the store lock.
func (s *InterviewSession) Clone() *InterviewSession {
	c := *s
	c.Questions = append([]string(nil), s.Questions...)
	c.Answers = append([]string(nil), s.Answers...)
	c.Scores = append([]int(nil), s.Scores...)
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		c.CompletedAt = &at
	}
	c.HintsUsed = make(map[int]struct{}, len(s.HintsUsed))
	for k := range s.HintsUsed {
		c.HintsUsed[k] = struct{}{}
	}
	return &c
}
