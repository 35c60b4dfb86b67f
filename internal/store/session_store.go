package store

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/tapolio/tapolio-server/internal/model"
)

const idSuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

type SessionStoreConfig struct {
	TTL          time.Duration // sessions older than this vanish regardless of progress
	Grace        time.Duration // completed sessions stay readable this long
	MaxPerClient int
}

// SessionStore keeps interview sessions in process memory.
// All reads hand out clones; mutation only happens under mu.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*model.InterviewSession
	cfg      SessionStoreConfig
	now      func() time.Time
}

func NewSessionStore(cfg SessionStoreConfig, now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{
		sessions: make(map[string]*model.InterviewSession),
		cfg:      cfg,
		now:      now,
	}
}

// ActiveCount is the number of live sessions owned by clientID.
func (s *SessionStore) ActiveCount(clientID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCountLocked(clientID, s.now())
}

// AtCapacity reports whether clientID may not open another session right now.
func (s *SessionStore) AtCapacity(clientID string) bool {
	if s.cfg.MaxPerClient <= 0 {
		return false
	}
	return s.ActiveCount(clientID) >= s.cfg.MaxPerClient
}

func (s *SessionStore) activeCountLocked(clientID string, now time.Time) int {
	n := 0
	for _, sess := range s.sessions {
		if sess.ClientID == clientID && s.liveLocked(sess, now) {
			n++
		}
	}
	return n
}

// Create stores a new session positioned on its first question.
func (s *SessionStore) Create(topic model.Topic, clientID, firstQuestion string) (*model.InterviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.cfg.MaxPerClient > 0 && s.activeCountLocked(clientID, now) >= s.cfg.MaxPerClient {
		return nil, ErrTooManySessions
	}

	id := newSessionID(now)
	for _, taken := s.sessions[id]; taken; _, taken = s.sessions[id] {
		id = newSessionID(now)
	}

	sess := &model.InterviewSession{
		ID:             id,
		Topic:          topic,
		Questions:      []string{firstQuestion},
		Answers:        []string{},
		Scores:         []int{},
		QuestionNumber: 1,
		ClientID:       clientID,
		CreatedAt:      now,
		HintsUsed:      make(map[int]struct{}),
	}
	s.sessions[id] = sess
	return sess.Clone(), nil
}

func (s *SessionStore) Get(id string) (*model.InterviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getLocked(id)
	if err != nil {
		return nil, err
	}
	return sess.Clone(), nil
}

// RecordAnswer commits the evaluated answer for questionNumber.
// On the final question the session is marked complete and nextQuestion is ignored;
// otherwise nextQuestion becomes the new current question.
func (s *SessionStore) RecordAnswer(id string, questionNumber int, answer string, score int, nextQuestion string) (*model.InterviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getLocked(id)
	if err != nil {
		return nil, err
	}
	if sess.IsComplete() {
		return nil, ErrInterviewComplete
	}
	if sess.QuestionNumber != questionNumber || len(sess.Answers) != questionNumber-1 {
		return nil, ErrStaleAnswer
	}

	sess.Answers = append(sess.Answers, answer)
	sess.Scores = append(sess.Scores, score)

	if sess.IsFinalQuestion() {
		at := s.now()
		sess.CompletedAt = &at
	} else {
		sess.Questions = append(sess.Questions, nextQuestion)
		sess.QuestionNumber++
	}
	return sess.Clone(), nil
}

// UseHint consumes the hint allowance of the current question.
func (s *SessionStore) UseHint(id string) (*model.InterviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getLocked(id)
	if err != nil {
		return nil, err
	}
	if sess.HintUsed(sess.QuestionNumber) {
		return nil, ErrHintAlreadyUsed
	}
	sess.HintsUsed[sess.QuestionNumber] = struct{}{}
	return sess.Clone(), nil
}

// Len counts stored sessions, including ones waiting for the next sweep.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops expired sessions and completed ones past their grace delay.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if !s.liveLocked(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *SessionStore) Name() string {
	return "interview_sessions"
}

func (s *SessionStore) getLocked(id string) (*model.InterviewSession, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !s.liveLocked(sess, s.now()) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionStore) liveLocked(sess *model.InterviewSession, now time.Time) bool {
	if s.cfg.TTL > 0 && now.Sub(sess.CreatedAt) > s.cfg.TTL {
		return false
	}
	if sess.CompletedAt != nil && now.Sub(*sess.CompletedAt) >= s.cfg.Grace {
		return false
	}
	return true
}

// newSessionID is the creation time in milliseconds followed by a random base36 suffix.
func newSessionID(now time.Time) string {
	const suffixLen = 8
	buf := make([]byte, suffixLen)
	max := big.NewInt(int64(len(idSuffixAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			n = big.NewInt(now.UnixNano() % int64(len(idSuffixAlphabet)))
		}
		buf[i] = idSuffixAlphabet[n.Int64()]
	}
	return strconv.FormatInt(now.UnixMilli(), 10) + string(buf)
}
