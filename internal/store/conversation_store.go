package store

import (
	"strings"
	"sync"

	"github.com/tapolio/tapolio-server/internal/model"
)

// ConversationStore is the process-wide list of questions the assistant already answered.
type ConversationStore struct {
	mu      sync.RWMutex
	entries []model.ConversationEntry
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{entries: []model.ConversationEntry{}}
}

// NormalizeQuestion is the key repeated questions are matched on.
func NormalizeQuestion(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// Lookup returns the stored answer for an already normalized question.
func (c *ConversationStore) Lookup(question string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.Question == question {
			return e.Answer, true
		}
	}
	return "", false
}

// Add appends the entry unless the question is already present; it reports whether it was added.
func (c *ConversationStore) Add(question, answer string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.Question == question {
			return false
		}
	}
	c.entries = append(c.entries, model.ConversationEntry{Question: question, Answer: answer})
	return true
}

// Snapshot copies the conversation in insertion order.
func (c *ConversationStore) Snapshot() []model.ConversationEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.ConversationEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *ConversationStore) Reset() {
	c.mu.Lock()
	c.entries = []model.ConversationEntry{}
	c.mu.Unlock()
}
