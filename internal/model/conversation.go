package model

// ConversationEntry is one answered question of the live assistant.
// Question is stored lower-cased so repeats can be matched.
type ConversationEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
