package service

import (
	"fmt"
	"strings"

	"github.com/tapolio/tapolio-server/internal/model"
)

// NotAQuestion is the detector's reply for transcripts without a question.
const NotAQuestion = "NOT_A_QUESTION"

type promptParams struct {
	Temperature float32
	MaxTokens   int
}

var (
	detectParams   = promptParams{Temperature: 0.1, MaxTokens: 100}
	answerParams   = promptParams{Temperature: 0.3, MaxTokens: 250}
	questionParams = promptParams{Temperature: 0.7, MaxTokens: 150}
	evaluateParams = promptParams{Temperature: 0.3, MaxTokens: 300}
	hintParams     = promptParams{Temperature: 0.7, MaxTokens: 100}
)

func newRequest(purpose, prompt string, p promptParams) CompletionRequest {
	return CompletionRequest{
		Purpose:     purpose,
		Prompt:      prompt,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	}
}

func detectionPrompt(transcript string) string {
	return fmt.Sprintf(`Analyze this transcript and determine if it contains a technical question.

Transcript: "%s"

If it contains a question:
- Reply with just the question in a clear, concise form
- Add a question mark if missing
- If multiple questions, extract the LAST one only

If it does NOT contain a question:
- Reply with exactly: "%s"

Your response:`, transcript, NotAQuestion)
}

func answerPrompt(question string) string {
	return fmt.Sprintf(`
You are Tapolio, a fast technical assistant for developers.

User transcript (may contain multiple questions spoken naturally):
"%s"

INSTRUCTIONS:
1. First, identify if this contains multiple distinct questions
2. If multiple questions detected, answer each one separately using this format:

**Q1:** [first question restated concisely]
**A1:** [answer - 2-4 sentences]

**Q2:** [second question]
**A2:** [answer]

(continue for all questions found)

3. If only ONE question, just answer it directly in 3-6 sentences without the Q/A format.

For each answer:
- Definitions: Explain briefly with an example
- How-to: Give 3-5 key steps
- Troubleshooting: Identify causes and solutions
- Math/simple questions: Give the direct answer

Be concise, direct, and actionable. No fluff.
`, question)
}

// questionPrompt asks for question number n; previous holds everything asked so far.
func questionPrompt(topic model.Topic, n int, previous []string) string {
	var sb strings.Builder
	total := topic.QuestionCount()

	if topic.IsWarmUp() {
		sb.WriteString("Generate an extremely simple general knowledge question suitable for anyone.\n")
		fmt.Fprintf(&sb, "This is question %d of %d.\n", n, total)
		if len(previous) == 0 {
			sb.WriteString(`Examples: "What color is grass?", "How many days are in a week?", "What is the capital of France?"` + "\n")
			sb.WriteString("Make it easy and fun - this is a warm-up quiz.\n")
		} else {
			sb.WriteString("Make it easy, fun, and different from previous questions.\n")
			fmt.Fprintf(&sb, "Previous questions: %s\n", strings.Join(previous, "; "))
			sb.WriteString(`Examples: "What sound does a dog make?", "How many legs does a spider have?", "What is 2 + 2?"` + "\n")
		}
		sb.WriteString("Just return the question, nothing else.")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Generate a verbal interview question about %s.\n", topic)
	fmt.Fprintf(&sb, "This is question %d of %d in a SPOKEN interview (not a coding test).\n\n", n, total)
	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Ask about concepts, explanations, or experiences\n")
	sb.WriteString("- DO NOT ask for code examples or implementations\n")
	sb.WriteString("- Questions should be answerable in 1-2 spoken sentences\n")
	if len(previous) == 0 {
		sb.WriteString("- Focus on understanding, not memorization\n\n")
	} else {
		sb.WriteString("- Make it different from previous topics\n\n")
		fmt.Fprintf(&sb, "Previous questions: %s\n", strings.Join(previous, "; "))
	}
	sb.WriteString("Just return the question, nothing else.")
	return sb.String()
}

func evaluationPrompt(topic model.Topic, question, answer string) string {
	if topic.IsWarmUp() {
		return fmt.Sprintf(`You are evaluating a simple general knowledge question. This is meant to be easy and fun.

Question: %s
Answer: %s

IMPORTANT: Be generous with scoring. Any reasonable answer should get a high score (8-10).
For example: "What color is grass?" -> "green" = 10/10

Evaluate:
1. Score 9-10 if the answer is correct
2. Score 7-8 if partially correct or close
3. Score below 7 only if completely wrong

Format your response as:
SCORE: [number]
FEEDBACK: [1-2 sentences of encouragement]`, question, answer)
	}

	return fmt.Sprintf(`You are evaluating a technical interview answer about %s.

Question: %s
Candidate's Answer: %s

Evaluate the answer and provide:
1. A score from 0-10 (be fair but realistic)
2. Constructive feedback that includes:
   - What they got right (if anything)
   - Key points they missed or should have mentioned
   - A brief example or explanation of the correct answer to help them learn

Keep feedback to 3-4 sentences. Be educational and encouraging.

Format your response as:
SCORE: [number]
FEEDBACK: [your feedback]`, topic, question, answer)
}

func hintPrompt(question string) string {
	return fmt.Sprintf(`You are helping someone answer this interview question: "%s"

Give a helpful hint (1-2 sentences) that guides them toward a good answer without giving away the full response. Be encouraging and specific.`, question)
}
