package model

// Topic is the discipline a mock interview is about.
type Topic string

const (
	TopicGeneralKnowledge Topic = "General Knowledge"

	generalKnowledgeQuestionCount = 3
	defaultQuestionCount          = 5
)

// AllowedTopics is the closed set accepted by /interview/start, in display order.
var AllowedTopics = []Topic{
	"React",
	"Angular",
	"Product Owner",
	"Product Manager",
	"Business Analysis",
	"QA Tester",
	"Solution Architect",
	"Scrum Master",
	"DevOps Engineer",
	"Data Analyst",
	TopicGeneralKnowledge,
	"Java Developer",
	"ServiceNow Developer",
	"Python Developer",
	"Node.js Developer",
	"SQL Developer",
	"AWS Solutions Architect",
}

var allowedTopicSet = func() map[Topic]struct{} {
	set := make(map[Topic]struct{}, len(AllowedTopics))
	for _, t := range AllowedTopics {
		set[t] = struct{}{}
	}
	return set
}()

// ParseTopic matches raw exactly (case sensitive) against AllowedTopics.
func ParseTopic(raw string) (Topic, bool) {
	t := Topic(raw)
	_, ok := allowedTopicSet[t]
	return t, ok
}

// QuestionCount is the fixed length of an interview on this topic.
func (t Topic) QuestionCount() int {
	if t == TopicGeneralKnowledge {
		return generalKnowledgeQuestionCount
	}
	return defaultQuestionCount
}

func (t Topic) IsWarmUp() bool {
	return t == TopicGeneralKnowledge
}

func (t Topic) String() string {
	return string(t)
}
