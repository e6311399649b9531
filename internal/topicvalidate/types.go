package topicvalidate

// Status is the validation outcome.
type Status string

const (
	StatusAccepted           Status = "accepted"
	StatusRejected           Status = "rejected"
	StatusNeedsClarification Status = "needs_clarification"
)

// Reason explains a non-accepted outcome.
type Reason string

const (
	ReasonTooBroad      Reason = "too_broad"
	ReasonTooNarrow     Reason = "too_narrow"
	ReasonUnclear       Reason = "unclear"
	ReasonInappropriate Reason = "inappropriate"
)

// Category classifies the topic's educational level.
type Category string

const (
	CategoryCertification    Category = "official_certification"
	CategoryCollegeCourse    Category = "college_course"
	CategoryHighSchool       Category = "high_school"
	CategoryMiddleSchool     Category = "middle_school"
	CategoryElementarySchool Category = "elementary_school"
	CategoryGeneralKnowledge Category = "general_knowledge"
)

var knownCategories = map[Category]bool{
	CategoryCertification:    true,
	CategoryCollegeCourse:    true,
	CategoryHighSchool:       true,
	CategoryMiddleSchool:     true,
	CategoryElementarySchool: true,
	CategoryGeneralKnowledge: true,
}

// Complexity is the model's sizing assessment of a valid topic. Score
// feeds the course configurator.
type Complexity struct {
	Score             int     `json:"score"` // 1..10
	Level             string  `json:"level"`
	EstimatedChapters int     `json:"estimated_chapters"`
	EstimatedHours    float64 `json:"estimated_hours"`
	Reasoning         string  `json:"reasoning"`
}

// Result is the full validation outcome for one topic.
type Result struct {
	Status            Status      `json:"status"`
	Topic             string      `json:"topic"`
	NormalizedTopic   string      `json:"normalized_topic"`
	Reason            Reason      `json:"reason,omitempty"`
	Message           string      `json:"message"`
	Suggestions       []string    `json:"suggestions,omitempty"`
	Complexity        *Complexity `json:"complexity,omitempty"`
	IsCertification   bool        `json:"is_certification,omitempty"`
	CertificationBody string      `json:"certification_body,omitempty"`
	Category          Category    `json:"category,omitempty"`
}
