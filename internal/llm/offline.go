package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// OfflineProvider serves the "mock" provider mode: deterministic
// template responses so the whole pipeline runs without an API key.
// Requested counts, topics and chapter numbers are read back out of
// the prompt the calling service built, so downstream parsing,
// caching and persistence behave exactly as against a real model.
//
// Tests that need scripted responses use MockProvider instead.
type OfflineProvider struct{}

// NewOfflineProvider creates the offline template provider.
func NewOfflineProvider() *OfflineProvider {
	return &OfflineProvider{}
}

func (o *OfflineProvider) ModelID() string {
	return "mock"
}

func (o *OfflineProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	prompt := lastUserMessage(req)

	var content []byte
	switch AttributionFrom(ctx).Operation {
	case OpChapterGeneration:
		content = offlineChapters(prompt)
	case OpQuestionGeneration:
		content = offlineQuestions(prompt)
	case OpQuestionCountAnalysis:
		content = offlineCounts(prompt)
	case OpDocumentAnalysis:
		content = offlineOutline(prompt)
	case OpStudentFeedback:
		content = []byte(offlineFeedback(prompt))
	case OpGapQuiz:
		content = offlineGapQuiz(prompt)
	case OpAnswerChecking:
		content = offlineEvaluation(prompt)
	case OpRAGQuery:
		content = []byte(offlineAnswer(prompt))
	case OpTopicValidation:
		content = offlineValidation(prompt)
	default:
		content = []byte(`{}`)
	}

	return &Response{
		Content:    json.RawMessage(content),
		Usage:      estimateUsage(prompt, content),
		Model:      "mock",
		StopReason: "end",
	}, nil
}

func lastUserMessage(req Request) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			return req.Messages[i].Content
		}
	}
	return req.System
}

// estimateUsage approximates tokens at four characters each, so the
// usage ledger carries plausible non-zero numbers in offline mode.
func estimateUsage(prompt string, content []byte) Usage {
	in := len(prompt) / 4
	out := len(content) / 4
	return Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out}
}

var (
	offlineTopicRe         = regexp.MustCompile(`(?m)^(?:TOPIC|Topic): (.+)$`)
	offlineQuotedTopicRe   = regexp.MustCompile(`Topic: "(.+?)"`)
	offlineChapterCountRe  = regexp.MustCompile(`exactly (\d+) chapters`)
	offlineMinutesRe       = regexp.MustCompile(`Time per chapter: (\d+) minutes`)
	offlineBatchMinutesRe  = regexp.MustCompile(`estimated_time_minutes: (\d+)`)
	offlineChapterLineRe   = regexp.MustCompile(`(?m)^Chapter (\d+): (.+)$`)
	offlineCourseOnRe      = regexp.MustCompile(`course on (.+?)\.\n`)
	offlineConceptRe       = regexp.MustCompile(`about the concept "(.+?)"`)
	offlineMCQCountRe      = regexp.MustCompile(`- (\d+) Multiple Choice Questions`)
	offlineTFCountRe       = regexp.MustCompile(`- (\d+) True/False Questions`)
	offlineGapCountRe      = regexp.MustCompile(`Generate EXACTLY (\d+) multiple choice questions`)
	offlineWeakChapterRe   = regexp.MustCompile(`(?m)^- Chapter (\d+): (.+) \(scored`)
	offlineMaxSectionsRe   = regexp.MustCompile(`between 3 and (\d+) sections`)
	offlineBatchDiffRe     = regexp.MustCompile(`- difficulty: "(.+?)"`)
	offlineScoreRe         = regexp.MustCompile(`Overall Score: (\d+)%`)
	offlineWeakAreasRe     = regexp.MustCompile(`(?m)^- Weak Areas: (.+)$`)
	offlineStudentAnswerRe = regexp.MustCompile(`(?m)^Student Answer: (.+)$`)
	offlineCorrectAnswerRe = regexp.MustCompile(`(?m)^Correct Answer: (.+)$`)
	offlineQuestionRe      = regexp.MustCompile(`(?m)^Student's Question: (.+)$`)
)

func matchString(re *regexp.Regexp, prompt, def string) string {
	if m := re.FindStringSubmatch(prompt); m != nil {
		return strings.TrimSpace(m[1])
	}
	return def
}

func matchInt(re *regexp.Regexp, prompt string, def int) int {
	if m := re.FindStringSubmatch(prompt); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return def
}

var offlineTitleTemplates = []string{
	"Introduction to %s",
	"Core Concepts of %s",
	"%s in Practice",
	"Common Patterns in %s",
	"Advanced %s",
	"Troubleshooting %s",
	"%s Case Studies",
	"Mastering %s",
}

func offlineChapterTitle(topic string, i int) string {
	title := fmt.Sprintf(offlineTitleTemplates[i%len(offlineTitleTemplates)], topic)
	if round := i / len(offlineTitleTemplates); round > 0 {
		title = fmt.Sprintf("%s (Part %d)", title, round+1)
	}
	return title
}

type offlineChapter struct {
	Number           int      `json:"number"`
	Title            string   `json:"title"`
	Summary          string   `json:"summary"`
	KeyConcepts      []string `json:"key_concepts"`
	KeyIdeas         []string `json:"key_ideas"`
	SourceExcerpt    string   `json:"source_excerpt,omitempty"`
	Difficulty       string   `json:"difficulty,omitempty"`
	EstimatedMinutes int      `json:"estimated_time_minutes"`
}

func offlineChapterBody(topic, title string) ([]string, []string) {
	concepts := []string{
		fmt.Sprintf("%s terminology", topic),
		fmt.Sprintf("How %s works", topic),
		fmt.Sprintf("Applying %s", topic),
	}
	ideas := []string{
		fmt.Sprintf("%s builds on the fundamentals of %s.", title, topic),
		fmt.Sprintf("The core vocabulary of %s has precise definitions.", topic),
		fmt.Sprintf("%s follows a small set of governing principles.", topic),
		fmt.Sprintf("Practical work in %s applies those principles to real cases.", topic),
		fmt.Sprintf("Common mistakes in %s come from skipping the basics.", topic),
	}
	return concepts, ideas
}

// offlineChapters answers both chapter generation shapes: topic-driven
// courses and document-confirmed batches, told apart by the batch
// prompt's chapter listing.
func offlineChapters(prompt string) []byte {
	topic := matchString(offlineTopicRe, prompt, "the subject")
	minutes := matchInt(offlineMinutesRe, prompt, matchInt(offlineBatchMinutesRe, prompt, 15))

	var chapters []offlineChapter
	if strings.Contains(prompt, "CHAPTERS TO GENERATE") {
		difficulty := matchString(offlineBatchDiffRe, prompt, "")
		for _, m := range offlineChapterLineRe.FindAllStringSubmatch(prompt, -1) {
			number, _ := strconv.Atoi(m[1])
			title := strings.TrimSpace(m[2])
			concepts, ideas := offlineChapterBody(topic, title)
			chapters = append(chapters, offlineChapter{
				Number:           number,
				Title:            title,
				Summary:          fmt.Sprintf("This chapter covers %s as part of %s.", title, topic),
				KeyConcepts:      concepts,
				KeyIdeas:         ideas,
				SourceExcerpt:    fmt.Sprintf("Key material on %s from the source document.", title),
				Difficulty:       difficulty,
				EstimatedMinutes: minutes,
			})
		}
	}
	if len(chapters) == 0 {
		count := matchInt(offlineChapterCountRe, prompt, 5)
		for i := 0; i < count; i++ {
			title := offlineChapterTitle(topic, i)
			concepts, ideas := offlineChapterBody(topic, title)
			chapters = append(chapters, offlineChapter{
				Number:           i + 1,
				Title:            title,
				Summary:          fmt.Sprintf("This chapter explains %s and how it fits into %s overall.", title, topic),
				KeyConcepts:      concepts,
				KeyIdeas:         ideas,
				EstimatedMinutes: minutes,
			})
		}
	}

	out, _ := json.Marshal(map[string]any{"chapters": chapters})
	return out
}

// offlineDifficulties cycles roughly 30% easy, 50% medium, 20% hard.
var offlineDifficulties = []string{
	"easy", "medium", "medium", "hard", "easy",
	"medium", "medium", "hard", "easy", "medium",
}

type offlineMCQ struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"`
}

type offlineTrueFalse struct {
	QuestionText  string `json:"question_text"`
	CorrectAnswer bool   `json:"correct_answer"`
	Explanation   string `json:"explanation"`
	Difficulty    string `json:"difficulty"`
}

func offlineMCQFor(subject string, i int) offlineMCQ {
	correct := i % 4
	options := make([]string, 4)
	for j := 0; j < 4; j++ {
		letter := string(rune('A' + j))
		if j == correct {
			options[j] = fmt.Sprintf("%s) An accurate statement about %s", letter, subject)
		} else {
			options[j] = fmt.Sprintf("%s) A plausible but incorrect claim about %s", letter, subject)
		}
	}
	answer := string(rune('A' + correct))
	return offlineMCQ{
		QuestionText:  fmt.Sprintf("Which statement about %s is correct? (question %d)", subject, i+1),
		Options:       options,
		CorrectAnswer: answer,
		Explanation:   fmt.Sprintf("Option %s is the accurate statement about %s.", answer, subject),
		Difficulty:    offlineDifficulties[i%len(offlineDifficulties)],
	}
}

func offlineTrueFalseFor(subject string, i int) offlineTrueFalse {
	answer := i%2 == 0
	text := fmt.Sprintf("%s has well-defined core principles. (statement %d)", subject, i+1)
	explanation := fmt.Sprintf("The statement reflects how %s is described in the chapter.", subject)
	if !answer {
		text = fmt.Sprintf("%s works the same way in every situation. (statement %d)", subject, i+1)
		explanation = fmt.Sprintf("%s varies with context, so the statement is false.", subject)
	}
	return offlineTrueFalse{
		QuestionText:  text,
		CorrectAnswer: answer,
		Explanation:   explanation,
		Difficulty:    offlineDifficulties[i%len(offlineDifficulties)],
	}
}

func offlineQuestions(prompt string) []byte {
	subject := matchString(offlineConceptRe, prompt, "")
	if subject == "" {
		if m := offlineChapterLineRe.FindStringSubmatch(prompt); m != nil {
			subject = strings.TrimSpace(m[2])
		}
	}
	if subject == "" {
		subject = matchString(offlineCourseOnRe, prompt, "the chapter material")
	}

	mcqCount := matchInt(offlineMCQCountRe, prompt, 5)
	tfCount := matchInt(offlineTFCountRe, prompt, 3)

	mcq := make([]offlineMCQ, mcqCount)
	for i := range mcq {
		mcq[i] = offlineMCQFor(subject, i)
	}
	tf := make([]offlineTrueFalse, tfCount)
	for i := range tf {
		tf[i] = offlineTrueFalseFor(subject, i)
	}

	out, _ := json.Marshal(map[string]any{"mcq": mcq, "true_false": tf})
	return out
}

func offlineCounts(prompt string) []byte {
	subject := matchString(offlineCourseOnRe, prompt, "the chapter")
	out, _ := json.Marshal(map[string]any{
		"mcq_count":        10,
		"true_false_count": 5,
		"reasoning":        fmt.Sprintf("Standard pool size for a chapter of %s.", subject),
	})
	return out
}

type offlineSection struct {
	Order      int      `json:"order"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	KeyTopics  []string `json:"key_topics"`
	Confidence float64  `json:"confidence"`
}

// offlineOutline slices the embedded document into evenly sized
// sections, titling each from its leading line.
func offlineOutline(prompt string) []byte {
	content := prompt
	if _, after, ok := strings.Cut(prompt, "DOCUMENT CONTENT:\n"); ok {
		content = after
	}
	if before, _, ok := strings.Cut(content, "\n\nINSTRUCTIONS:"); ok {
		content = before
	}

	title := "Uploaded Document"
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			title = firstLineTitle(line)
			break
		}
	}

	maxSections := matchInt(offlineMaxSectionsRe, prompt, 20)
	paragraphs := splitParagraphs(content)
	count := len(paragraphs) / 2
	if count < 3 {
		count = 3
	}
	if count > maxSections {
		count = maxSections
	}

	sections := make([]offlineSection, count)
	for i := range sections {
		sectionTitle := fmt.Sprintf("Part %d", i+1)
		if len(paragraphs) > 0 {
			p := paragraphs[i*len(paragraphs)/count]
			sectionTitle = firstLineTitle(p)
		}
		sections[i] = offlineSection{
			Order:      i + 1,
			Title:      sectionTitle,
			Summary:    fmt.Sprintf("Covers %s.", sectionTitle),
			KeyTopics:  []string{sectionTitle, "key definitions", "worked examples"},
			Confidence: 0.5,
		}
	}

	out, _ := json.Marshal(map[string]any{
		"document_title":               title,
		"document_type":                "other",
		"total_sections":               count,
		"estimated_total_time_minutes": count * 15,
		"analysis_notes":               "Sections derived from document layout.",
		"sections":                     sections,
	})
	return out
}

func splitParagraphs(content string) []string {
	var out []string
	for _, p := range strings.Split(content, "\n\n") {
		if p = strings.TrimSpace(p); len(p) >= 40 {
			out = append(out, p)
		}
	}
	return out
}

func firstLineTitle(p string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(p), "\n")
	line = strings.TrimSpace(line)
	if len(line) > 80 {
		line = line[:80]
	}
	return line
}

func offlineFeedback(prompt string) string {
	score := matchInt(offlineScoreRe, prompt, 0)
	weak := matchString(offlineWeakAreasRe, prompt, "None")

	var b strings.Builder
	fmt.Fprintf(&b, "You're averaging %d%% across the chapters you've completed, which shows real progress. ", score)
	b.WriteString("Keep the same steady pace and your understanding will keep compounding.\n\n")
	if weak != "None" && weak != "" {
		fmt.Fprintf(&b, "Focus your next review sessions on: %s. ", weak)
		b.WriteString("Reread the chapter summaries, then retake the quizzes until you score above 70%.\n\n")
	}
	if score >= 70 {
		b.WriteString("Readiness: you're on track. One more full review pass and you'll be ready for the exam.")
	} else {
		b.WriteString("Readiness: not quite yet. Close the gaps above before attempting the exam.")
	}
	return b.String()
}

type offlineGapQuestion struct {
	ChapterNumber int      `json:"chapter_number"`
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Hint          string   `json:"hint,omitempty"`
	Difficulty    string   `json:"difficulty"`
}

func offlineGapQuiz(prompt string) []byte {
	count := matchInt(offlineGapCountRe, prompt, 5)
	includeHints := strings.Contains(prompt, `"hint"`)

	type weakChapter struct {
		number int
		title  string
	}
	var weak []weakChapter
	for _, m := range offlineWeakChapterRe.FindAllStringSubmatch(prompt, -1) {
		n, _ := strconv.Atoi(m[1])
		weak = append(weak, weakChapter{number: n, title: strings.TrimSpace(m[2])})
	}
	if len(weak) == 0 {
		weak = []weakChapter{{number: 1, title: "the weak material"}}
	}

	questions := make([]offlineGapQuestion, count)
	for i := range questions {
		target := weak[i%len(weak)]
		base := offlineMCQFor(target.title, i)
		q := offlineGapQuestion{
			ChapterNumber: target.number,
			QuestionText:  base.QuestionText,
			Options:       base.Options,
			CorrectAnswer: base.CorrectAnswer,
			Explanation:   base.Explanation,
			Difficulty:    "medium",
		}
		if includeHints {
			q.Hint = fmt.Sprintf("Revisit the summary of %s.", target.title)
		}
		questions[i] = q
	}

	out, _ := json.Marshal(map[string]any{"questions": questions})
	return out
}

func offlineEvaluation(prompt string) []byte {
	student := strings.ToLower(matchString(offlineStudentAnswerRe, prompt, ""))
	correct := strings.ToLower(matchString(offlineCorrectAnswerRe, prompt, ""))

	score := 0.0
	explanation := "The answer does not match the expected one."
	switch {
	case student != "" && student == correct:
		score = 1.0
		explanation = "The answer matches the expected one exactly."
	case student != "" && correct != "" &&
		(strings.Contains(correct, student) || strings.Contains(student, correct)):
		score = 0.5
		explanation = "The answer covers part of the expected one."
	}

	out, _ := json.Marshal(map[string]any{
		"is_correct":  score == 1.0,
		"explanation": explanation,
		"score":       score,
	})
	return out
}

func offlineAnswer(prompt string) string {
	question := matchString(offlineQuestionRe, prompt, "your question")

	material := ""
	if _, after, ok := strings.Cut(prompt, "Context from the learning material:\n"); ok {
		if before, _, ok := strings.Cut(after, "\n\nStudent's Question:"); ok {
			material = strings.TrimSpace(before)
		}
	}
	if material == "" {
		return fmt.Sprintf("The provided material does not contain enough information to answer %q.", question)
	}
	if sentence, _, ok := strings.Cut(material, ". "); ok {
		material = sentence + "."
	}
	return fmt.Sprintf("Based on the course material: %s", material)
}

func offlineValidation(prompt string) []byte {
	topic := matchString(offlineQuotedTopicRe, prompt, "the topic")
	out, _ := json.Marshal(map[string]any{
		"is_valid":           true,
		"is_certification":   false,
		"certification_body": "",
		"category":           "general_knowledge",
		"reason":             "",
		"message":            fmt.Sprintf("%q works well as a focused course.", topic),
		"suggestions":        []string{},
		"complexity": map[string]any{
			"score":              5,
			"level":              "intermediate",
			"estimated_chapters": 7,
			"estimated_hours":    5,
			"reasoning":          "Moderate default sizing for offline mode.",
		},
	})
	return out
}
