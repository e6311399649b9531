package questiongen

import "courseforge/internal/course"

// audienceDescriptions phrase the target audience per difficulty. The
// audience drives question vocabulary and length in the prompt.
var audienceDescriptions = map[course.Difficulty]string{
	course.Beginner:     "teenagers and beginners; use simple language, short questions, avoid jargon",
	course.Intermediate: "college students and working professionals; technical terms allowed, medium-length questions",
	course.Advanced:     "experienced professionals and experts; industry jargon acceptable, complex scenario-based questions allowed",
}

// DeriveAudience returns the audience description for a difficulty.
// Unknown difficulties get the intermediate audience.
func DeriveAudience(d course.Difficulty) string {
	if a, ok := audienceDescriptions[d]; ok {
		return a
	}
	return audienceDescriptions[course.Intermediate]
}
