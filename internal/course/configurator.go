package course

import "math"

// Preset is the structural template for one difficulty level.
type Preset struct {
	MinChapters       int
	MaxChapters       int
	MinutesPerChapter int
	Depth             Depth
}

// presets define the chapter range, pacing and depth per difficulty.
var presets = map[Difficulty]Preset{
	Beginner:     {MinChapters: 4, MaxChapters: 6, MinutesPerChapter: 25, Depth: DepthOverview},
	Intermediate: {MinChapters: 6, MaxChapters: 8, MinutesPerChapter: 45, Depth: DepthDetailed},
	Advanced:     {MinChapters: 8, MaxChapters: 12, MinutesPerChapter: 90, Depth: DepthComprehensive},
}

// PresetFor returns the preset for a difficulty. Unknown difficulties
// fall back to intermediate.
func PresetFor(d Difficulty) Preset {
	if p, ok := presets[d]; ok {
		return p
	}
	return presets[Intermediate]
}

// Configure sizes a course from a topic complexity score (1-10) and
// the requested difficulty. No model calls: sizing is deterministic so
// two users asking for the same course get the same shape.
func Configure(complexityScore int, difficulty Difficulty) Config {
	preset, ok := presets[difficulty]
	if !ok {
		preset = presets[Intermediate]
		difficulty = Intermediate
	}

	chapters := chaptersForComplexity(complexityScore, preset)
	totalMinutes := chapters * preset.MinutesPerChapter

	return Config{
		Difficulty:          difficulty,
		NumChapters:         chapters,
		MinutesPerChapter:   preset.MinutesPerChapter,
		Depth:               preset.Depth,
		EstimatedStudyHours: math.Round(float64(totalMinutes)/60*10) / 10,
	}
}

// chaptersForComplexity maps a 1-10 complexity score into the preset's
// chapter range: the bottom for scores up to 3, the lower half for 4-6,
// and the upper half for 7-10.
func chaptersForComplexity(score int, preset Preset) int {
	complexity := max(1, min(10, score))
	chapterRange := preset.MaxChapters - preset.MinChapters

	switch {
	case complexity <= 3:
		return preset.MinChapters
	case complexity <= 6:
		progress := float64(complexity-3) / 3
		additional := int(float64(chapterRange) * progress * 0.5)
		return preset.MinChapters + additional
	default:
		progress := float64(complexity-6) / 4
		additional := int(float64(chapterRange) * (0.5 + progress*0.5))
		return preset.MinChapters + additional
	}
}
