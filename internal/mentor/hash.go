package mentor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
)

// WeakAreasHash computes the cache key component for a weak-area set.
// The hash is invariant to input order and to score noise below 0.01:
// areas are sorted by chapter number and scores rounded to two
// decimals before hashing, so only a real change in the user's scored
// chapters invalidates cached gap quizzes.
func WeakAreasHash(areas []WeakArea) string {
	type pair struct {
		chapter int
		score   float64
	}
	pairs := make([]pair, len(areas))
	for i, a := range areas {
		pairs[i] = pair{a.ChapterNumber, math.Round(a.Score*100) / 100}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].chapter != pairs[j].chapter {
			return pairs[i].chapter < pairs[j].chapter
		}
		return pairs[i].score < pairs[j].score
	})

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%d:%.2f", p.chapter, p.score)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
