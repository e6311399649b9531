package questiongen

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"courseforge/internal/store"
)

// batchPayload is the stored shape of one concept's batch.
type batchPayload struct {
	MCQ       []MCQQuestion       `json:"mcq"`
	TrueFalse []TrueFalseQuestion `json:"true_false"`
}

// GenerateChunked produces a chapter's question pool one key concept
// at a time. Large pools truncate when requested in a single response;
// per-concept calls keep each response small and localize failures.
//
// Each concept's batch is persisted as soon as it is generated, so a
// crash mid-chapter loses at most one concept. A failed concept is
// recorded and the loop continues; only a chapter with zero questions
// overall is an error. After the loop the batches are aggregated into
// the chapter pool and deleted.
func (g *Generator) GenerateChunked(ctx context.Context, gc GenerationConfig) (*Result, error) {
	if gc.Audience == "" || gc.Audience == "general learners" {
		gc.Audience = DeriveAudience(gc.Difficulty)
	}

	concepts := gc.KeyConcepts
	if len(concepts) == 0 {
		concepts = []string{gc.Topic}
	}
	n := len(concepts)

	mcqPer := max(2, gc.MCQCount/n)
	tfPer := max(1, gc.TFCount/n)

	// The integer split under- or over-shoots; the difference lands on
	// the last concept so the requested totals are preserved.
	leftoverMCQ := gc.MCQCount - mcqPer*n
	leftoverTF := gc.TFCount - tfPer*n

	result := &Result{ChapterQuestions: ChapterQuestions{
		ChapterNumber: gc.ChapterNumber,
		ChapterTitle:  gc.ChapterTitle,
	}}

	for i, concept := range concepts {
		mcqCount := mcqPer
		tfCount := tfPer
		if i == n-1 {
			mcqCount = max(0, mcqCount+leftoverMCQ)
			tfCount = max(0, tfCount+leftoverTF)
		}
		if mcqCount == 0 && tfCount == 0 {
			continue
		}

		conceptCfg := gc
		conceptCfg.ChapterTitle = fmt.Sprintf("%s - %s", gc.ChapterTitle, concept)
		conceptCfg.KeyConcepts = []string{concept}

		g.logger.Info("generating concept batch",
			zap.String("concept", concept),
			zap.Int("index", i+1),
			zap.Int("total", n))

		batch, err := g.generateOnce(ctx, buildConceptPrompt(conceptCfg, concept, mcqCount, tfCount), conceptCfg)
		if err == nil && g.questions != nil {
			err = g.saveBatch(ctx, gc, concept, batch)
		}
		if err != nil {
			g.logger.Error("concept batch failed",
				zap.String("concept", concept),
				zap.Error(err))
			result.FailedConcepts = append(result.FailedConcepts, concept)
			continue
		}

		result.MCQ = append(result.MCQ, batch.MCQ...)
		result.TrueFalse = append(result.TrueFalse, batch.TrueFalse...)
	}

	if len(result.MCQ) == 0 && len(result.TrueFalse) == 0 {
		return nil, fmt.Errorf("failed to generate any questions; failed concepts: %v", result.FailedConcepts)
	}

	if g.questions != nil {
		if err := g.aggregateBatches(ctx, gc); err != nil {
			return nil, fmt.Errorf("aggregate question batches: %w", err)
		}
	}

	return result, nil
}

func (g *Generator) saveBatch(ctx context.Context, gc GenerationConfig, concept string, batch *ChapterQuestions) error {
	payload, err := json.Marshal(batchPayload{MCQ: batch.MCQ, TrueFalse: batch.TrueFalse})
	if err != nil {
		return err
	}
	return g.questions.SaveBatch(ctx, &store.QuestionBatchRecord{
		ID:            uuid.NewString(),
		Topic:         gc.Topic,
		Difficulty:    string(gc.Difficulty),
		ChapterNumber: gc.ChapterNumber,
		KeyConcept:    concept,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	})
}

// aggregateBatches merges the persisted concept batches into the
// chapter's question pool, then removes the batches.
func (g *Generator) aggregateBatches(ctx context.Context, gc GenerationConfig) error {
	batches, err := g.questions.ListBatches(ctx, gc.Topic, string(gc.Difficulty), gc.ChapterNumber)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		return nil
	}

	merged := ChapterQuestions{
		ChapterNumber: gc.ChapterNumber,
		ChapterTitle:  gc.ChapterTitle,
	}
	for _, b := range batches {
		var p batchPayload
		if err := json.Unmarshal(b.Payload, &p); err != nil {
			return fmt.Errorf("decode batch %s: %w", b.KeyConcept, err)
		}
		merged.MCQ = append(merged.MCQ, p.MCQ...)
		merged.TrueFalse = append(merged.TrueFalse, p.TrueFalse...)
	}

	payload, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	err = g.questions.UpsertChapter(ctx, &store.ChapterQuestionsRecord{
		ID:            uuid.NewString(),
		Topic:         gc.Topic,
		Difficulty:    string(gc.Difficulty),
		ChapterNumber: gc.ChapterNumber,
		Payload:       payload,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return err
	}

	return g.questions.DeleteBatches(ctx, gc.Topic, string(gc.Difficulty), gc.ChapterNumber)
}
