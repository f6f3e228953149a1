package extract

import (
	"context"
	"strings"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/core/recipe"
	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"go.uber.org/zap"
)

// MaxTranscriptLength 逐字稿長度上限（字元）
const MaxTranscriptLength = 20000

// Completer 語言模型補全
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// TranscriptExtractor 由語音逐字稿匯入食譜
type TranscriptExtractor struct {
	llm Completer
}

// NewTranscriptExtractor 創建逐字稿匯入器
func NewTranscriptExtractor(llm Completer) *TranscriptExtractor {
	return &TranscriptExtractor{llm: llm}
}

// Extract 送出逐字稿並正規化模型回覆
func (x *TranscriptExtractor) Extract(ctx context.Context, transcript string) (result *recipe.ImportResult, err error) {
	start := time.Now()
	defer func() {
		observe(recipe.ExtractedFromVoice, start, err)
	}()

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, recipe.WrapError(recipe.ErrInvalidRecipe, "voice extraction", common.NewValidationError("transcript is required"))
	}
	if len([]rune(transcript)) > MaxTranscriptLength {
		return nil, recipe.WrapError(recipe.ErrInvalidRecipe, "voice extraction", common.NewValidationError("transcript is too long"))
	}

	reply, err := x.llm.Complete(ctx, transcriptPrompt, transcript)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, recipe.WrapError(recipe.ErrUpstreamUnreachable, "voice extraction", err)
	}

	payload := recipe.ParsePayload(reply)
	extracted, err := payload.Extracted()
	if err != nil {
		common.LogWarn("逐字稿擷取結果無效",
			zap.String("kind", payload.Kind.String()),
			zap.Int("reply_length", len(reply)),
			zap.Error(err),
		)
		return nil, err
	}

	draft := recipe.NormalizeExtracted(extracted)
	common.LogInfo("語音匯入完成",
		zap.String("title", draft.Title),
		zap.Int("ingredients", len(draft.Ingredients)),
		zap.Int("instructions", len(draft.Instructions)),
	)
	return &recipe.ImportResult{
		Recipe:        draft,
		Metadata:      extracted.Metadata,
		Transcript:    transcript,
		ExtractedFrom: recipe.ExtractedFromVoice,
	}, nil
}
