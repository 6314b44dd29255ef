package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_Empty(t *testing.T) {
	assert.Nil(t, ChunkText("", DefaultChunkConfig()))
	assert.Nil(t, ChunkText("   \n\n  ", DefaultChunkConfig()))
}

func TestChunkText_ShortTextSingleChunk(t *testing.T) {
	text := strings.Repeat("生命线深而清晰代表体质强健。", 10)
	chunks := ChunkText(text, DefaultChunkConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunkText_LongTextBoundedChunks(t *testing.T) {
	// 2000 runes of sentence-separated text must produce at least 3
	// chunks, each within the 800-rune maximum.
	var b strings.Builder
	for utf8.RuneCountInString(b.String()) < 2000 {
		b.WriteString("手相学认为生命线的弧度反映一个人的生命力与热情。")
	}
	text := b.String()

	cfg := DefaultChunkConfig()
	chunks := ChunkText(text, cfg)

	require.GreaterOrEqual(t, len(chunks), 3)
	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), cfg.MaxChars, "chunk %d too long", i)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestChunkText_OverlapMarker(t *testing.T) {
	var b strings.Builder
	for utf8.RuneCountInString(b.String()) < 1600 {
		b.WriteString("智慧线与生命线的起点关系揭示性格中的独立倾向。")
	}
	chunks := ChunkText(b.String(), DefaultChunkConfig())

	require.GreaterOrEqual(t, len(chunks), 2)
	for _, c := range chunks[1:] {
		assert.True(t, strings.HasPrefix(c, "..."), "continuation chunk should carry the overlap marker")
	}
}

func TestChunkText_ContentPreserved(t *testing.T) {
	// Re-concatenating chunks minus overlap markers recovers at least the
	// original content, apart from discarded sub-minimum fragments.
	var b strings.Builder
	for utf8.RuneCountInString(b.String()) < 2400 {
		b.WriteString("感情线末端分叉往往并非坏事，代表情感表达的多样性。")
	}
	text := b.String()

	cfg := DefaultChunkConfig()
	chunks := ChunkText(text, cfg)
	require.NotEmpty(t, chunks)

	total := 0
	for _, c := range chunks {
		c = strings.TrimPrefix(c, "...")
		total += utf8.RuneCountInString(c)
	}
	// Overlap duplicates content, so the sum must cover the original.
	assert.GreaterOrEqual(t, total, utf8.RuneCountInString(text)-cfg.MinChars)
}

func TestChunkText_AtomicOversizedPiece(t *testing.T) {
	// A single run with no separators longer than MaxChars is emitted
	// whole rather than split mid-sentence.
	atomic := strings.Repeat("掌", 900)
	cfg := DefaultChunkConfig()

	chunks := ChunkText(atomic, cfg)
	require.Len(t, chunks, 1)
	assert.Equal(t, 900, utf8.RuneCountInString(chunks[0]))
}

func TestChunkText_DiscardsShortFragments(t *testing.T) {
	chunks := ChunkText("太短", DefaultChunkConfig())
	assert.Empty(t, chunks)
}

func TestChunkText_NormalizesLineEndings(t *testing.T) {
	text := "生命线起于拇指与食指之间，环绕金星丘而行，其深浅反映生命力。\r\n\r\n\r\n智慧线横贯手掌中央，主导思维方式与判断力的表现形态特征。"
	chunks := ChunkText(text, DefaultChunkConfig())

	require.Len(t, chunks, 1)
	assert.NotContains(t, chunks[0], "\r")
}
