package prompt

import (
	"strings"
	"testing"

	"github.com/palmlore/palmd/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestHandTypeText(t *testing.T) {
	assert.Equal(t, "惯用手", HandTypeText(domain.HandDominant))
	assert.Equal(t, "非惯用手", HandTypeText(domain.HandNonDominant))
}

func TestAnalysisTypeText(t *testing.T) {
	assert.Equal(t, "事业财运", AnalysisTypeText(domain.AnalysisCareer))
	assert.Equal(t, "感情婚姻", AnalysisTypeText(domain.AnalysisLove))
	assert.Equal(t, "健康活力", AnalysisTypeText(domain.AnalysisHealth))
	assert.Equal(t, "综合分析", AnalysisTypeText(domain.AnalysisComprehensive))
}

func TestGenderText(t *testing.T) {
	assert.Equal(t, "男性", GenderText("male"))
	assert.Equal(t, "女性", GenderText("female"))
	assert.Empty(t, GenderText(""))
	assert.Empty(t, GenderText("other"))
}

func TestKnowledgeBlock_Empty(t *testing.T) {
	assert.Empty(t, KnowledgeBlock(nil))
	assert.Empty(t, KnowledgeBlock([]*domain.KnowledgeItem{}))
}

func TestKnowledgeBlock_Formatting(t *testing.T) {
	items := []*domain.KnowledgeItem{
		{
			Title:      "生命线解读",
			Category:   domain.CategoryPalmLines,
			Keywords:   []string{"生命线", "体质"},
			Content:    "生命线深而清晰代表体质强健。",
			Similarity: 0.873,
		},
		{
			Title:    "木星丘与领导力",
			Category: domain.CategoryMounts,
			Content:  "木星丘饱满者具有天然的领导气质。",
		},
	}

	block := KnowledgeBlock(items)

	assert.Contains(t, block, "[专业知识库参考]")
	assert.Contains(t, block, "1. 生命线解读")
	assert.Contains(t, block, "分类: palm_lines | 关键词: 生命线, 体质")
	assert.Contains(t, block, "相关度: 87.3%")
	assert.Contains(t, block, "2. 木星丘与领导力")
	assert.Contains(t, block, "关键词: 无")
	assert.Contains(t, block, "请基于以上专业知识进行分析")

	// Similarity line only appears when a score is present.
	assert.Equal(t, 1, strings.Count(block, "相关度"))
}

func TestFull_SlotSubstitution(t *testing.T) {
	out := Full(Slots{
		Age:          34,
		Gender:       "male",
		HandType:     domain.HandDominant,
		AnalysisType: domain.AnalysisCareer,
	})

	assert.Contains(t, out, "34岁的男性用户")
	assert.Contains(t, out, "惯用手")
	assert.Contains(t, out, "事业财运深度分析")
	assert.Contains(t, out, "[SYSTEM INITIALIZATION]")
	assert.Contains(t, out, "[PHASE 4: OUTPUT GENERATION]")
	assert.NotContains(t, out, "[专业知识库参考]")
}

func TestFull_WithKnowledge(t *testing.T) {
	out := Full(Slots{
		Age:          51,
		HandType:     domain.HandNonDominant,
		AnalysisType: domain.AnalysisHealth,
		Knowledge: []*domain.KnowledgeItem{
			{Title: "健康线", Category: domain.CategoryHealth, Content: "健康线的有无并非吉凶标志。"},
		},
	})

	assert.Contains(t, out, "[专业知识库参考]")
	assert.Contains(t, out, "健康线的有无并非吉凶标志。")
	// Knowledge precedes the output format instructions.
	assert.Less(t, strings.Index(out, "[专业知识库参考]"), strings.Index(out, "[PHASE 4: OUTPUT GENERATION]"))
}

func TestCompact_SlotSubstitution(t *testing.T) {
	out := Compact(Slots{
		Age:          28,
		HandType:     domain.HandNonDominant,
		AnalysisType: domain.AnalysisLove,
	})

	assert.Contains(t, out, "28岁")
	assert.Contains(t, out, "非惯用手")
	assert.Contains(t, out, "感情婚姻分析")
	assert.Contains(t, out, "感情婚姻深度分析")
	assert.NotContains(t, out, "[SYSTEM INITIALIZATION]")
}
