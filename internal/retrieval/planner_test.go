package retrieval

import (
	"testing"

	"github.com/palmlore/palmd/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanQueries_CareerYoung(t *testing.T) {
	queries := PlanQueries(domain.AnalysisCareer, domain.HandDominant, 25)

	require.Len(t, queries, 4)
	assert.Equal(t, domain.CategoryCareer, queries[0].Category)
	assert.Equal(t, domain.CategoryPalmLines, queries[1].Category)
	assert.Equal(t, domain.CategoryMounts, queries[2].Category)

	last := queries[3]
	assert.Empty(t, last.Category, "age query for young users has no category filter")
	assert.Contains(t, last.Query, "潜力")
}

func TestPlanQueries_AgeBrackets(t *testing.T) {
	tests := []struct {
		age   int
		query string
	}{
		{29, "年轻人 潜力 发展"},
		{30, "中年 事业 家庭"},
		{49, "中年 事业 家庭"},
		{50, "成熟 智慧 经验"},
		{72, "成熟 智慧 经验"},
	}

	for _, tt := range tests {
		queries := PlanQueries(domain.AnalysisLove, domain.HandNonDominant, tt.age)
		require.Len(t, queries, 4)
		assert.Equal(t, tt.query, queries[3].Query, "age %d", tt.age)
	}
}

func TestPlanQueries_EveryAnalysisType(t *testing.T) {
	for _, analysisType := range []domain.AnalysisType{
		domain.AnalysisCareer, domain.AnalysisLove,
		domain.AnalysisHealth, domain.AnalysisComprehensive,
	} {
		queries := PlanQueries(analysisType, domain.HandDominant, 40)
		assert.Len(t, queries, 4, "analysis type %s", analysisType)
		for _, q := range queries {
			assert.NotEmpty(t, q.Query)
		}
	}
}

func TestPlanQueries_Comprehensive(t *testing.T) {
	queries := PlanQueries(domain.AnalysisComprehensive, domain.HandDominant, 35)

	require.Len(t, queries, 4)
	assert.Equal(t, "生命线 智慧线 感情线", queries[0].Query)
	assert.Equal(t, domain.CategorySigns, queries[2].Category)
}
