package retrieval

import "github.com/palmlore/palmd/internal/domain"

// baseQueries maps each analysis type to its fixed knowledge queries.
var baseQueries = map[domain.AnalysisType][]domain.QuerySpec{
	domain.AnalysisCareer: {
		{Query: "事业线 工作 职业发展", Category: domain.CategoryCareer},
		{Query: "成功线 太阳线 事业成就", Category: domain.CategoryPalmLines},
		{Query: "木星丘 领导力 企图心", Category: domain.CategoryMounts},
	},
	domain.AnalysisLove: {
		{Query: "感情线 婚姻线 爱情", Category: domain.CategoryLove},
		{Query: "金星丘 感情丰富", Category: domain.CategoryMounts},
		{Query: "月亮丘 情感敏感", Category: domain.CategoryMounts},
	},
	domain.AnalysisHealth: {
		{Query: "生命线 健康 体质", Category: domain.CategoryHealth},
		{Query: "健康线 身体状况", Category: domain.CategoryPalmLines},
		{Query: "金星丘 生命力", Category: domain.CategoryMounts},
	},
	domain.AnalysisComprehensive: {
		{Query: "生命线 智慧线 感情线", Category: domain.CategoryPalmLines},
		{Query: "八大丘位 性格特征", Category: domain.CategoryMounts},
		{Query: "特殊符号 星纹 岛纹", Category: domain.CategorySigns},
	},
}

// PlanQueries produces the ordered knowledge queries for one analysis:
// the fixed per-type queries followed by exactly one age-bracket query.
// The age query carries no category filter for users under 30.
func PlanQueries(analysisType domain.AnalysisType, handType domain.HandType, age int) []domain.QuerySpec {
	base := baseQueries[analysisType]
	queries := make([]domain.QuerySpec, 0, len(base)+1)
	queries = append(queries, base...)

	switch {
	case age < 30:
		queries = append(queries, domain.QuerySpec{Query: "年轻人 潜力 发展"})
	case age < 50:
		queries = append(queries, domain.QuerySpec{Query: "中年 事业 家庭"})
	default:
		queries = append(queries, domain.QuerySpec{Query: "成熟 智慧 经验"})
	}

	return queries
}
