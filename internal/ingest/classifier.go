package ingest

import (
	"strings"

	"github.com/palmlore/palmd/internal/domain"
)

// categoryTerm maps one palmistry term to its taxonomy category. The list
// is ordered; classification takes the first term found in the text.
type categoryTerm struct {
	Term     string
	Category domain.Category
}

var categoryTerms = []categoryTerm{
	{"生命线", domain.CategoryPalmLines},
	{"智慧线", domain.CategoryPalmLines},
	{"感情线", domain.CategoryPalmLines},
	{"事业线", domain.CategoryPalmLines},
	{"成功线", domain.CategoryPalmLines},
	{"婚姻线", domain.CategoryPalmLines},
	{"金星丘", domain.CategoryMounts},
	{"木星丘", domain.CategoryMounts},
	{"土星丘", domain.CategoryMounts},
	{"太阳丘", domain.CategoryMounts},
	{"水星丘", domain.CategoryMounts},
	{"月亮丘", domain.CategoryMounts},
	{"第一火星丘", domain.CategoryMounts},
	{"第二火星丘", domain.CategoryMounts},
	{"星纹", domain.CategorySigns},
	{"岛纹", domain.CategorySigns},
	{"十字纹", domain.CategorySigns},
	{"三角纹", domain.CategorySigns},
	{"方形纹", domain.CategorySigns},
	{"健康", domain.CategoryHealth},
	{"事业", domain.CategoryCareer},
	{"财运", domain.CategoryCareer},
	{"感情", domain.CategoryLove},
	{"婚姻", domain.CategoryLove},
}

// palmTerms are additional terms scanned during keyword extraction beyond
// the category dictionary.
var palmTerms = []string{
	"掌纹", "纹理", "断裂", "分叉", "岛纹", "星纹", "方格纹", "三角纹",
	"长短", "深浅", "清晰", "模糊", "起点", "终点", "走向", "弧度",
	"手型", "手指", "拇指", "食指", "中指", "无名指", "小指",
}

const maxKeywords = 10

// Classify determines the taxonomy category and subcategory for a chunk of
// text. The first dictionary term found as a substring of the lowercased
// title+text wins; a keyword-group fallback applies before defaulting to
// the general category. Classification is a pure function of the text.
func Classify(text, title string) (domain.Category, string) {
	full := strings.ToLower(title + " " + text)

	for _, ct := range categoryTerms {
		if strings.Contains(full, strings.ToLower(ct.Term)) {
			return ct.Category, ct.Term
		}
	}

	switch {
	case strings.Contains(full, "事业") || strings.Contains(full, "工作") || strings.Contains(full, "财"):
		return domain.CategoryCareer, ""
	case strings.Contains(full, "感情") || strings.Contains(full, "爱情") || strings.Contains(full, "婚姻"):
		return domain.CategoryLove, ""
	case strings.Contains(full, "健康") || strings.Contains(full, "身体"):
		return domain.CategoryHealth, ""
	}

	return domain.CategoryGeneral, ""
}

// ExtractKeywords collects dictionary terms found in the original text, in
// dictionary order, capped at maxKeywords. Matching is against the text as
// written, not lowercased.
func ExtractKeywords(text string) []string {
	keywords := make([]string, 0, maxKeywords)
	seen := make(map[string]bool)

	add := func(term string) {
		if len(keywords) >= maxKeywords || seen[term] {
			return
		}
		if strings.Contains(text, term) {
			keywords = append(keywords, term)
			seen[term] = true
		}
	}

	for _, ct := range categoryTerms {
		add(ct.Term)
	}
	for _, term := range palmTerms {
		add(term)
	}

	return keywords
}
