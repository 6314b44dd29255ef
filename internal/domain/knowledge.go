package domain

import "time"

// Category classifies a knowledge item within the palmistry taxonomy
type Category string

const (
	CategoryPalmLines Category = "palm_lines"
	CategoryMounts    Category = "mounts"
	CategorySigns     Category = "signs"
	CategoryCareer    Category = "career"
	CategoryLove      Category = "love"
	CategoryHealth    Category = "health"
	CategoryGeneral   Category = "general"
)

// AnalysisType selects which reading the user asked for
type AnalysisType string

const (
	AnalysisCareer        AnalysisType = "career"
	AnalysisLove          AnalysisType = "love"
	AnalysisHealth        AnalysisType = "health"
	AnalysisComprehensive AnalysisType = "comprehensive"
)

// IsValidAnalysisType reports whether t is one of the supported analysis types.
func IsValidAnalysisType(t AnalysisType) bool {
	switch t {
	case AnalysisCareer, AnalysisLove, AnalysisHealth, AnalysisComprehensive:
		return true
	}
	return false
}

// HandType distinguishes the dominant from the non-dominant hand
type HandType string

const (
	HandDominant    HandType = "dominant"
	HandNonDominant HandType = "non-dominant"
)

// IsValidHandType reports whether t is a supported hand type.
func IsValidHandType(t HandType) bool {
	return t == HandDominant || t == HandNonDominant
}

// KnowledgeItem is one stored reference passage of palmistry knowledge.
// Embedding is created once at ingestion and never mutated; Similarity is
// populated only on search responses and is not persisted.
type KnowledgeItem struct {
	ID          string
	Title       string
	Content     string
	Category    Category
	Subcategory string
	Keywords    []string
	Embedding   []float32
	Similarity  float64
	Metadata    map[string]any
	CreatedAt   time.Time
}

// QuerySpec is one planned knowledge query. An empty Category means no
// category filter.
type QuerySpec struct {
	Query    string
	Category Category
}

// AnalysisRequest carries the parameters of one palm reading.
type AnalysisRequest struct {
	Image        string
	BirthYear    int
	Gender       string
	HandType     HandType
	AnalysisType AnalysisType
	Knowledge    []*KnowledgeItem
}

// Age returns the user's age relative to the given year.
func (r *AnalysisRequest) Age(currentYear int) int {
	return currentYear - r.BirthYear
}
