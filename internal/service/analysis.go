package service

import (
	"context"
	"time"

	"github.com/palmlore/palmd/internal/domain"
	"github.com/palmlore/palmd/internal/prompt"
	"github.com/palmlore/palmd/internal/telemetry"
)

// Gateway issues chat-completion calls against the configured LLM endpoint.
type Gateway interface {
	Analyze(ctx context.Context, prompt, imageURL string) (string, error)
	AnalyzeStream(ctx context.Context, prompt, imageURL string, fn func(delta string) error) error
}

// Retriever fetches knowledge context for an analysis. Failures inside the
// retriever are non-fatal and surface as an empty list.
type Retriever interface {
	RelevantKnowledge(ctx context.Context, analysisType domain.AnalysisType, handType domain.HandType, age int) []*domain.KnowledgeItem
}

// AnalysisService validates analysis requests, gathers knowledge context,
// composes the prompt and performs the gateway call. One parameterized
// service backs both the blocking and the streaming endpoint.
type AnalysisService struct {
	gateway   Gateway
	retriever Retriever
	now       func() time.Time
}

// NewAnalysisService creates an AnalysisService. retriever may be nil when
// no knowledge store is configured; analyses then run without a reference
// block.
func NewAnalysisService(gateway Gateway, retriever Retriever) *AnalysisService {
	return &AnalysisService{
		gateway:   gateway,
		retriever: retriever,
		now:       time.Now,
	}
}

// validate checks required fields and fills in defaults. handType defaults
// to dominant and analysisType to comprehensive when a gender was given
// instead.
func (s *AnalysisService) validate(req *domain.AnalysisRequest) error {
	if req.Image == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "missing required field: image")
	}
	if req.BirthYear == 0 {
		return domain.NewDomainError(domain.ErrCodeValidation, "missing required field: birthYear")
	}
	if req.BirthYear < 1900 || req.BirthYear > s.now().Year() {
		return domain.ErrInvalidBirthYear
	}

	if req.HandType == "" {
		req.HandType = domain.HandDominant
	} else if !domain.IsValidHandType(req.HandType) {
		return domain.ErrInvalidHandType
	}

	if req.AnalysisType == "" {
		if req.Gender == "" {
			return domain.NewDomainError(domain.ErrCodeValidation, "missing required field: gender or analysisType")
		}
		req.AnalysisType = domain.AnalysisComprehensive
	} else if !domain.IsValidAnalysisType(req.AnalysisType) {
		return domain.ErrInvalidAnalysisType
	}

	return nil
}

func (s *AnalysisService) slots(ctx context.Context, req *domain.AnalysisRequest) prompt.Slots {
	age := req.Age(s.now().Year())

	knowledge := req.Knowledge
	if len(knowledge) == 0 && s.retriever != nil {
		knowledge = s.retriever.RelevantKnowledge(ctx, req.AnalysisType, req.HandType, age)
	}

	return prompt.Slots{
		Age:          age,
		Gender:       req.Gender,
		HandType:     req.HandType,
		AnalysisType: req.AnalysisType,
		Knowledge:    knowledge,
	}
}

// Analyze runs a blocking palm reading and returns the full analysis text.
func (s *AnalysisService) Analyze(ctx context.Context, req *domain.AnalysisRequest) (string, error) {
	if err := s.validate(req); err != nil {
		return "", err
	}
	if s.gateway == nil {
		return "", domain.ErrGatewayNotConfigured
	}

	ctx, span := telemetry.StartSpan(ctx, "analysis.analyze")
	defer span.End()

	slots := s.slots(ctx, req)
	result, err := s.gateway.Analyze(ctx, prompt.Full(slots), req.Image)
	if err != nil {
		span.SetError(err)
		return "", err
	}
	return result, nil
}

// AnalyzeStream runs a streaming palm reading, relaying each text delta to
// fn as it arrives. An error from fn aborts the upstream stream.
func (s *AnalysisService) AnalyzeStream(ctx context.Context, req *domain.AnalysisRequest, fn func(delta string) error) error {
	if err := s.validate(req); err != nil {
		return err
	}
	if s.gateway == nil {
		return domain.ErrGatewayNotConfigured
	}

	ctx, span := telemetry.StartSpan(ctx, "analysis.analyze_stream")
	defer span.End()

	slots := s.slots(ctx, req)
	if err := s.gateway.AnalyzeStream(ctx, prompt.Compact(slots), req.Image, fn); err != nil {
		span.SetError(err)
		return err
	}
	return nil
}
