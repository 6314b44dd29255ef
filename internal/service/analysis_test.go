package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palmlore/palmd/internal/domain"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Analyze(ctx context.Context, prompt, imageURL string) (string, error) {
	args := m.Called(ctx, prompt, imageURL)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) AnalyzeStream(ctx context.Context, prompt, imageURL string, fn func(delta string) error) error {
	args := m.Called(ctx, prompt, imageURL, fn)
	return args.Error(0)
}

type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) RelevantKnowledge(ctx context.Context, analysisType domain.AnalysisType, handType domain.HandType, age int) []*domain.KnowledgeItem {
	args := m.Called(ctx, analysisType, handType, age)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*domain.KnowledgeItem)
}

func fixedYear(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC)
	}
}

func validRequest() *domain.AnalysisRequest {
	return &domain.AnalysisRequest{
		Image:        "data:image/jpeg;base64,abc",
		BirthYear:    2000,
		HandType:     domain.HandDominant,
		AnalysisType: domain.AnalysisCareer,
	}
}

func TestAnalysisService_Analyze_ComposesPromptWithKnowledge(t *testing.T) {
	gw := new(MockGateway)
	retriever := new(MockRetriever)
	svc := NewAnalysisService(gw, retriever)
	svc.now = fixedYear(2025)

	retriever.On("RelevantKnowledge", mock.Anything, domain.AnalysisCareer, domain.HandDominant, 25).
		Return([]*domain.KnowledgeItem{{ID: "1", Title: "事业线解读", Content: "内容", Category: domain.CategoryCareer}})

	var sentPrompt string
	gw.On("Analyze", mock.Anything, mock.Anything, "data:image/jpeg;base64,abc").
		Run(func(args mock.Arguments) { sentPrompt = args.String(1) }).
		Return("分析结果", nil)

	result, err := svc.Analyze(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "分析结果", result)

	assert.Contains(t, sentPrompt, "25岁")
	assert.Contains(t, sentPrompt, "事业财运")
	assert.Contains(t, sentPrompt, "事业线解读")
	retriever.AssertExpectations(t)
}

func TestAnalysisService_Analyze_CallerKnowledgeSkipsRetrieval(t *testing.T) {
	gw := new(MockGateway)
	retriever := new(MockRetriever)
	svc := NewAnalysisService(gw, retriever)
	svc.now = fixedYear(2025)

	req := validRequest()
	req.Knowledge = []*domain.KnowledgeItem{{ID: "k", Title: "提供的知识", Content: "内容"}}

	gw.On("Analyze", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "提供的知识")
	}), req.Image).Return("ok", nil)

	_, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	retriever.AssertNotCalled(t, "RelevantKnowledge")
}

func TestAnalysisService_Analyze_Validation(t *testing.T) {
	svc := NewAnalysisService(new(MockGateway), nil)
	svc.now = fixedYear(2025)

	tests := []struct {
		name    string
		mutate  func(*domain.AnalysisRequest)
		message string
	}{
		{"missing image", func(r *domain.AnalysisRequest) { r.Image = "" }, "image"},
		{"missing birth year", func(r *domain.AnalysisRequest) { r.BirthYear = 0 }, "birthYear"},
		{"birth year in future", func(r *domain.AnalysisRequest) { r.BirthYear = 2030 }, "birth year"},
		{"bad hand type", func(r *domain.AnalysisRequest) { r.HandType = "left" }, "hand type"},
		{"bad analysis type", func(r *domain.AnalysisRequest) { r.AnalysisType = "fortune" }, "analysis type"},
		{"neither gender nor analysis type", func(r *domain.AnalysisRequest) {
			r.AnalysisType = ""
			r.Gender = ""
		}, "gender or analysisType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			_, err := svc.Analyze(context.Background(), req)
			require.Error(t, err)

			var domainErr *domain.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestAnalysisService_Analyze_GenderDefaultsAnalysisType(t *testing.T) {
	gw := new(MockGateway)
	svc := NewAnalysisService(gw, nil)
	svc.now = fixedYear(2025)

	req := validRequest()
	req.AnalysisType = ""
	req.Gender = "female"
	req.HandType = ""

	gw.On("Analyze", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "综合分析") && strings.Contains(p, "女性")
	}), req.Image).Return("ok", nil)

	_, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	gw.AssertExpectations(t)
}

func TestAnalysisService_Analyze_NoGatewayConfigured(t *testing.T) {
	svc := NewAnalysisService(nil, nil)
	svc.now = fixedYear(2025)

	_, err := svc.Analyze(context.Background(), validRequest())
	assert.ErrorIs(t, err, domain.ErrGatewayNotConfigured)
}

func TestAnalysisService_AnalyzeStream_RelaysDeltas(t *testing.T) {
	gw := new(MockGateway)
	svc := NewAnalysisService(gw, nil)
	svc.now = fixedYear(2025)

	gw.On("AnalyzeStream", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			fn := args.Get(3).(func(delta string) error)
			require.NoError(t, fn("第一"))
			require.NoError(t, fn("第二"))
		}).
		Return(nil)

	var got []string
	err := svc.AnalyzeStream(context.Background(), validRequest(), func(delta string) error {
		got = append(got, delta)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"第一", "第二"}, got)
}
