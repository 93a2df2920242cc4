package ai

import (
	"context"
	"fmt"
	"strings"
)

// MockClient gives deterministic local replies when no model backend is
// configured.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Process(ctx context.Context, query string) (Reply, error) {
	select {
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	default:
	}

	q := strings.TrimSpace(query)
	if q == "" {
		return Reply{Response: "I am listening."}, nil
	}
	return Reply{Response: fmt.Sprintf("I heard you: %s", q)}, nil
}

func (c *MockClient) AnalyzeCode(ctx context.Context, code, errMsg, notes string) (AnalysisReport, error) {
	select {
	case <-ctx.Done():
		return AnalysisReport{}, ctx.Err()
	default:
	}

	var report AnalysisReport
	report.Analysis.RootCause = "analysis backend not configured"
	if errMsg != "" {
		report.Analysis.Issues = []string{errMsg}
	}
	report.Suggestions.Fixes = []string{"configure OPENAI_API_KEY or AI_HTTP_URL for real analysis"}
	return report, nil
}
