package evaluation

import (
	"context"
	"strings"

	"github.com/jonathan/idea-prioritizer/internal/llm"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	Prompts             []string
}

func (m *MockLLMClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return m.GenerateContent(ctx, prompt, tier)
}

func (m *MockLLMClient) GetModel(_ llm.ModelTier) string {
	return "mock-model"
}

func (m *MockLLMClient) Close() error {
	return nil
}

// phasedClient answers plan prompts with plan and finalize prompts with final.
func phasedClient(plan, final string) *MockLLMClient {
	return &MockLLMClient{
		GenerateContentFunc: func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
			if strings.Contains(prompt, "Your plan:") {
				return plan, nil
			}
			return final, nil
		},
	}
}

// MockRetriever implements Retriever for testing
type MockRetriever struct {
	Text    string
	Err     error
	Queries []string
	Ks      []int
}

func (m *MockRetriever) SimilarIdeas(_ context.Context, query string, k int) (string, error) {
	m.Queries = append(m.Queries, query)
	m.Ks = append(m.Ks, k)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}
