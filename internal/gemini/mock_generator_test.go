package gemini

import (
	"context"
	"sync"
	"time"

	"google.golang.org/genai"
)

// mockGenerator returns a canned response and records the request.
type mockGenerator struct {
	response *genai.GenerateContentResponse
	err      error

	mu       sync.Mutex
	calls    int
	model    string
	contents []*genai.Content
	deadline time.Time
}

func (m *mockGenerator) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	_ *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.model = model
	m.contents = contents
	m.deadline, _ = ctx.Deadline()
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{Text: text},
					},
				},
			},
		},
	}
}
