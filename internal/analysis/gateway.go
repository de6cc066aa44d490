package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const systemPrompt = `You are an AI analyst for a civic complaint management system. Your job is to analyze complaints and provide structured analysis.

For each complaint, you must determine:
1. Sentiment: Whether the tone is positive, neutral, or negative
2. Fake Probability: Likelihood (0-100) that this complaint is fake/spam based on vague descriptions, unrealistic claims, copy-pasted or generic text, inconsistent details, or excessive emotional language without specifics
3. Credibility Score: Overall credibility (0-100) considering specificity, coherence, and realistic details
4. Keywords: 3-5 relevant keywords/tags for the complaint
5. Suggested Department: Which government department should handle this
6. Urgency Score: How urgent this issue is (1-10)
7. Summary: A brief one-sentence summary of the complaint

Be fair but vigilant. Real civic complaints tend to have specific locations, observable details, and reasonable concerns.`

const toolName = "analyze_complaint"

// GatewayConfig holds the settings for GatewayClient.
type GatewayConfig struct {
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GatewayClient calls an OpenAI-compatible chat-completions endpoint and
// forces a function call whose arguments carry the Analysis.
type GatewayClient struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model      string         `json:"model"`
	Messages   []chatMessage  `json:"messages"`
	Tools      []tool         `json:"tools"`
	ToolChoice map[string]any `json:"tool_choice"`
}

type tool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// NewGatewayClient creates a client for the analysis gateway.
func NewGatewayClient(cfg GatewayConfig, logger *zap.Logger) (*GatewayClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("analysis gateway URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("analysis gateway API key is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger.Info("Analysis gateway client initialized", zap.String("model", cfg.Model))

	return &GatewayClient{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// Analyze sends one request to the gateway. It never retries.
func (c *GatewayClient) Analyze(ctx context.Context, req Request) (*Analysis, error) {
	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("analysis gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusPaymentRequired:
		return nil, ErrQuotaExhausted
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.logger.Error("Analysis gateway error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)))
		return nil, fmt.Errorf("analysis gateway returned status %d", resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(chatResp.Choices) == 0 || len(chatResp.Choices[0].Message.ToolCalls) == 0 {
		return nil, fmt.Errorf("%w: no tool call", ErrMalformedResponse)
	}
	call := chatResp.Choices[0].Message.ToolCalls[0].Function
	if call.Name != toolName {
		return nil, fmt.Errorf("%w: unexpected tool %q", ErrMalformedResponse, call.Name)
	}

	var result Analysis
	if err := json.Unmarshal([]byte(call.Arguments), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	result.Clamp()

	return &result, nil
}

func (c *GatewayClient) buildRequest(req Request) chatRequest {
	userPrompt := fmt.Sprintf("Analyze this %s complaint:\n\nCategory: %s\nTitle: %s\nDescription: %s\n\nProvide your analysis.",
		req.Type, req.Category, req.Title, req.Description)

	return chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Tools: []tool{{
			Type: "function",
			Function: toolFunction{
				Name:        toolName,
				Description: "Provide structured analysis of a civic complaint",
				Parameters:  analysisSchema,
			},
		}},
		ToolChoice: map[string]any{
			"type":     "function",
			"function": map[string]string{"name": toolName},
		},
	}
}

var analysisSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"sentiment": map[string]any{
			"type":        "string",
			"enum":        []string{"positive", "neutral", "negative"},
			"description": "Overall sentiment of the complaint",
		},
		"fakeProbability": map[string]any{
			"type":        "number",
			"description": "Likelihood (0-100) that this is a fake or spam complaint",
		},
		"credibilityScore": map[string]any{
			"type":        "number",
			"description": "Overall credibility score (0-100)",
		},
		"keywords": map[string]any{
			"type":        "array",
			"items":       map[string]string{"type": "string"},
			"description": "3-5 relevant keywords/tags",
		},
		"suggestedDepartment": map[string]any{
			"type":        "string",
			"description": "Recommended government department to handle this",
		},
		"urgencyScore": map[string]any{
			"type":        "number",
			"description": "Urgency level from 1-10",
		},
		"summary": map[string]any{
			"type":        "string",
			"description": "Brief one-sentence summary",
		},
	},
	"required": []string{"sentiment", "fakeProbability", "credibilityScore", "keywords",
		"suggestedDepartment", "urgencyScore", "summary"},
	"additionalProperties": false,
}
