package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/MustafAks/DexScreener/internal/ai"
	"github.com/MustafAks/DexScreener/internal/models"
)

var _ ai.Analyzer = (*OpenAIAnalyzer)(nil)

// OpenAIAnalyzer implements the Analyzer interface using any OpenAI
// compatible chat completion endpoint
type OpenAIAnalyzer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIAnalyzer creates a new analyzer; an empty baseURL talks to OpenAI
// itself.
func NewOpenAIAnalyzer(apiKey, baseURL, model string, timeout time.Duration) *OpenAIAnalyzer {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini // 默认模型
	}
	return &OpenAIAnalyzer{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		timeout: timeout,
	}
}

// AssessToken implements the Analyzer interface
func (a *OpenAIAnalyzer) AssessToken(ctx context.Context, snapshot *models.TokenSnapshot, score int) (*ai.RiskNote, error) {
	age := "unknown"
	if d, ok := snapshot.Age(time.Now()); ok {
		age = d.Truncate(time.Minute).String()
	}

	prompt := fmt.Sprintf(`Assess the following newly listed token in one short sentence:
Chain: %s
DEX: %s
Symbol: %s
Name: %s
Price (USD): %s
Price change (24h): %.2f%%
Liquidity (USD): %.2f
Volume (24h): %.2f
Market cap: %d
Transactions (24h): %d
Pair age: %s
Heuristic score: %d

Output JSON:
{
    "risk_level": "low" | "medium" | "high",
    "note": string
}`,
		snapshot.ChainID, snapshot.DexID, snapshot.Symbol, snapshot.Name, snapshot.PriceUSD,
		snapshot.PriceChange24h, snapshot.LiquidityUSD, snapshot.Volume24h, snapshot.MarketCap,
		snapshot.Txns24h, age, score)

	resp, err := a.createChatCompletion(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to assess token: %w", err)
	}

	var note ai.RiskNote
	if err := json.Unmarshal([]byte(stripCodeFence(resp)), &note); err != nil {
		return nil, fmt.Errorf("failed to parse assessment: %w", err)
	}
	note.RiskLevel = strings.ToLower(strings.TrimSpace(note.RiskLevel))
	note.Note = strings.Join(strings.Fields(note.Note), " ")

	return &note, nil
}

// createChatCompletion is a helper function to make OpenAI API calls
func (a *OpenAIAnalyzer) createChatCompletion(ctx context.Context, prompt string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	resp, err := a.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: a.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are a cautious on-chain token analyst. Always answer with JSON only.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3, // 使用较低的temperature以获得更稳定的输出
		},
	)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	return resp.Choices[0].Message.Content, nil
}

// stripCodeFence removes a ```json fence some models wrap around the answer.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
