package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	llmTimeout     = 30 * time.Second
	llmTemperature = 0.3
	llmMaxTokens   = 500
	maxSummaryLen  = 1000

	systemPrompt = "You are a MENA market analyst. Respond only with valid JSON."

	promptTemplate = `You are an AI analyst specializing in MENA (Middle East & North Africa) market opportunity assessment.

Analyze the following AI company/funding news and determine its applicability for the MENA market.

Title: %s
Company: %s
Type: %s
Summary: %s
%s

Score each dimension from 0-20 based on:

1. **budget_buyer_exists** (0-20): Does MENA have buyers with budget for this? Consider:
   - Government/sovereign wealth fund relevance
   - Enterprise adoption potential in GCC
   - SMB market fit

2. **localization_arabic_bilingual** (0-20): How easy is localization?
   - Software-only (high score) vs hardware-dependent (low)
   - Arabic language requirements
   - Cultural adaptation needs

3. **regulatory_friction** (0-20): Higher score = easier regulatory path
   - Data sovereignty concerns
   - Industry-specific regulations
   - Government approval requirements

4. **distribution_path** (0-20): Clear path to market?
   - Existing channel partners
   - Local competition landscape
   - Go-to-market complexity

5. **time_to_revenue** (0-20): How quickly can this generate MENA revenue?
   - Sales cycle length
   - Implementation complexity
   - Customer education needs

Respond ONLY with valid JSON:
{
  "fit_score": <sum of all dimensions, 0-100>,
  "mena_summary": "<2-3 sentences on MENA applicability>",
  "rubric": {
    "budget_buyer_exists": <0-20>,
    "localization_arabic_bilingual": <0-20>,
    "regulatory_friction": <0-20>,
    "distribution_path": <0-20>,
    "time_to_revenue": <0-20>
  }
}
`
)

// LLM scores items through an OpenAI-compatible chat-completions endpoint.
// Any call or parse failure degrades to the stub payload; the configured
// model name is still recorded so fallback responses remain attributable.
type LLM struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ Analyzer = (*LLM)(nil)

func NewLLM(apiKey, baseURL, model string) *LLM {
	return &LLM{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: llmTimeout,
		},
	}
}

func (a *LLM) Analyze(ctx context.Context, in Input) Result {
	result, err := a.run(ctx, in)
	if err != nil {
		slog.Error("LLM analysis failed, falling back to stub payload", "error", err)
		result = stubResult()
	}
	result.ModelName = a.model
	return result
}

func (a *LLM) run(ctx context.Context, in Input) (Result, error) {
	content, err := a.complete(ctx, buildPrompt(in))
	if err != nil {
		return Result{}, err
	}

	return parseResponse(content)
}

func buildPrompt(in Input) string {
	var context strings.Builder

	if fd := in.Funding; fd != nil {
		if fd.RoundType != "" {
			fmt.Fprintf(&context, "Round Type: %s\n", fd.RoundType)
		}
		if fd.AmountUSD != nil {
			fmt.Fprintf(&context, "Amount: $%.0f\n", *fd.AmountUSD)
		}
		if len(fd.Investors) > 0 {
			fmt.Fprintf(&context, "Investors: %s\n", strings.Join(fd.Investors, ", "))
		}
	}

	if cd := in.Company; cd != nil {
		if cd.Category != "" {
			fmt.Fprintf(&context, "Category: %s\n", cd.Category)
		}
		if cd.StageHint != "" {
			fmt.Fprintf(&context, "Stage: %s\n", cd.StageHint)
		}
	}

	company := in.CompanyName
	if company == "" {
		company = "Unknown"
	}
	summary := in.Summary
	if summary == "" {
		summary = "No summary available"
	}

	return fmt.Sprintf(promptTemplate, in.Title, company, in.ItemType, summary, context.String())
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (a *LLM) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: llmTemperature,
		MaxTokens:   llmMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call model endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("model endpoint error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

type wireResult struct {
	FitScore    *float64           `json:"fit_score"`
	MenaSummary string             `json:"mena_summary"`
	Rubric      map[string]float64 `json:"rubric"`
}

// parseResponse extracts the JSON assessment from raw model output,
// tolerating markdown code fences, and clamps every value into range.
func parseResponse(content string) (Result, error) {
	content = stripCodeFence(content)

	var wire wireResult
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		return Result{}, fmt.Errorf("failed to parse model JSON: %w", err)
	}

	fitScore := 50
	if wire.FitScore != nil {
		fitScore = clamp(int(*wire.FitScore), 0, 100)
	}

	summary := wire.MenaSummary
	if summary == "" {
		summary = "Analysis completed."
	}
	if runes := []rune(summary); len(runes) > maxSummaryLen {
		summary = string(runes[:maxSummaryLen])
	}

	return Result{
		FitScore: fitScore,
		Summary:  summary,
		Rubric: Rubric{
			BudgetBuyerExists:           rubricValue(wire.Rubric, "budget_buyer_exists"),
			LocalizationArabicBilingual: rubricValue(wire.Rubric, "localization_arabic_bilingual"),
			RegulatoryFriction:          rubricValue(wire.Rubric, "regulatory_friction"),
			DistributionPath:            rubricValue(wire.Rubric, "distribution_path"),
			TimeToRevenue:               rubricValue(wire.Rubric, "time_to_revenue"),
		},
	}, nil
}

// stripCodeFence removes a leading markdown code fence and an optional json
// language tag so the payload starts at the first brace.
func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}

	parts := strings.Split(content, "```")
	if len(parts) < 2 {
		return content
	}
	content = parts[1]
	content = strings.TrimPrefix(content, "json")

	return strings.TrimSpace(content)
}

// rubricValue clamps a present dimension to 0-20 and defaults a missing one
// to the neutral midpoint.
func rubricValue(rubric map[string]float64, key string) int {
	value, ok := rubric[key]
	if !ok {
		return 10
	}
	return clamp(int(value), 0, 20)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
