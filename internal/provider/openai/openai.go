package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"llm-decision-engine/internal/schedule"
	"llm-decision-engine/internal/store"
	"llm-decision-engine/internal/trace"
	"llm-decision-engine/internal/types"
)

const endpoint = "https://api.openai.com/v1/chat/completions"

// Provider runs pipeline stages against the OpenAI chat completions API.
type Provider struct {
	cfg *store.Config
}

func New(cfg *store.Config) *Provider {
	return &Provider{cfg: cfg}
}

// stageInstructions tell the model what its current stage is responsible for.
var stageInstructions = map[types.StageKind]string{
	types.StageVisualAnalysis:    "You are the visual analysis stage. Read price structure, trend and volume across the listed timeframes and report one overall signal.",
	types.StageIndicatorAnalysis: "You are the indicator analysis stage. Read the computed indicators (RSI, VWAP, Bollinger bands, volume profile) across the listed timeframes and report one overall signal.",
	types.StageFinalDecision:     "You are the final decision stage. Combine the earlier stage outputs and cached analyses into one trading decision with entry conditions that would invalidate it.",
}

const schema = `{"signal":"bullish|bearish|neutral","action":"BUY|SELL|HOLD","confidence":0.0,"reasoning":"...","conditions":[{"kind":"price_above|price_below|indicator_cross","timeframe":"...","indicator":"...","threshold":0.0,"cmp":"above|below"}]}`

func (p *Provider) RunStage(ctx context.Context, kind types.StageKind, in types.StageInput) (types.StageResult, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return types.StageResult{}, errors.New("OPENAI_API_KEY missing")
	}

	focus := map[types.Timeframe][]string{}
	for _, tf := range in.Refresh {
		focus[tf] = schedule.Focus(tf)
	}
	state := map[string]any{
		"symbol":     in.Symbol,
		"as_of":      in.AsOf,
		"price":      in.Market.Price,
		"indicators": in.Market.Indicators,
		"refresh":    in.Refresh,
		"focus":      focus,
		"cached":     in.Cached,
	}
	if in.Visual != nil {
		state["visual_analysis"] = in.Visual
	}
	if in.Indicator != nil {
		state["indicator_analysis"] = in.Indicator
	}
	ub, _ := json.Marshal(state)
	prompt := fmt.Sprintf("%s\nRespond ONLY with compact JSON matching the schema.\nSchema:%s\nState:%s",
		stageInstructions[kind], schema, string(ub))

	body := map[string]any{
		"model":       p.cfg.LLM.Model,
		"messages":    []map[string]string{{"role": "system", "content": p.cfg.LLM.System}, {"role": "user", "content": prompt}},
		"temperature": p.cfg.LLM.Temperature,
		"max_tokens":  p.cfg.LLM.MaxTokens,
	}
	bb, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(bb))
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return types.StageResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return types.StageResult{}, fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return types.StageResult{}, err
	}
	if len(r.Choices) == 0 {
		return types.StageResult{}, errors.New("no choices")
	}

	return Normalize(kind, r.Choices[0].Message.Content), nil
}

// Normalize defensively parses model output into a well-formed StageResult.
// Malformed JSON or out-of-range fields degrade to neutral/HOLD rather than
// failing the stage: a parseable-but-odd answer is still an answer.
func Normalize(kind types.StageKind, raw string) types.StageResult {
	out := strings.TrimSpace(raw)
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")
	out = strings.TrimSpace(out)

	var res types.StageResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		return types.StageResult{
			Kind:      kind,
			Signal:    types.SignalNeutral,
			Action:    types.ActionHold,
			Reasoning: "invalid_json",
		}
	}
	res.Kind = kind

	res.Signal = types.Signal(strings.ToLower(strings.TrimSpace(string(res.Signal))))
	switch res.Signal {
	case types.SignalBullish, types.SignalBearish, types.SignalNeutral:
	default:
		res.Signal = types.SignalNeutral
	}

	res.Action = types.Action(strings.ToUpper(strings.TrimSpace(string(res.Action))))
	if !res.Action.Valid() {
		res.Action = types.ActionHold
	}

	if res.Confidence < 0 || res.Confidence > 1 {
		res.Confidence = 0.0
	}

	kept := res.Conditions[:0]
	for _, c := range res.Conditions {
		if !validConditionKind(c.Kind) {
			continue
		}
		if c.Timeframe != "" && !c.Timeframe.Valid() {
			continue
		}
		kept = append(kept, c)
	}
	res.Conditions = kept

	return res
}

func validConditionKind(k types.ConditionKind) bool {
	switch k {
	case types.CondPriceAbove, types.CondPriceBelow, types.CondIndicatorCross:
		return true
	}
	return false
}
