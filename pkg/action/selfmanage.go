package action

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kadirpekel/agentcore/pkg/store"
)

type selectLLMArgs struct {
	Purpose    string `json:"purpose" jsonschema:"required,description=The routing purpose this override applies to (e.g. thinking, speaking)"`
	ModelAlias string `json:"model_alias" jsonschema:"required,description=Alias to switch to; must be in the agent's whitelist"`
	Reason     string `json:"reason" jsonschema:"required,description=Why this override is being made"`
	Duration   string `json:"duration" jsonschema:"required,enum=this_turn,enum=this_session,enum=permanent"`
}

type evaluateResponseArgs struct {
	QualityScore          *float64 `json:"quality_score,omitempty" jsonschema:"description=0-1 quality rating of the last response"`
	TaskSuccess           *bool    `json:"task_success,omitempty"`
	Evaluation            string   `json:"evaluation,omitempty" jsonschema:"description=Free-text evaluation"`
	WouldUseAgain         *bool    `json:"would_use_again,omitempty"`
	BetterModelSuggestion string   `json:"better_model_suggestion,omitempty"`
}

type analyzeLLMUsageArgs struct {
	Period  string `json:"period,omitempty" jsonschema:"description=Lookback window e.g. 24h or 7d,default=24h"`
	GroupBy string `json:"group_by,omitempty" jsonschema:"description=provider, model, or purpose,default=model"`
	Focus   string `json:"focus,omitempty" jsonschema:"description=Optional: cost, quality, or latency"`
}

type recallModelExperiencesArgs struct {
	Purpose string `json:"purpose,omitempty"`
	Model   string `json:"model,omitempty"`
}

type saveModelInsightArgs struct {
	Situation      string `json:"situation" jsonschema:"required"`
	Observation    string `json:"observation" jsonschema:"required"`
	Recommendation string `json:"recommendation" jsonschema:"required"`
}

type optimizeModelSelectionArgs struct {
	Goal               string   `json:"goal" jsonschema:"required,enum=minimize_cost,enum=maximize_quality,enum=balance,enum=minimize_latency"`
	BudgetLimitUSD     *float64 `json:"budget_limit_usd,omitempty"`
	MinQualityThreshold *float64 `json:"min_quality_threshold,omitempty"`
}

// RegisterSelfManagement adds the self-management group of spec.md §4.3.
func RegisterSelfManagement(d *Dispatcher) {
	d.Register(Descriptor{
		Name:        "select_llm",
		Description: "Override the model used for a given purpose.",
		Schema:      GenerateSchema[selectLLMArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[selectLLMArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			if !ctx.AllowsAlias(args.ModelAlias) {
				return Outcome{Success: false, Error: fmt.Sprintf("alias %q is not in the agent's whitelist", args.ModelAlias)}
			}
			duration := OverrideDuration(args.Duration)
			switch duration {
			case DurationThisTurn, DurationThisSession, DurationPermanent:
			default:
				return Outcome{Success: false, Error: fmt.Sprintf("invalid duration %q", args.Duration)}
			}
			ctx.Override.Set(args.Purpose, args.ModelAlias, duration, args.Reason)
			return Outcome{Success: true, Data: map[string]any{"purpose": args.Purpose, "alias": args.ModelAlias}, SideEffects: []string{"model_override:set"}}
		},
	})

	d.Register(Descriptor{
		Name:        "evaluate_response",
		Description: "Attach evaluation fields to the most recently recorded LLM call.",
		Schema:      GenerateSchema[evaluateResponseArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			if ctx.LastMetricsID == nil {
				return Outcome{Success: false, Error: "no LLM call has been recorded yet this turn"}
			}
			args, err := ParseArgs[evaluateResponseArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			err = ctx.DB.AttachEvaluation(*ctx.LastMetricsID, store.EvaluationFields{
				QualityScore:         args.QualityScore,
				TaskSuccess:          args.TaskSuccess,
				Evaluation:           args.Evaluation,
				WouldUseAgain:        args.WouldUseAgain,
				SuggestedAlternative: args.BetterModelSuggestion,
			})
			if err != nil {
				return ErrorOutcome(err)
			}
			return Outcome{Success: true, Data: map[string]any{"metric_id": *ctx.LastMetricsID}, SideEffects: []string{"metrics:evaluated"}}
		},
	})

	d.Register(Descriptor{
		Name:        "analyze_llm_usage",
		Description: "Summarize recent LLM usage metrics grouped by provider, model, or purpose.",
		Purpose:     "analysis",
		Schema:      GenerateSchema[analyzeLLMUsageArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[analyzeLLMUsageArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			if args.Period == "" {
				args.Period = "24h"
			}
			if args.GroupBy == "" {
				args.GroupBy = "model"
			}
			since, err := parsePeriod(args.Period)
			if err != nil {
				return ErrorOutcome(err)
			}
			metrics, err := ctx.DB.QueryUsageMetrics(store.UsageMetricFilter{AgentID: ctx.AgentID, Since: since})
			if err != nil {
				return ErrorOutcome(err)
			}
			summary := summarizeUsage(metrics, args.GroupBy)
			return Outcome{Success: true, Data: map[string]any{"period": args.Period, "group_by": args.GroupBy, "groups": summary}}
		},
	})

	d.Register(Descriptor{
		Name:        "recall_model_experiences",
		Description: "Return prior model-experience notes, optionally filtered by purpose and/or model.",
		Schema:      GenerateSchema[recallModelExperiencesArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[recallModelExperiencesArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			notes, err := ctx.DB.RecallModelExperiences(ctx.AgentID, args.Purpose, args.Model)
			if err != nil {
				return ErrorOutcome(err)
			}
			return Outcome{Success: true, Data: map[string]any{"notes": notes}}
		},
	})

	d.Register(Descriptor{
		Name:        "save_model_insight",
		Description: "Record a free-text insight about a model's behavior for future recall.",
		Schema:      GenerateSchema[saveModelInsightArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[saveModelInsightArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			id, err := ctx.DB.SaveModelExperienceNote(store.ModelExperienceNote{
				AgentID: ctx.AgentID, Situation: args.Situation,
				Observation: args.Observation, Recommendation: args.Recommendation,
				CreatedAt: time.Now().UTC(),
			})
			if err != nil {
				return ErrorOutcome(err)
			}
			return Outcome{Success: true, Data: map[string]any{"note_id": id}, SideEffects: []string{"model_experience:saved"}}
		},
	})

	d.Register(Descriptor{
		Name:        "optimize_model_selection",
		Description: "Compute (but do not apply) a suggested model configuration for a cost/quality/latency goal.",
		Schema:      GenerateSchema[optimizeModelSelectionArgs](),
		Handler: func(ctx *Context, raw json.RawMessage) Outcome {
			args, err := ParseArgs[optimizeModelSelectionArgs](raw)
			if err != nil {
				return ErrorOutcome(err)
			}
			metrics, err := ctx.DB.QueryUsageMetrics(store.UsageMetricFilter{AgentID: ctx.AgentID})
			if err != nil {
				return ErrorOutcome(err)
			}
			suggestion := optimize(metrics, args.Goal, args.BudgetLimitUSD, args.MinQualityThreshold)
			return Outcome{Success: true, Data: suggestion}
		},
	})
}

func parsePeriod(period string) (time.Time, error) {
	if strings.HasSuffix(period, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(period, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid period %q: %w", period, err)
		}
		return time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour), nil
	}
	d, err := time.ParseDuration(period)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid period %q: %w", period, err)
	}
	return time.Now().UTC().Add(-d), nil
}

type usageGroup struct {
	Key         string  `json:"key"`
	Calls       int     `json:"calls"`
	TotalCost   float64 `json:"total_cost_usd"`
	AvgLatency  float64 `json:"avg_latency_ms"`
	InputTokens int     `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

func summarizeUsage(metrics []store.LlmUsageMetric, groupBy string) []usageGroup {
	totals := make(map[string]*usageGroup)
	var order []string
	for _, m := range metrics {
		key := groupKey(m, groupBy)
		g, ok := totals[key]
		if !ok {
			g = &usageGroup{Key: key}
			totals[key] = g
			order = append(order, key)
		}
		g.Calls++
		g.TotalCost += m.CostUSD
		g.AvgLatency += float64(m.LatencyMS)
		g.InputTokens += m.InputTokens
		g.OutputTokens += m.OutputTokens
	}
	out := make([]usageGroup, 0, len(order))
	for _, key := range order {
		g := totals[key]
		if g.Calls > 0 {
			g.AvgLatency /= float64(g.Calls)
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalCost > out[j].TotalCost })
	return out
}

func groupKey(m store.LlmUsageMetric, groupBy string) string {
	switch groupBy {
	case "provider":
		return m.Provider
	case "purpose":
		return m.Purpose
	default:
		return m.Model
	}
}

func optimize(metrics []store.LlmUsageMetric, goal string, budgetLimit, minQuality *float64) map[string]any {
	type candidate struct {
		model        string
		avgCost      float64
		avgQuality   float64
		avgLatency   float64
		qualityCount int
	}
	byModel := make(map[string]*candidate)
	var order []string
	for _, m := range metrics {
		c, ok := byModel[m.Model]
		if !ok {
			c = &candidate{model: m.Model}
			byModel[m.Model] = c
			order = append(order, m.Model)
		}
		c.avgCost += m.CostUSD
		c.avgLatency += float64(m.LatencyMS)
		if m.QualityScore != nil {
			c.avgQuality += *m.QualityScore
			c.qualityCount++
		}
	}
	candidates := make([]candidate, 0, len(order))
	for _, model := range order {
		c := byModel[model]
		n := 0
		for _, m := range metrics {
			if m.Model == model {
				n++
			}
		}
		if n > 0 {
			c.avgCost /= float64(n)
			c.avgLatency /= float64(n)
		}
		if c.qualityCount > 0 {
			c.avgQuality /= float64(c.qualityCount)
		}
		if budgetLimit != nil && c.avgCost > *budgetLimit {
			continue
		}
		if minQuality != nil && c.qualityCount > 0 && c.avgQuality < *minQuality {
			continue
		}
		candidates = append(candidates, *c)
	}

	less := func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		switch goal {
		case "minimize_cost":
			return a.avgCost < b.avgCost
		case "maximize_quality":
			return a.avgQuality > b.avgQuality
		case "minimize_latency":
			return a.avgLatency < b.avgLatency
		default: // balance
			return (a.avgCost - a.avgQuality) < (b.avgCost - b.avgQuality)
		}
	}
	sort.Slice(candidates, less)

	result := map[string]any{"goal": goal, "candidates": candidates, "applied": false}
	if len(candidates) > 0 {
		result["suggested_model"] = candidates[0].model
	}
	return result
}
