// Package policy evaluates query admission rules written in Rego.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Decisions returned by Evaluate.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Input is the document a policy is evaluated against.
type Input struct {
	AgentID       uint32 `json:"agent_id"`
	Capability    string `json:"capability"`
	Caller        string `json:"caller"`
	QueryChars    int    `json:"query_chars"`
	MaxQueryChars int    `json:"max_query_chars"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
// The module must define data.query_policy.decision and may define reason.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.query_policy"),
		rego.Module("query_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate returns the decision (allow or block) and its reason.
func (e *Engine) Evaluate(ctx context.Context, input Input) (string, string, error) {
	doc := map[string]interface{}{
		"agent_id":        int(input.AgentID),
		"capability":      input.Capability,
		"caller":          input.Caller,
		"query_chars":     input.QueryChars,
		"max_query_chars": input.MaxQueryChars,
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(doc))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, "default", nil
	}

	obj, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return "", "", fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
	}

	decision, _ := obj["decision"].(string)
	reason, _ := obj["reason"].(string)
	switch decision {
	case DecisionAllow, DecisionBlock:
		return decision, reason, nil
	case "":
		return DecisionAllow, "default", nil
	}
	return "", "", fmt.Errorf("unknown policy decision %q", decision)
}

// DefaultPolicy is the default admission policy.
const DefaultPolicy = `
package query_policy

default decision = "allow"

default reason = ""

decision = "block" {
	input.caller == ""
}

decision = "block" {
	input.max_query_chars > 0
	input.query_chars > input.max_query_chars
}

reason = "A wallet address is required to query an agent." {
	input.caller == ""
} else = "Your query is too long. Please shorten it and try again." {
	input.max_query_chars > 0
	input.query_chars > input.max_query_chars
}
`
