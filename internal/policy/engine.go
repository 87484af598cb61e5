// Package policy evaluates the query admission policy with OPA.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/YinChingZ/LawAI/internal/domain"
)

// Input is the document the policy is evaluated against.
type Input struct {
	IsGuest         bool `json:"is_guest"`
	MessageRunes    int  `json:"message_runes"`
	MaxMessageRunes int  `json:"max_message_runes"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.query_policy.decision"),
		rego.Module("query_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate returns the decision (allow or block) for a query.
func (e *Engine) Evaluate(ctx context.Context, input Input) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return domain.DecisionAllow, nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return domain.DecisionAllow, nil
}

// DefaultPolicy blocks messages longer than the configured limit.
const DefaultPolicy = `
package query_policy

default decision := "allow"

decision := "block" if {
	input.max_message_runes > 0
	input.message_runes > input.max_message_runes
}
`
