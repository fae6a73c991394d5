package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(context.Background(), DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func TestDefaultPolicyAllows(t *testing.T) {
	e := newTestEngine(t)

	decision, _, err := e.Evaluate(context.Background(), Input{AgentID: 1, Caller: "w", QueryChars: 10, MaxQueryChars: 100})
	require.NoError(t, err)
	assert.Equal(t, DecisionAllow, decision)
}

func TestDefaultPolicyBlocksLongQuery(t *testing.T) {
	e := newTestEngine(t)

	decision, reason, err := e.Evaluate(context.Background(), Input{AgentID: 1, Caller: "w", QueryChars: 101, MaxQueryChars: 100})
	require.NoError(t, err)
	assert.Equal(t, DecisionBlock, decision)
	assert.Contains(t, reason, "too long")
}

func TestDefaultPolicyBlocksMissingCaller(t *testing.T) {
	e := newTestEngine(t)

	decision, reason, err := e.Evaluate(context.Background(), Input{AgentID: 1, QueryChars: 500, MaxQueryChars: 100})
	require.NoError(t, err)
	assert.Equal(t, DecisionBlock, decision)
	assert.Contains(t, reason, "wallet")
}

func TestZeroLimitDisablesLengthCheck(t *testing.T) {
	e := newTestEngine(t)

	decision, _, err := e.Evaluate(context.Background(), Input{Caller: "w", QueryChars: 1 << 20})
	require.NoError(t, err)
	assert.Equal(t, DecisionAllow, decision)
}

func TestCustomPolicyByCapability(t *testing.T) {
	e, err := NewEngine(context.Background(), `
package query_policy

default decision = "allow"

decision = "block" {
	input.capability == "job_application"
}

reason = "closed" {
	input.capability == "job_application"
}
`)
	require.NoError(t, err)

	decision, reason, err := e.Evaluate(context.Background(), Input{Capability: "job_application", Caller: "w"})
	require.NoError(t, err)
	assert.Equal(t, DecisionBlock, decision)
	assert.Equal(t, "closed", reason)
}

func TestInvalidPolicy(t *testing.T) {
	_, err := NewEngine(context.Background(), "package query_policy\n\ndecision = {")
	assert.Error(t, err)
}
