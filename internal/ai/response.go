package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mrz1836/cadence/internal/domain"
	"github.com/mrz1836/cadence/internal/errors"
)

// ClaudeResponse is the JSON document printed by `claude -p --output-format json`.
type ClaudeResponse struct {
	Type      string  `json:"type"`
	Subtype   string  `json:"subtype"`
	IsError   bool    `json:"is_error"`
	Result    string  `json:"result"`
	SessionID string  `json:"session_id"`
	Duration  int64   `json:"duration_ms"`
	NumTurns  int     `json:"num_turns"`
	TotalCost float64 `json:"total_cost_usd"`
}

// parseClaudeResponse parses the CLI's JSON output.
// Returns an error wrapped with ErrClaudeInvocation on parse failure.
func parseClaudeResponse(data []byte) (*ClaudeResponse, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: empty response", errors.ErrClaudeInvocation)
	}

	var resp ClaudeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse json response: %s", errors.ErrClaudeInvocation, err.Error())
	}
	return &resp, nil
}

// toOutcome maps the CLI response onto an Outcome. An error response carries
// its subtype and stderr in Errors.
func (r *ClaudeResponse) toOutcome(stderr string) *domain.Outcome {
	outcome := &domain.Outcome{
		Success:    !r.IsError,
		CostUSD:    r.TotalCost,
		TurnCount:  r.NumTurns,
		DurationMs: r.Duration,
	}
	if r.Result != "" {
		text := r.Result
		outcome.ResultText = &text
	}

	if r.IsError {
		if r.Subtype != "" && r.Subtype != "success" {
			outcome.Errors = append(outcome.Errors, r.Subtype)
		}
		if s := strings.TrimSpace(stderr); s != "" {
			outcome.Errors = append(outcome.Errors, s)
		}
	}
	return outcome
}
