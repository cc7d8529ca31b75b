package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/ajitpratap0/cryptofunk/internal/metrics"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

const assessProposalTool = "assess_proposal"

// MCPClient calls the risk-analyzer MCP tool server over stdio, guarded by a
// circuit breaker. A nil *MCPClient (no server configured) is a valid value;
// AssessProposal always returns an error in that case so the caller falls back.
type MCPClient struct {
	client  *mcp.Client
	session *mcp.ClientSession
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewMCPClient spawns the configured stdio server and connects to it.
// The caller owns the returned client's lifetime and should call Close on
// shutdown.
func NewMCPClient(ctx context.Context, name, command string, args []string, timeoutMS int, breaker *gobreaker.CircuitBreaker) (*MCPClient, error) {
	timeout := time.Duration(timeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "poolmind-risk-gate", Version: "1.0.0"}, nil)

	cmd := exec.CommandContext(ctx, command, args...) // #nosec G204 command comes from validated config
	transport := &mcp.CommandTransport{Command: cmd}

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", name, err)
	}

	return &MCPClient{client: client, session: session, breaker: breaker, timeout: timeout}, nil
}

// Close ends the MCP session and its underlying process.
func (c *MCPClient) Close() error {
	if c == nil || c.session == nil {
		return nil
	}
	return c.session.Close()
}

// AssessProposal calls the assess_proposal tool and returns its raw JSON
// payload, routed through the circuit breaker.
func (c *MCPClient) AssessProposal(ctx context.Context, args map[string]interface{}) (string, error) {
	if c == nil || c.session == nil {
		return "", fmt.Errorf("risk-analyzer MCP client not configured")
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	run := func() (interface{}, error) {
		result, err := c.session.CallTool(callCtx, &mcp.CallToolParams{
			Name:      assessProposalTool,
			Arguments: args,
		})
		if err != nil {
			return nil, err
		}
		if len(result.Content) == 0 {
			return nil, fmt.Errorf("empty result from %s", assessProposalTool)
		}
		text, ok := result.Content[0].(*mcp.TextContent)
		if !ok {
			return nil, fmt.Errorf("expected TextContent, got %T", result.Content[0])
		}
		return text.Text, nil
	}

	start := time.Now()
	var out interface{}
	var err error
	if c.breaker != nil {
		out, err = c.breaker.Execute(run)
	} else {
		out, err = run()
	}
	metrics.RecordMCPToolCall(assessProposalTool, "risk-analyzer", float64(time.Since(start).Milliseconds()))
	if err != nil {
		log.Warn().Err(err).Msg("risk gate: MCP call failed")
		return "", err
	}
	return out.(string), nil
}

// unmarshalResponse is a tiny indirection so risk.go's Assess can be tested
// without a live MCP session.
func unmarshalResponse(raw string, target interface{}) error {
	return json.Unmarshal([]byte(raw), target)
}
