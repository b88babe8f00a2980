package okrtools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/jaakkos/okrboard/internal/app"
	"github.com/jaakkos/okrboard/internal/domain"
	"github.com/jaakkos/okrboard/internal/okr"
	"github.com/jaakkos/okrboard/internal/policy"
	"github.com/jaakkos/okrboard/internal/sheets"
)

const actor = "ana@grougp.com.br"

var testNow = time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

type memAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (m *memAudit) Append(_ context.Context, entries ...domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memAudit) List(_ context.Context, f domain.AuditFilter) ([]domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AuditEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if f.Matches(m.entries[i]) {
			out = append(out, m.entries[i])
		}
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (m *memAudit) Close() error { return nil }

func testTabs() map[string]okr.Table {
	return map[string]okr.Table{
		"SDR": {
			{"OBJETIVO 1", "Pipeline"},
			{"KR 1", "Reuniões agendadas", "0", "40", "100"},
			{"KR 2", "Taxa de conversão", "0", "45,5%", "50%"},
		},
		"CS": {
			{"OBJETIVO 1", "Retention"},
			{"KR 1", "Reuniões agendadas", "0", "10", "100"},
		},
		"ADM": {},
	}
}

// testServer creates a MCPServer with the OKR tools registered over an
// in-memory sheet source.
func testServer(t *testing.T, enabled ...string) (*server.MCPServer, *sheets.Memory) {
	t.Helper()
	if len(enabled) == 0 {
		enabled = []string{"*"}
	}
	cfg := &policy.Config{
		Title:        "Board",
		Teams:        []string{"SDR", "CS", "ADM"},
		Source:       policy.SourceConfig{ReadRange: "A1:H50", ValueColumn: "D"},
		Auth:         policy.AuthConfig{AllowedDomains: []string{"grougp.com.br"}},
		EnabledTools: enabled,
	}
	src := sheets.NewMemory(testTabs())
	svc := app.NewBoardService(src, &memAudit{}, policy.New(cfg), zap.NewNop())

	s := server.NewMCPServer("test", "1.0.0")
	Register(s, svc, zap.NewNop(), WithClock(func() time.Time { return testNow }))
	return s, src
}

func rpc(t *testing.T, s *server.MCPServer, method string, params any) []byte {
	t.Helper()
	reqJSON, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	respBytes, err := json.Marshal(s.HandleMessage(context.Background(), reqJSON))
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return respBytes
}

// callTool calls a registered tool via the MCPServer's HandleMessage.
// Returns the parsed CallToolResult or an error.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) (*mcp.CallToolResult, error) {
	t.Helper()

	respBytes := rpc(t, s, "tools/call", map[string]any{"name": name, "arguments": args})

	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("RPC error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	var result mcp.CallToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	return &result, nil
}

// toolNames lists the tools the server advertises.
func toolNames(t *testing.T, s *server.MCPServer) []string {
	t.Helper()
	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rpc(t, s, "tools/list", map[string]any{}), &resp); err != nil {
		t.Fatalf("unmarshal tools/list: %v", err)
	}
	var names []string
	for _, tool := range resp.Result.Tools {
		names = append(names, tool.Name)
	}
	return names
}

// resultText extracts the first text content from a CallToolResult.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("result is nil")
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("no text content in result")
	return ""
}
