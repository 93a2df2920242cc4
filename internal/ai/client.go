package ai

import (
	"context"
	"encoding/json"
	"strings"
)

// Command is a structured action embedded in a model reply. Type and
// Action line up with the dispatcher's executor vocabulary.
type Command struct {
	Type   string         `json:"type"`
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// Reply is the parsed result of a free-form query. Command is nil when
// the model answered conversationally.
type Reply struct {
	Response string   `json:"response"`
	Command  *Command `json:"command,omitempty"`
}

// AnalysisReport is the structured output of code analysis.
type AnalysisReport struct {
	Analysis struct {
		Issues    []string `json:"issues"`
		RootCause string   `json:"root_cause"`
	} `json:"analysis"`
	Suggestions struct {
		Fixes         []string `json:"fixes"`
		Improvements  []string `json:"improvements"`
		BestPractices []string `json:"best_practices"`
	} `json:"suggestions"`
}

// Client answers queries that fall through the keyword classifier.
type Client interface {
	Process(ctx context.Context, query string) (Reply, error)
	AnalyzeCode(ctx context.Context, code, errMsg, notes string) (AnalysisReport, error)
}

// Config controls client construction.
type Config struct {
	Mode      string
	APIKey    string
	Model     string
	MaxTokens int
	HTTPURL   string
}

// NewClient selects a backend. Auto mode prefers the OpenAI API when a
// key is present, then a generic HTTP endpoint, then the local mock.
func NewClient(cfg Config) Client {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "openai":
		return newOpenAIClient(cfg.APIKey, cfg.Model, cfg.MaxTokens)
	case "http":
		return NewHTTPClient(cfg.HTTPURL)
	case "mock":
		return NewMockClient()
	default: // auto
		if strings.TrimSpace(cfg.APIKey) != "" {
			return newOpenAIClient(cfg.APIKey, cfg.Model, cfg.MaxTokens)
		}
		if strings.TrimSpace(cfg.HTTPURL) != "" {
			return NewHTTPClient(cfg.HTTPURL)
		}
		return NewMockClient()
	}
}

// parseReply decodes the command envelope out of raw model output.
// Non-JSON output is treated as a plain conversational response rather
// than an error.
func parseReply(raw string) Reply {
	cleaned := stripFences(raw)

	var envelope struct {
		Command  *Command `json:"command"`
		Response string   `json:"response"`
	}
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return Reply{Response: strings.TrimSpace(raw)}
	}

	reply := Reply{Response: envelope.Response, Command: envelope.Command}
	if reply.Command != nil {
		if reply.Command.Params == nil {
			reply.Command.Params = map[string]any{}
		}
		// A command with no type is noise, not an action.
		if strings.TrimSpace(reply.Command.Type) == "" || reply.Command.Type == "error" {
			reply.Command = nil
		}
	}
	if reply.Response == "" && reply.Command == nil {
		reply.Response = strings.TrimSpace(raw)
	}
	return reply
}

// stripFences unwraps model output fenced as a markdown code block.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.Contains(s, "```") {
		return s
	}
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
	} else if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
	}
	if j := strings.Index(s, "```"); j >= 0 {
		s = s[:j]
	}
	return strings.TrimSpace(s)
}
