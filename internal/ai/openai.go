package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const commandPrompt = `You are a programming assistant that controls VS Code and other applications.
Always respond in JSON format with the following structure:
{
    "command": {
        "type": "vscode|browser|window|system",
        "action": "action_name",
        "params": {
            "param1": "value1"
        }
    },
    "response": "short message to user"
}

Example for opening VS Code:
{
    "command": {
        "type": "vscode",
        "action": "open",
        "params": {}
    },
    "response": "Opening VS Code"
}

Example for opening a file:
{
    "command": {
        "type": "vscode",
        "action": "open_file",
        "params": {
            "path": "path/to/file.txt"
        }
    },
    "response": "Opening specified file"
}

If no application action is needed, omit the command and answer in "response".
Keep responses concise and clear.`

const analysisPrompt = `You are an expert programming assistant specializing in debugging and code analysis.`

type openAIClient struct {
	client    openai.Client
	model     string
	maxTokens int
}

func newOpenAIClient(apiKey, model string, maxTokens int) *openAIClient {
	if strings.TrimSpace(model) == "" {
		model = "gpt-4"
	}
	if maxTokens <= 0 {
		maxTokens = 150
	}
	return &openAIClient{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *openAIClient) Process(ctx context.Context, query string) (Reply, error) {
	content, err := c.complete(ctx, commandPrompt, query)
	if err != nil {
		return Reply{}, err
	}
	return parseReply(content), nil
}

func (c *openAIClient) AnalyzeCode(ctx context.Context, code, errMsg, notes string) (AnalysisReport, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Please analyze the following code:\n```\n%s\n```\n", code)
	if errMsg != "" {
		fmt.Fprintf(&b, "\nError message:\n%s\n", errMsg)
	}
	if notes != "" {
		fmt.Fprintf(&b, "\nAdditional context:\n%s\n", notes)
	}
	b.WriteString(`
Please provide:
1. Detailed analysis of potential issues
2. Root cause identification
3. Suggested improvements
4. Best practices that could prevent similar issues

Format your response as JSON with the following structure:
{
    "analysis": {"issues": [], "root_cause": ""},
    "suggestions": {"fixes": [], "improvements": [], "best_practices": []}
}`)

	content, err := c.complete(ctx, analysisPrompt, b.String())
	if err != nil {
		return AnalysisReport{}, err
	}

	var report AnalysisReport
	if err := json.Unmarshal([]byte(stripFences(content)), &report); err != nil {
		return AnalysisReport{}, fmt.Errorf("unmarshal analysis: %w (raw: %s)", err, content)
	}
	return report, nil
}

func (c *openAIClient) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:     c.model,
		MaxTokens: openai.Int(int64(c.maxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty message content")
	}
	return content, nil
}
