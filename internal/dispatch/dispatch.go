// Package dispatch routes classified commands to their executors and
// speaks the results. A single goroutine owns command processing so
// executor side effects never race each other.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hjoshifonteva/DebugAssistant/internal/ai"
	"github.com/hjoshifonteva/DebugAssistant/internal/command"
	"github.com/hjoshifonteva/DebugAssistant/internal/executor"
	"github.com/hjoshifonteva/DebugAssistant/internal/history"
	"github.com/hjoshifonteva/DebugAssistant/internal/observability"
	"github.com/hjoshifonteva/DebugAssistant/internal/policy"
	"github.com/hjoshifonteva/DebugAssistant/internal/protocol"
	"github.com/hjoshifonteva/DebugAssistant/internal/session"
	"github.com/hjoshifonteva/DebugAssistant/internal/speech"
)

const (
	defaultQueueSize = 64
	screenTimeout    = 30 * time.Second
	aiTimeout        = 60 * time.Second
)

// Command is one unit of user input waiting to be processed.
type Command struct {
	ID          string
	SessionID   string
	Source      string
	Text        string
	SubmittedAt time.Time
}

// NewCommand stamps a command with an ID and submission time so callers
// can report the ID back before processing finishes.
func NewCommand(sessionID, source, text string) Command {
	return Command{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Source:      source,
		Text:        text,
		SubmittedAt: time.Now(),
	}
}

// Speech is the slice of the speech controller the dispatcher drives.
type Speech interface {
	Enqueue(text string)
	Interrupt()
	Resume()
	AdjustVolume(delta float64) float64
	AdjustRate(delta int) int
	Status() speech.State
}

// Executors bundles the desktop integrations.
type Executors struct {
	Editor  *executor.Editor
	Browser *executor.Browser
	Window  *executor.Window
	System  *executor.System
	Screen  *executor.Screen
}

type Dispatcher struct {
	speech   Speech
	ai       ai.Client
	store    history.Store
	sessions *session.Manager
	metrics  *observability.Metrics
	hub      *Hub
	exec     Executors

	queue chan Command

	// lastResponse backs the "repeat" builtin. Only the worker
	// goroutine touches it.
	lastResponse string
}

func New(sp Speech, client ai.Client, store history.Store, exec Executors, sessions *session.Manager, metrics *observability.Metrics, hub *Hub) *Dispatcher {
	if hub == nil {
		hub = NewHub()
	}
	return &Dispatcher{
		speech:   sp,
		ai:       client,
		store:    store,
		sessions: sessions,
		metrics:  metrics,
		hub:      hub,
		exec:     exec,
		queue:    make(chan Command, defaultQueueSize),
	}
}

func (d *Dispatcher) Hub() *Hub { return d.hub }

// Submit hands a command to the worker. It never blocks; when the queue
// is full the command is dropped and false returned.
func (d *Dispatcher) Submit(cmd Command) bool {
	if strings.TrimSpace(cmd.Text) == "" {
		return false
	}
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	if cmd.SubmittedAt.IsZero() {
		cmd.SubmittedAt = time.Now()
	}
	select {
	case d.queue <- cmd:
		return true
	default:
		log.Printf("dispatch: queue full, dropping command %q", cmd.Text)
		if d.metrics != nil {
			d.metrics.CommandsDropped.Inc()
		}
		return false
	}
}

// Run processes commands until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-d.queue:
			d.handle(ctx, cmd)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, cmd Command) {
	start := time.Now()
	text := strings.TrimSpace(cmd.Text)

	d.hub.Publish(protocol.CommandAccepted{
		Type:      protocol.TypeCommandAccepted,
		CommandID: cmd.ID,
		SessionID: cmd.SessionID,
		Text:      text,
	})
	if d.sessions != nil && cmd.SessionID != "" {
		if err := d.sessions.StartCommand(cmd.SessionID, cmd.ID); err != nil {
			log.Printf("dispatch: session %s: %v", cmd.SessionID, err)
		}
	}

	if response, ok := d.builtin(ctx, text); ok {
		d.speech.Enqueue(response)
		d.lastResponse = response
		d.record(ctx, cmd, command.Intent{Category: "builtin", Action: strings.ToLower(text)}, response)
		d.hub.Publish(protocol.NewCommandResult(cmd.ID, response))
		return
	}

	intent := command.Classify(text)
	if intent.Category == command.CategoryVoice && intent.Action == "stop" &&
		d.sessions != nil && cmd.SessionID != "" {
		_ = d.sessions.Interrupt(cmd.SessionID)
	}
	d.hub.Publish(protocol.IntentResolved{
		Type:      protocol.TypeIntentResolved,
		CommandID: cmd.ID,
		Category:  string(intent.Category),
		Action:    intent.Action,
		Params:    intent.Params,
	})
	d.metrics.ObserveCommand(string(intent.Category), intent.Action)

	response, speak, err := d.execute(ctx, intent)
	if err != nil {
		log.Printf("dispatch: %s/%s failed: %v", intent.Category, intent.Action, err)
		d.metrics.ObserveCommandError(string(intent.Category))
		d.hub.Publish(protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			CommandID: cmd.ID,
			Code:      "execution_failed",
			Detail:    err.Error(),
		})
		response = "Sorry, " + err.Error()
		speak = true
	}

	if speak && response != "" {
		d.speech.Enqueue(response)
		d.lastResponse = response
	}
	d.record(ctx, cmd, intent, response)
	d.hub.Publish(protocol.NewCommandResult(cmd.ID, response))
	d.metrics.ObserveCommandLatency(time.Since(start))
}

func (d *Dispatcher) builtin(ctx context.Context, text string) (string, bool) {
	switch strings.ToLower(text) {
	case "help", "what can you do":
		return "I can open and control VS Code, browse and search the web, manage windows, " +
			"adjust system volume and brightness, read the screen out loud, and answer " +
			"programming questions. Say stop to interrupt me and resume to continue.", true
	case "history", "show history":
		records, err := d.store.Recent(ctx, 5)
		if err != nil || len(records) == 0 {
			return "No recent commands.", true
		}
		var b strings.Builder
		b.WriteString("Recent commands: ")
		for i, r := range records {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(r.Text)
		}
		b.WriteString(".")
		return b.String(), true
	case "repeat", "say that again":
		if d.lastResponse == "" {
			return "I haven't said anything yet.", true
		}
		return d.lastResponse, true
	}
	return "", false
}

func (d *Dispatcher) execute(ctx context.Context, intent command.Intent) (response string, speak bool, err error) {
	switch intent.Category {
	case command.CategoryVoice:
		return d.executeVoice(intent)
	case command.CategoryScreen:
		return d.executeScreen(ctx, intent)
	case command.CategoryEditor:
		response, err = d.executeEditor(intent)
		return response, true, err
	case command.CategoryBrowser:
		response, err = d.executeBrowser(intent)
		return response, true, err
	case command.CategoryWindow:
		response, err = d.executeWindow(intent)
		return response, true, err
	case command.CategorySystem:
		response, err = d.executeSystem(intent)
		return response, true, err
	case command.CategoryAIQuery:
		return d.executeAIQuery(ctx, intent)
	default:
		return "", false, fmt.Errorf("unknown command category %q", intent.Category)
	}
}

// executeVoice responses are recorded but never spoken: answering "stop"
// out loud would defeat the point.
func (d *Dispatcher) executeVoice(intent command.Intent) (string, bool, error) {
	switch intent.Action {
	case "stop":
		d.speech.Interrupt()
		if d.metrics != nil {
			d.metrics.SpeechInterrupts.Inc()
		}
		return "Stopped.", false, nil
	case "resume":
		d.speech.Resume()
		return "Resuming.", false, nil
	default:
		return "", false, fmt.Errorf("unknown voice action %q", intent.Action)
	}
}

func (d *Dispatcher) executeScreen(ctx context.Context, intent command.Intent) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, screenTimeout)
	defer cancel()

	var text string
	var err error
	switch intent.Action {
	case "read_code":
		text, err = d.exec.Screen.ReadCode(ctx)
	default:
		text, err = d.exec.Screen.ReadText(ctx)
	}
	if err != nil {
		return "", false, err
	}
	if intent.Action == "read_code" {
		return d.analyzeCapturedCode(ctx, text)
	}
	return text, true, nil
}

// analyzeCapturedCode runs OCR'd code through the analysis backend. When
// the backend fails the raw capture is still read out.
func (d *Dispatcher) analyzeCapturedCode(ctx context.Context, code string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, aiTimeout)
	defer cancel()

	report, err := d.ai.AnalyzeCode(ctx, code, "", "captured from the user's screen via OCR")
	if err != nil {
		log.Printf("dispatch: code analysis failed, reading raw capture: %v", err)
		d.metrics.ObserveAIRequest("error")
		return code, true, nil
	}
	d.metrics.ObserveAIRequest("ok")

	summary := summarizeAnalysis(report)
	if summary == "" {
		return code, true, nil
	}
	return summary, true, nil
}

func summarizeAnalysis(report ai.AnalysisReport) string {
	var parts []string
	if report.Analysis.RootCause != "" {
		parts = append(parts, report.Analysis.RootCause)
	}
	if len(report.Analysis.Issues) > 0 {
		parts = append(parts, "Issues found: "+strings.Join(report.Analysis.Issues, "; "))
	}
	if len(report.Suggestions.Fixes) > 0 {
		parts = append(parts, "Suggested fix: "+report.Suggestions.Fixes[0])
	}
	return strings.Join(parts, ". ")
}

func (d *Dispatcher) executeEditor(intent command.Intent) (string, error) {
	switch intent.Action {
	case "open":
		return d.exec.Editor.Open()
	case "open_file":
		path := paramString(intent.Params, "file")
		if path == "" {
			path = paramString(intent.Params, "path")
		}
		return d.exec.Editor.OpenFile(path)
	case "create_workspace":
		return d.exec.Editor.CreateWorkspace(paramString(intent.Params, "name"))
	default:
		return "", fmt.Errorf("unknown editor action %q", intent.Action)
	}
}

func (d *Dispatcher) executeBrowser(intent command.Intent) (string, error) {
	browser := paramString(intent.Params, "browser")
	private := paramBool(intent.Params, "private")
	switch intent.Action {
	case "search":
		return d.exec.Browser.Search(paramString(intent.Params, "terms"), browser, private)
	case "open":
		return d.exec.Browser.Open(paramString(intent.Params, "url"), browser, private)
	default:
		return "", fmt.Errorf("unknown browser action %q", intent.Action)
	}
}

func (d *Dispatcher) executeWindow(intent command.Intent) (string, error) {
	app := paramString(intent.Params, "app")
	switch intent.Action {
	case "maximize":
		return d.exec.Window.Maximize(app)
	case "minimize":
		return d.exec.Window.Minimize(app)
	case "restore":
		return d.exec.Window.Restore(app)
	case "switch":
		return d.exec.Window.Switch(app)
	default:
		return "", fmt.Errorf("unknown window action %q", intent.Action)
	}
}

func (d *Dispatcher) executeSystem(intent command.Intent) (string, error) {
	switch intent.Action {
	case "set_volume":
		return d.exec.System.SetVolume(paramInt(intent.Params, "level"))
	case "set_brightness":
		return d.exec.System.SetBrightness(paramInt(intent.Params, "level"))
	case "shutdown":
		return d.exec.System.Shutdown()
	case "restart":
		return d.exec.System.Restart()
	default:
		return "", fmt.Errorf("unknown system action %q", intent.Action)
	}
}

func (d *Dispatcher) executeAIQuery(ctx context.Context, intent command.Intent) (string, bool, error) {
	query := paramString(intent.Params, "query")
	if decision := policy.DecideIntent(query); decision.Blocked {
		return "I can't help with that request.", true, nil
	}

	ctx, cancel := context.WithTimeout(ctx, aiTimeout)
	defer cancel()

	reply, err := d.ai.Process(ctx, query)
	if err != nil {
		d.metrics.ObserveAIRequest("error")
		return "", false, fmt.Errorf("the assistant backend failed: %w", err)
	}
	d.metrics.ObserveAIRequest("ok")

	response := reply.Response
	if reply.Command != nil {
		// Model-suggested commands run through the same executors, one
		// level deep. The converted intent can never be ai_query again.
		if converted, ok := convertAICommand(reply.Command); ok {
			result, _, execErr := d.execute(ctx, converted)
			if execErr != nil {
				log.Printf("dispatch: model command %s/%s failed: %v",
					reply.Command.Type, reply.Command.Action, execErr)
			} else if response == "" {
				response = result
			}
		}
	}
	if response == "" {
		response = "I don't have an answer for that."
	}
	return response, true, nil
}

// convertAICommand maps the model's command envelope onto classifier
// intents.
func convertAICommand(cmd *ai.Command) (command.Intent, bool) {
	params := cmd.Params
	if params == nil {
		params = map[string]any{}
	}
	var category command.Category
	switch strings.ToLower(cmd.Type) {
	case "vscode", "editor":
		category = command.CategoryEditor
	case "browser":
		category = command.CategoryBrowser
	case "window":
		category = command.CategoryWindow
	case "system":
		category = command.CategorySystem
	default:
		return command.Intent{}, false
	}
	return command.Intent{Category: category, Action: strings.ToLower(cmd.Action), Params: params}, true
}

func (d *Dispatcher) record(ctx context.Context, cmd Command, intent command.Intent, response string) {
	if d.store == nil {
		return
	}
	text, _ := policy.RedactPII(cmd.Text)
	response, _ = policy.RedactPII(response)

	rec := history.CommandRecord{
		ID:        cmd.ID,
		SessionID: cmd.SessionID,
		Source:    cmd.Source,
		Text:      text,
		Category:  string(intent.Category),
		Action:    intent.Action,
		Response:  response,
		CreatedAt: cmd.SubmittedAt.UTC(),
	}
	if err := d.store.Append(ctx, rec); err != nil {
		log.Printf("dispatch: history append failed: %v", err)
	}
}

func paramString(params map[string]any, key string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func paramInt(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func paramBool(params map[string]any, key string) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return false
}
