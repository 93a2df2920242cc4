package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hjoshifonteva/DebugAssistant/internal/ai"
	"github.com/hjoshifonteva/DebugAssistant/internal/executor"
	"github.com/hjoshifonteva/DebugAssistant/internal/history"
	"github.com/hjoshifonteva/DebugAssistant/internal/protocol"
	"github.com/hjoshifonteva/DebugAssistant/internal/session"
	"github.com/hjoshifonteva/DebugAssistant/internal/speech"
)

type fakeSpeech struct {
	enqueued    []string
	interrupted int
	resumed     int
}

func (f *fakeSpeech) Enqueue(text string) { f.enqueued = append(f.enqueued, text) }
func (f *fakeSpeech) Interrupt() { f.interrupted++ }
func (f *fakeSpeech) Resume() { f.resumed++ }
func (f *fakeSpeech) AdjustVolume(delta float64) float64 { return 0.9 }
func (f *fakeSpeech) AdjustRate(delta int) int { return 150 }
func (f *fakeSpeech) Status() speech.State { return speech.State{} }

type scriptedAI struct {
	reply    ai.Reply
	report   ai.AnalysisReport
	err      error
	query    string
	analyzed string
}

func (s *scriptedAI) Process(ctx context.Context, query string) (ai.Reply, error) {
	s.query = query
	return s.reply, s.err
}

func (s *scriptedAI) AnalyzeCode(ctx context.Context, code, errMsg, notes string) (ai.AnalysisReport, error) {
	s.analyzed = code
	return s.report, s.err
}

type launchRecorder struct {
	mu   sync.Mutex
	name string
	args []string
}

func (l *launchRecorder) launcher() executor.Launcher {
	return func(name string, args ...string) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.name = name
		l.args = args
		return nil
	}
}

func (l *launchRecorder) lastName() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.name
}

func (l *launchRecorder) lastArgs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.args))
	copy(out, l.args)
	return out
}

func newTestDispatcher(t *testing.T, sp *fakeSpeech, client ai.Client) (*Dispatcher, *launchRecorder, history.Store) {
	t.Helper()
	if client == nil {
		client = ai.NewMockClient()
	}
	var rec launchRecorder
	store := history.NewInMemoryStore()
	exec := Executors{
		Editor:  executor.NewEditor("code", t.TempDir(), rec.launcher()),
		Browser: executor.NewBrowser("chrome", rec.launcher()),
		Window:  executor.NewWindow("wmctrl", rec.launcher()),
		System:  executor.NewSystem(false, rec.launcher()),
		Screen:  executor.NewScreen("scrot", "tesseract", nil),
	}
	return New(sp, client, store, exec, nil, nil, NewHub()), &rec, store
}

func TestDispatcherEditorCommand(t *testing.T) {
	sp := &fakeSpeech{}
	d, rec, store := newTestDispatcher(t, sp, nil)

	d.handle(context.Background(), Command{ID: "c1", Source: "text", Text: "open vscode", SubmittedAt: time.Now()})

	if rec.lastName() != "code" {
		t.Fatalf("launched %q, want code", rec.lastName())
	}
	if len(sp.enqueued) != 1 || sp.enqueued[0] != "Opening VS Code" {
		t.Fatalf("spoken = %q", sp.enqueued)
	}

	records, err := store.Recent(context.Background(), 1)
	if err != nil || len(records) != 1 {
		t.Fatalf("recent: %v %v", records, err)
	}
	if records[0].Category != "editor" || records[0].Action != "open" {
		t.Fatalf("record = %+v", records[0])
	}
}

func TestDispatcherSetVolumeRunsSystemCommand(t *testing.T) {
	sp := &fakeSpeech{}
	d, rec, _ := newTestDispatcher(t, sp, nil)

	d.handle(context.Background(), Command{ID: "c1", Text: "set volume to 80", SubmittedAt: time.Now()})

	if rec.lastName() != "pactl" {
		t.Fatalf("launched %q, want pactl", rec.lastName())
	}
	args := rec.lastArgs()
	if len(args) == 0 || args[len(args)-1] != "80%" {
		t.Fatalf("args = %q, want trailing 80%%", args)
	}
	if len(sp.enqueued) != 1 || sp.enqueued[0] != "Setting volume to 80 percent" {
		t.Fatalf("spoken = %q", sp.enqueued)
	}
}

func TestDispatcherOpenFilePassesPath(t *testing.T) {
	sp := &fakeSpeech{}
	d, rec, _ := newTestDispatcher(t, sp, nil)

	d.handle(context.Background(), Command{ID: "c1", Text: "vscode open file main.go", SubmittedAt: time.Now()})

	if rec.lastName() != "code" {
		t.Fatalf("launched %q, want code", rec.lastName())
	}
	args := rec.lastArgs()
	if len(args) != 2 || args[0] != "--goto" || args[1] != "main.go" {
		t.Fatalf("args = %q, want [--goto main.go]", args)
	}
	if len(sp.enqueued) != 1 || sp.enqueued[0] != "Opening file main.go" {
		t.Fatalf("spoken = %q", sp.enqueued)
	}
}

func TestDispatcherVoiceStopIsSilent(t *testing.T) {
	sp := &fakeSpeech{}
	d, _, _ := newTestDispatcher(t, sp, nil)

	d.handle(context.Background(), Command{ID: "c1", Text: "stop", SubmittedAt: time.Now()})

	if sp.interrupted != 1 {
		t.Fatalf("interrupted = %d, want 1", sp.interrupted)
	}
	if len(sp.enqueued) != 0 {
		t.Fatalf("stop must not be spoken, got %q", sp.enqueued)
	}

	d.handle(context.Background(), Command{ID: "c2", Text: "resume", SubmittedAt: time.Now()})
	if sp.resumed != 1 {
		t.Fatalf("resumed = %d, want 1", sp.resumed)
	}
}

func TestDispatcherAIQueryRunsModelCommand(t *testing.T) {
	sp := &fakeSpeech{}
	client := &scriptedAI{reply: ai.Reply{
		Response: "Opening VS Code for you",
		Command:  &ai.Command{Type: "vscode", Action: "open"},
	}}
	d, rec, _ := newTestDispatcher(t, sp, client)

	d.handle(context.Background(), Command{ID: "c1", Text: "I need my editor please", SubmittedAt: time.Now()})

	if client.query != "i need my editor please" {
		t.Fatalf("query = %q", client.query)
	}
	if rec.lastName() != "code" {
		t.Fatalf("model command did not launch editor, got %q", rec.lastName())
	}
	if len(sp.enqueued) != 1 || sp.enqueued[0] != "Opening VS Code for you" {
		t.Fatalf("spoken = %q", sp.enqueued)
	}
}

func TestDispatcherReadCodeAnalyzesCapture(t *testing.T) {
	sp := &fakeSpeech{}
	client := &scriptedAI{}
	client.report.Analysis.RootCause = "The loop index is shadowed inside the closure"
	client.report.Suggestions.Fixes = []string{"Capture the index in a local variable"}

	var rec launchRecorder
	store := history.NewInMemoryStore()
	fakeRun := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("for i := range xs { go func() { use(i) }() }"), nil
	}
	exec := Executors{
		Editor:  executor.NewEditor("code", t.TempDir(), rec.launcher()),
		Browser: executor.NewBrowser("chrome", rec.launcher()),
		Window:  executor.NewWindow("wmctrl", rec.launcher()),
		System:  executor.NewSystem(false, rec.launcher()),
		Screen:  executor.NewScreen("scrot", "tesseract", fakeRun),
	}
	d := New(sp, client, store, exec, nil, nil, NewHub())

	d.handle(context.Background(), Command{ID: "c1", Text: "read the code on my screen", SubmittedAt: time.Now()})

	if !strings.Contains(client.analyzed, "for i := range xs") {
		t.Fatalf("analyzer got %q, want the captured code", client.analyzed)
	}
	if len(sp.enqueued) != 1 {
		t.Fatalf("spoken = %q", sp.enqueued)
	}
	if !strings.Contains(sp.enqueued[0], "shadowed inside the closure") ||
		!strings.Contains(sp.enqueued[0], "Suggested fix: Capture the index") {
		t.Fatalf("spoken = %q, want analysis summary", sp.enqueued[0])
	}
}

func TestDispatcherReadCodeFallsBackOnAnalysisError(t *testing.T) {
	sp := &fakeSpeech{}
	client := &scriptedAI{err: errors.New("backend down")}

	var rec launchRecorder
	fakeRun := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("func main() {}"), nil
	}
	exec := Executors{
		Editor:  executor.NewEditor("code", t.TempDir(), rec.launcher()),
		Browser: executor.NewBrowser("chrome", rec.launcher()),
		Window:  executor.NewWindow("wmctrl", rec.launcher()),
		System:  executor.NewSystem(false, rec.launcher()),
		Screen:  executor.NewScreen("scrot", "tesseract", fakeRun),
	}
	d := New(sp, client, history.NewInMemoryStore(), exec, nil, nil, NewHub())

	d.handle(context.Background(), Command{ID: "c1", Text: "read the code on my screen", SubmittedAt: time.Now()})

	if len(sp.enqueued) != 1 || sp.enqueued[0] != "func main() {}" {
		t.Fatalf("spoken = %q, want the raw capture", sp.enqueued)
	}
}

func TestDispatcherErrorIsSpoken(t *testing.T) {
	sp := &fakeSpeech{}
	d, _, _ := newTestDispatcher(t, sp, nil)

	// Switching without naming an application fails in the executor.
	d.handle(context.Background(), Command{ID: "c1", Text: "switch window", SubmittedAt: time.Now()})

	if len(sp.enqueued) != 1 || !strings.HasPrefix(sp.enqueued[0], "Sorry, ") {
		t.Fatalf("spoken = %q", sp.enqueued)
	}
}

func TestDispatcherTracksSessionActivity(t *testing.T) {
	sp := &fakeSpeech{}
	var rec launchRecorder
	sessions := session.NewManager(time.Minute)
	exec := Executors{
		Editor:  executor.NewEditor("code", t.TempDir(), rec.launcher()),
		Browser: executor.NewBrowser("chrome", rec.launcher()),
		Window:  executor.NewWindow("wmctrl", rec.launcher()),
		System:  executor.NewSystem(false, rec.launcher()),
		Screen:  executor.NewScreen("scrot", "tesseract", nil),
	}
	d := New(sp, ai.NewMockClient(), history.NewInMemoryStore(), exec, sessions, nil, NewHub())

	s := sessions.Create("text")

	d.handle(context.Background(), Command{ID: "c1", SessionID: s.ID, Text: "open vscode", SubmittedAt: time.Now()})

	got, err := sessions.Get(s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CommandCount != 1 {
		t.Fatalf("command count = %d, want 1", got.CommandCount)
	}

	d.handle(context.Background(), Command{ID: "c2", SessionID: s.ID, Text: "stop", SubmittedAt: time.Now()})

	got, err = sessions.Get(s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.InterruptionCount != 1 {
		t.Fatalf("interruption count = %d, want 1", got.InterruptionCount)
	}
	if got.CommandCount != 2 {
		t.Fatalf("command count = %d, want 2", got.CommandCount)
	}
}

func TestDispatcherBuiltinRepeat(t *testing.T) {
	sp := &fakeSpeech{}
	d, _, _ := newTestDispatcher(t, sp, nil)

	d.handle(context.Background(), Command{ID: "c1", Text: "repeat", SubmittedAt: time.Now()})
	if len(sp.enqueued) != 1 || sp.enqueued[0] != "I haven't said anything yet." {
		t.Fatalf("spoken = %q", sp.enqueued)
	}

	d.handle(context.Background(), Command{ID: "c2", Text: "open vscode", SubmittedAt: time.Now()})
	d.handle(context.Background(), Command{ID: "c3", Text: "say that again", SubmittedAt: time.Now()})

	if len(sp.enqueued) != 3 || sp.enqueued[2] != "Opening VS Code" {
		t.Fatalf("spoken = %q, want the last response repeated", sp.enqueued)
	}
}

func TestDispatcherBuiltinHistory(t *testing.T) {
	sp := &fakeSpeech{}
	d, _, store := newTestDispatcher(t, sp, nil)
	_ = store.Append(context.Background(), history.CommandRecord{Text: "open vscode"})

	d.handle(context.Background(), Command{ID: "c1", Text: "history", SubmittedAt: time.Now()})

	if len(sp.enqueued) != 1 || !strings.Contains(sp.enqueued[0], "open vscode") {
		t.Fatalf("spoken = %q", sp.enqueued)
	}
}

func TestDispatcherRedactsHistory(t *testing.T) {
	sp := &fakeSpeech{}
	d, _, store := newTestDispatcher(t, sp, nil)

	d.handle(context.Background(), Command{ID: "c1", Text: "email dev@example.com about the bug", SubmittedAt: time.Now()})

	records, err := store.Recent(context.Background(), 1)
	if err != nil || len(records) != 1 {
		t.Fatalf("recent: %v %v", records, err)
	}
	if strings.Contains(records[0].Text, "dev@example.com") {
		t.Fatalf("history not redacted: %q", records[0].Text)
	}
}

func TestDispatcherPublishesEvents(t *testing.T) {
	sp := &fakeSpeech{}
	d, _, _ := newTestDispatcher(t, sp, nil)

	events, unsub := d.Hub().Subscribe()
	defer unsub()

	d.handle(context.Background(), Command{ID: "c1", Text: "open vscode", SubmittedAt: time.Now()})

	var types []protocol.MessageType
	for len(types) < 3 {
		select {
		case evt := <-events:
			switch e := evt.(type) {
			case protocol.CommandAccepted:
				types = append(types, e.Type)
			case protocol.IntentResolved:
				types = append(types, e.Type)
			case protocol.CommandResult:
				types = append(types, e.Type)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out, events so far: %v", types)
		}
	}
	want := []protocol.MessageType{protocol.TypeCommandAccepted, protocol.TypeIntentResolved, protocol.TypeCommandResult}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("event[%d] = %s, want %s", i, types[i], want[i])
		}
	}
}

func TestSubmitDropsWhenFull(t *testing.T) {
	sp := &fakeSpeech{}
	d, _, _ := newTestDispatcher(t, sp, nil)

	for i := 0; i < defaultQueueSize; i++ {
		if !d.Submit(Command{Text: "open vscode"}) {
			t.Fatalf("submit %d rejected early", i)
		}
	}
	if d.Submit(Command{Text: "one too many"}) {
		t.Fatalf("expected drop on full queue")
	}
	if d.Submit(Command{Text: "   "}) {
		t.Fatalf("blank command must be rejected")
	}
}

func TestDispatcherRunProcessesSubmissions(t *testing.T) {
	sp := &fakeSpeech{}
	d, rec, _ := newTestDispatcher(t, sp, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	d.Submit(Command{Text: "open vscode"})

	deadline := time.After(2 * time.Second)
	for rec.lastName() == "" {
		select {
		case <-deadline:
			t.Fatalf("command never executed")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("run did not exit on cancel")
	}
}
