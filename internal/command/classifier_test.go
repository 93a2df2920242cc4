package command

import (
	"reflect"
	"testing"
)

func TestClassifyStopWinsOverEverything(t *testing.T) {
	inputs := []string{
		"stop",
		"please be quiet",
		"stop reading the screen",
		"interrupt and open chrome",
		"silence the computer volume",
		"shut up",
	}
	for _, in := range inputs {
		got := Classify(in)
		if got.Category != CategoryVoice || got.Action != "stop" {
			t.Fatalf("Classify(%q) = %s/%s, want voice/stop", in, got.Category, got.Action)
		}
	}
}

func TestClassifyFuzzyStopPhrase(t *testing.T) {
	// "shut up" is not a literal substring here, but both words appear.
	got := Classify("would you please shut your mouth up")
	if got.Category != CategoryVoice || got.Action != "stop" {
		t.Fatalf("fuzzy stop = %s/%s, want voice/stop", got.Category, got.Action)
	}

	// A single word of a multi-word phrase is below the overlap threshold.
	got = Classify("shut the door")
	if got.Category == CategoryVoice {
		t.Fatalf("partial phrase should not classify as voice, got %s/%s", got.Category, got.Action)
	}
}

func TestClassifyResume(t *testing.T) {
	got := Classify("continue")
	if got.Category != CategoryVoice || got.Action != "resume" {
		t.Fatalf("Classify(continue) = %s/%s, want voice/resume", got.Category, got.Action)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	inputs := []string{"open vs code", "what is a goroutine", "read the screen", ""}
	for _, in := range inputs {
		first := Classify(in)
		for i := 0; i < 3; i++ {
			if got := Classify(in); !reflect.DeepEqual(got, first) {
				t.Fatalf("Classify(%q) not deterministic: %+v vs %+v", in, got, first)
			}
		}
	}
}

func TestClassifyScreen(t *testing.T) {
	got := Classify("read the screen")
	if got.Category != CategoryScreen || got.Action != "read" {
		t.Fatalf("got %s/%s, want screen/read", got.Category, got.Action)
	}

	got = Classify("read the code on my display")
	if got.Category != CategoryScreen || got.Action != "read_code" {
		t.Fatalf("got %s/%s, want screen/read_code", got.Category, got.Action)
	}
}

func TestClassifyEditor(t *testing.T) {
	got := Classify("open vs code")
	want := Intent{Category: CategoryEditor, Action: "open", Params: map[string]any{}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	got = Classify("create workspace called my_app")
	if got.Category != CategoryEditor || got.Action != "create_workspace" {
		t.Fatalf("got %s/%s, want editor/create_workspace", got.Category, got.Action)
	}
	if name := got.Params["name"]; name != "my_app" {
		t.Fatalf("name = %v, want my_app", name)
	}

	got = Classify("vscode make a new workspace")
	if got.Action != "create_workspace" {
		t.Fatalf("action = %q, want create_workspace", got.Action)
	}
	if name := got.Params["name"]; name != defaultWorkspaceName {
		t.Fatalf("default name = %v, want %q", name, defaultWorkspaceName)
	}

	got = Classify("vscode open file main.go please")
	if got.Action != "open_file" || got.Params["file"] != "main.go" {
		t.Fatalf("got %+v, want open_file main.go", got)
	}

	got = Classify("open the file in vs code")
	if got.Action != "open_file" || got.Params["file"] != "in" {
		// Best-effort extraction takes the token after the literal word
		// "file", whatever it is.
		t.Fatalf("got %+v, want open_file with token after 'file'", got)
	}
}

func TestClassifyBrowserSearch(t *testing.T) {
	got := Classify("search for python tutorials")
	want := Intent{Category: CategoryBrowser, Action: "search", Params: map[string]any{
		"terms":   "python tutorials",
		"browser": defaultBrowser,
		"private": false,
	}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestClassifyBrowserOpen(t *testing.T) {
	got := Classify("open golang.org in firefox incognito")
	if got.Category != CategoryBrowser || got.Action != "open" {
		t.Fatalf("got %s/%s, want browser/open", got.Category, got.Action)
	}
	if got.Params["url"] != "golang.org" {
		t.Fatalf("url = %v, want golang.org", got.Params["url"])
	}
	if got.Params["browser"] != "firefox" {
		t.Fatalf("browser = %v, want firefox", got.Params["browser"])
	}
	if got.Params["private"] != true {
		t.Fatalf("private = %v, want true", got.Params["private"])
	}

	got = Classify("open chrome")
	if got.Params["url"] != "" || got.Params["browser"] != "chrome" {
		t.Fatalf("got %+v, want empty url and chrome", got)
	}
}

func TestClassifyWindow(t *testing.T) {
	cases := []struct {
		in     string
		action string
		app    string
	}{
		{"maximize the notepad window", "maximize", "notepad"},
		{"minimize that window", "minimize", "active"},
		{"restore the window", "restore", "active"},
		{"switch to the notepad app", "switch", "notepad"},
		{"bring the window to front", "focus", "active"},
	}
	for _, tc := range cases {
		got := Classify(tc.in)
		if got.Category != CategoryWindow || got.Action != tc.action {
			t.Fatalf("Classify(%q) = %s/%s, want window/%s", tc.in, got.Category, got.Action, tc.action)
		}
		if got.Params["app"] != tc.app {
			t.Fatalf("Classify(%q) app = %v, want %q", tc.in, got.Params["app"], tc.app)
		}
	}
}

func TestClassifySystemVolume(t *testing.T) {
	got := Classify("set volume to 80")
	if got.Category != CategorySystem || got.Action != "set_volume" {
		t.Fatalf("got %s/%s, want system/set_volume", got.Category, got.Action)
	}
	if got.Params["level"] != 80 {
		t.Fatalf("level = %v, want 80", got.Params["level"])
	}

	got = Classify("set volume")
	if got.Params["level"] != defaultLevel {
		t.Fatalf("default level = %v, want %d", got.Params["level"], defaultLevel)
	}
}

func TestClassifySystemPower(t *testing.T) {
	got := Classify("shutdown the computer")
	if got.Category != CategorySystem || got.Action != "shutdown" {
		t.Fatalf("got %s/%s, want system/shutdown", got.Category, got.Action)
	}

	got = Classify("reboot the system")
	if got.Category != CategorySystem || got.Action != "restart" {
		t.Fatalf("got %s/%s, want system/restart", got.Category, got.Action)
	}
}

func TestClassifyFallback(t *testing.T) {
	got := Classify("  What IS a Goroutine?  ")
	if got.Category != CategoryAIQuery || got.Action != "process" {
		t.Fatalf("got %s/%s, want ai_query/process", got.Category, got.Action)
	}
	if got.Params["query"] != "what is a goroutine?" {
		t.Fatalf("query = %v, want normalized text", got.Params["query"])
	}

	// A bare system keyword with no action group is not a system command.
	got = Classify("my computer is great")
	if got.Category != CategoryAIQuery {
		t.Fatalf("got %s, want ai_query", got.Category)
	}
}
