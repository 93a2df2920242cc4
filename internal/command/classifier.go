package command

import (
	"regexp"
	"strings"
)

// Keyword tables. Order matters: categories are checked voice → screen →
// editor → browser → window → system, first match wins, and changing the
// order changes observable results (voice control must always be reachable
// while other output is in flight).
var (
	stopPhrases   = []string{"stop", "quiet", "interrupt", "silence", "shut up"}
	resumePhrases = []string{"resume", "continue", "keep talking", "go on"}

	screenWords = []string{"screen", "display"}
	codeWords   = []string{"code", "editor", "program"}

	editorWords    = []string{"vscode", "vs code", "visual studio code", "vs", "workspace"}
	createWords    = []string{"create", "make", "new"}
	workspaceWords = []string{"workspace", "project", "folder"}
	namingWords    = []string{"called", "named", "name", "workspace", "project"}

	browserWords = []string{"chrome", "firefox", "browser", "search", "google", "website"}
	searchWords  = []string{"search", "google", "look up"}
	privateWords = []string{"private", "incognito"}

	windowWords   = []string{"window", "app", "application"}
	maximizeWords = []string{"maximize", "make big", "full screen"}
	minimizeWords = []string{"minimize", "make small"}
	restoreWords  = []string{"restore", "bring back"}
	switchWords   = []string{"switch to", "switch"}
	knownApps     = []string{"vscode", "chrome", "firefox", "notepad"}

	systemWords     = []string{"system", "computer", "volume", "brightness", "shutdown", "restart", "power"}
	volumeWords     = []string{"volume"}
	brightnessWords = []string{"brightness"}
	shutdownWords   = []string{"shutdown", "shut down", "power off"}
	restartWords    = []string{"restart", "reboot"}
)

const (
	defaultBrowser       = "chrome"
	defaultWorkspaceName = "new_workspace"
	defaultLevel         = 50
	activeWindow         = "active"

	// Minimum share of a multi-word phrase's words that must appear in the
	// input for a fuzzy voice-control match. Applied to voice control only,
	// matching the reference behavior.
	fuzzyWordOverlap = 0.7
)

var digitRun = regexp.MustCompile(`[0-9]+`)

// Classify maps one utterance to an Intent. It is total and deterministic:
// every input yields exactly one Intent, with ai_query as the universal
// fallback, and repeated calls with the same text yield the same result.
func Classify(text string) Intent {
	text = strings.ToLower(strings.TrimSpace(text))
	words := strings.Fields(text)

	// Voice control is checked first so the user can always interrupt,
	// regardless of keyword collisions later in the utterance.
	if anyVoicePhrase(text, words, stopPhrases) {
		return makeIntent(CategoryVoice, "stop", nil)
	}
	if anyVoicePhrase(text, words, resumePhrases) {
		return makeIntent(CategoryVoice, "resume", nil)
	}

	if containsAny(text, screenWords) {
		if containsAny(text, codeWords) {
			return makeIntent(CategoryScreen, "read_code", nil)
		}
		return makeIntent(CategoryScreen, "read", nil)
	}

	if containsAny(text, editorWords) {
		return classifyEditor(text, words)
	}

	if containsAny(text, browserWords) {
		return classifyBrowser(text, words)
	}

	if containsAny(text, windowWords) {
		return classifyWindow(text)
	}

	if containsAny(text, systemWords) {
		if intent, ok := classifySystem(text); ok {
			return intent
		}
	}

	return makeIntent(CategoryAIQuery, "process", map[string]any{"query": text})
}

func classifyEditor(text string, words []string) Intent {
	if containsAny(text, createWords) && containsAny(text, workspaceWords) {
		name := extractName(words)
		if name == "" {
			name = defaultWorkspaceName
		}
		return makeIntent(CategoryEditor, "create_workspace", map[string]any{"name": name})
	}
	if strings.Contains(text, "file") {
		return makeIntent(CategoryEditor, "open_file", map[string]any{"file": tokenAfter(words, "file")})
	}
	return makeIntent(CategoryEditor, "open", nil)
}

func classifyBrowser(text string, words []string) Intent {
	browser := defaultBrowser
	if strings.Contains(text, "firefox") {
		browser = "firefox"
	}
	private := containsAny(text, privateWords)

	if kw, ok := firstContained(text, searchWords); ok {
		return makeIntent(CategoryBrowser, "search", map[string]any{
			"terms":   extractSearchTerms(text, kw),
			"browser": browser,
			"private": private,
		})
	}

	return makeIntent(CategoryBrowser, "open", map[string]any{
		"url":     extractURL(words),
		"browser": browser,
		"private": private,
	})
}

func classifyWindow(text string) Intent {
	action := "focus"
	switch {
	case containsAny(text, maximizeWords):
		action = "maximize"
	case containsAny(text, minimizeWords):
		action = "minimize"
	case containsAny(text, restoreWords):
		action = "restore"
	case containsAny(text, switchWords):
		action = "switch"
	}
	return makeIntent(CategoryWindow, action, map[string]any{"app": detectApp(text)})
}

// classifySystem requires an action group on top of the category keyword;
// a bare "my computer" mention carries no system action and falls through to
// the AI fallback.
func classifySystem(text string) (Intent, bool) {
	switch {
	case containsAny(text, volumeWords):
		return makeIntent(CategorySystem, "set_volume", map[string]any{"level": extractLevel(text)}), true
	case containsAny(text, brightnessWords):
		return makeIntent(CategorySystem, "set_brightness", map[string]any{"level": extractLevel(text)}), true
	case containsAny(text, shutdownWords):
		return makeIntent(CategorySystem, "shutdown", nil), true
	case containsAny(text, restartWords):
		return makeIntent(CategorySystem, "restart", nil), true
	default:
		return Intent{}, false
	}
}

// anyVoicePhrase matches a phrase either as a literal substring or, for
// multi-word phrases, by word-set overlap of at least 70%. The fuzzy path
// exists so "would you please shut your mouth up" still reads as "shut up".
func anyVoicePhrase(text string, words []string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
		parts := strings.Fields(phrase)
		if len(parts) < 2 {
			continue
		}
		hits := 0
		for _, p := range parts {
			for _, w := range words {
				if w == p {
					hits++
					break
				}
			}
		}
		if float64(hits) >= fuzzyWordOverlap*float64(len(parts)) {
			return true
		}
	}
	return false
}

func containsAny(text string, keywords []string) bool {
	_, ok := firstContained(text, keywords)
	return ok
}

func firstContained(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}

// extractName returns the token following a naming keyword. Keywords are
// tried in priority order so "create workspace called my_app" resolves the
// name from "called" rather than from the earlier "workspace".
func extractName(words []string) string {
	for _, kw := range namingWords {
		for i, w := range words {
			if w == kw && i+1 < len(words) {
				return words[i+1]
			}
		}
	}
	return ""
}

func tokenAfter(words []string, marker string) string {
	for i, w := range words {
		if w == marker && i+1 < len(words) {
			return words[i+1]
		}
	}
	return ""
}

// extractSearchTerms takes everything after the matched search keyword and
// drops one leading "for", so "search for python tutorials" yields
// "python tutorials".
func extractSearchTerms(text, keyword string) string {
	idx := strings.Index(text, keyword)
	if idx < 0 {
		return ""
	}
	terms := strings.TrimSpace(text[idx+len(keyword):])
	terms = strings.TrimSpace(strings.TrimPrefix(terms, "for "))
	return terms
}

// extractURL sniffs the first dot-containing token that neither starts nor
// ends with a dot. This is a heuristic, not a URL parser.
func extractURL(words []string) string {
	for _, w := range words {
		if strings.Contains(w, ".") && !strings.HasPrefix(w, ".") && !strings.HasSuffix(w, ".") {
			return w
		}
	}
	return ""
}

func detectApp(text string) string {
	for _, app := range knownApps {
		if strings.Contains(text, app) {
			return app
		}
	}
	return activeWindow
}

func extractLevel(text string) int {
	m := digitRun.FindString(text)
	if m == "" {
		return defaultLevel
	}
	level := 0
	for _, c := range m {
		level = level*10 + int(c-'0')
		if level > 1000 {
			break
		}
	}
	return level
}
