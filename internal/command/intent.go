package command

// Category is the fixed set of intent families the classifier can produce.
type Category string

const (
	CategoryVoice   Category = "voice"
	CategoryScreen  Category = "screen"
	CategoryEditor  Category = "editor"
	CategoryBrowser Category = "browser"
	CategoryWindow  Category = "window"
	CategorySystem  Category = "system"
	CategoryAIQuery Category = "ai_query"
)

// Intent is the structured result of classifying one utterance. Exactly one
// Intent is produced per input; the parameter keys are determined entirely by
// (Category, Action).
type Intent struct {
	Category Category       `json:"category"`
	Action   string         `json:"action"`
	Params   map[string]any `json:"params"`
}

func makeIntent(category Category, action string, params map[string]any) Intent {
	if params == nil {
		params = map[string]any{}
	}
	return Intent{Category: category, Action: action, Params: params}
}
