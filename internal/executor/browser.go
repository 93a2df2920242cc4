package executor

import (
	"fmt"
	"net/url"
	"strings"
)

const defaultSearchURL = "https://www.google.com/search?q="

// Browser launches web browsers for open and search commands.
type Browser struct {
	Commands map[string]string
	Default  string
	// SearchURL is the query URL prefix; escaped terms are appended.
	SearchURL string

	launch Launcher
}

func NewBrowser(defaultBrowser string, launch Launcher) *Browser {
	if strings.TrimSpace(defaultBrowser) == "" {
		defaultBrowser = "chrome"
	}
	if launch == nil {
		launch = StartDetached
	}
	return &Browser{
		Commands: map[string]string{
			"chrome":  "google-chrome",
			"firefox": "firefox",
		},
		Default:   defaultBrowser,
		SearchURL: defaultSearchURL,
		launch:    launch,
	}
}

func (b *Browser) Open(target, browser string, private bool) (string, error) {
	name, cmd, err := b.resolve(browser)
	if err != nil {
		return "", err
	}

	args := privateArgs(name, private)
	if strings.TrimSpace(target) != "" {
		args = append(args, normalizeURL(target))
	}
	if err := b.launch(cmd, args...); err != nil {
		return "", err
	}
	if target == "" {
		return fmt.Sprintf("Opening %s", name), nil
	}
	return fmt.Sprintf("Opening %s in %s", target, name), nil
}

func (b *Browser) Search(terms, browser string, private bool) (string, error) {
	name, cmd, err := b.resolve(browser)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(terms) == "" {
		return "", fmt.Errorf("nothing to search for")
	}

	args := append(privateArgs(name, private), b.SearchURL+url.QueryEscape(terms))
	if err := b.launch(cmd, args...); err != nil {
		return "", err
	}
	return fmt.Sprintf("Searching for %s", terms), nil
}

func (b *Browser) resolve(browser string) (name, cmd string, err error) {
	name = strings.ToLower(strings.TrimSpace(browser))
	if name == "" {
		name = b.Default
	}
	cmd, ok := b.Commands[name]
	if !ok {
		return "", "", fmt.Errorf("unsupported browser %q", name)
	}
	return name, cmd, nil
}

func privateArgs(browser string, private bool) []string {
	if !private {
		return nil
	}
	if browser == "firefox" {
		return []string{"-private"}
	}
	return []string{"--incognito"}
}

// normalizeURL prefixes bare hostnames so the browser treats them as
// addresses rather than search terms.
func normalizeURL(target string) string {
	t := strings.TrimSpace(target)
	if strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://") {
		return t
	}
	return "https://" + t
}
