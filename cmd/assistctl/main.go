// Command assistctl sends commands to a running assistant and tails its
// event stream, which is handy when the assistant runs headless.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type options struct {
	baseURL string
	text    string
	control string
	follow  bool
	timeout time.Duration
}

type wsEnvelope struct {
	Type      string `json:"type"`
	CommandID string `json:"command_id,omitempty"`
	Category  string `json:"category,omitempty"`
	Action    string `json:"action,omitempty"`
	Response  string `json:"response,omitempty"`
	Code      string `json:"code,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Speaking  bool   `json:"speaking,omitempty"`
	Paused    bool   `json:"paused,omitempty"`
}

func main() {
	opts := parseFlags()
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "assistctl: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.baseURL, "url", "http://127.0.0.1:8270", "assistant base URL")
	flag.StringVar(&opts.text, "say", "", "command text to submit")
	flag.StringVar(&opts.control, "control", "", "speech control: interrupt|resume|volume_up|volume_down|rate_up|rate_down")
	flag.BoolVar(&opts.follow, "follow", false, "tail the event stream")
	flag.DurationVar(&opts.timeout, "timeout", 10*time.Second, "wait for the command result before exiting")
	flag.Parse()

	// A bare positional argument reads better than -say for quick use.
	if opts.text == "" && flag.NArg() > 0 {
		opts.text = strings.Join(flag.Args(), " ")
	}
	return opts
}

func run(opts options) error {
	if opts.control != "" {
		return sendControl(opts)
	}
	if opts.text == "" && !opts.follow {
		flag.Usage()
		return fmt.Errorf("nothing to do: pass a command, -control, or -follow")
	}

	conn, err := dialEvents(opts.baseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	var commandID string
	if opts.text != "" {
		commandID, err = submitCommand(opts.baseURL, opts.text)
		if err != nil {
			return err
		}
		fmt.Printf("submitted %s\n", commandID)
	}

	if opts.follow {
		return tail(conn)
	}
	return waitForResult(conn, commandID, opts.timeout)
}

func sendControl(opts options) error {
	var path string
	switch opts.control {
	case "interrupt":
		path = "/v1/speech/interrupt"
	case "resume":
		path = "/v1/speech/resume"
	case "volume_up", "volume_down", "rate_up", "rate_down":
		return sendAdjust(opts)
	default:
		return fmt.Errorf("unknown control %q", opts.control)
	}

	resp, err := http.Post(opts.baseURL+path, "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("control failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	fmt.Println(strings.TrimSpace(string(body)))
	return nil
}

func sendAdjust(opts options) error {
	var path string
	var delta float64
	switch opts.control {
	case "volume_up":
		path, delta = "/v1/speech/volume", 0.1
	case "volume_down":
		path, delta = "/v1/speech/volume", -0.1
	case "rate_up":
		path, delta = "/v1/speech/rate", 25
	case "rate_down":
		path, delta = "/v1/speech/rate", -25
	}

	payload, _ := json.Marshal(map[string]float64{"delta": delta})
	resp, err := http.Post(opts.baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("adjust failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	fmt.Println(strings.TrimSpace(string(body)))
	return nil
}

func submitCommand(baseURL, text string) (string, error) {
	payload, err := json.Marshal(map[string]string{"text": text, "source": "cli"})
	if err != nil {
		return "", err
	}
	resp, err := http.Post(baseURL+"/v1/command", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("submit failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out struct {
		CommandID string `json:"command_id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("bad submit response: %w", err)
	}
	return out.CommandID, nil
}

func dialEvents(baseURL string) (*websocket.Conn, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("bad url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/v1/events"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}
	return conn, nil
}

func waitForResult(conn *websocket.Conn, commandID string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	_ = conn.SetReadDeadline(deadline)
	for {
		var msg wsEnvelope
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("no result within %s: %w", timeout, err)
		}
		if msg.CommandID != "" && msg.CommandID != commandID {
			continue
		}
		switch msg.Type {
		case "intent_resolved":
			fmt.Printf("intent: %s/%s\n", msg.Category, msg.Action)
		case "command_result":
			fmt.Println(msg.Response)
			return nil
		case "error_event":
			return fmt.Errorf("%s: %s", msg.Code, msg.Detail)
		}
	}
}

func tail(conn *websocket.Conn) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil
		}
		fmt.Println(strings.TrimSpace(string(data)))
	}
}
