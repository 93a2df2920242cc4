// Package input reads typed commands from standard input, the fallback
// for environments with no microphone or when speech recognition would
// be more trouble than typing.
package input

import (
	"bufio"
	"context"
	"io"
	"log"
	"strings"
)

// Listener turns lines from a reader into submitted commands.
type Listener struct {
	submit func(text string) bool
	quit   func()
}

func NewListener(submit func(text string) bool, quit func()) *Listener {
	return &Listener{submit: submit, quit: quit}
}

// Run reads lines until the reader is exhausted or ctx is cancelled.
// "quit" and "exit" shut the whole assistant down.
func (l *Listener) Run(ctx context.Context, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch strings.ToLower(line) {
		case "quit", "exit":
			log.Printf("input: shutdown requested")
			if l.quit != nil {
				l.quit()
			}
			return
		}
		if !l.submit(line) {
			log.Printf("input: command not accepted: %q", line)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("input: read error: %v", err)
	}
}
