package input

import (
	"context"
	"strings"
	"testing"
)

func TestListenerSubmitsLines(t *testing.T) {
	var got []string
	l := NewListener(func(text string) bool {
		got = append(got, text)
		return true
	}, nil)

	l.Run(context.Background(), strings.NewReader("open editor\n\n  search for cats  \n"))

	want := []string{"open editor", "search for cats"}
	if len(got) != len(want) {
		t.Fatalf("submitted %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("submitted[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestListenerQuitStopsReading(t *testing.T) {
	var submitted []string
	quitCalled := false
	l := NewListener(func(text string) bool {
		submitted = append(submitted, text)
		return true
	}, func() { quitCalled = true })

	l.Run(context.Background(), strings.NewReader("hello\nquit\nnever seen\n"))

	if !quitCalled {
		t.Fatal("quit hook was not called")
	}
	if len(submitted) != 1 || submitted[0] != "hello" {
		t.Fatalf("submitted = %v, want [hello]", submitted)
	}
}

func TestListenerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	count := 0
	l := NewListener(func(text string) bool {
		count++
		return true
	}, nil)
	l.Run(ctx, strings.NewReader("one\ntwo\n"))

	if count != 0 {
		t.Fatalf("submitted %d commands after cancel, want 0", count)
	}
}
