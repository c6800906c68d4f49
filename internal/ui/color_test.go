package ui

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

// capture runs fn against a Printer with color disabled and returns what it
// wrote.
func capture(t *testing.T, fn func(p *Printer)) string {
	t.Helper()
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })

	var buf bytes.Buffer
	fn(New(&buf))
	return buf.String()
}

func TestMessages(t *testing.T) {
	tests := []struct {
		name string
		fn   func(p *Printer)
		want string
	}{
		{"success", func(p *Printer) { p.Success("saved %d entries", 2) }, "✓ saved 2 entries\n"},
		{"error", func(p *Printer) { p.Error("failed: %s", "boom") }, "✗ failed: boom\n"},
		{"warning", func(p *Printer) { p.Warning("careful") }, "⚠ careful\n"},
		{"info", func(p *Printer) { p.Info("plain %s", "text") }, "plain text\n"},
		{"header", func(p *Printer) { p.Header("Release %s", "web") }, "Release web\n"},
		{"empty", func(p *Printer) { p.Success("") }, "✓ \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, capture(t, tt.fn))
		})
	}
}

func TestChange(t *testing.T) {
	out := capture(t, func(p *Printer) { p.Change("v1", "message", "", "hello") })
	assert.Equal(t, "Updated state[v1].message from \"\" => hello\n", out)
}

func TestCheck(t *testing.T) {
	out := capture(t, func(p *Printer) {
		p.Check("list namespaces", nil)
		p.Check("read entries", errors.New("forbidden"))
	})
	assert.Equal(t, "✓ list namespaces\n✗ read entries: forbidden\n", out)
}

func TestColorVariables(t *testing.T) {
	for _, c := range []*color.Color{Red, Green, Yellow, Blue, Cyan, Bold} {
		assert.NotNil(t, c)
	}
}

func TestConcurrentPrinters(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	var wg sync.WaitGroup
	bufs := make([]bytes.Buffer, 10)
	for i := range bufs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			New(&bufs[i]).Success("message %d", i)
		}(i)
	}
	wg.Wait()

	for i := range bufs {
		assert.Contains(t, bufs[i].String(), "✓ message")
	}
}
