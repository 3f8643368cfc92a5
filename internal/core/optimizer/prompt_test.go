package optimizer

import (
	"strings"
	"testing"
)

func TestBuildPromptEmbedsCodeVerbatim(t *testing.T) {
	t.Parallel()

	code := "function f() {\n  return `${a}\\n`;\n}"
	prompt := BuildPrompt(code)

	if !strings.HasPrefix(prompt, "Optimize this JavaScript code:\n\n") {
		t.Fatalf("unexpected prompt prefix: %q", prompt)
	}
	if !strings.Contains(prompt, "\n\n"+code+"\n\n") {
		t.Fatalf("expected code to be embedded verbatim")
	}
	if !strings.HasSuffix(prompt, "good format.") {
		t.Fatalf("unexpected prompt suffix: %q", prompt)
	}
	if BuildPrompt(code) != prompt {
		t.Fatalf("expected prompt construction to be deterministic")
	}
}
