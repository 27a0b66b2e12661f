package commands

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testPage = `<!DOCTYPE html>
<html><body>
<main id="app">
  <h1 id="title" s-bind="title"></h1>
  <input id="name" s-bind="name:value">
  <ul id="items" s-list="items"><template><li s-bind=".label"></li></template></ul>
</main>
</body></html>`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"page.html", "--root", "#app", "--minify", "data.json", "--debug"})
	if err != nil {
		t.Fatalf("parseOptions() error = %v", err)
	}
	if opts.root != "#app" || !opts.minify || !opts.debug {
		t.Errorf("opts = %+v", opts)
	}
	if len(opts.positional) != 2 || opts.positional[1] != "data.json" {
		t.Errorf("positional = %v", opts.positional)
	}

	for _, args := range [][]string{{"--root"}, {"--config"}, {"--bogus"}} {
		if _, err := parseOptions(args); err == nil {
			t.Errorf("parseOptions(%v) should fail", args)
		}
	}
}

func TestApply(t *testing.T) {
	page := writeFile(t, "page.html", testPage)
	data := writeFile(t, "data.json", `{"title":"Hello","name":"Ada","items":[{"key":1,"label":"one"},{"key":2,"label":"two"}]}`)

	var out bytes.Buffer
	if err := apply(&out, nil, []string{page, data, "--root", "#app"}); err != nil {
		t.Fatalf("apply() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{
		`<h1 id="title" s-bind="title">Hello</h1>`,
		`value="Ada"`,
		`data-key="1"`,
		`>two</li>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestApplyFromStdinMinified(t *testing.T) {
	page := writeFile(t, "page.html", testPage)

	var out bytes.Buffer
	stdin := strings.NewReader(`{"title":"From stdin"}`)
	if err := apply(&out, stdin, []string{page, "-", "--minify"}); err != nil {
		t.Fatalf("apply() error = %v", err)
	}
	if !strings.Contains(out.String(), "From stdin") {
		t.Errorf("output = %s", out.String())
	}
	if strings.Contains(out.String(), "\n  <h1") {
		t.Error("expected minified output")
	}
}

func TestApplyErrors(t *testing.T) {
	page := writeFile(t, "page.html", testPage)
	data := writeFile(t, "data.json", `{}`)
	bad := writeFile(t, "bad.json", `{`)
	var out bytes.Buffer

	tests := []struct {
		name string
		args []string
	}{
		{"missing args", []string{page}},
		{"missing page", []string{filepath.Join(t.TempDir(), "nope.html"), data}},
		{"bad json", []string{page, bad}},
		{"missing root in debug", []string{page, data, "--root", "#nope", "--debug"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := apply(&out, nil, tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}

	// outside debug mode a missing root leaves the page as it was
	out.Reset()
	if err := apply(&out, nil, []string{page, data, "--root", "#nope"}); err != nil {
		t.Errorf("non-debug apply() error = %v", err)
	}
}

func TestApplyWithConfig(t *testing.T) {
	page := writeFile(t, "page.html", `<body><p x-bind="msg"></p></body>`)
	data := writeFile(t, "data.json", `{"msg":"custom"}`)
	cfg := writeFile(t, "engine.yaml", "directives:\n  bind: x-bind\n")

	var out bytes.Buffer
	if err := apply(&out, nil, []string{page, data, "--config", cfg}); err != nil {
		t.Fatalf("apply() error = %v", err)
	}
	if !strings.Contains(out.String(), `<p x-bind="msg">custom</p>`) {
		t.Errorf("output = %s", out.String())
	}
}

func TestInspect(t *testing.T) {
	page := writeFile(t, "page.html", testPage)

	var out bytes.Buffer
	if err := inspect(&out, []string{page, "--root", "#app"}); err != nil {
		t.Fatalf("inspect() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Scalars (2)",
		"<h1#title> text",
		"<input#name> value",
		"(string)",
		"Collections (1)",
		"<ul#items>",
		"(0 items)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestFollowSSE(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"title\":\"first\"}\n\n")
		fmt.Fprint(w, "data: {\"title\":\"second\",\"items\":[{\"key\":\"a\",\"label\":\"A\"}]}\n\n")
	}))
	defer server.Close()

	page := writeFile(t, "page.html", testPage)

	var out, summary bytes.Buffer
	if err := follow(context.Background(), &out, &summary, []string{page, server.URL, "--root", "#app"}); err != nil {
		t.Fatalf("follow() error = %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "second") || !strings.Contains(got, `data-key="a"`) {
		t.Errorf("final render missing from output:\n%s", got)
	}

	for _, want := range []string{
		"frames    2 (0 skipped)",
		"updates   2 in",
		"error rate 0.0%",
	} {
		if !strings.Contains(summary.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, summary.String())
		}
	}
	if strings.Contains(got, "Summary") {
		t.Error("summary must not be mixed into the page output")
	}
}
