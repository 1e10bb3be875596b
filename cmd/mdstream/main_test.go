package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/muesli/termenv"

	"github.com/riverfjs/mdstream"
)

const testCatalog = `
components:
  - name: Badge
    props:
      text: {type: string, required: true}
`

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "components.yaml")
	if err := os.WriteFile(path, []byte(testCatalog), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFixCommand(t *testing.T) {
	out, _, err := run(t, "Hello **wor", "fix")
	if err != nil {
		t.Fatal(err)
	}
	if out != "Hello **wor**" {
		t.Errorf("fix = %q, want %q", out, "Hello **wor**")
	}
}

func TestExtractCommand(t *testing.T) {
	reg := writeCatalog(t)
	in := `Hi {{c:"Badge",p:{"text":"new"}}} and {{c:"Nope",p:{}}}`
	out, errOut, err := run(t, in, "extract", "--registry", reg)
	if err != nil {
		t.Fatal(err)
	}
	var got extractOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	want := extractOutput{
		Markdown: "Hi " + mdstream.Placeholder("c1", "Badge") + ` and {{c:"Nope",p:{}}}`,
		Components: []extractedInvocation{{
			ID: "c1", Name: "Badge", Properties: map[string]any{"text": "new"}, Start: 3, End: 33,
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("extract mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(errOut, `"Nope"`) {
		t.Errorf("stderr = %q, want a warning about Nope", errOut)
	}
}

func TestExtractCommandPartial(t *testing.T) {
	reg := writeCatalog(t)
	out, _, err := run(t, `x {{c:"Badge",p:{"text":"ne`, "extract", "--partial", "--registry", reg)
	if err != nil {
		t.Fatal(err)
	}
	var got extractOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Components) != 1 || !got.Components[0].Partial || got.Components[0].Properties["text"] != "ne" {
		t.Errorf("partial extract = %+v", got.Components)
	}
}

func TestExtractCommandEnvRegistry(t *testing.T) {
	t.Setenv("MDSTREAM_REGISTRY", writeCatalog(t))
	out, _, err := run(t, `{{c:"Badge",p:{"text":"a"}}}`, "extract")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"name": "Badge"`) {
		t.Errorf("registry from environment not used:\n%s", out)
	}
}

func TestReplayCommand(t *testing.T) {
	out, _, err := run(t, "a **b** c", "replay", "--chunk", "3", "--delay", "0", "--color", "never")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(out, "--- frame "); got != 3 {
		t.Errorf("frames = %d, want 3\n%s", got, out)
	}
	if !strings.HasSuffix(out, "--- frame 3 ---\na b c\n") {
		t.Errorf("last frame wrong:\n%s", out)
	}
}

func TestPainterSlots(t *testing.T) {
	var buf bytes.Buffer
	p := &painter{out: termenv.NewOutput(&buf, termenv.WithProfile(termenv.Ascii))}
	md := "see " + mdstream.Placeholder("c1", "Badge") + " **now**"
	doc := mdstream.Render(md)
	f := mdstream.Frame{
		Markdown: md,
		Document: &doc,
		Components: []mdstream.Invocation{{
			ID: "c1", Name: "Badge", Properties: map[string]any{"text": "new", "n": 2.0}, Partial: true,
		}},
	}
	want := "see [Badge n=2 text=new …] now"
	if got := p.paint(f); got != want {
		t.Errorf("paint() = %q, want %q", got, want)
	}
}
