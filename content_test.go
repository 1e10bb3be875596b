package mdstream

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pion/logging"
)

var stateOpts = cmp.Options{cmpopts.EquateEmpty(), cmpopts.IgnoreUnexported(State{})}

func TestSplit(t *testing.T) {
	c1 := Invocation{ID: "c1", Name: "Badge", Properties: map[string]any{"text": "a"}}
	md := "a" + Placeholder("c1", "Badge") + "b" + Placeholder("c9", "Gone") + "c"

	got := Split(md, []Invocation{c1})
	want := []Content{
		&Text{Markdown: "a"},
		&Component{Invocation: c1},
		&Text{Markdown: "b"},
		&Text{Markdown: "c"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Split mismatch (-want +got):\n%s", diff)
	}
	if got[1].GetContentType() != ContentTypeComponent || got[0].GetContentType() != ContentTypeText {
		t.Error("wrong content types")
	}
	if ContentTypeComponent.String() != "component" || ContentType(7).String() != "unknown" {
		t.Error("ContentType.String mismatch")
	}
}

func TestSplitPlain(t *testing.T) {
	if got := Split("", nil); len(got) != 0 {
		t.Errorf("Split(\"\") = %v", got)
	}
	got := Split("just text", nil)
	if len(got) != 1 || got[0].(*Text).Markdown != "just text" {
		t.Errorf("Split = %v", got)
	}
}

func TestTopLevelStages(t *testing.T) {
	st := Update(State{}, "a `co")
	if got := Fix("a `co", &st); got != "a `co`" {
		t.Errorf("Fix = %q", got)
	}
	reg := testRegistry(t)
	var reported error
	res := Extract(`{{c:"Badge",p:{}}}`, reg, func(err ComponentError) { reported = err })
	if len(res.Components) != 0 || !errors.Is(reported, ErrValidation) {
		t.Errorf("Extract = %+v, reported %v", res, reported)
	}
	p := ExtractPartial(`{{c:"Badge",p:{"text":"x`, reg)
	if len(p.Components) != 1 || !p.Components[0].Partial {
		t.Errorf("ExtractPartial = %+v", p)
	}
	if refs := ParsePlaceholders(p.Markdown); len(refs) != 1 || refs[0].ID != "c1" {
		t.Errorf("ParsePlaceholders = %+v", refs)
	}
}

func TestExtractArrayEnum(t *testing.T) {
	reg, err := ParseRegistry([]byte("components:\n  - name: X\n    props:\n      v: {type: array, enum: [[1, 2]]}\n"))
	if err != nil {
		t.Fatalf("ParseRegistry: %v", err)
	}
	res := Extract(`{{c:"X",p:{"v":[1,2]}}}`, reg, nil)
	if len(res.Components) != 1 {
		t.Errorf("Extract = %+v, want the invocation", res)
	}
	var reported error
	res = Extract(`{{c:"X",p:{"v":[2]}}}`, reg, func(err ComponentError) { reported = err })
	if len(res.Components) != 0 || !errors.Is(reported, ErrValidation) {
		t.Errorf("Extract = %+v, reported %v", res, reported)
	}
}

func TestSetLogger(t *testing.T) {
	saved := Logger
	defer SetLogger(saved)

	SetLogger(nil)
	if Logger == nil {
		t.Fatal("SetLogger(nil) left a nil Logger")
	}
	Logger.Debugf("silent %d", 1)

	custom := logging.NewDefaultLoggerFactory().NewLogger("test")
	SetLogger(custom)
	if Logger != custom {
		t.Error("SetLogger did not install the logger")
	}
}
