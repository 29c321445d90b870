package promptvault

import "testing"

func TestPipeline_ScriptedTransform(t *testing.T) {
	p, _ := pipelineWith(t, `{"techniques": [
		{"id": "shout", "stealth_score": 0.5, "min_load": 0, "max_load": 1,
		 "transform_kind": "scripted",
		 "parameters": {"script": "return string.upper(content)"}}
	]}`)

	out, applied, _ := p.Apply("make this loud", []string{"shout"}, nil)
	if len(applied) != 1 {
		t.Fatalf("expected script applied, got %v", applied)
	}
	if out != "MAKE THIS LOUD" {
		t.Fatalf("got %q", out)
	}
}

func TestPipeline_ScriptedTransformDeterministic(t *testing.T) {
	p, _ := pipelineWith(t, `{"techniques": [
		{"id": "decorate", "stealth_score": 0.5, "min_load": 0, "max_load": 1,
		 "transform_kind": "scripted",
		 "parameters": {"script": "return '<< ' .. content .. ' >>'"}}
	]}`)

	first, _, _ := p.Apply("same input", []string{"decorate"}, nil)
	second, _, _ := p.Apply("same input", []string{"decorate"}, nil)
	if first != second {
		t.Fatalf("scripted transform must be deterministic: %q vs %q", first, second)
	}
	if first != "<< same input >>" {
		t.Fatalf("got %q", first)
	}
}

func TestPipeline_ScriptedErrorSkips(t *testing.T) {
	p, _ := pipelineWith(t, `{"techniques": [
		{"id": "bad", "stealth_score": 0.5, "min_load": 0, "max_load": 1,
		 "transform_kind": "scripted", "parameters": {"script": "this is not lua("}}
	]}`)

	out, applied, effects := p.Apply("untouched", []string{"bad"}, nil)
	if out != "untouched" || len(applied) != 0 {
		t.Fatalf("script error must skip: out=%q applied=%v", out, applied)
	}
	if len(effects) != 1 || effects[0].Applied {
		t.Fatalf("skip must be traced: %+v", effects)
	}
}

func TestPipeline_ScriptedEmptyOutputSkips(t *testing.T) {
	p, _ := pipelineWith(t, `{"techniques": [
		{"id": "void", "stealth_score": 0.5, "min_load": 0, "max_load": 1,
		 "transform_kind": "scripted", "parameters": {"script": "return ''"}}
	]}`)

	out, applied, _ := p.Apply("keep me", []string{"void"}, nil)
	if out != "keep me" || len(applied) != 0 {
		t.Fatalf("empty script output must skip: out=%q applied=%v", out, applied)
	}
}
