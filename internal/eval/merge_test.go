package eval

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMergeHumanWins(t *testing.T) {
	llm := Judgment{
		ScriptKey: "abc123",
		Verdicts: []Verdict{
			{Criterion: "hook", Pass: true},
			{Criterion: "length", Pass: false, Note: "too long"},
		},
	}
	human := Judgment{
		ScriptKey: "abc123",
		Verdicts: []Verdict{
			{Criterion: "length", Pass: true, Note: "fine at 58s"},
		},
	}

	merged, err := Merge(llm, human)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(merged.Verdicts) != 2 {
		t.Fatalf("got %d verdicts, want 2", len(merged.Verdicts))
	}

	byName := map[string]Verdict{}
	for _, v := range merged.Verdicts {
		byName[v.Criterion] = v
	}
	if v := byName["length"]; !v.Pass || v.Source != "human" || v.Note != "fine at 58s" {
		t.Errorf("human override lost: %+v", v)
	}
	if v := byName["hook"]; !v.Pass || v.Source != "llm" {
		t.Errorf("llm verdict mangled: %+v", v)
	}
}

func TestMergeKeyMismatch(t *testing.T) {
	_, err := Merge(Judgment{ScriptKey: "a"}, Judgment{ScriptKey: "b"})
	if err == nil {
		t.Fatal("expected error for mismatched script keys")
	}
}

func TestMergeDir(t *testing.T) {
	llmDir := t.TempDir()
	humanDir := t.TempDir()

	write := func(dir, name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write(llmDir, "k1.json", `{"scriptKey":"k1","verdicts":[{"criterion":"hook","pass":false}]}`)
	write(llmDir, "k2.json", `{"scriptKey":"k2","verdicts":[{"criterion":"hook","pass":true}]}`)
	write(humanDir, "k1.json", `{"scriptKey":"k1","verdicts":[{"criterion":"hook","pass":true}]}`)
	write(llmDir, "notes.txt", "ignore me")

	merged, err := MergeDir(llmDir, humanDir)
	if err != nil {
		t.Fatalf("MergeDir: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("got %d judgments, want 2", len(merged))
	}
	if v := merged[0].Verdicts[0]; !v.Pass || v.Source != "human" {
		t.Errorf("k1 should carry the human override, got %+v", v)
	}
	if v := merged[1].Verdicts[0]; !v.Pass || v.Source != "llm" {
		t.Errorf("k2 should keep the llm verdict, got %+v", v)
	}

	out := filepath.Join(t.TempDir(), "out", "annotations.json")
	if err := WriteJudgments(out, merged); err != nil {
		t.Fatalf("WriteJudgments: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output not written: %v", err)
	}
}
