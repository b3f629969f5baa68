// Package eval merges script-grading judgments. Scripts are graded against a
// rubric by an LLM and optionally re-graded by a human reviewer; the merge
// keeps one verdict per criterion with the human's taking precedence.
package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Verdict is one criterion's grade.
type Verdict struct {
	Criterion string `json:"criterion"`
	Pass      bool   `json:"pass"`
	Note      string `json:"note,omitempty"`
	Source    string `json:"source"` // "llm" or "human"
}

// Judgment is the full grade sheet for one script.
type Judgment struct {
	ScriptKey string    `json:"scriptKey"`
	Verdicts  []Verdict `json:"verdicts"`
}

// Merge overlays human verdicts onto LLM verdicts for the same script.
// A human verdict replaces the LLM verdict for its criterion; criteria only
// one side graded are kept as-is. The result is sorted by criterion so
// output is stable across runs.
func Merge(llm, human Judgment) (Judgment, error) {
	if llm.ScriptKey != human.ScriptKey && llm.ScriptKey != "" && human.ScriptKey != "" {
		return Judgment{}, fmt.Errorf("judgments grade different scripts: %q vs %q", llm.ScriptKey, human.ScriptKey)
	}
	key := llm.ScriptKey
	if key == "" {
		key = human.ScriptKey
	}

	byCriterion := make(map[string]Verdict, len(llm.Verdicts))
	for _, v := range llm.Verdicts {
		v.Source = "llm"
		byCriterion[v.Criterion] = v
	}
	for _, v := range human.Verdicts {
		v.Source = "human"
		byCriterion[v.Criterion] = v
	}

	merged := Judgment{ScriptKey: key, Verdicts: make([]Verdict, 0, len(byCriterion))}
	for _, v := range byCriterion {
		merged.Verdicts = append(merged.Verdicts, v)
	}
	sort.Slice(merged.Verdicts, func(i, j int) bool {
		return merged.Verdicts[i].Criterion < merged.Verdicts[j].Criterion
	})
	return merged, nil
}

// MergeDir merges every {key}.json under llmDir with its counterpart in
// humanDir (when present) and returns the results keyed in llmDir order.
// Human-only files are ignored; a missing human file means the LLM verdicts
// stand unmodified.
func MergeDir(llmDir, humanDir string) ([]Judgment, error) {
	entries, err := os.ReadDir(llmDir)
	if err != nil {
		return nil, fmt.Errorf("reading judgments: %w", err)
	}

	var out []Judgment
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		llm, err := LoadJudgment(filepath.Join(llmDir, e.Name()))
		if err != nil {
			return nil, err
		}

		human := Judgment{ScriptKey: llm.ScriptKey}
		humanPath := filepath.Join(humanDir, e.Name())
		if _, err := os.Stat(humanPath); err == nil {
			human, err = LoadJudgment(humanPath)
			if err != nil {
				return nil, err
			}
		}

		merged, err := Merge(llm, human)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		out = append(out, merged)
	}
	return out, nil
}

// LoadJudgment reads one judgment file.
func LoadJudgment(path string) (Judgment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Judgment{}, fmt.Errorf("reading judgment: %w", err)
	}
	var j Judgment
	if err := json.Unmarshal(data, &j); err != nil {
		return Judgment{}, fmt.Errorf("parsing judgment %s: %w", path, err)
	}
	return j, nil
}

// WriteJudgments saves merged judgments as one JSON array.
func WriteJudgments(path string, judgments []Judgment) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(judgments, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
