package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chenaaron3/shortsgen/internal/eval"
)

var (
	evalLLMDir   string
	evalHumanDir string
	evalOutput   string
)

var evalMergeCmd = &cobra.Command{
	Use:   "eval-merge",
	Short: "Merge LLM script judgments with human overrides",
	Long: `Merge per-script LLM rubric judgments with human review annotations into
one file. Where both graded a criterion, the human verdict wins.`,
	Args: cobra.NoArgs,
	RunE: runEvalMerge,
}

func init() {
	evalMergeCmd.Flags().StringVar(&evalLLMDir, "llm-dir", "eval/judgments", "directory of LLM judgment files")
	evalMergeCmd.Flags().StringVar(&evalHumanDir, "human-dir", "eval/overrides", "directory of human override files")
	evalMergeCmd.Flags().StringVarP(&evalOutput, "output", "o", "eval/annotations.json", "merged output file")
	rootCmd.AddCommand(evalMergeCmd)
}

func runEvalMerge(cmd *cobra.Command, args []string) error {
	merged, err := eval.MergeDir(evalLLMDir, evalHumanDir)
	if err != nil {
		return err
	}
	if err := eval.WriteJudgments(evalOutput, merged); err != nil {
		return err
	}
	fmt.Printf("merged %d judgments -> %s\n", len(merged), evalOutput)
	return nil
}
