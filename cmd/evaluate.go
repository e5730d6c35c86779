package cmd

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/kozaktomas/facerec/internal/dataset"
	"github.com/kozaktomas/facerec/internal/trainer"
	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Check the saved model against a labelled dataset",
	Long: `Run the recognition decision over every face of a labelled dataset and
report how many are recognized correctly, reported as Unknown, or mistaken
for someone else. The same threshold as every other command is used.`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().String("dataset", "", "Dataset directory (default from DATASET_PATH)")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if v := mustGetString(cmd, "dataset"); v != "" {
		cfg.Paths.Dataset = v
	}

	ctx, cancel := signalContext()
	defer cancel()

	p, b, err := openPipeline(cfg, cfg.Recognition.UpsampleBatch)
	if err != nil {
		return err
	}
	defer b.Close()

	entries, _, err := dataset.Scan(cfg.Paths.Dataset)
	if err != nil {
		return fmt.Errorf("reading dataset: %w", err)
	}
	bar := newBar(len(entries), "Preparing faces", "images")
	samples, stats, err := dataset.Load(ctx, cfg.Paths.Dataset, p.Preprocessor(), func() { bar.Add(1) })
	bar.Finish()
	fmt.Println()
	if err != nil {
		return err
	}
	if stats.Skipped() > 0 {
		fmt.Printf("Skipped %s of %s images\n", humanize.Comma(int64(stats.Skipped())), humanize.Comma(int64(stats.Files)))
	}

	evalBar := newBar(len(samples), "Recognizing", "faces")
	ev, err := trainer.Evaluate(ctx, p, samples, func() { evalBar.Add(1) })
	evalBar.Finish()
	fmt.Println()
	if err != nil {
		return err
	}

	t := newTable("Label", "Faces", "Correct", "Unknown", "Wrong")
	labels := make([]string, 0, len(ev.PerLabel))
	for l := range ev.PerLabel {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	for _, l := range labels {
		s := ev.PerLabel[l]
		t.Row(l, strconv.Itoa(s.Total), strconv.Itoa(s.Correct), strconv.Itoa(s.Unknown), strconv.Itoa(s.Wrong))
	}
	fmt.Println(t)

	fmt.Printf("Threshold %.2f: %s\n", p.Threshold(),
		knownStyle.Render(fmt.Sprintf("%.1f%% recognized", ev.Accuracy()*100)))
	fmt.Printf("%d unknown, %d wrong of %d faces\n", ev.Unknown, ev.Wrong, ev.Total)
	for _, l := range labels {
		for predicted, n := range ev.Confusions[l] {
			fmt.Println(warnStyle.Render(fmt.Sprintf("  %s recognized as %s %d time(s)", l, predicted, n)))
		}
	}
	return nil
}
