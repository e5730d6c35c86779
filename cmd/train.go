package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kozaktomas/facerec/internal/classifier"
	"github.com/kozaktomas/facerec/internal/dataset"
	"github.com/kozaktomas/facerec/internal/trainer"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the identity classifier from the dataset",
	Long: `Train the identity classifier from a dataset directory with one
subdirectory per person. Every image is searched for its largest face,
which is aligned and embedded; a calibrated linear classifier is then fitted
on the embeddings and saved together with its label codec.

An existing model is loaded instead of retrained unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().String("dataset", "", "Dataset directory (default from DATASET_PATH)")
	trainCmd.Flags().String("models", "", "Model directory (default from MODELS_PATH)")
	trainCmd.Flags().Bool("force", false, "Retrain even when a saved model exists")
	trainCmd.Flags().Int("batch-size", 0, "Faces per embedding request (default from TRAIN_BATCH_SIZE)")
	trainCmd.Flags().Float64("c", 0, "Soft-margin cost of the classifier (default from TRAIN_COST)")
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if v := mustGetString(cmd, "dataset"); v != "" {
		cfg.Paths.Dataset = v
	}
	if v := mustGetString(cmd, "models"); v != "" {
		cfg.Paths.Models = v
	}
	if v := mustGetInt(cmd, "batch-size"); v > 0 {
		cfg.Training.BatchSize = v
	}
	if v := mustGetFloat64(cmd, "c"); v > 0 {
		cfg.Training.Cost = v
	}

	if !mustGetBool(cmd, "force") {
		model, err := classifier.LoadExisting(cfg.Paths.Models)
		if err != nil {
			return fmt.Errorf("loading existing model (use --force to retrain): %w", err)
		}
		if model != nil {
			fmt.Printf("Loaded existing model %s from %s (%d labels, trained %s)\n",
				model.ID, cfg.Paths.Models, model.Classes(), humanize.Time(model.CreatedAt))
			fmt.Println("Use --force to retrain.")
			return nil
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	b, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	pre, err := newPreprocessor(cfg, b.locator, cfg.Recognition.UpsampleBatch)
	if err != nil {
		return err
	}

	entries, labels, err := dataset.Scan(cfg.Paths.Dataset)
	if err != nil {
		return fmt.Errorf("reading dataset: %w", err)
	}
	fmt.Printf("Dataset %s: %s images across %d labels\n\n",
		cfg.Paths.Dataset, humanize.Comma(int64(len(entries))), len(labels))

	bar := newBar(len(entries), "Preparing faces", "images")
	samples, stats, err := dataset.Load(ctx, cfg.Paths.Dataset, pre, func() { bar.Add(1) })
	bar.Finish()
	if err != nil {
		return err
	}
	fmt.Printf("\nPrepared %s faces (%s without a usable face, %s unreadable)\n",
		humanize.Comma(int64(stats.Aligned)), humanize.Comma(int64(stats.NoFace)), humanize.Comma(int64(stats.Unreadable)))

	if len(samples) == 0 {
		return fmt.Errorf("no faces found in %s: %w", cfg.Paths.Dataset, classifier.ErrEmptyTrainingSet)
	}

	opts := trainer.DefaultOptions()
	opts.BatchSize = cfg.Training.BatchSize
	opts.ConflictDistance = cfg.Training.ConflictDistance
	opts.Classifier.Cost = cfg.Training.Cost
	opts.Classifier.Seed = cfg.Training.Seed

	embedBar := newBar(len(samples), "Embedding faces", "faces")
	opts.OnEmbedded = func(n int) { embedBar.Add(n) }
	model, report, err := trainer.Train(ctx, samples, b.extractor, opts)
	embedBar.Finish()
	fmt.Println()
	if err != nil {
		if errors.Is(err, classifier.ErrTooFewLabels) {
			return fmt.Errorf("%w: found only %v", err, labels)
		}
		return fmt.Errorf("training: %w", err)
	}

	printTrainReport(report)

	if err := model.Save(cfg.Paths.Models); err != nil {
		return err
	}
	clfPath, labelsPath := classifier.Paths(cfg.Paths.Models)
	fmt.Printf("\nSaved model %s\n", model.ID)
	for _, p := range []string{clfPath, labelsPath} {
		if info, err := os.Stat(p); err == nil {
			fmt.Printf("  %s (%s)\n", p, humanize.Bytes(uint64(info.Size())))
		}
	}
	return nil
}

func printTrainReport(r *trainer.Report) {
	t := newTable("Label", "Faces")
	for _, l := range r.Labels {
		t.Row(l, strconv.Itoa(r.PerLabel[l]))
	}
	fmt.Println(t)

	fmt.Printf("Trained on %s faces, %d labels, embedding dimension %d in %s\n",
		humanize.Comma(int64(r.Samples)), len(r.Labels), r.Dim, r.Duration.Round(time.Millisecond))
	fmt.Printf("Training accuracy: %.1f%%\n", r.TrainAccuracy*100)

	if len(r.Conflicts) > 0 {
		fmt.Println(warnStyle.Render(fmt.Sprintf("\n%d near-identical faces carry different labels:", len(r.Conflicts))))
		for _, c := range r.Conflicts {
			fmt.Printf("  %s (%s) ~ %s (%s)  distance %.4f\n", c.PathA, c.LabelA, c.PathB, c.LabelB, c.Distance)
		}
	}
}

// newBar returns a progress bar in the style used by every long-running command.
func newBar(total int, description, unit string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString(unit),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
}
