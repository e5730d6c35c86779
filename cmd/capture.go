package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/kozaktomas/facerec/internal/camera"
	"github.com/kozaktomas/facerec/internal/dataset"
	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture webcam photos of a person into the dataset",
	Long: `Capture photos of one person from the webcam into DATASET/<label>/.
Press SPACE to save the current frame as the next NNN.jpg and Q to quit.
Numbering continues after any images already in the directory.`,
	Args: cobra.NoArgs,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().String("label", "", "Name of the person (prompted when empty)")
	captureCmd.Flags().String("dataset", "", "Dataset directory (default from DATASET_PATH)")
	captureCmd.Flags().Int("device", 0, "Video capture device ID")
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if v := mustGetString(cmd, "dataset"); v != "" {
		cfg.Paths.Dataset = v
	}

	label := mustGetString(cmd, "label")
	if label == "" {
		fmt.Print("Enter the name of the person: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading name: %w", err)
		}
		label = strings.TrimSpace(line)
	}
	if err := dataset.ValidateLabel(label); err != nil {
		return err
	}

	// Labels fails when the dataset does not exist yet, which is fine here.
	if existing, err := dataset.Labels(cfg.Paths.Dataset); err == nil {
		for _, similar := range dataset.SimilarLabels(existing, label) {
			fmt.Println(warnStyle.Render(fmt.Sprintf("Warning: %q already exists and looks like the same person as %q", similar, label)))
		}
	}

	w, err := dataset.NewWriter(cfg.Paths.Dataset, label)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("Saving to %s. Press SPACE to capture, Q to quit.\n", w.Dir())
	saved, err := camera.RunCapture(ctx, mustGetInt(cmd, "device"), w, func(path string) {
		fmt.Printf("Saved %s\n", path)
	})
	fmt.Printf("Captured %d image(s) of %s\n", saved, label)
	return err
}
