package cmd

import (
	"fmt"
	"image"

	"github.com/kozaktomas/facerec/internal/constants"
	"github.com/kozaktomas/facerec/internal/imageutil"
	"github.com/spf13/cobra"
)

var identifyCmd = &cobra.Command{
	Use:   "identify FILE...",
	Short: "Recognize every face in image files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)

	identifyCmd.Flags().Int("upsample", -1, "Detector upsample count (default from UPSAMPLE_BATCH)")
}

func runIdentify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	upsample := cfg.Recognition.UpsampleBatch
	if v := mustGetInt(cmd, "upsample"); v >= 0 {
		upsample = v
	}

	ctx, cancel := signalContext()
	defer cancel()

	p, b, err := openPipeline(cfg, upsample)
	if err != nil {
		return err
	}
	defer b.Close()

	for _, path := range args {
		img, err := imageutil.Open(path)
		if err != nil {
			fmt.Printf("%s: %v\n", path, err)
			continue
		}
		img, factor := imageutil.Fit(img, cfg.Recognition.MaxImageSize)

		results, err := p.Recognize(ctx, img)
		if err != nil {
			return fmt.Errorf("recognizing %s: %w", path, err)
		}
		if len(results) == 0 {
			fmt.Printf("%s: %s\n", path, noFaceStyle.Render(constants.NoFaceResult))
			continue
		}

		fmt.Printf("%s: %d face(s)\n", path, len(results))
		for _, r := range results {
			box := unscale(r.Box, factor)
			fmt.Printf("  %s %s\n", resultStyle(r.Status).Render(r.Caption()), dimStyle.Render(box.String()))
		}
	}
	return nil
}

// unscale maps a box found on a downscaled image back to the original.
func unscale(box image.Rectangle, factor float64) image.Rectangle {
	if factor == 1 || factor <= 0 {
		return box
	}
	return image.Rect(
		int(float64(box.Min.X)/factor),
		int(float64(box.Min.Y)/factor),
		int(float64(box.Max.X)/factor+0.5),
		int(float64(box.Max.Y)/factor+0.5),
	)
}
