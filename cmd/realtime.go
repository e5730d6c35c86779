package cmd

import (
	"fmt"

	"github.com/kozaktomas/facerec/internal/camera"
	"github.com/spf13/cobra"
)

var realtimeCmd = &cobra.Command{
	Use:   "realtime",
	Short: "Recognize faces in a live webcam stream",
	Long: `Open the webcam and label every face in the stream with the recognized
name and confidence. Known faces are boxed green, uncertain ones orange and
faces whose landmarks could not be aligned blue. Press Q to quit.`,
	Args: cobra.NoArgs,
	RunE: runRealtime,
}

func init() {
	rootCmd.AddCommand(realtimeCmd)

	realtimeCmd.Flags().Int("device", 0, "Video capture device ID")
	realtimeCmd.Flags().Int("upsample", -1, "Detector upsample count (default from UPSAMPLE_REALTIME)")
}

func runRealtime(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	upsample := cfg.Recognition.UpsampleRealtime
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

	fmt.Printf("Recognizing %d people. Press Q in the video window to quit.\n", p.Model().Classes())
	return camera.RunRealtime(ctx, mustGetInt(cmd, "device"), p)
}
