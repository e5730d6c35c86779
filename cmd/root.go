package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var rootCmd = &cobra.Command{
	Use:   "facerec",
	Short: "Face enrollment and recognition from the command line, a webcam or HTTP",
	Long: `facerec trains an identity classifier from a folder of labelled face photos
and recognizes people in new images, in a live webcam stream, or through an
HTTP endpoint. Faces are located with 68 landmarks, aligned on the eyes and
embedded before classification; predictions under the confidence threshold
are reported as Unknown.`,
	SilenceUsage: true,
}

func Execute() {
	defer klog.Flush()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// klog flags (-v, --logtostderr, ...) on every command.
	fs := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(fs)
	rootCmd.PersistentFlags().AddGoFlagSet(fs)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
