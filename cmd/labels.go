package cmd

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List the identities known to the saved model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		model, err := loadModel(cfg)
		if err != nil {
			return err
		}

		fmt.Printf("Model %s, trained %s on %s faces\n",
			model.ID, humanize.Time(model.CreatedAt), humanize.Comma(int64(model.Samples)))
		t := newTable("#", "Label")
		for i, l := range model.Codec.Labels() {
			t.Row(strconv.Itoa(i), l)
		}
		fmt.Println(t)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(labelsCmd)
}
