package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Look up a product by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return err
		}

		a, err := openFromFlags(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		product, err := a.Tracker.Get(id)
		if err != nil {
			return err
		}
		return printProduct(cmd, product)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
