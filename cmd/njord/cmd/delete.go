package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a product by id",
	Long: `Remove a product from the tracker and print the removed record.
The id is never reused for a later product.`,
	Args: cobra.ExactArgs(1),
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

		product, err := a.Tracker.Delete(id)
		if err != nil {
			return err
		}
		return printProduct(cmd, product)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
