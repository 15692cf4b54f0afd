package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tracked products in id order",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openFromFlags(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		products, err := a.Tracker.List()
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(products, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
