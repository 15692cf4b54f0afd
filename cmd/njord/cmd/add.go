package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/njord/pkg/service"
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new product",
	Long: `Register a new product in the tracker. The product is assigned
the next id and stamped with the current time.

Example:
  njord add --name "Arabica beans" --origin Colombia --location Bogotá --status Manufactured`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openFromFlags(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		name, _ := cmd.Flags().GetString("name")
		origin, _ := cmd.Flags().GetString("origin")
		location, _ := cmd.Flags().GetString("location")
		status, _ := cmd.Flags().GetString("status")

		product, err := a.Tracker.Create(service.Payload{
			Name:            name,
			Origin:          origin,
			CurrentLocation: location,
			Status:          status,
			Certification:   optionalFlag(cmd, "certification"),
			IoTData:         optionalFlag(cmd, "iot-data"),
		})
		if err != nil {
			return err
		}
		return printProduct(cmd, product)
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().String("name", "", "Product name")
	addCmd.Flags().String("origin", "", "Product origin")
	addCmd.Flags().String("location", "", "Current location")
	addCmd.Flags().String("status", "", "Current status")
	addCmd.Flags().String("certification", "", "Optional certification")
	addCmd.Flags().String("iot-data", "", "Optional sensor payload")
}
