package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ssargent/njord/pkg/service"
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a product's location, status and sensor data",
	Long: `Update the mutable fields of a tracked product. Name, origin and
the creation timestamp never change; the last-update time is stamped.

Example:
  njord update 7 --location Rotterdam --status "In Transit"`,
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

		// Name and origin are required by validation but ignored by the
		// update; reuse the stored ones.
		current, err := a.Tracker.Get(id)
		if err != nil {
			return err
		}

		location, _ := cmd.Flags().GetString("location")
		status, _ := cmd.Flags().GetString("status")

		product, err := a.Tracker.Update(id, service.Payload{
			Name:            current.Name,
			Origin:          current.Origin,
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
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().String("location", "", "Current location")
	updateCmd.Flags().String("status", "", "Current status")
	updateCmd.Flags().String("certification", "", "Optional certification")
	updateCmd.Flags().String("iot-data", "", "Optional sensor payload")
}
