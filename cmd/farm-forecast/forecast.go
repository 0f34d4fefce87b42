package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func newForecastCmd() *cobra.Command {
	var location string

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Fetch one forecast with advisories and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := setup()
			if err != nil {
				return err
			}
			defer d.logger.Sync() //nolint:errcheck

			forecast, err := d.service.GetForecast(cmd.Context(), location)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(forecast)
		},
	}

	cmd.Flags().StringVarP(&location, "location", "l", "", "place name or query, e.g. \"Lahore\"")
	return cmd
}
