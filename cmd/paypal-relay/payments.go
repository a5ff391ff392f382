package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"paypal-relay/internal/config"
	"paypal-relay/internal/infra/api"
)

func paymentsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Inspect stored payment records",
	}

	var pretty bool
	list := &cobra.Command{
		Use:   "list",
		Short: "Print every stored record as JSON, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadStoreConfig(flags.configPath, flags.dev)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			st, err := openStore(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer st.close()

			recs, err := st.records.ListAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("list payments: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(api.ToPaymentRecordDTOs(recs))
		},
	}
	list.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")

	cmd.AddCommand(list)
	return cmd
}
