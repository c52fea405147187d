package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bayitbeseder/bayit/internal/push"
)

func newVAPIDKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vapid-keys",
		Short: "Generate a VAPID key pair for push notifications",
		// Key generation needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := push.GenerateVAPIDKeys()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "BAYIT_VAPID_PUBLIC_KEY=%s\nBAYIT_VAPID_PRIVATE_KEY=%s\n", pub, priv)
			return nil
		},
	}
}
