package keystore

import (
	"fmt"

	"github/chapool/go-sweeper/internal/config"
	"github/chapool/go-sweeper/internal/wallet"
	"github/chapool/go-sweeper/internal/wallet/address"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	countFlag string = "count"
	plainFlag string = "plain"
)

func newAddresses() *cobra.Command {
	var (
		count int
		plain bool
	)

	cmd := &cobra.Command{
		Use:   "addresses",
		Short: "Lists the managed wallet addresses",
		Long: `Derives and prints the managed addresses from the configured key material.

With --plain only the addresses are printed, one per line, e.g. to pass
them as sources to the sweep command.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()
			if count <= 0 {
				count = cfg.EVM.AddressCount
			}

			seedManager, err := wallet.UnlockSeed(cfg.EVM)
			if err != nil {
				return err
			}
			defer seedManager.Clear()

			index, err := address.NewIndex(seedManager.GetSeed(), count)
			if err != nil {
				return errors.Wrap(err, "failed to derive managed addresses")
			}

			out := cmd.OutOrStdout()
			for _, addr := range index.Addresses() {
				if plain {
					fmt.Fprintln(out, addr.Hex())
					continue
				}

				path, _ := index.Path(addr)
				fmt.Fprintf(out, "%s\t%s\n", path, addr.Hex())
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&count, countFlag, 0, "Number of addresses (default from config)")
	cmd.Flags().BoolVar(&plain, plainFlag, false, "Print addresses only")

	return cmd
}
