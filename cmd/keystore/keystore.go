package keystore

import (
	"github/chapool/go-sweeper/internal/util/command"

	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("keystore",
		newCreate(),
		newAddresses(),
	)
}
