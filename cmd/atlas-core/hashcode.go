package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/custodia-labs/atlas-core/internal/adapters/driven/auth"
)

// hashCodeCMD prints a bcrypt hash suitable for auth.access_codes
func hashCodeCMD() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-code [code]",
		Short: "Hash an access code for the config file",
		Long:  "Hash an access code for the config file. The code is read from stdin when no argument is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var code string
			if len(args) == 1 {
				code = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read code: %w", err)
				}
				code = line
			}
			code = strings.TrimSpace(code)
			if code == "" {
				return errors.New("access code must not be empty")
			}

			hash, err := auth.NewAdapterWithCost("", cost).HashAccessCode(code)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")

	return cmd
}
