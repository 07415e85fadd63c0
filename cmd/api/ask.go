package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oncolens/assistant/internal/analysis/response"
	"github.com/oncolens/assistant/internal/model/role"
)

func newAskCmd() *cobra.Command {
	var roleTag string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Print the keyword reply for a question",
		Example: `  oncolens ask --role patient "What do my survival statistics mean?"
  oncolens ask --role doctor Show me latest treatment outcomes`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := role.ParseRole(roleTag)
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("question is empty")
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), response.Select(text, r))
			return err
		},
	}

	cmd.Flags().StringVarP(&roleTag, "role", "r", "patient", "role to answer as: patient, professional or doctor")
	return cmd
}
