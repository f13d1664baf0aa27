package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	rerrors "github.com/vango-dev/reactor/internal/errors"
)

func explainCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "explain [code]",
		Short: "Describe an error code",
		Long: `Print the description, common cause and fix for an error code.

Examples:
  reactor explain R002
  reactor explain --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list || len(args) == 0 {
				for _, code := range rerrors.GetAllCodes() {
					tmpl, _ := rerrors.GetTemplate(code)
					fmt.Fprintf(out, "  %s  %-8s %s\n", code, tmpl.Category, tmpl.Message)
				}
				return nil
			}

			code := strings.ToUpper(args[0])
			if _, ok := rerrors.GetTemplate(code); !ok {
				return rerrors.New("X002").
					WithDetail(fmt.Sprintf("%q is not registered.", args[0])).
					WithSuggestion("Run 'reactor explain --list' to see every code")
			}
			fmt.Fprintln(out, rerrors.New(code).Format())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List every registered code")

	return cmd
}
