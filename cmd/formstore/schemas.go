package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSchemasCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "List the available forms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			forms, err := a.loadForms(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tENDPOINT")
			for _, id := range forms.IDs() {
				form, _ := forms.Form(id)
				fmt.Fprintf(tw, "%s\t%s\t%s\n", form.ID, form.Title, form.Endpoint)
			}
			return tw.Flush()
		},
	}

	var output string
	show := &cobra.Command{
		Use:   "show <form>",
		Short: "Print one form schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			forms, err := a.loadForms(cmd.Context())
			if err != nil {
				return err
			}
			form, ok := forms.Form(args[0])
			if !ok {
				return fmt.Errorf("unknown form %q", args[0])
			}
			return writeOutput(cmd.OutOrStdout(), output, form)
		},
	}
	show.Flags().StringVarP(&output, "output", "o", "yaml", "output format (json or yaml)")
	cmd.AddCommand(show)
	return cmd
}
