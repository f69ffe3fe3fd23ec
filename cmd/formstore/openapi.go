package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstore/pkg/model"
)

func newOpenAPICmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "openapi <source>",
		Short: "Derive form schemas from an OpenAPI document",
		Long: `Reads an OpenAPI 3 document (file path or http(s) URL) and prints one form per
create operation, in the schema file format SCHEMA_DIR accepts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			derived, err := a.importOpenAPI(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			file := struct {
				Forms []model.FormSchema `json:"forms" yaml:"forms"`
			}{}
			for _, id := range derived.IDs() {
				form, _ := derived.Form(id)
				file.Forms = append(file.Forms, form)
			}
			return writeOutput(cmd.OutOrStdout(), output, file)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format (json or yaml)")
	return cmd
}
