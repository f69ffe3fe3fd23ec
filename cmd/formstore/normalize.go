package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstore/pkg/editor/tui"
	"github.com/goliatone/go-formstore/pkg/formstore"
)

func newNormalizeCmd(a *app) *cobra.Command {
	var (
		interactive bool
		output      string
	)
	cmd := &cobra.Command{
		Use:   "normalize <form> [document]",
		Short: "Print the submission payload for a document",
		Long: `Loads a JSON or YAML document (a file, or stdin when omitted or "-") over the
form defaults and prints the payload that would be submitted. Nothing is sent.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			forms, err := a.loadForms(ctx)
			if err != nil {
				return err
			}
			form, ok := forms.Form(args[0])
			if !ok {
				return fmt.Errorf("unknown form %q (see `formstore schemas`)", args[0])
			}

			record := map[string]any{}
			if !interactive || len(args) == 2 {
				name := "-"
				if len(args) == 2 {
					name = args[1]
				}
				record, err = readDocument(cmd.InOrStdin(), name)
				if err != nil {
					return err
				}
			}

			store, err := formstore.New(form, formstore.WithLogger(a.logger))
			if err != nil {
				return err
			}
			if err := store.Load(record); err != nil {
				return err
			}
			if interactive {
				editor := tui.New(tui.WithPromptDriver(tui.NewSurveyDriver(cmd.ErrOrStderr())), tui.WithLogger(a.logger))
				if err := editor.Fill(ctx, store); err != nil {
					return err
				}
			}

			payload, err := store.Normalize()
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, payload)
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "edit the document in the terminal before normalizing")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format (json or yaml)")
	return cmd
}

func readDocument(stdin io.Reader, name string) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	record := map[string]any{}
	if err := yaml.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", name, err)
	}
	return record, nil
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
