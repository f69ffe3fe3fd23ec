package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstore/pkg/editor/tui"
	"github.com/goliatone/go-formstore/pkg/session"
)

func newEditCmd(a *app) *cobra.Command {
	var recordID string
	cmd := &cobra.Command{
		Use:   "edit <form>",
		Short: "Fill a form in the terminal and submit it",
		Long: `Opens the form in create mode, or in edit mode when --record is given, walks
every field interactively and submits the normalized document to the API.
Image fields accept "@path/to/file" to upload a local file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			forms, err := a.loadForms(ctx)
			if err != nil {
				return err
			}
			form, ok := forms.Form(args[0])
			if !ok {
				return fmt.Errorf("unknown form %q (see `formstore schemas`)", args[0])
			}

			sess, err := session.Open(ctx, form, recordID, a.collaborators(), session.WithLogger(a.logger))
			if err != nil {
				return err
			}
			defer sess.Close()

			editor := tui.New(
				tui.WithPromptDriver(tui.NewSurveyDriver(cmd.ErrOrStderr())),
				tui.WithLogger(a.logger),
			)
			payload, err := editor.Edit(ctx, sess)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		},
	}
	cmd.Flags().StringVar(&recordID, "record", "", "id of an existing record to edit")
	return cmd
}
