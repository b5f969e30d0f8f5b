package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-desk/internal/backend"
	"github.com/odyssey-erp/odyssey-desk/internal/entities"
)

func (o *options) directory() (*entities.Directory, error) {
	if o.backendURL == "" {
		return nil, errors.New("backend url is required (--backend or BACKEND_BASE_URL)")
	}
	api := backend.NewClient(backend.Config{BaseURL: o.backendURL, Token: o.token}, o.logger)
	return entities.NewDirectory(api, nil, o.logger), nil
}

func newEntitiesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "Print the merged entity list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := opts.directory()
			if err != nil {
				return err
			}
			snap, err := dir.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "root company: %s\n", snap.RootCompanyID)
			for _, e := range snap.Entities {
				fmt.Fprintf(out, "%-8s %-36s %-10s %s\n", e.Kind, e.ID, e.Code, e.Name)
			}
			return nil
		},
	}
}

func newContextCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "context [SELECTED_ID]",
		Short: "Resolve the accounting context for a selection",
		Long:  `Resolve the accounting context for a selection. Without an argument, or with "all", the consolidated context is printed.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := entities.SelectAll
			if len(args) == 1 {
				selected = args[0]
			}
			dir, err := opts.directory()
			if err != nil {
				return err
			}
			snap, err := dir.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), snap.Resolve(selected))
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
