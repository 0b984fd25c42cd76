package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/MKhiriev/envelope-sync/internal/client"
	"github.com/MKhiriev/envelope-sync/models"
)

func newImportCommand(opts *RootOptions) *cobra.Command {
	var merge bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load budget data from a JSON export",
		Long: `Import reads a JSON export ("-" for stdin) into the local store.

Without --merge the local data is replaced. With --merge records are upserted
by id and nothing is deleted. Either way a critical sync is requested.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readDataFile(cmd, args[0])
			if err != nil {
				return commandError("read import file", err)
			}

			ctx := cmd.Context()
			return opts.withApp(ctx, func(app *client.App) error {
				if err := app.Services.Data.Import(ctx, data, merge); err != nil {
					return failure("import", err)
				}
				counts := data.Counts()
				return opts.printer(cmd).print(counts, func(w io.Writer) {
					fmt.Fprintf(w, "imported %d records\n", counts.Total())
					renderCounts(w, counts)
				})
			})
		},
	}

	cmd.Flags().BoolVar(&merge, "merge", false, "Upsert records instead of replacing the local data")
	return cmd
}

func newExportCommand(opts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the local budget data as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(app *client.App) error {
				data, err := app.Services.Data.Export(ctx)
				if err != nil {
					return failure("export", err)
				}
				body, err := json.MarshalIndent(data, "", "  ")
				if err != nil {
					return failure("encode export", err)
				}

				if output == "" || output == "-" {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), string(body))
					return err
				}
				if err = os.WriteFile(output, body, 0o600); err != nil {
					return commandError("write export file", err)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func readDataFile(cmd *cobra.Command, path string) (*models.DataCollection, error) {
	var (
		body []byte
		err  error
	)
	if path == "-" {
		body, err = io.ReadAll(cmd.InOrStdin())
	} else {
		body, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var data models.DataCollection
	if err = json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &data, nil
}
