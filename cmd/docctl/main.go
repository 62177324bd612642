package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"treatviz/internal/bootstrap"
	"treatviz/internal/config"
	"treatviz/internal/logging"
	"treatviz/internal/model"
)

// opener builds the service graph for one command invocation.
type opener func(ctx context.Context) (*bootstrap.App, error)

func main() {
	open := func(ctx context.Context) (*bootstrap.App, error) {
		cfg := config.Load()
		return bootstrap.New(ctx, cfg, logging.New(os.Stderr, cfg.Location()))
	}
	if err := newRootCmd(open).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(open opener) *cobra.Command {
	var output string

	rootCmd := &cobra.Command{
		Use:          "docctl",
		Short:        "Manage treatviz prompt settings and reference documents",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", formatJSON, "Output format: json or yaml")

	// withApp opens the services, runs fn and renders its result.
	withApp := func(fn func(cmd *cobra.Command, app *bootstrap.App, args []string) (any, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			app, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			v, err := fn(cmd, app, args)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), output, v)
		}
	}

	settingsCmd := &cobra.Command{Use: "settings", Short: "Show or change prompt settings"}
	settingsCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, _ []string) (any, error) {
			return app.Settings.Read(cmd.Context()), nil
		}),
	})
	settingsCmd.AddCommand(&cobra.Command{
		Use:   "set-prompt <week4|week8|week12> <text>",
		Short: "Replace one prompt template",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, args []string) (any, error) {
			patch, err := promptPatch(args[0], args[1])
			if err != nil {
				return nil, err
			}
			st, err := app.Settings.UpdatePrompts(cmd.Context(), patch)
			if err != nil {
				return nil, err
			}
			return st.Prompts, nil
		}),
	})

	documentsCmd := &cobra.Command{Use: "documents", Short: "Manage reference documents"}
	documentsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List document records",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, _ []string) (any, error) {
			return app.Documents.List(cmd.Context()), nil
		}),
	})
	documentsCmd.AddCommand(&cobra.Command{
		Use:   "add <file>...",
		Short: "Ingest local files as reference documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, args []string) (any, error) {
			added := make([]model.Document, 0, len(args))
			for _, p := range args {
				doc, err := addFile(cmd.Context(), app, p)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", p, err)
				}
				added = append(added, *doc)
			}
			return added, nil
		}),
	})
	documentsCmd.AddCommand(&cobra.Command{
		Use:   "text [id...]",
		Short: "Print extracted text, for all documents when no id is given",
		RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, args []string) (any, error) {
			if len(args) == 0 {
				return app.Documents.LoadAllTexts(cmd.Context()), nil
			}
			return app.Documents.LoadTexts(cmd.Context(), args), nil
		}),
	})

	rootCmd.AddCommand(settingsCmd, documentsCmd)
	return rootCmd
}

func promptPatch(slot, text string) (model.PromptsPatch, error) {
	var patch model.PromptsPatch
	switch slot {
	case model.PromptWeek4:
		patch.Week4 = &text
	case model.PromptWeek8:
		patch.Week8 = &text
	case model.PromptWeek12:
		patch.Week12 = &text
	default:
		return patch, fmt.Errorf("unknown prompt slot %q", slot)
	}
	return patch, nil
}

func addFile(ctx context.Context, app *bootstrap.App, p string) (*model.Document, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var size int64
	if st, err := f.Stat(); err == nil {
		size = st.Size()
	}
	return app.Documents.Ingest(ctx, f, filepath.Base(p), guessMIME(p), size)
}
