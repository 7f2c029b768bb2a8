package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jgivc/assetimporter/internal/app"
	"github.com/jgivc/assetimporter/internal/config"
	"github.com/jgivc/assetimporter/internal/entity"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// exitUsage is returned when the arguments cannot be parsed.
const exitUsage = 1

type runFunc func(ctx context.Context, opts app.Options) int

func runImport(ctx context.Context, opts app.Options) int {
	return app.New(opts).Run(ctx)
}

// newRootCommand creates a fresh command instance. The exit code of the run is
// stored in code.
func newRootCommand(run runFunc, code *int) *cobra.Command {
	opts := app.Options{}

	cmd := &cobra.Command{
		Use:   "assetimporter <source>",
		Short: "Import a directory tree into the asset repository",
		Long: `Import files from a source directory into the asset repository.

Directories become folders below --rootPath, files become assets. Runs are
idempotent: existing assets are skipped, or overwritten with --updateAssets.

Exit codes:
   0  success
   1  root folder or source directory not found, setup failure
   2  import failed`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SourceDir = args[0]
			*code = run(cmd.Context(), opts)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", config.DefaultConfigFile, "Path to config file")
	flags.StringVar(&opts.RootPath, "rootPath", entity.RootPath, "Repository folder to import into")
	flags.BoolVar(&opts.UpdateAssets, "updateAssets", false, "Overwrite assets that already exist")
	flags.IntVar(&opts.BatchSize, "batchSize", 0, "Maximum number of files per run (0 = unlimited)")
	flags.BoolVar(&opts.DeleteOriginal, "deleteOriginal", false, "Delete source files after a successful import")
	addFilterFlags(flags, &opts)
	flags.BoolVar(&opts.IncludeDotFiles, "includeDotFiles", false, "Import dot files and version control directories")
	flags.StringVar(&opts.LogLevel, "log-level", "", "Set log level (debug|info|warn|error), overrides config")

	return cmd
}

// addFilterFlags registers the include/exclude lists. An include list makes the
// matching exclude list ignored.
func addFilterFlags(flags *pflag.FlagSet, opts *app.Options) {
	types := assetTypeNames()

	flags.StringVar(&opts.IncludeTypes, "includeTypes", "", "Comma separated asset types to import ("+types+")")
	flags.StringVar(&opts.ExcludeTypes, "excludeTypes", "", "Comma separated asset types to skip ("+types+")")
	flags.StringVar(&opts.IncludeExtensions, "includeExtensions", "", "Comma separated file extensions to import")
	flags.StringVar(&opts.ExcludeExtensions, "excludeExtensions", "", "Comma separated file extensions to skip")
}

func assetTypeNames() string {
	names := make([]string, 0, len(entity.AssetTypes))
	for _, t := range entity.AssetTypes {
		names = append(names, t.String())
	}

	return strings.Join(names, ", ")
}

func execute(ctx context.Context, args []string) int {
	code := int(entity.ExitOK)

	cmd := newRootCommand(runImport, &code)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)

		return exitUsage
	}

	return code
}
