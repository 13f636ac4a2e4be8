package main

import (
	"os"

	"github.com/sensiblebit/amocollect/internal"
	"github.com/spf13/cobra"
)

var logLevel = newEnumValue("info", "debug", "info", "warn", "warning", "error")

var rootCmd = &cobra.Command{
	Use:   "amocollect <xpi>...",
	Short: "Build an add-on collection file for Firefox for Android",
	Long: `Read signed extension archives (.xpi) and write the add-on collection JSON
that Firefox for Android loads from its cache, so the archives can be
installed from the add-on manager.

The add-on id comes from manifest.json when declared there, otherwise from
the signing certificate in META-INF/cose.sig or META-INF/mozilla.rsa.

Environment:
  COLLECTION_JSON_NAME  output file (default: ` + internal.DefaultCollectionFileName + `)
  CREATE_ONE_BIG_FILE   embed the archives as data: URLs instead of
                        file:///data/local/tmp/ext-qa-data/ paths; any
                        non-empty value enables it except boolean-false
                        spellings such as 0 or false`,
	Example: `  amocollect ublock.xpi darkreader.xpi
  CREATE_ONE_BIG_FILE=1 amocollect *.xpi`,
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: xpiCompletion,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetupLogger(logLevel.String())
	},
	RunE: runGenerate,
}

func init() {
	rootCmd.PersistentFlags().VarP(logLevel, "log-level", "l", "Log level: "+logLevel.Allowed())
	registerCompletion(rootCmd, completionInput{flagName: "log-level", completeFunc: fixedCompletion(logLevel.allowed...)})

	rootCmd.AddCommand(inspectCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := internal.LoadConfig(os.Getenv)

	archive := internal.NewZipReader(internal.DefaultArchiveLimits())
	collection, err := internal.GenerateCollection(internal.GenerateInput{
		Paths:    args,
		Mode:     cfg.Mode,
		Archive:  archive,
		Resolver: internal.NewResolver(archive),
	})
	if err != nil {
		return err
	}

	return internal.WriteCollection(cfg.OutputPath, collection)
}
