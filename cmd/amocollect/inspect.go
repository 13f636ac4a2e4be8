package main

import (
	"fmt"

	"github.com/sensiblebit/amocollect/internal"
	"github.com/spf13/cobra"
)

var inspectFormat = newEnumValue("text", "text", "json", "yaml")

var inspectCmd = &cobra.Command{
	Use:   "inspect <xpi>...",
	Short: "Show how extension archives are identified",
	Long:  "Resolve the add-on id of each archive and show where it came from, including the signing certificate for signature-derived ids. No file is written.",
	Example: `  amocollect inspect addon.xpi
  amocollect inspect *.xpi --format json`,
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: xpiCompletion,
	RunE:              runInspect,
}

func init() {
	inspectCmd.Flags().Var(inspectFormat, "format", "Output format: "+inspectFormat.Allowed())
	registerCompletion(inspectCmd, completionInput{flagName: "format", completeFunc: fixedCompletion(inspectFormat.allowed...)})
}

func runInspect(cmd *cobra.Command, args []string) error {
	archive := internal.NewZipReader(internal.DefaultArchiveLimits())
	results, err := internal.InspectArchives(args, archive, internal.NewResolver(archive))
	if err != nil {
		return err
	}

	output, err := internal.FormatInspectResults(results, inspectFormat.String())
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}
