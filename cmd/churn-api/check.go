package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"telcochurn/churn"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load all artifacts and print what was found",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, artifacts, err := setup()
		if logger != nil {
			defer logger.Sync()
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "model:   %s (%d features)\n", artifacts.Info.ModelType, artifacts.Info.NumFeatures)
		fmt.Fprintf(out, "scaler:  %s\n", artifacts.Info.ScalerKind)
		for _, field := range churn.CategoricalFields {
			fmt.Fprintf(out, "%-16s %s\n", string(field)+":", strings.Join(artifacts.Info.Vocabularies[field], " | "))
		}
		return nil
	},
}
