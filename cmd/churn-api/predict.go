package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"telcochurn/churn"
)

var record churn.CustomerRecord

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run a single prediction and print the response body",
	Long: `Run a single prediction without starting the server.

Example:
  churn-api predict --tenure 12 --internet-service DSL --online-security No \
    --tech-support No --contract Month-to-month`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if record.Tenure < 0 {
			return fmt.Errorf("tenure must not be negative")
		}
		_, logger, artifacts, err := setup()
		if logger != nil {
			defer logger.Sync()
		}
		if err != nil {
			return err
		}

		predictor, err := churn.NewPredictor(artifacts)
		if err != nil {
			return err
		}
		resp, err := predictor.Predict(record)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func init() {
	flags := predictCmd.Flags()
	flags.Float64Var(&record.Tenure, "tenure", 0, "customer tenure in months")
	flags.StringVar(&record.InternetService, "internet-service", "", "InternetService category")
	flags.StringVar(&record.OnlineSecurity, "online-security", "", "OnlineSecurity category")
	flags.StringVar(&record.TechSupport, "tech-support", "", "TechSupport category")
	flags.StringVar(&record.Contract, "contract", "", "Contract category")
	for _, name := range []string{"tenure", "internet-service", "online-security", "tech-support", "contract"} {
		_ = predictCmd.MarkFlagRequired(name)
	}
}
