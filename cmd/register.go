package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/supplier-risk/internal/model"
)

var (
	registerName     string
	registerCountry  string
	registerIndustry string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new supplier and issue its onboarding questionnaire",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sup := model.Supplier{
			Name:         registerName,
			Country:      registerCountry,
			IndustryCode: registerIndustry,
		}
		task, err := env.Driver.RegisterSupplier(ctx, &sup)
		if err != nil {
			return eris.Wrap(err, "register supplier")
		}

		zap.L().Info("supplier registered",
			zap.String("supplier_id", sup.ID),
			zap.String("onboarding_task", task.ID),
			zap.Time("due", task.DueDate),
		)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "supplier name (required)")
	registerCmd.Flags().StringVar(&registerCountry, "country", "", "supplier country (required)")
	registerCmd.Flags().StringVar(&registerIndustry, "industry", "", "NACE industry code")
	_ = registerCmd.MarkFlagRequired("name")
	_ = registerCmd.MarkFlagRequired("country")
	rootCmd.AddCommand(registerCmd)
}
