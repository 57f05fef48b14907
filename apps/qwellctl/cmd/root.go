package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/quatton/qwell/pkg/qsdk"
	"github.com/spf13/cobra"
)

type contextKey string

const configContextKey contextKey = "qwellconfig"

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "qwellctl",
		Short: "CLI for the qwell meal logging API",
		Long: `qwellctl talks to a running qwell API. Log in with your email, upload
meal photos to have them classified, record meals and check how today's
intake compares with your nutrition target.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := qsdk.LoadConfig(cfgFile)
			if err != nil {
				return err
			}

			if err := cfg.Viper().BindPFlag(qsdk.BaseUrlKey, cmd.Flags().Lookup("base-url")); err != nil {
				return err
			}

			ctx := context.WithValue(cmd.Context(), configContextKey, cfg)
			cmd.SetContext(ctx)

			return nil
		},
	}
)

// GetConfig retrieves the Config from the command context
func GetConfig(cmd *cobra.Command) (*qsdk.Config, error) {
	ctx := cmd.Context()
	cfg, ok := ctx.Value(configContextKey).(*qsdk.Config)
	if !ok {
		return nil, errors.New("no config in context")
	}
	return cfg, nil
}

func newSdk(cmd *cobra.Command) *qsdk.Sdk {
	cfg, err := GetConfig(cmd)
	if err != nil {
		exitIfSdkError(err)
	}
	sdk, err := qsdk.NewSdk(cfg)
	if err != nil {
		exitIfSdkError(err)
	}
	return sdk
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML). Searches: $XDG_CONFIG_HOME/qwell/config.yaml, qwell.yaml, .qwell/config.yaml")
	rootCmd.PersistentFlags().String("base-url", "", "Base URL for the qwell API (overrides config)")
}
