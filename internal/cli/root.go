// Package cli содержит команды tarameteo: серверы, выпуск CA и сертификатов, управление датчиками.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tarameteo/config"
	"tarameteo/server"
)

type state struct {
	cfgFile string
	cfg     *config.Config
}

// NewRootCmd собирает дерево команд. Конфиг читается один раз перед запуском подкоманды.
func NewRootCmd() *cobra.Command {
	st := &state{}
	root := &cobra.Command{
		Use:           "tarameteo",
		Short:         "TaraMeteo weather station backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			path := st.cfgFile
			if path == "" {
				path = os.Getenv("CONFIG_FILE")
			}
			cfg, err := config.LoadFile(path)
			if err != nil {
				return err
			}
			st.cfg = cfg
			return server.InitLogs(cfg)
		},
	}
	root.PersistentFlags().StringVar(&st.cfgFile, "config", "", "config file (default: $CONFIG_FILE or ./config.yaml)")

	root.AddCommand(
		newServeCmd(st),
		newIssuerCmd(st),
		newSensorCmd(st),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newServeCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sensor/weather API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := &server.App{}
			if err := app.InitializeAPI(st.cfg); err != nil {
				return err
			}
			return app.Run()
		},
	}
}
