package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"tarameteo/internal/db"
	"tarameteo/internal/limiter"
	"tarameteo/internal/sensor"
	"tarameteo/server"
)

func newSensorCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sensor",
		Short: "Manage sensors directly in the configured database",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create a sensor and print its API key (shown only once)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSensors(st, func(m *sensor.Manager) error {
					key, _, err := m.Create(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), key)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete NAME",
			Short: "Delete a sensor and its readings",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSensors(st, func(m *sensor.Manager) error {
					return m.Delete(cmd.Context(), args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "info NAME",
			Short: "Print sensor details and reading statistics",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSensors(st, func(m *sensor.Manager) error {
					info, err := m.Info(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(info)
				})
			},
		},
	)
	return cmd
}

func withSensors(st *state, fn func(*sensor.Manager) error) error {
	d, err := db.Open(st.cfg.Database.Driver, st.cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("db open failed: %w", err)
	}
	if sqlDB, err := d.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := db.Migrate(d); err != nil {
		return err
	}
	m, err := server.NewSensorManager(st.cfg, d, limiter.New(st.cfg.Crypto.MaxConcurrency))
	if err != nil {
		return err
	}
	return fn(m)
}
