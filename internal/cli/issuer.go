package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tarameteo/internal/issuer"
	"tarameteo/server"
)

func newIssuerCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issuer",
		Short: "Device certificate issuer",
	}
	cmd.AddCommand(newIssuerServeCmd(st), newInitCACmd(st), newMintCmd(st))
	return cmd
}

func newIssuerServeCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the certificate issuer (POST /v1/certs)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := &server.App{}
			if err := app.InitializeIssuer(st.cfg); err != nil {
				return err
			}
			return app.Run()
		},
	}
}

func newInitCACmd(st *state) *cobra.Command {
	var (
		cn        string
		days      int
		algorithm string
		certPath  string
		keyPath   string
	)
	cmd := &cobra.Command{
		Use:   "init-ca",
		Short: "Create a self-signed CA key and certificate",
		Long:  "Creates issuer.ca_key and issuer.ca_cert. Existing files are never overwritten.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if certPath == "" {
				certPath = st.cfg.Issuer.CACert
			}
			if keyPath == "" {
				keyPath = st.cfg.Issuer.CAKey
			}
			keys, err := issuer.NewKeyFactory(algorithm)
			if err != nil {
				return err
			}
			ca, keyPEM, err := issuer.NewSelfSignedCA(cn, time.Duration(days)*24*time.Hour, keys, time.Now().UTC())
			if err != nil {
				return err
			}
			if err := issuer.WriteCAFiles(ca, keyPEM, certPath, keyPath); err != nil {
				return fmt.Errorf("write CA files: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "CA %q written: cert=%s key=%s expires=%s\n",
				cn, certPath, keyPath, ca.Cert.NotAfter.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&cn, "cn", "TaraMeteo Device CA", "CA common name")
	cmd.Flags().IntVar(&days, "days", 3650, "CA validity in days")
	cmd.Flags().StringVar(&algorithm, "algorithm", "ecdsa-p256", "CA key algorithm (rsa2048|rsa3072|rsa4096|ecdsa-p256)")
	cmd.Flags().StringVar(&certPath, "cert", "", "CA certificate path (default issuer.ca_cert)")
	cmd.Flags().StringVar(&keyPath, "key", "", "CA key path (default issuer.ca_key)")
	return cmd
}

func newMintCmd(st *state) *cobra.Command {
	var ttl int
	cmd := &cobra.Command{
		Use:   "mint DEVICE_ID",
		Short: "Request a device certificate from a running issuer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := issuer.NewClient(st.cfg.Issuer.URL, st.cfg.Issuer.Token, st.cfg.Issuer.RequestTimeout)
			resp, err := c.Mint(cmd.Context(), issuer.MintRequest{DeviceID: args[0], TTLDays: ttl})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().IntVar(&ttl, "ttl-days", 0, "certificate lifetime in days (default: issuer.cert_days of the issuer)")
	return cmd
}
