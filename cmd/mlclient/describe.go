package main

import (
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/smanolloff/vcmi-mlclient/internal/config"
	"github.com/smanolloff/vcmi-mlclient/internal/logging"
	"github.com/smanolloff/vcmi-mlclient/internal/session"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print the effective configuration and session models",
	Long: `Builds the session from the effective configuration and prints it as
YAML without playing any battle.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := session.Build(cfg, logging.Nop(), session.Options{
			In:     cmd.InOrStdin(),
			Out:    io.Discard,
			ErrOut: cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		return writeDescription(cmd.OutOrStdout(), cfg, sess)
	},
}

type description struct {
	Config  *config.Config   `yaml:"config"`
	Session *session.Context `yaml:"session"`
}

func writeDescription(w io.Writer, c *config.Config, sess *session.Context) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(description{Config: c, Session: sess}); err != nil {
		return err
	}
	return enc.Close()
}
