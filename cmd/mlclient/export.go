package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/smanolloff/vcmi-mlclient/internal/schema"
	"github.com/smanolloff/vcmi-mlclient/internal/storage"
)

var (
	exportSession string
	exportSide    string
	exportOutput  string
)

var exportCmd = &cobra.Command{
	Use:   "export-actions",
	Short: "Write one side's logged actions as a recorded-actions file",
	Long: `Reads the decisions of one session side from the SQLite decision log
in stats-storage and writes their actions, one per line, in a format
accepted by --prerecorded --actions-file.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportSession, "session", "", "Session ID to export (required)")
	exportCmd.Flags().StringVar(&exportSide, "side", "left", "Side to export: left or right")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "-", "Output file (- for stdout)")
	exportCmd.MarkFlagRequired("session")
}

func runExport(cmd *cobra.Command, args []string) error {
	side, err := schema.ParseSide(exportSide)
	if err != nil {
		return err
	}
	if cfg.StatsStorage == storage.Memory {
		return errors.New("export-actions needs a SQLite stats-storage")
	}

	backend, err := storage.NewSQLiteBackend(cfg.StatsStorage)
	if err != nil {
		return fmt.Errorf("open decision log: %w", err)
	}
	defer backend.Close()

	out := cmd.OutOrStdout()
	if exportOutput != "-" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOutput, err)
		}
		defer f.Close()
		out = f
	}

	ctx, cancel := cfg.StatsContext(cmd.Context())
	defer cancel()

	n, err := exportActions(ctx, backend, exportSession, side, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d actions\n", n)
	return nil
}

// exportActions writes the actions of sessionID's side to w, one per line.
func exportActions(ctx context.Context, backend storage.Backend, sessionID string, side schema.Side, w io.Writer) (int, error) {
	actions, err := backend.Actions(ctx, sessionID, side)
	if err != nil {
		return 0, fmt.Errorf("read actions: %w", err)
	}
	if len(actions) == 0 {
		return 0, fmt.Errorf("no actions logged for session %s, %s side", sessionID, side)
	}

	bw := bufio.NewWriter(w)
	for _, a := range actions {
		fmt.Fprintln(bw, int(a))
	}
	return len(actions), bw.Flush()
}
