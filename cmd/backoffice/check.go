package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johnwards/backoffice/internal/entities"
)

var checkFile string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the entity catalog and exit non-zero on any configuration error",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkFile, "file", "f", "", "check this catalog file instead of the embedded one")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	var (
		reg *entities.Registry
		err error
	)
	if checkFile != "" {
		reg, err = entities.LoadFile(checkFile)
	} else {
		reg, err = entities.Default()
	}
	if err != nil {
		return fmt.Errorf("entity catalog: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, e := range reg.All() {
		_, _ = fmt.Fprintf(out, "OK: %s (table %s, %d fields)\n", e.Name, e.Table().Name, len(e.Table().Columns))
	}
	return nil
}
