package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/tartampluch/go-sobriety/internal/config"
)

// addOutputFlag registers --output on commands with structured output.
func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP(config.FlagOutput, "o", config.OutputText, config.FlagDescOutput)
}

// outputFormat reads and validates --output.
func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString(config.FlagOutput)
	switch format {
	case config.OutputText, config.OutputJSON, config.OutputTOML:
		return format, nil
	default:
		return "", fmt.Errorf("%s: %q", config.ErrUnknownOutput, format)
	}
}

// writeStructured encodes v as JSON or TOML. TOML documents must be tables,
// so callers wrap lists in a struct.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputTOML:
		return toml.NewEncoder(w).Encode(v)
	default:
		return fmt.Errorf("%s: %q", config.ErrUnknownOutput, format)
	}
}

// newTable returns a tab-aligned writer for listings.
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func yesNo(b bool) string {
	if b {
		return config.OutYes
	}
	return config.OutNo
}

func joinCols(cols ...string) string {
	return strings.Join(cols, config.OutTableSep)
}
