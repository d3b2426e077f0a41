package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func newConfigCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeYAML(cmd.OutOrStdout(), readable(a.loader.Settings()))
		},
	}
}

// readable renders durations as strings instead of nanosecond counts.
func readable(settings map[string]any) map[string]any {
	out := make(map[string]any, len(settings))
	for key, value := range settings {
		switch v := value.(type) {
		case map[string]any:
			out[key] = readable(v)
		case time.Duration:
			out[key] = v.String()
		default:
			out[key] = v
		}
	}
	return out
}
