package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/nrfta/feed-paging/internal/config"
)

// Execute runs the command tree with args and the given standard streams.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := &app{}
	defer a.close(context.WithoutCancel(ctx))

	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "pofeed",
		Short:         "Browse purchase orders page by page",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newListCommand(a),
		newBrowseCommand(a),
		newGetCommand(a),
		newCreateCommand(a),
		newDeleteCommand(a),
		newConfigCommand(a),
	)
	return root
}
