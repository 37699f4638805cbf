package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	ferrors "git.home.luguber.info/inful/espdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/espdocs/internal/version"
)

// Execute parses args, runs the selected command and returns the process exit
// code: 0 on success, 130 when ctx was cancelled, 1 otherwise.
func Execute(ctx context.Context, args []string, g *Global) int {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("esp-docs"),
		kong.Description("Build esp-docs documentation for every language and target, and gate on new warnings."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(g),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Writers(g.Out, g.Err),
	)
	if err != nil {
		_, _ = fmt.Fprintf(g.Err, "Error: %v\n", err)
		return ferrors.ExitFailure
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		_, _ = fmt.Fprintf(g.Err, "Error: %v\n", err)
		return ferrors.ExitFailure
	}

	err = kctx.Run(&cli)
	return ferrors.NewCLIErrorAdapter(cli.Verbose, g.Logger).WithOutput(g.Err).Report(err)
}
