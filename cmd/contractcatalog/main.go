package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/contractcatalog/cmd/contractcatalog/commands"
	ferrors "git.home.luguber.info/inful/contractcatalog/internal/foundation/errors"
	"git.home.luguber.info/inful/contractcatalog/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{}
	ctx := kong.Parse(cli,
		kong.Name("contractcatalog"),
		kong.Description("Generate a static HTML catalog from OpenAPI, AsyncAPI and data contract files."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	if err := ctx.Run(global, cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
