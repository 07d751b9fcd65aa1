package commands

import (
	"os"
)

// VerifyCmd implements the 'verify' command.
type VerifyCmd struct {
	Output string `short:"o" name:"output" help:"Site directory to check (defaults to output.directory)"`
}

func (v *VerifyCmd) Run(g *Global, root *CLI) error {
	dir := v.Output
	if dir == "" {
		cfg, err := root.loadConfig(g)
		if err != nil {
			return err
		}
		dir = cfg.Output.Directory
	}
	ctx, cancel := signalContext()
	defer cancel()
	return verifyLinks(ctx, os.Stdout, dir)
}
