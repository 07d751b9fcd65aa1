package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/contractcatalog/internal/config"
	"git.home.luguber.info/inful/contractcatalog/internal/contract"
	"git.home.luguber.info/inful/contractcatalog/internal/discovery"
	ferrors "git.home.luguber.info/inful/contractcatalog/internal/foundation/errors"
	"git.home.luguber.info/inful/contractcatalog/internal/source"
)

// DiscoverCmd implements the 'discover' command.
type DiscoverCmd struct {
	Contracts string `short:"d" name:"contracts" help:"Override contracts.dir"`
}

func (d *DiscoverCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if d.Contracts != "" {
		cfg.Contracts.Dir = d.Contracts
		cfg.Contracts.Repository = nil
	}
	ctx, cancel := signalContext()
	defer cancel()
	return RunDiscover(ctx, cfg, os.Stdout)
}

// RunDiscover prints the domain/service/contract tree found for cfg.
func RunDiscover(ctx context.Context, cfg *config.Config, out io.Writer) error {
	checkout, err := source.Resolve(ctx, cfg.Contracts, "")
	if err != nil {
		return err
	}
	defer func() { _ = checkout.Close() }()

	b := &discovery.Builder{Root: checkout.Dir, Exclude: cfg.Contracts.Exclude}
	res, err := b.Discover(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return ferrors.DiscoveryError("contract discovery failed").WithCause(err).Build()
	}

	printTree(out, res)
	return nil
}

func printTree(out io.Writer, res *discovery.Result) {
	if len(res.Domains) == 0 {
		fmt.Fprintln(out, "No contracts found")
	}
	for _, d := range res.Domains {
		fmt.Fprintf(out, "%s (%d)\n", d.DisplayName, d.Count())
		for _, s := range d.Services {
			indent := "  "
			if s.Name != "" {
				fmt.Fprintf(out, "  %s (%d)\n", s.DisplayName, s.Count())
				indent = "    "
			}
			for _, rec := range s.Records() {
				fmt.Fprintf(out, "%s[%s] %s  %s\n", indent, rec.Kind, rec.FileName, rec.Title)
			}
		}
	}

	totals := countKinds(res.Domains)
	fmt.Fprintf(out, "\n%d domain(s), %d api, %d event, %d data", len(res.Domains),
		totals[contract.KindAPI], totals[contract.KindEvent], totals[contract.KindData])
	if res.Unknown > 0 {
		fmt.Fprintf(out, ", %d unrecognized", res.Unknown)
	}
	fmt.Fprintln(out)
	for _, sk := range res.Skipped {
		fmt.Fprintf(out, "  skipped %s: %v\n", sk.Path, sk.Err)
	}
	for _, c := range res.Collisions {
		fmt.Fprintf(out, "  page %s: %s overwrites %s\n", c.Page, c.Kept, c.Shadow)
	}
	for _, p := range res.Misplaced {
		fmt.Fprintf(out, "  ignored %s: not inside a service directory\n", p)
	}
}

func countKinds(domains []*contract.Domain) map[contract.Kind]int {
	out := make(map[contract.Kind]int, 3)
	for _, d := range domains {
		api, ev, data := d.Counts()
		out[contract.KindAPI] += api
		out[contract.KindEvent] += ev
		out[contract.KindData] += data
	}
	return out
}
