package commands

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/contractcatalog/internal/config"
)

//go:embed all:sample
var sampleFS embed.FS

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing files"`
	Dir    string `short:"d" name:"dir" default:"." help:"Project directory to initialize"`
	NoTree bool   `name:"no-contracts" help:"Only write the configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	cfgPath := root.Config
	if cfgPath == "" {
		cfgPath = filepath.Join(i.Dir, config.DefaultConfigFile)
	}
	return RunInit(os.Stdout, cfgPath, i.Dir, i.Force, !i.NoTree)
}

// RunInit writes the example configuration and, when withTree is set, an
// example contracts tree below dir.
func RunInit(out io.Writer, configPath, dir string, force, withTree bool) error {
	fmt.Fprintln(out, "Initializing contract catalog project")
	fmt.Fprintf(out, "Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		fmt.Fprintln(out, "Initialization failed")
		return err
	}
	if withTree {
		contractsDir := filepath.Join(dir, filepath.FromSlash(config.Example().Contracts.Dir))
		n, err := writeSampleTree(contractsDir, force)
		if err != nil {
			fmt.Fprintln(out, "Initialization failed")
			return err
		}
		fmt.Fprintf(out, "Wrote %d example contract(s) to %s\n", n, contractsDir)
	}
	fmt.Fprintln(out, "initialized successfully")
	return nil
}

// writeSampleTree copies the embedded example contracts into dst. Existing files
// are kept unless force is set.
func writeSampleTree(dst string, force bool) (int, error) {
	written := 0
	err := fs.WalkDir(sampleFS, "sample", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel("sample", filepath.FromSlash(p))
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		if _, statErr := os.Stat(target); statErr == nil && !force {
			return nil
		}
		data, err := sampleFS.ReadFile(p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o600); err != nil {
			return fmt.Errorf("write example contract: %w", err)
		}
		written++
		return nil
	})
	return written, err
}
