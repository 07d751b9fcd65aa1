// Package discovery walks a contracts root and assembles the Domain/Service tree.
package discovery

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/contractcatalog/internal/contract"
	derrors "git.home.luguber.info/inful/contractcatalog/internal/discovery/errors"
	"git.home.luguber.info/inful/contractcatalog/internal/logfields"
	"git.home.luguber.info/inful/contractcatalog/internal/metrics"
)

// SkippedFile is a contract file left out of the tree because it could not be read
// or parsed.
type SkippedFile struct {
	Path string
	Err  error
}

// Collision is a pair of contract files that map to the same page.
type Collision struct {
	Page   string // site-relative page path
	Kept   string // source written last, the page the site ends up with
	Shadow string // source whose page is overwritten
}

// Result is the outcome of one discovery pass.
type Result struct {
	Domains    []*contract.Domain
	Skipped    []SkippedFile
	Unknown    int
	Collisions []Collision
	// Misplaced lists contract files directly inside a nested domain directory;
	// only service subdirectories are read there.
	Misplaced []string
}

// Builder assembles the contract tree below Root.
type Builder struct {
	Root     string
	Exclude  []string // doublestar patterns relative to Root, slash-separated
	Recorder metrics.Recorder
}

// Build returns the ordered domains below the root. A missing root yields no
// domains and no error.
func (b *Builder) Build(ctx context.Context) ([]*contract.Domain, error) {
	res, err := b.Discover(ctx)
	if err != nil {
		return nil, err
	}
	return res.Domains, nil
}

// Discover is Build with the per-file bookkeeping the site report needs.
func (b *Builder) Discover(ctx context.Context) (*Result, error) {
	for _, p := range b.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: %q", derrors.ErrInvalidExcludePattern, p)
		}
	}

	w := &walker{b: b, rec: metrics.OrNoop(b.Recorder), res: &Result{Domains: make([]*contract.Domain, 0)}}

	entries, err := os.ReadDir(b.Root)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("Contracts root not found", logfields.Path(b.Root))
			return w.res, nil
		}
		return nil, fmt.Errorf("%w: %s: %w", derrors.ErrRootReadFailed, b.Root, err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := filepath.Join(b.Root, e.Name())
		if !w.include(e, dir, true) {
			continue
		}
		d, err := w.domain(ctx, dir, e.Name())
		if err != nil {
			return nil, err
		}
		if d != nil {
			w.res.Domains = append(w.res.Domains, d)
		}
	}

	slog.Info("Contracts discovered",
		logfields.Path(b.Root),
		slog.Int("domains", len(w.res.Domains)),
		slog.Int("skipped", len(w.res.Skipped)))
	return w.res, nil
}

type walker struct {
	b   *Builder
	rec metrics.Recorder
	res *Result
}

// domain builds one domain, choosing the nested or flat layout. It returns nil
// when nothing below the directory survives filtering.
func (w *walker) domain(ctx context.Context, dir, name string) (*contract.Domain, error) {
	entries, err := readDir(dir)
	if err != nil {
		return nil, err
	}
	d := contract.NewDomain(name)

	nested, err := w.isNested(dir, entries)
	if err != nil {
		return nil, err
	}

	if nested {
		w.noteMisplaced(dir, entries, name)
		for _, e := range entries {
			sdir := filepath.Join(dir, e.Name())
			if !w.include(e, sdir, true) {
				continue
			}
			sentries, err := readDir(sdir)
			if err != nil {
				return nil, err
			}
			s := contract.NewService(e.Name())
			if err := w.collect(ctx, s, sdir, sentries, name, e.Name()); err != nil {
				return nil, err
			}
			if !s.Empty() {
				d.Services = append(d.Services, s)
			}
		}
	} else {
		d.Flat = true
		s := contract.NewService("")
		if err := w.collect(ctx, s, dir, entries, name, ""); err != nil {
			return nil, err
		}
		if !s.Empty() {
			d.Services = append(d.Services, s)
		}
	}

	if len(d.Services) == 0 {
		slog.Debug("Dropping empty domain", logfields.Domain(name))
		return nil, nil
	}
	return d, nil
}

// isNested reports whether any immediate subdirectory holds a contract file.
func (w *walker) isNested(dir string, entries []fs.DirEntry) (bool, error) {
	for _, e := range entries {
		sdir := filepath.Join(dir, e.Name())
		if !w.include(e, sdir, true) {
			continue
		}
		sentries, err := readDir(sdir)
		if err != nil {
			return false, err
		}
		for _, se := range sentries {
			if w.include(se, filepath.Join(sdir, se.Name()), false) {
				return true, nil
			}
		}
	}
	return false, nil
}

// noteMisplaced reports contract files a nested domain holds next to its services.
func (w *walker) noteMisplaced(dir string, entries []fs.DirEntry, domain string) {
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if !w.include(e, path, false) {
			continue
		}
		slog.Warn("Ignoring contract file outside a service directory",
			logfields.File(w.rel(path)), logfields.Domain(domain))
		w.res.Misplaced = append(w.res.Misplaced, path)
	}
}

// collect loads every contract file of one directory into s.
func (w *walker) collect(ctx context.Context, s *contract.Service, dir string, entries []fs.DirEntry, domain, service string) error {
	pages := make(map[string]string, len(entries))
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if !w.include(e, path, false) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := w.load(path, contract.Location{
			Domain:     domain,
			Service:    service,
			FileName:   e.Name(),
			SourcePath: path,
		})
		if rec == nil {
			continue
		}
		if prev, ok := pages[rec.RelPath()]; ok {
			slog.Warn("Contract files share an output page, the later one wins",
				slog.String("page", rec.RelPath()),
				logfields.File(w.rel(path)),
				slog.String("shadowed", w.rel(prev)))
			w.res.Collisions = append(w.res.Collisions, Collision{Page: rec.RelPath(), Kept: path, Shadow: prev})
		}
		pages[rec.RelPath()] = path
		s.Add(rec)
	}
	return nil
}

// load reads, classifies and parses a single file. Failures are logged and
// recorded; they never abort the walk.
func (w *walker) load(path string, loc contract.Location) *contract.Record {
	content, err := os.ReadFile(path)
	if err != nil {
		w.skip(path, fmt.Errorf("%w: %w", derrors.ErrFileReadFailed, err))
		return nil
	}

	c, err := contract.ClassifyFile(path, content)
	if err != nil {
		w.skip(path, err)
		return nil
	}
	if c.Type == contract.TypeUnknown {
		slog.Debug("Skipping unrecognized file", logfields.File(w.rel(path)))
		w.res.Unknown++
		w.rec.IncContract("", metrics.OutcomeUnknown)
		return nil
	}

	rec, err := contract.Parse(c, loc)
	if err != nil {
		w.skip(path, err)
		return nil
	}
	slog.Debug("Discovered contract",
		logfields.File(w.rel(path)),
		logfields.Kind(string(rec.Kind)),
		logfields.Domain(loc.Domain),
		logfields.Service(loc.Service))
	w.rec.IncContract(string(rec.Kind), metrics.OutcomeParsed)
	return rec
}

func (w *walker) skip(path string, err error) {
	slog.Warn("Skipping contract file", logfields.File(w.rel(path)), logfields.Error(err))
	w.res.Skipped = append(w.res.Skipped, SkippedFile{Path: path, Err: err})
	w.rec.IncContract("", metrics.OutcomeFailed)
}

// include decides whether an entry takes part in the walk. Directories are
// wanted when wantDir is set, files when it is not; hidden and excluded entries
// never are.
func (w *walker) include(e fs.DirEntry, path string, wantDir bool) bool {
	if strings.HasPrefix(e.Name(), ".") {
		return false
	}
	if isDir(e, path) != wantDir {
		return false
	}
	if !wantDir && !contract.IsContractExt(filepath.Ext(e.Name())) {
		return false
	}
	rel := w.rel(path)
	for _, p := range w.b.Exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	return true
}

func (w *walker) rel(path string) string {
	rel, err := filepath.Rel(w.b.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// isDir follows symlinks so linked domain or service directories are walked.
func isDir(e fs.DirEntry, path string) bool {
	if e.Type()&fs.ModeSymlink == 0 {
		return e.IsDir()
	}
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func readDir(dir string) ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", derrors.ErrDirReadFailed, dir, err)
	}
	return entries, nil
}
