package linkverify

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"git.home.luguber.info/inful/contractcatalog/internal/foundation/errors"
	"git.home.luguber.info/inful/contractcatalog/internal/logfields"
)

const defaultConcurrency = 4

// Options tunes VerifySite.
type Options struct {
	// Optional lists site-relative paths or directory prefixes (ending in "/")
	// that pages may link to even when they were not generated.
	Optional []string
	// Concurrency bounds the number of pages checked at once.
	Concurrency int
}

// BrokenLink is an internal reference that does not resolve to a file.
type BrokenLink struct {
	Page   string // site-relative page path
	URL    string
	Tag    string
	Line   int
	Target string // site-relative resolved target
}

func (b BrokenLink) String() string {
	return fmt.Sprintf("%s: <%s> %s", b.Page, b.Tag, b.URL)
}

// Result summarizes a site verification.
type Result struct {
	Pages  int
	Links  int
	Broken []BrokenLink
}

// OK reports whether no broken links were found.
func (r *Result) OK() bool { return len(r.Broken) == 0 }

// Err returns a classified links error describing every broken link, or nil.
func (r *Result) Err() error {
	if r.OK() {
		return nil
	}
	lines := make([]string, 0, len(r.Broken))
	for _, b := range r.Broken {
		lines = append(lines, b.String())
	}
	return errors.NewError(errors.CategoryLinks, fmt.Sprintf("%d broken link(s)", len(r.Broken))).
		WithContext("links", strings.Join(lines, "; ")).
		Fatal().
		Build()
}

// VerifySite checks that every internal link in every HTML page under dir
// resolves to an existing file.
func VerifySite(ctx context.Context, dir string, opts Options) (*Result, error) {
	pages, err := htmlPages(dir)
	if err != nil {
		return nil, err
	}
	n := opts.Concurrency
	if n <= 0 {
		n = defaultConcurrency
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		sem    = make(chan struct{}, n)
		res    = &Result{Pages: len(pages)}
		errs   []error
		record = func(links int, broken []BrokenLink, err error) {
			mu.Lock()
			defer mu.Unlock()
			res.Links += links
			res.Broken = append(res.Broken, broken...)
			if err != nil {
				errs = append(errs, err)
			}
		}
	)

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(page string) {
			defer wg.Done()
			defer func() { <-sem }()
			record(verifyPage(dir, page, opts.Optional))
		}(page)
	}
	wg.Wait()

	if len(errs) > 0 {
		return nil, errs[0]
	}
	sort.Slice(res.Broken, func(i, j int) bool {
		if res.Broken[i].Page != res.Broken[j].Page {
			return res.Broken[i].Page < res.Broken[j].Page
		}
		return res.Broken[i].Line < res.Broken[j].Line
	})
	for _, b := range res.Broken {
		slog.Warn("Broken link", logfields.Path(b.Page), logfields.URL(b.URL))
	}
	return res, nil
}

func htmlPages(dir string) ([]string, error) {
	var pages []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".html") {
			rel, relErr := filepath.Rel(dir, p)
			if relErr != nil {
				return relErr
			}
			pages = append(pages, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to walk site").WithContext("dir", dir).Fatal().Build()
	}
	return pages, nil
}

func verifyPage(dir, page string, optional []string) (int, []BrokenLink, error) {
	links, err := ExtractLinks(filepath.Join(dir, filepath.FromSlash(page)))
	if err != nil {
		return 0, nil, err
	}
	var broken []BrokenLink
	checked := 0
	for _, link := range links {
		if !ShouldVerifyLink(link) {
			continue
		}
		checked++
		target, ok := resolve(page, link.URL)
		if ok && isOptional(target, optional) {
			continue
		}
		if !ok || !exists(dir, target) {
			broken = append(broken, BrokenLink{Page: page, URL: link.URL, Tag: link.Tag, Line: link.Line, Target: target})
		}
	}
	return checked, broken, nil
}

// resolve maps a link on page to a site-relative slash path.
// It reports false for links escaping the site root.
func resolve(page, link string) (string, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return link, false
	}
	var target string
	if strings.HasPrefix(u.Path, "/") {
		target = path.Clean(strings.TrimPrefix(u.Path, "/"))
	} else {
		target = path.Join(path.Dir(page), u.Path)
	}
	if target == ".." || strings.HasPrefix(target, "../") {
		return target, false
	}
	return target, true
}

func isOptional(target string, optional []string) bool {
	for _, o := range optional {
		if target == o || (strings.HasSuffix(o, "/") && strings.HasPrefix(target, o)) {
			return true
		}
	}
	return false
}

func exists(dir, target string) bool {
	info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(target)))
	if err != nil {
		return false
	}
	if info.IsDir() {
		_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(target), "index.html"))
		return err == nil
	}
	return true
}
