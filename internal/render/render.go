// Package render turns contract records and the domain tree into HTML pages.
// Renderers are pure: they return the page text and never touch the filesystem.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"git.home.luguber.info/inful/contractcatalog/internal/contract"
	"git.home.luguber.info/inful/contractcatalog/internal/document"
	"git.home.luguber.info/inful/contractcatalog/internal/markdown"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed assets/catalog.css
var stylesheet []byte

// Stylesheet returns the shared stylesheet every page links to as assets/catalog.css.
func Stylesheet() []byte {
	return append([]byte(nil), stylesheet...)
}

// Asset paths, relative to the site root, referenced by rendered pages.
const (
	StylesheetPath = "assets/catalog.css"
	RedocPath      = "assets/redoc.standalone.js"
	AsyncAPIDocDir = "asyncapi-docs"
)

// Options configures a Renderer.
type Options struct {
	SiteTitle    string
	Architecture bool // link the architecture pages from the navigation
	Markdown     *markdown.Renderer
}

// Renderer holds the parsed page templates. It is safe for concurrent use.
type Renderer struct {
	opts  Options
	pages map[string]*template.Template
}

var pageNames = []string{"index", "api", "event", "data", "architecture", "domain_architecture"}

// New parses the embedded templates.
func New(opts Options) (*Renderer, error) {
	if opts.SiteTitle == "" {
		opts.SiteTitle = "Contract Catalog"
	}
	if opts.Markdown == nil {
		opts.Markdown = markdown.New(markdown.Options{})
	}
	r := &Renderer{opts: opts, pages: make(map[string]*template.Template, len(pageNames))}
	funcs := r.funcs()
	for _, name := range pageNames {
		t, err := template.New("layout").Funcs(funcs).ParseFS(templateFS, "templates/layout.tmpl", "templates/cards.tmpl")
		if err != nil {
			return nil, fmt.Errorf("parse layout: %w", err)
		}
		if t, err = t.ParseFS(templateFS, "templates/"+name+".tmpl"); err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// page is the data every template receives.
type page struct {
	SiteTitle    string
	Title        string
	Root         string // relative prefix from the page to the site root
	Architecture bool

	Record      *contract.Record
	Description template.HTML
	SpecJSON    template.JS
	SchemaDump  string
	DocsLink    string

	Domains []*contract.Domain
	Domain  *contract.Domain
	Diagram template.HTML
	Totals  Totals
}

// Totals aggregates counts over a set of domains.
type Totals struct {
	Domains, Services, API, Event, Data int
}

// Contracts is the number of contracts of all kinds.
func (t Totals) Contracts() int { return t.API + t.Event + t.Data }

// Count returns the totals for domains.
func Count(domains ...*contract.Domain) Totals {
	t := Totals{Domains: len(domains)}
	for _, d := range domains {
		t.Services += len(d.Services)
		api, ev, data := d.Counts()
		t.API += api
		t.Event += ev
		t.Data += data
	}
	return t
}

func (r *Renderer) newPage(title string, depth int) *page {
	return &page{
		SiteTitle:    r.opts.SiteTitle,
		Title:        title,
		Root:         strings.Repeat("../", depth),
		Architecture: r.opts.Architecture,
	}
}

func (r *Renderer) execute(name string, p *page) (string, error) {
	var buf bytes.Buffer
	if err := r.pages[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		return "", fmt.Errorf("render %s page: %w", name, err)
	}
	return buf.String(), nil
}

func (r *Renderer) recordPage(rec *contract.Record, suffix string) (*page, error) {
	p := r.newPage(rec.Title+" - "+suffix, rec.Depth())
	p.Record = rec
	desc, err := r.opts.Markdown.Render(rec.Description)
	if err != nil {
		return nil, fmt.Errorf("render description of %s: %w", rec.FileName, err)
	}
	p.Description = desc
	return p, nil
}

// Index renders the catalog landing page with one link per contract.
func (r *Renderer) Index(domains []*contract.Domain) (string, error) {
	p := r.newPage(r.opts.SiteTitle, 0)
	p.Domains = domains
	p.Totals = Count(domains...)
	return r.execute("index", p)
}

// Page dispatches on the record kind.
func (r *Renderer) Page(rec *contract.Record) (string, error) {
	switch rec.Kind {
	case contract.KindAPI:
		return r.APIPage(rec)
	case contract.KindEvent:
		return r.EventPage(rec)
	case contract.KindData:
		return r.DataPage(rec)
	default:
		return "", fmt.Errorf("no renderer for kind %q", rec.Kind)
	}
}

// APIPage renders an OpenAPI contract: a Redoc mount fed with the embedded source
// document plus a static list of operations.
func (r *Renderer) APIPage(rec *contract.Record) (string, error) {
	p, err := r.recordPage(rec, "API Contract")
	if err != nil {
		return "", err
	}
	var raw any = rec.API.Raw
	if rec.API.Raw == nil {
		raw = map[string]any{}
	}
	spec, err := ScriptJSON(raw)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", rec.FileName, err)
	}
	// #nosec G203 -- ScriptJSON escapes every script-breaking sequence
	p.SpecJSON = template.JS(spec)
	return r.execute("api", p)
}

// AsyncAPIDocLink is the location of the generated multi-page AsyncAPI docs for
// rec, relative to the site root.
func AsyncAPIDocLink(rec *contract.Record) string {
	parts := []string{AsyncAPIDocDir, rec.Domain}
	if rec.Service != "" {
		parts = append(parts, rec.Service)
	}
	return strings.Join(append(parts, rec.DocName(), "index.html"), "/")
}

// EventPage renders an AsyncAPI contract summary.
func (r *Renderer) EventPage(rec *contract.Record) (string, error) {
	p, err := r.recordPage(rec, "Event Contract")
	if err != nil {
		return "", err
	}
	p.DocsLink = p.Root + AsyncAPIDocLink(rec)
	return r.execute("event", p)
}

// DataPage renders a data contract in its structured or legacy form.
func (r *Renderer) DataPage(rec *contract.Record) (string, error) {
	p, err := r.recordPage(rec, "Data Contract")
	if err != nil {
		return "", err
	}
	if rec.Data.Shape == contract.ShapeLegacy {
		dump, err := document.Encode(rec.Data.Schema, "  ")
		if err != nil {
			return "", fmt.Errorf("encode schema of %s: %w", rec.FileName, err)
		}
		p.SchemaDump = string(dump)
	}
	return r.execute("data", p)
}

// Architecture renders the catalog-wide overview with the system diagram.
func (r *Renderer) Architecture(domains []*contract.Domain) (string, error) {
	p := r.newPage("Architecture Overview - "+r.opts.SiteTitle, 0)
	p.Domains = domains
	p.Totals = Count(domains...)
	p.Diagram = diagramHTML(SystemDiagram(domains))
	return r.execute("architecture", p)
}

// DomainArchitecture renders <domain>/architecture.html.
func (r *Renderer) DomainArchitecture(d *contract.Domain) (string, error) {
	p := r.newPage(d.DisplayName+" Architecture - "+r.opts.SiteTitle, 1)
	p.Domain = d
	p.Totals = Count(d)
	p.Diagram = diagramHTML(DomainDiagram(d))
	return r.execute("domain_architecture", p)
}

// diagramHTML escapes mermaid source for a <pre class="mermaid"> element. Mermaid
// reads the element text, so entities are decoded before the diagram is parsed.
func diagramHTML(src string) template.HTML {
	// #nosec G203 -- fully escaped
	return template.HTML(EscapeHTML(src))
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"summary": r.opts.Markdown.Summary,
		"badge":   badge,
		"version": version,
		"lower":   strings.ToLower,
		"join":    strings.Join,
		"domainDiagram": func(d *contract.Domain) template.HTML {
			return diagramHTML(DomainDiagram(d))
		},
		"counts": func(d *contract.Domain) Totals { return Count(d) },
	}
}

func badge(rec *contract.Record) string {
	switch rec.Kind {
	case contract.KindAPI:
		return "OpenAPI"
	case contract.KindEvent:
		return "AsyncAPI"
	case contract.KindData:
		if rec.Data != nil && rec.Data.Shape == contract.ShapeLegacy {
			return "JSON Schema"
		}
		return "ODCS"
	}
	return ""
}

func version(rec *contract.Record) string {
	switch {
	case rec.API != nil:
		return rec.API.Version
	case rec.Event != nil:
		return rec.Event.Version
	case rec.Data != nil:
		return rec.Data.Version
	}
	return ""
}
