// Package contract defines the normalized contract records the catalog renders,
// together with the content sniffer and the per-family parsers that produce them.
package contract

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/contractcatalog/internal/document"
)

// Kind is the contract family of a record.
type Kind string

const (
	KindAPI   Kind = "api"
	KindEvent Kind = "event"
	KindData  Kind = "data"
)

// Shape distinguishes the two data-contract layouts.
type Shape string

const (
	ShapeNone       Shape = ""
	ShapeStructured Shape = "structured"
	ShapeLegacy     Shape = "legacy"
)

// Placeholder titles used when a document does not name itself.
const (
	UntitledAPI   = "Untitled API"
	UntitledEvent = "Untitled Events"
	UntitledData  = "Untitled Data Contract"

	DefaultVersion = "1.0.0"
)

// Location is the path metadata handed to every parser.
type Location struct {
	Domain     string
	Service    string // empty in the flat layout
	FileName   string // basename only
	SourcePath string // full path of the source file
}

// Record is the tagged union of the three contract families. Exactly one of
// API, Event and Data is non-nil, matching Kind.
type Record struct {
	Kind        Kind
	Title       string
	Description string
	FileName    string
	Domain      string
	Service     string
	SourcePath  string

	API   *APIContract
	Event *EventContract
	Data  *DataContract
}

// PageName is the output file name: the source basename with its extension
// swapped for .html.
func (r *Record) PageName() string {
	return BaseName(r.FileName) + ".html"
}

// DocName is the basename without extension.
func (r *Record) DocName() string {
	return BaseName(r.FileName)
}

// RelPath is the page location relative to the site root, always slash-separated.
func (r *Record) RelPath() string {
	parts := []string{r.Domain}
	if r.Service != "" {
		parts = append(parts, r.Service)
	}
	parts = append(parts, r.PageName())
	return strings.Join(parts, "/")
}

// Depth is the number of directories between the site root and the page.
func (r *Record) Depth() int {
	if r.Service == "" {
		return 1
	}
	return 2
}

// BaseName strips a recognized contract extension from a file name.
func BaseName(fileName string) string {
	ext := filepath.Ext(fileName)
	if IsContractExt(ext) {
		return strings.TrimSuffix(fileName, ext)
	}
	return fileName
}

// IsContractExt reports whether ext (with leading dot, any case) is one of
// .yaml, .yml or .json.
func IsContractExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

// APIContract is the OpenAPI variant.
type APIContract struct {
	Version string
	Servers []Server
	Paths   []Path
	Raw     *document.Map // full source document, used for complete re-rendering
}

// Server is an OpenAPI server entry.
type Server struct {
	URL         string
	Description string
}

// Path is an OpenAPI path item with its operations in source order.
type Path struct {
	Path       string
	Operations []Operation
}

// Operation is a single HTTP method on a path.
type Operation struct {
	Method      string
	Summary     string
	OperationID string
	Deprecated  bool
	Tags        []string
}

// EventContract is the AsyncAPI variant.
type EventContract struct {
	Version  string
	Channels []Channel
	Servers  []EventServer
}

// Channel is an AsyncAPI channel. Publish and Subscribe hold the operation summary
// or are empty when the channel has no such operation.
type Channel struct {
	Name        string
	Address     string
	Description string
	Publish     string
	Subscribe   string
}

// EventServer is a named AsyncAPI server.
type EventServer struct {
	Name        string
	URL         string
	Protocol    string
	Description string
}

// DataContract is the data-contract variant; Shape selects which fields apply.
type DataContract struct {
	Shape Shape

	// structured
	Version       string
	Status        string
	DataDomain    string
	Tables        []Table
	Team          *Team
	Roles         []Role
	SLAProperties []SLAProperty
	Quality       []QualityRule
	Support       []SupportChannel

	// legacy
	Schema     *document.Map
	Properties []SchemaProperty
}

// Table is one schema object of a structured data contract.
type Table struct {
	Name         string
	BusinessName string
	Description  string
	Tags         []string
	PhysicalName string
	PhysicalType string
	Quality      []QualityRule
	Properties   []Property
}

// DisplayName prefers the business name.
func (t Table) DisplayName() string {
	if t.BusinessName != "" {
		return t.BusinessName
	}
	return t.Name
}

// Property is a column/field of a structured data contract table.
type Property struct {
	Name           string
	BusinessName   string
	Description    string
	LogicalType    string
	PhysicalType   string
	Required       bool
	PrimaryKey     bool
	Unique         bool
	Classification string
	Examples       []string // JSON-encoded example values
	Quality        []QualityRule
}

// QualityRule is a data quality expectation.
type QualityRule struct {
	Metric      string
	Description string
	Dimension   string
	Severity    string
	Value       string
	Unit        string
}

// Team owns a structured data contract.
type Team struct {
	Name        string
	Description string
	Members     []TeamMember
}

// TeamMember is a member of the owning team.
type TeamMember struct {
	Username string
	Role     string
	DateIn   string
}

// Role is an access role.
type Role struct {
	Role        string
	Access      string
	Description string
}

// SLAProperty is a service-level property.
type SLAProperty struct {
	Property    string
	Value       string
	Unit        string
	Description string
}

// SupportChannel is a support/contact entry.
type SupportChannel struct {
	Channel string
	Value   string
}

// SchemaProperty is a top-level property of a legacy JSON-Schema contract.
type SchemaProperty struct {
	Name        string
	Type        string
	Format      string
	Enum        []string // JSON-encoded values
	Description string
	Required    bool
}
