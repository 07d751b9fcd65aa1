package contract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/contractcatalog/internal/document"
)

// DocType is the result of content sniffing.
type DocType string

const (
	TypeOpenAPI  DocType = "openapi"
	TypeAsyncAPI DocType = "asyncapi"
	TypeData     DocType = "data"
	TypeUnknown  DocType = "unknown"
)

// Kind maps a sniffed type to the record kind it produces.
func (t DocType) Kind() (Kind, bool) {
	switch t {
	case TypeOpenAPI:
		return KindAPI, true
	case TypeAsyncAPI:
		return KindEvent, true
	case TypeData:
		return KindData, true
	default:
		return "", false
	}
}

var (
	// ErrMalformedDocument marks a file whose YAML/JSON syntax could not be parsed.
	ErrMalformedDocument = errors.New("malformed contract document")
	// ErrUnsupportedExtension marks a file that is not .yaml, .yml or .json.
	ErrUnsupportedExtension = errors.New("unsupported contract file extension")
)

// Classification is the outcome of sniffing a file: its type, the data-contract
// shape when Type is TypeData, and the parsed document so parsers never decode twice.
type Classification struct {
	Type  DocType
	Shape Shape
	Doc   *document.Map
}

// Detect returns the document type of content. It never fails: unreadable or
// unrecognized content is TypeUnknown.
func Detect(content []byte, ext string) DocType {
	c, _ := Classify(content, ext)
	return c.Type
}

// Classify parses content according to ext and decides its type. Checks run in a
// fixed order and the first match wins:
//
//  1. kind == DataContract with apiVersion (YAML only) -> data, structured
//  2. non-empty "openapi"  -> openapi
//  3. non-empty "asyncapi" -> asyncapi
//  4. non-empty "$schema" or "title" -> data, legacy
//
// The two structured markers together are more specific than a lone openapi or
// asyncapi field, so a declared data contract is never mistaken for an API.
//
// A syntax error yields TypeUnknown together with an error wrapping
// ErrMalformedDocument. Content that parses but is not a mapping is TypeUnknown
// without error.
func Classify(content []byte, ext string) (Classification, error) {
	unknown := Classification{Type: TypeUnknown}

	var (
		raw    any
		err    error
		isYAML bool
	)
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		isYAML = true
		raw, err = document.ParseYAML(content)
	case ".json":
		raw, err = document.ParseJSON(content)
	default:
		return unknown, fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}
	if err != nil {
		return unknown, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	doc, ok := raw.(*document.Map)
	if !ok {
		return unknown, nil
	}

	if isYAML && IsStructuredDataContract(doc) {
		return Classification{Type: TypeData, Shape: ShapeStructured, Doc: doc}, nil
	}
	if marker(doc, "openapi") {
		return Classification{Type: TypeOpenAPI, Doc: doc}, nil
	}
	if marker(doc, "asyncapi") {
		return Classification{Type: TypeAsyncAPI, Doc: doc}, nil
	}
	if marker(doc, "$schema") || marker(doc, "title") {
		return Classification{Type: TypeData, Shape: ShapeLegacy, Doc: doc}, nil
	}
	return unknown, nil
}

// IsStructuredDataContract reports whether doc carries both markers of the
// structured data-contract standard.
func IsStructuredDataContract(doc *document.Map) bool {
	return doc.String("kind") == "DataContract" && marker(doc, "apiVersion")
}

// ClassifyFile is Classify keyed on the extension of path.
func ClassifyFile(path string, content []byte) (Classification, error) {
	return Classify(content, filepath.Ext(path))
}

func marker(doc *document.Map, key string) bool {
	v, _ := doc.Get(key)
	return document.Truthy(v)
}
