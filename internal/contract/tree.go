package contract

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Service groups the contracts found in one service directory. In the flat layout
// a domain holds a single Service with an empty Name.
type Service struct {
	Name           string
	DisplayName    string
	APIContracts   []*Record
	EventContracts []*Record
	DataContracts  []*Record
}

// NewService returns an empty service with its display name derived.
func NewService(name string) *Service {
	return &Service{Name: name, DisplayName: DisplayName(name)}
}

// Add appends rec to the sequence matching its kind.
func (s *Service) Add(rec *Record) {
	switch rec.Kind {
	case KindAPI:
		s.APIContracts = append(s.APIContracts, rec)
	case KindEvent:
		s.EventContracts = append(s.EventContracts, rec)
	case KindData:
		s.DataContracts = append(s.DataContracts, rec)
	}
}

// Count returns the number of contracts across all kinds.
func (s *Service) Count() int {
	return len(s.APIContracts) + len(s.EventContracts) + len(s.DataContracts)
}

// Empty reports whether the service holds no contract at all.
func (s *Service) Empty() bool { return s.Count() == 0 }

// Records returns all contracts, api first, then event, then data.
func (s *Service) Records() []*Record {
	out := make([]*Record, 0, s.Count())
	out = append(out, s.APIContracts...)
	out = append(out, s.EventContracts...)
	return append(out, s.DataContracts...)
}

// Domain is a top-level grouping of services.
type Domain struct {
	Name        string
	DisplayName string
	Flat        bool
	Services    []*Service
}

// NewDomain returns an empty domain with its display name derived.
func NewDomain(name string) *Domain {
	return &Domain{Name: name, DisplayName: DisplayName(name)}
}

// Count returns the number of contracts in the domain.
func (d *Domain) Count() int {
	n := 0
	for _, s := range d.Services {
		n += s.Count()
	}
	return n
}

// Counts returns per-kind totals for the domain.
func (d *Domain) Counts() (api, event, data int) {
	for _, s := range d.Services {
		api += len(s.APIContracts)
		event += len(s.EventContracts)
		data += len(s.DataContracts)
	}
	return api, event, data
}

// Records returns all contracts of the domain in service order.
func (d *Domain) Records() []*Record {
	var out []*Record
	for _, s := range d.Services {
		out = append(out, s.Records()...)
	}
	return out
}

// DisplayName splits name on hyphens, upper-cases the first letter of every
// segment and joins the segments with spaces: "order-management" becomes
// "Order Management". Empty segments are kept so hyphen count equals space count.
func DisplayName(name string) string {
	segments := strings.Split(name, "-")
	for i, seg := range segments {
		r, size := utf8.DecodeRuneInString(seg)
		if size == 0 {
			continue
		}
		segments[i] = cases.Upper(language.Und).String(string(r)) + seg[size:]
	}
	return strings.Join(segments, " ")
}
