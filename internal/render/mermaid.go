package render

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/contractcatalog/internal/contract"
)

// NodeID turns a directory name into a mermaid node identifier: upper-cased with
// every character outside [A-Z0-9_] replaced by an underscore.
func NodeID(name string) string {
	up := strings.ToUpper(name)
	var sb strings.Builder
	for _, r := range up {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			sb.WriteRune(r)
			continue
		}
		sb.WriteByte('_')
	}
	return sb.String()
}

// serviceNode names a service inside a diagram. Flat domains use the domain name.
// The S_ prefix keeps services clear of the fixed infrastructure nodes.
func serviceNode(d *contract.Domain, s *contract.Service, qualify bool) (id, label string) {
	name, label := s.Name, s.DisplayName
	if name == "" {
		name, label = d.Name, d.DisplayName
	}
	if qualify && s.Name != "" {
		return "S_" + NodeID(d.Name) + "__" + NodeID(name), label
	}
	return "S_" + NodeID(name), label
}

func mermaidLabel(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "#quot;") + `"`
}

func hasEvents(d *contract.Domain) bool {
	for _, s := range d.Services {
		if len(s.EventContracts) > 0 {
			return true
		}
	}
	return false
}

// SystemDiagram returns the mermaid source of the catalog-wide overview: one
// subgraph per domain plus shared gateway, storage and (when any service
// publishes events) event bus nodes.
func SystemDiagram(domains []*contract.Domain) string {
	var b strings.Builder
	b.WriteString("graph TB\n")

	events := false
	for _, d := range domains {
		events = events || hasEvents(d)
		fmt.Fprintf(&b, "    subgraph %s[%s]\n", "D_"+NodeID(d.Name), mermaidLabel(d.DisplayName+" Domain"))
		for _, s := range d.Services {
			id, label := serviceNode(d, s, true)
			fmt.Fprintf(&b, "        %s[%s]\n", id, mermaidLabel(label))
		}
		b.WriteString("    end\n")
	}

	b.WriteString("    subgraph INFRA[\"Infrastructure\"]\n")
	b.WriteString("        API[\"API Gateway\"]\n")
	b.WriteString("        DB[(\"Databases\")]\n")
	if events {
		b.WriteString("        KAFKA[\"Event Bus\"]\n")
	}
	b.WriteString("    end\n")

	for _, d := range domains {
		for _, s := range d.Services {
			id, _ := serviceNode(d, s, true)
			if len(s.APIContracts) > 0 {
				fmt.Fprintf(&b, "    API --> %s\n", id)
			}
			fmt.Fprintf(&b, "    %s --> DB\n", id)
			if len(s.EventContracts) > 0 {
				fmt.Fprintf(&b, "    %s -.->|Events| KAFKA\n", id)
			}
		}
	}

	for i, d := range domains {
		color := "#fff4e1"
		if i == 0 {
			color = "#e1f5ff"
		}
		for _, s := range d.Services {
			id, _ := serviceNode(d, s, true)
			fmt.Fprintf(&b, "    style %s fill:%s\n", id, color)
		}
	}
	if events {
		b.WriteString("    style KAFKA fill:#f0f0f0\n")
	}
	return b.String()
}

// DomainDiagram returns the mermaid source for a single domain.
func DomainDiagram(d *contract.Domain) string {
	var b strings.Builder
	b.WriteString("graph LR\n")
	fmt.Fprintf(&b, "    subgraph %s[%s]\n", "D_"+NodeID(d.Name), mermaidLabel(d.DisplayName+" Domain"))
	b.WriteString("        direction TB\n")
	for _, s := range d.Services {
		id, label := serviceNode(d, s, false)
		fmt.Fprintf(&b, "        %s[%s]\n", id, mermaidLabel(label))
	}
	b.WriteString("        subgraph STORAGE[\"Data Storage\"]\n            DB[(\"Database\")]\n        end\n")
	events := hasEvents(d)
	if events {
		b.WriteString("        subgraph PUBLISHING[\"Event Publishing\"]\n            EVENTS[\"Event Streams\"]\n        end\n")
	}
	b.WriteString("    end\n")

	for _, s := range d.Services {
		id, _ := serviceNode(d, s, false)
		fmt.Fprintf(&b, "    %s --> DB\n", id)
		if len(s.EventContracts) > 0 {
			fmt.Fprintf(&b, "    %s -.->|Publishes| EVENTS\n", id)
		}
	}

	api, ev, data := d.Counts()
	if api+ev+data > 0 {
		b.WriteString("    subgraph CONTRACTS[\"Contracts\"]\n")
		if api > 0 {
			b.WriteString("        APIS[\"REST APIs<br/>OpenAPI\"]\n")
		}
		if ev > 0 {
			b.WriteString("        ASYNC[\"Event Streams<br/>AsyncAPI\"]\n")
		}
		if data > 0 {
			b.WriteString("        DATA[\"Data Schemas<br/>Data Contracts\"]\n")
		}
		b.WriteString("    end\n")
	}

	for _, s := range d.Services {
		id, _ := serviceNode(d, s, false)
		fmt.Fprintf(&b, "    style %s fill:#4a90e2\n", id)
	}
	if api > 0 {
		b.WriteString("    style APIS fill:#90EE90\n")
	}
	if ev > 0 {
		b.WriteString("    style ASYNC fill:#FFB347\n    style EVENTS fill:#FFB347\n")
	}
	if data > 0 {
		b.WriteString("    style DATA fill:#DDA0DD\n")
	}
	return b.String()
}
