package contract

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/contractcatalog/internal/document"
)

// Parse builds the record for a classified document. It returns an error only for
// TypeUnknown input, which callers are expected to skip before parsing.
func Parse(c Classification, loc Location) (*Record, error) {
	switch c.Type {
	case TypeOpenAPI:
		return ParseAPI(c.Doc, loc), nil
	case TypeAsyncAPI:
		return ParseEvent(c.Doc, loc), nil
	case TypeData:
		return ParseData(c.Doc, c.Shape, loc), nil
	default:
		return nil, fmt.Errorf("cannot parse document of type %q", c.Type)
	}
}

func newRecord(kind Kind, loc Location) *Record {
	return &Record{
		Kind:       kind,
		FileName:   loc.FileName,
		Domain:     loc.Domain,
		Service:    loc.Service,
		SourcePath: loc.SourcePath,
	}
}

// ParseAPI normalizes an OpenAPI document.
func ParseAPI(doc *document.Map, loc Location) *Record {
	info := doc.Map("info")
	rec := newRecord(KindAPI, loc)
	rec.Title = or(info.String("title"), UntitledAPI)
	rec.Description = info.String("description")
	rec.API = &APIContract{
		Version: or(info.String("version"), DefaultVersion),
		Servers: make([]Server, 0),
		Paths:   make([]Path, 0),
		Raw:     doc,
	}
	for _, s := range document.Maps(doc.Slice("servers")) {
		rec.API.Servers = append(rec.API.Servers, Server{
			URL:         s.String("url"),
			Description: s.String("description"),
		})
	}
	for _, e := range doc.Map("paths").Entries() {
		item, _ := e.Value.(*document.Map)
		rec.API.Paths = append(rec.API.Paths, Path{Path: e.Key, Operations: operations(item)})
	}
	return rec
}

var httpMethods = map[string]struct{}{
	"get": {}, "put": {}, "post": {}, "delete": {},
	"options": {}, "head": {}, "patch": {}, "trace": {},
}

func operations(item *document.Map) []Operation {
	ops := make([]Operation, 0)
	for _, e := range item.Entries() {
		if _, ok := httpMethods[strings.ToLower(e.Key)]; !ok {
			continue
		}
		op, _ := e.Value.(*document.Map)
		ops = append(ops, Operation{
			Method:      strings.ToUpper(e.Key),
			Summary:     op.String("summary"),
			OperationID: op.String("operationId"),
			Deprecated:  op.Bool("deprecated"),
			Tags:        document.Strings(op.Slice("tags")),
		})
	}
	return ops
}

// ParseEvent normalizes an AsyncAPI document. Both the 2.x publish/subscribe
// layout and the 3.x operations section are folded into Channel summaries.
func ParseEvent(doc *document.Map, loc Location) *Record {
	info := doc.Map("info")
	rec := newRecord(KindEvent, loc)
	rec.Title = or(info.String("title"), UntitledEvent)
	rec.Description = info.String("description")
	ev := &EventContract{
		Version:  or(info.String("version"), DefaultVersion),
		Channels: make([]Channel, 0),
		Servers:  make([]EventServer, 0),
	}
	rec.Event = ev

	byName := make(map[string]int)
	for _, e := range doc.Map("channels").Entries() {
		ch, _ := e.Value.(*document.Map)
		c := Channel{
			Name:        e.Key,
			Address:     ch.String("address"),
			Description: ch.String("description"),
		}
		if pub := ch.Map("publish"); pub != nil {
			c.Publish = operationSummary(pub)
		}
		if sub := ch.Map("subscribe"); sub != nil {
			c.Subscribe = operationSummary(sub)
		}
		byName[e.Key] = len(ev.Channels)
		ev.Channels = append(ev.Channels, c)
	}

	for _, e := range doc.Map("operations").Entries() {
		op, _ := e.Value.(*document.Map)
		ref := strings.TrimPrefix(op.Map("channel").String("$ref"), "#/channels/")
		i, ok := byName[ref]
		if !ok {
			continue
		}
		switch op.String("action") {
		case "send":
			ev.Channels[i].Publish = operationSummary(op)
		case "receive":
			ev.Channels[i].Subscribe = operationSummary(op)
		}
	}

	for _, e := range doc.Map("servers").Entries() {
		s, _ := e.Value.(*document.Map)
		url := s.String("url")
		if url == "" {
			url = s.String("host") + s.String("pathname")
		}
		ev.Servers = append(ev.Servers, EventServer{
			Name:        e.Key,
			URL:         url,
			Protocol:    s.String("protocol"),
			Description: s.String("description"),
		})
	}
	return rec
}

func operationSummary(op *document.Map) string {
	return or(op.String("summary"), op.String("description"), "Event")
}

// ParseData normalizes a data contract of the given shape.
func ParseData(doc *document.Map, shape Shape, loc Location) *Record {
	if shape == ShapeStructured {
		return parseStructured(doc, loc)
	}
	return parseLegacy(doc, loc)
}

func parseStructured(doc *document.Map, loc Location) *Record {
	rec := newRecord(KindData, loc)
	rec.Title = or(doc.String("dataProduct"), doc.String("title"), UntitledData)
	if d := doc.Map("description"); d != nil {
		rec.Description = d.String("purpose")
	} else {
		rec.Description = doc.String("description")
	}

	dc := &DataContract{
		Shape:         ShapeStructured,
		Version:       doc.String("version"),
		Status:        doc.String("status"),
		DataDomain:    doc.String("domain"),
		Tables:        make([]Table, 0),
		Roles:         make([]Role, 0),
		SLAProperties: make([]SLAProperty, 0),
		Quality:       qualityRules(doc.Slice("quality")),
		Support:       make([]SupportChannel, 0),
	}
	rec.Data = dc

	for _, t := range document.Maps(doc.Slice("schema")) {
		table := Table{
			Name:         t.String("name"),
			BusinessName: t.String("businessName"),
			Description:  t.String("description"),
			Tags:         document.Strings(t.Slice("tags")),
			PhysicalName: t.String("physicalName"),
			PhysicalType: t.String("physicalType"),
			Quality:      qualityRules(t.Slice("quality")),
			Properties:   make([]Property, 0),
		}
		for _, p := range document.Maps(t.Slice("properties")) {
			table.Properties = append(table.Properties, Property{
				Name:           p.String("name"),
				BusinessName:   p.String("businessName"),
				Description:    p.String("description"),
				LogicalType:    p.String("logicalType"),
				PhysicalType:   p.String("physicalType"),
				Required:       p.Bool("required"),
				PrimaryKey:     p.Bool("primaryKey"),
				Unique:         p.Bool("unique"),
				Classification: p.String("classification"),
				Examples:       jsonValues(p.Slice("examples")),
				Quality:        qualityRules(p.Slice("quality")),
			})
		}
		dc.Tables = append(dc.Tables, table)
	}

	dc.Team = team(doc)
	for _, r := range document.Maps(doc.Slice("roles")) {
		dc.Roles = append(dc.Roles, Role{
			Role:        r.String("role"),
			Access:      r.String("access"),
			Description: r.String("description"),
		})
	}
	for _, s := range document.Maps(doc.Slice("slaProperties")) {
		dc.SLAProperties = append(dc.SLAProperties, SLAProperty{
			Property:    s.String("property"),
			Value:       s.String("value"),
			Unit:        s.String("unit"),
			Description: s.String("description"),
		})
	}
	for _, s := range document.Maps(doc.Slice("support")) {
		dc.Support = append(dc.Support, SupportChannel{
			Channel: or(s.String("channel"), "Contact"),
			Value:   or(s.String("value"), s.String("url"), s.String("email")),
		})
	}
	return rec
}

// team accepts both the mapping form {name, description, members} and the older
// plain member list.
func team(doc *document.Map) *Team {
	v, ok := doc.Get("team")
	if !ok || v == nil {
		return nil
	}
	var members []any
	t := &Team{}
	switch tv := v.(type) {
	case *document.Map:
		t.Name = tv.String("name")
		t.Description = tv.String("description")
		members = tv.Slice("members")
	case []any:
		members = tv
	default:
		return nil
	}
	for _, m := range document.Maps(members) {
		t.Members = append(t.Members, TeamMember{
			Username: m.String("username"),
			Role:     m.String("role"),
			DateIn:   m.String("dateIn"),
		})
	}
	return t
}

func qualityRules(items []any) []QualityRule {
	rules := make([]QualityRule, 0, len(items))
	for _, q := range document.Maps(items) {
		rules = append(rules, QualityRule{
			Metric:      or(q.String("metric"), q.String("rule"), q.String("name")),
			Description: q.String("description"),
			Dimension:   q.String("dimension"),
			Severity:    q.String("severity"),
			Value:       q.String("value"),
			Unit:        q.String("unit"),
		})
	}
	return rules
}

func parseLegacy(doc *document.Map, loc Location) *Record {
	rec := newRecord(KindData, loc)
	rec.Title = or(doc.String("title"), UntitledData)
	rec.Description = doc.String("description")
	dc := &DataContract{
		Shape:      ShapeLegacy,
		Schema:     doc,
		Properties: make([]SchemaProperty, 0),
	}
	rec.Data = dc

	required := make(map[string]bool)
	for _, name := range document.Strings(doc.Slice("required")) {
		required[name] = true
	}
	for _, e := range doc.Map("properties").Entries() {
		p, _ := e.Value.(*document.Map)
		dc.Properties = append(dc.Properties, SchemaProperty{
			Name:        e.Key,
			Type:        or(propertyType(p), "any"),
			Format:      p.String("format"),
			Enum:        jsonValues(p.Slice("enum")),
			Description: p.String("description"),
			Required:    required[e.Key],
		})
	}
	return rec
}

// propertyType handles both "type: string" and "type: [string, null]".
func propertyType(p *document.Map) string {
	if s := p.String("type"); s != "" {
		return s
	}
	return strings.Join(document.Strings(p.Slice("type")), " | ")
}

func jsonValues(items []any) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		b, err := document.Encode(it, "")
		if err != nil {
			continue
		}
		out = append(out, string(b))
	}
	return out
}

func or(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
