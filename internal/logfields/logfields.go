package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyDomain     = "domain"
	KeyService    = "service"
	KeyFile       = "file"
	KeyKind       = "kind"
	KeyPath       = "path"
	KeyRunID      = "run_id"
	KeyTool       = "tool"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyRenderer   = "renderer"
	KeyURL        = "url"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Domain(d string) slog.Attr       { return slog.String(KeyDomain, d) }
func Service(s string) slog.Attr      { return slog.String(KeyService, s) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Tool(t string) slog.Attr         { return slog.String(KeyTool, t) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Renderer(r string) slog.Attr     { return slog.String(KeyRenderer, r) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
