// Package prometheus renders sessionkit's counters in Prometheus text
// exposition format. It writes the format by hand; the counters are
// simple enough that the full client library buys nothing.
package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	sessionkit "github.com/vitaltrace/sessionkit"
)

// Source is anything that can hand out a counter snapshot;
// *sessionkit.SessionRepository qualifies.
type Source interface {
	MetricsSnapshot() map[sessionkit.MetricID]uint64
}

// Exporter renders sessionkit metrics for a Prometheus scrape.
type Exporter struct {
	source Source
}

// NewExporter creates an Exporter reading from source.
func NewExporter(source Source) *Exporter {
	return &Exporter{source: source}
}

// Handler returns an http.Handler serving the scrape endpoint.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(e.Render()))
	})
}

// Render writes the current counters in text exposition format.
func (e *Exporter) Render() string {
	if e == nil || e.source == nil {
		return ""
	}

	snapshot := e.source.MetricsSnapshot()

	var b strings.Builder
	b.Grow(4096)

	for _, id := range sessionkit.MetricIDs() {
		name := id.Name()
		b.WriteString("# TYPE ")
		b.WriteString(name)
		b.WriteString(" counter\n")
		b.WriteString(name)
		b.WriteByte(' ')
		b.WriteString(strconv.FormatUint(snapshot[id], 10))
		b.WriteByte('\n')
	}

	return b.String()
}
