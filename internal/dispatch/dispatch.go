// Package dispatch routes a parsed HTTP request to either the dynamic
// command registry ("/cmd/*") or the embedded read-only filesystem
// (everything else), producing the complete response text a connection
// writes back to its client.
package dispatch

import (
	"sort"
	"strings"

	"github.com/orbas1/pstore/internal/httpparse"
	"github.com/orbas1/pstore/internal/romfs"
)

// dynamicPrefix is the path prefix that routes a request to the command
// registry instead of the filesystem.
const dynamicPrefix = "/cmd/"

// Command answers one "/cmd/<name>" request given its parsed query
// arguments, returning the complete response text.
type Command func(args map[string]string) string

// Dispatcher holds everything needed to answer a parsed request: a sorted
// command registry for dynamic content and a filesystem for static
// content.
type Dispatcher struct {
	commands []commandEntry
	fs       *romfs.FS
	metrics  *Metrics
}

type commandEntry struct {
	name    string
	handler Command
}

// New builds a Dispatcher serving fs for static content, with no commands
// registered. If metrics is non-nil, every served request increments its
// pstore_http_requests_total counter.
func New(fs *romfs.FS, metrics *Metrics) *Dispatcher {
	return &Dispatcher{fs: fs, metrics: metrics}
}

// Register adds a command under "/cmd/<name>", keeping the registry
// sorted by name so lookup can binary search it the way the reference
// dispatcher does.
func (d *Dispatcher) Register(name string, handler Command) {
	entry := commandEntry{name: name, handler: handler}
	i := sort.Search(len(d.commands), func(i int) bool { return d.commands[i].name >= name })
	d.commands = append(d.commands, commandEntry{})
	copy(d.commands[i+1:], d.commands[i:])
	d.commands[i] = entry
}

func (d *Dispatcher) lookup(name string) (Command, bool) {
	i := sort.Search(len(d.commands), func(i int) bool { return d.commands[i].name >= name })
	if i < len(d.commands) && d.commands[i].name == name {
		return d.commands[i].handler, true
	}
	return nil, false
}

// Serve answers req, routing to the dynamic command registry or the
// static filesystem as appropriate. It never returns an error: every
// outcome, including an unknown command or a missing file, is rendered
// as a complete HTTP response string.
func (d *Dispatcher) Serve(req httpparse.Request) string {
	if d.metrics != nil {
		d.metrics.HTTPRequests.WithLabelValues(req.Target).Inc()
	}
	if strings.HasPrefix(req.Target, dynamicPrefix) {
		return d.serveDynamic(req.Target)
	}
	return d.serveStatic(req.Target)
}

// RegisterDefaults registers the "version" command always, and "metrics"
// if d was built with a non-nil *Metrics.
func (d *Dispatcher) RegisterDefaults() {
	d.Register("version", VersionCommand)
	if d.metrics != nil {
		d.Register("metrics", d.metrics.Command())
	}
}

func (d *Dispatcher) serveDynamic(target string) string {
	rest := target[len(dynamicPrefix):]
	command := rest
	var query string
	if pos := strings.IndexByte(rest, '?'); pos >= 0 {
		command = rest[:pos]
		query = rest[pos+1:]
	}

	handler, ok := d.lookup(command)
	if !ok {
		return httpparse.ErrorPage(httpparse.StatusBadRequest, target, "Bad Request",
			"Unknown command \""+command+"\"")
	}
	return handler(QueryToKVP(query))
}
