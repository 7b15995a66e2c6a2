// Package route implements the Route Base subsystem of spec.md ยง4.2: a
// sorted collection of Route records, each a method plus a compiled path
// template, matched against (method, path) to return either a handler
// plus extracted named parameters or a structured mismatch reason.
//
// Grounded on badu-http/mux/types.go's lazily-sorted, mutex-guarded
// entry table, generalized from prefix/exact string patterns to the
// String/Named/Wildcard path-template components spec.md ยง3/ยง4.2 names.
package route

import (
	"sort"
	"strings"
	"sync"

	"github.com/sy19870112/libhttp-go/hdr"
	"github.com/sy19870112/libhttp-go/message"
)

// ResponseWriter is the minimal surface a Handler needs; conn.Connection
// satisfies it structurally, so route never imports conn (conn depends
// on route, not the reverse).
type ResponseWriter interface {
	Write(p []byte) (int, error)
	SendResponse(status int, headers hdr.Header) error
	SendError(status int, format string, args ...any)
}

// Handler processes a matched request.
type Handler func(w ResponseWriter, req *message.Message)

// Options carries route-specific knobs (e.g. per-route default headers);
// kept as an open struct so embedders can extend it without an interface
// break, the same shape badu-http's mux entries leave room for.
type Options struct {
	DefaultHeaders hdr.Header
}

// componentKind classifies one path-template segment.
type componentKind int

const (
	kindString componentKind = iota
	kindNamed
	kindWildcard
	kindMissing // sentinel for "ran out of components", used only by the sort comparator
)

type component struct {
	kind  componentKind
	value string // literal text for kindString, parameter name for kindNamed
}

type compiledRoute struct {
	method     message.Method
	template   string
	components []component
	handler    Handler
	options    Options
}

// MismatchReason is the structured outcome spec.md ยง4.2 returns when no
// route matches exactly.
type MismatchReason int

const (
	WrongPath MismatchReason = iota
	WrongMethod
)

// Matched is returned when a route's method and path both match.
type Matched struct {
	Handler         Handler
	Options         Options
	NamedParameters map[string]string
}

// Mismatch is returned when no route matches exactly; AllowedMethods is
// populated only when Reason == WrongMethod.
type Mismatch struct {
	Reason         MismatchReason
	AllowedMethods []message.Method
}

// Base is the sorted collection of routes a Server owns.
type Base struct {
	mu     sync.RWMutex
	routes []*compiledRoute
	sorted bool
}

// New returns an empty Base.
func New() *Base { return &Base{} }

// Add compiles and inserts one route, per spec.md ยง4.2/ยง4.4: idempotent
// (adding the same method+template twice replaces the earlier handler)
// and re-sorts lazily on next Find. Returns a compile error if the
// template is malformed (a Wildcard segment that is not last).
func (b *Base) Add(method message.Method, template string, handler Handler, opts Options) error {
	components, err := compileTemplate(template)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, r := range b.routes {
		if r.method == method && r.template == template {
			r.components = components
			r.handler = handler
			r.options = opts
			return nil
		}
	}
	b.routes = append(b.routes, &compiledRoute{
		method: method, template: template, components: components, handler: handler, options: opts,
	})
	b.sorted = false
	return nil
}

func compileTemplate(template string) ([]component, error) {
	segments := strings.Split(strings.Trim(template, "/"), "/")
	if len(segments) == 1 && segments[0] == "" {
		segments = nil
	}
	components := make([]component, 0, len(segments))
	for i, seg := range segments {
		switch {
		case seg == "*":
			if i != len(segments)-1 {
				return nil, &CompileError{Template: template, Reason: "wildcard must be the last segment"}
			}
			components = append(components, component{kind: kindWildcard})
		case strings.HasPrefix(seg, ":") && len(seg) > 1:
			components = append(components, component{kind: kindNamed, value: seg[1:]})
		default:
			components = append(components, component{kind: kindString, value: seg})
		}
	}
	return components, nil
}

// CompileError reports a malformed path template.
type CompileError struct {
	Template string
	Reason   string
}

func (e *CompileError) Error() string { return "route template " + e.Template + ": " + e.Reason }

func (b *Base) ensureSorted() {
	if b.sorted {
		return
	}
	sort.SliceStable(b.routes, func(i, j int) bool {
		return routeLess(b.routes[i], b.routes[j])
	})
	b.sorted = true
}

// routeLess orders a before b when a is more specific: String segments
// before Named, Named before Wildcard, compared position by position;
// a route that has no segment at a position ranks below any component
// there, so the route that runs out of segments first is less specific.
// Ties break lexicographically on the raw template, per spec.md ยง4.2.
func routeLess(a, b *compiledRoute) bool {
	n := len(a.components)
	if len(b.components) > n {
		n = len(b.components)
	}
	for i := 0; i < n; i++ {
		ra, ka := rankAt(a, i)
		rb, kb := rankAt(b, i)
		if ra != rb {
			return ra < rb
		}
		if ka != kb {
			// Both present with equal rank, compare literal value for
			// determinism ahead of the final template tie-break.
			return ka < kb
		}
	}
	return a.template < b.template
}

func rankAt(r *compiledRoute, i int) (rank int, key string) {
	if i >= len(r.components) {
		return int(kindMissing), ""
	}
	c := r.components[i]
	return int(c.kind), c.value
}

// Find implements spec.md ยง4.2's dispatch algorithm.
func (b *Base) Find(method message.Method, path string) (Matched, Mismatch, bool) {
	b.mu.Lock()
	b.ensureSorted()
	routes := b.routes
	b.mu.Unlock()

	segments := splitPath(path)

	var wrongMethodSeen bool
	var allowed []message.Method
	for _, r := range routes {
		params, ok := matchComponents(r.components, segments)
		if !ok {
			continue
		}
		if r.method == method {
			return Matched{Handler: r.handler, Options: r.options, NamedParameters: params}, Mismatch{}, true
		}
		wrongMethodSeen = true
		allowed = appendMethodUnique(allowed, r.method)
	}
	if wrongMethodSeen {
		return Matched{}, Mismatch{Reason: WrongMethod, AllowedMethods: allowed}, false
	}
	return Matched{}, Mismatch{Reason: WrongPath}, false
}

// FindPathMethods enumerates every method registered against a path that
// matches, for populating an Allow header independent of a failed Find.
func (b *Base) FindPathMethods(path string) []message.Method {
	b.mu.Lock()
	b.ensureSorted()
	routes := b.routes
	b.mu.Unlock()

	segments := splitPath(path)
	var allowed []message.Method
	for _, r := range routes {
		if _, ok := matchComponents(r.components, segments); ok {
			allowed = appendMethodUnique(allowed, r.method)
		}
	}
	return allowed
}

func appendMethodUnique(methods []message.Method, m message.Method) []message.Method {
	for _, existing := range methods {
		if existing == m {
			return methods
		}
	}
	return append(methods, m)
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func matchComponents(components []component, segments []string) (map[string]string, bool) {
	var params map[string]string
	i := 0
	for ; i < len(components); i++ {
		c := components[i]
		if c.kind == kindWildcard {
			if i >= len(segments) {
				return nil, false
			}
			rest := strings.Join(segments[i:], "/")
			if params == nil {
				params = map[string]string{}
			}
			params["*"] = rest
			return params, true
		}
		if i >= len(segments) {
			return nil, false
		}
		seg, err := decodeSegment(segments[i])
		if err != nil {
			return nil, false
		}
		switch c.kind {
		case kindString:
			if seg != c.value {
				return nil, false
			}
		case kindNamed:
			if seg == "" {
				return nil, false
			}
			if params == nil {
				params = map[string]string{}
			}
			params[c.value] = seg
		}
	}
	if i != len(segments) {
		return nil, false
	}
	return params, true
}
