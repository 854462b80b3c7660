package artifact

import (
	"io"
	"path"
	"sort"
	"strconv"

	"github.com/ddddddO/gtree"
)

// Content is a parsed and compiled parameter schema. It is produced once by
// the builder and never mutated afterwards.
type Content struct {
	Path       string
	JSON       any
	TypeScript string
}

// Tree groups every discovered schema by resource, action and parameter.
// Each level keeps insertion order.
type Tree struct {
	resources []*Resource
	byName    map[string]*Resource

	// Skipped lists locations whose slot was already filled.
	Skipped []Location
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{byName: map[string]*Resource{}}
}

// Resources returns the resources in insertion order.
func (t *Tree) Resources() []*Resource {
	return t.resources
}

// Resource looks up a resource by name.
func (t *Tree) Resource(name string) (*Resource, bool) {
	r, ok := t.byName[name]
	return r, ok
}

// EnsureResource returns the named resource, creating it with the given
// schemas directory on first use.
func (t *Tree) EnsureResource(name, dir string) *Resource {
	if r, ok := t.byName[name]; ok {
		return r
	}
	r := &Resource{Name: name, Dir: dir, byName: map[string]*Action{}}
	t.byName[name] = r
	t.resources = append(t.resources, r)
	return r
}

// Empty reports whether the tree holds no resources.
func (t *Tree) Empty() bool {
	return len(t.resources) == 0
}

// Insert places content at loc. It reports false when the slot was already
// filled; the first content wins and loc is recorded in Skipped.
func (t *Tree) Insert(loc Location, schemasDir string, c *Content) bool {
	res := t.EnsureResource(loc.Resource, path.Join(loc.ResourcePath, schemasDir))
	act := res.EnsureAction(loc.Action, loc.Dir)
	param := act.EnsureParameter(loc.Kind)
	var ok bool
	if loc.HasCode() {
		ok = param.SetResponse(loc.Code, c)
	} else {
		ok = param.SetContent(c)
	}
	if !ok {
		t.Skipped = append(t.Skipped, loc)
	}
	return ok
}

// Render prints the tree as an indented outline.
func (t *Tree) Render(w io.Writer, title string) error {
	root := gtree.NewRoot(title)
	for _, r := range t.resources {
		rn := root.Add(r.Name)
		for _, a := range r.actions {
			an := rn.Add(a.Name)
			a.Fragments(func(f Fragment) {
				label := string(f.Kind)
				if f.Kind == Response {
					label += " " + strconv.Itoa(f.Code)
				}
				an.Add(label)
			})
		}
	}
	return gtree.OutputProgrammably(w, root)
}

// Resource is a top-level API entity such as "users".
type Resource struct {
	Name string
	// Dir is the schemas directory that holds the resource's actions.
	Dir string

	actions []*Action
	byName  map[string]*Action
}

// Actions returns the actions in insertion order.
func (r *Resource) Actions() []*Action {
	return r.actions
}

// Action looks up an action by name.
func (r *Resource) Action(name string) (*Action, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// EnsureAction returns the named action, creating it on first use.
func (r *Resource) EnsureAction(name, dir string) *Action {
	if a, ok := r.byName[name]; ok {
		return a
	}
	a := &Action{Name: name, Dir: dir, Resource: r}
	r.byName[name] = a
	r.actions = append(r.actions, a)
	return a
}

// Action is one endpoint of a resource, such as "create".
type Action struct {
	Name     string
	Dir      string
	Resource *Resource

	params []*Parameter
}

// Parameters returns the parameter slots in insertion order.
func (a *Action) Parameters() []*Parameter {
	return a.params
}

// Parameter returns the slot for kind.
func (a *Action) Parameter(kind Kind) (*Parameter, bool) {
	for _, p := range a.params {
		if p.Kind == kind {
			return p, true
		}
	}
	return nil, false
}

// EnsureParameter returns the slot for kind, creating it on first use.
func (a *Action) EnsureParameter(kind Kind) *Parameter {
	if p, ok := a.Parameter(kind); ok {
		return p
	}
	p := &Parameter{Kind: kind}
	a.params = append(a.params, p)
	return p
}

// RequestKinds returns the request kinds present on the action in tree
// order. Response is never included.
func (a *Action) RequestKinds() []Kind {
	var kinds []Kind
	for _, p := range a.params {
		if p.Kind != Response && p.content != nil {
			kinds = append(kinds, p.Kind)
		}
	}
	return kinds
}

// Fragment is one compiled schema visited by Fragments.
type Fragment struct {
	Kind    Kind
	Code    int
	Content *Content
}

// Fragments calls fn for every content of the action in tree order.
// Responses are visited by ascending status code.
func (a *Action) Fragments(fn func(Fragment)) {
	for _, p := range a.params {
		if p.Kind == Response {
			for _, s := range p.Responses() {
				fn(Fragment{Kind: Response, Code: s.Code, Content: s.Content})
			}
			continue
		}
		if p.content != nil {
			fn(Fragment{Kind: p.Kind, Content: p.content})
		}
	}
}

// Status is the response schema for one status code.
type Status struct {
	Code    int
	Content *Content
}

// Parameter is the slot for one kind. Response slots hold one content per
// status code; every other kind holds a single content.
type Parameter struct {
	Kind Kind

	content   *Content
	responses map[int]*Content
}

// Content returns the content of a non-response slot.
func (p *Parameter) Content() *Content {
	return p.content
}

// SetContent fills the slot unless it is already filled.
func (p *Parameter) SetContent(c *Content) bool {
	if p.content != nil {
		return false
	}
	p.content = c
	return true
}

// SetResponse fills the slot for code unless it is already filled.
func (p *Parameter) SetResponse(code int, c *Content) bool {
	if p.responses == nil {
		p.responses = map[int]*Content{}
	}
	if _, ok := p.responses[code]; ok {
		return false
	}
	p.responses[code] = c
	return true
}

// Responses returns the response slots by ascending status code.
func (p *Parameter) Responses() []Status {
	out := make([]Status, 0, len(p.responses))
	for code, c := range p.responses {
		out = append(out, Status{Code: code, Content: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
