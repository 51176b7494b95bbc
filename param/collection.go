package param

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Collection is an ordered bag of parameters owned by a single request.
// The zero value is ready to use.
type Collection struct {
	items       []Parameter
	uniqueNames bool
}

type CollectionOption func(*Collection)

// WithUniqueNames makes Add replace an existing parameter with the same name
// and type instead of appending a second one.
func WithUniqueNames() CollectionOption {
	return func(c *Collection) { c.uniqueNames = true }
}

func NewCollection(opts ...CollectionOption) *Collection {
	c := &Collection{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add appends p. Adding a second RequestBody parameter is an error; use
// AddOrUpdate to replace the body on purpose.
func (c *Collection) Add(p Parameter) error {
	if p.Type != RequestBody && p.Name == "" {
		return errors.Wrapf(ErrEmptyName, "adding %s parameter", p.Type)
	}
	if p.Type == RequestBody {
		if existing, ok := c.Body(); ok {
			return errors.Wrapf(ErrDuplicateBody, "existing body has content type %q", existing.ContentType)
		}
	}
	if c.uniqueNames && p.Type != RequestBody && c.Exists(p) {
		c.replace(p)
		return nil
	}
	c.items = append(c.items, p)
	return nil
}

// AddOrUpdate replaces the first parameter with the same case-insensitive
// name and type, or appends p when there is none.
func (c *Collection) AddOrUpdate(p Parameter) {
	if !c.replace(p) {
		c.items = append(c.items, p)
	}
}

func (c *Collection) replace(p Parameter) bool {
	for i, existing := range c.items {
		if existing.sameKey(p) {
			c.items[i] = p
			return true
		}
	}
	return false
}

// Remove drops every parameter with the same name and type as p.
func (c *Collection) Remove(p Parameter) {
	kept := c.items[:0]
	for _, existing := range c.items {
		if !existing.sameKey(p) {
			kept = append(kept, existing)
		}
	}
	c.items = kept
}

// Exists compares by case-insensitive name and type.
func (c *Collection) Exists(p Parameter) bool {
	for _, existing := range c.items {
		if existing.sameKey(p) {
			return true
		}
	}
	return false
}

// Find returns the first parameter of type t whose name matches
// case-insensitively.
func (c *Collection) Find(t Type, name string) (Parameter, bool) {
	for _, p := range c.items {
		if p.Type == t && strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Parameter{}, false
}

func (c *Collection) OfType(t Type) []Parameter {
	var out []Parameter
	for _, p := range c.items {
		if p.Type == t {
			out = append(out, p)
		}
	}
	return out
}

func (c *Collection) Body() (Parameter, bool) {
	for _, p := range c.items {
		if p.Type == RequestBody {
			return p, true
		}
	}
	return Parameter{}, false
}

func (c *Collection) Files() []Parameter {
	return c.OfType(File)
}

// All returns a copy of every parameter in insertion order.
func (c *Collection) All() []Parameter {
	out := make([]Parameter, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection) Len() int {
	return len(c.items)
}

// Merge adds every parameter of defaults that c does not carry yet. Bodies
// and files are never merged.
func (c *Collection) Merge(defaults *Collection) {
	if defaults == nil {
		return
	}
	for _, p := range defaults.items {
		if p.Type == RequestBody || p.Type == File {
			continue
		}
		if !c.Exists(p) {
			c.items = append(c.items, p)
		}
	}
}

// Clone returns an independent copy of c.
func (c *Collection) Clone() *Collection {
	return &Collection{items: c.All(), uniqueNames: c.uniqueNames}
}

// HasBody reports whether method carries GetOrPost parameters in its body.
func HasBody(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

// QueryParameters returns the parameters that belong to the query string
// for method: GetOrPost and Query for methods without a body, only Query for
// POST, PUT and PATCH.
func (c *Collection) QueryParameters(method string) []Parameter {
	withBody := HasBody(method)
	var out []Parameter
	for _, p := range c.items {
		switch {
		case p.Type == Query:
			out = append(out, p)
		case p.Type == GetOrPost && !withBody:
			out = append(out, p)
		}
	}
	return out
}

// FormParameters returns the GetOrPost parameters that belong to the body
// for method.
func (c *Collection) FormParameters(method string) []Parameter {
	if !HasBody(method) {
		return nil
	}
	return c.OfType(GetOrPost)
}
