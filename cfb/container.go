package cfb

import (
	"errors"
	"sort"
	"strings"
)

// ErrInvalidContainer reports a structurally broken compound container:
// bad magic bytes, an out-of-range sector reference, a looping sector
// chain, or an inconsistent directory.
var ErrInvalidContainer = errors.New("cfb: invalid container")

// Entry is one named stream inside the container. Name is the full path
// through the storage tree, components joined with "/".
type Entry struct {
	Name string
	Data []byte
}

// Container holds the streams of one compound file in directory order.
type Container struct {
	entries []*Entry
	index   map[string]*Entry
}

// NewContainer returns an empty container.
func NewContainer() *Container {
	return &Container{index: make(map[string]*Entry)}
}

// Stream returns the bytes of the named stream.
func (c *Container) Stream(name string) ([]byte, bool) {
	e, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return e.Data, true
}

// SetStream replaces the named stream's content, or adds the stream if it
// does not exist yet.
func (c *Container) SetStream(name string, data []byte) {
	if e, ok := c.index[name]; ok {
		e.Data = data
		return
	}
	e := &Entry{Name: name, Data: data}
	c.entries = append(c.entries, e)
	c.index[name] = e
}

// Entries returns the container's streams in directory order.
func (c *Container) Entries() []*Entry {
	return c.entries
}

// StreamNames returns the names of streams whose path starts with prefix,
// sorted lexicographically. An empty prefix lists every stream.
func (c *Container) StreamNames(prefix string) []string {
	var names []string
	for _, e := range c.entries {
		if strings.HasPrefix(e.Name, prefix) {
			names = append(names, e.Name)
		}
	}
	sort.Strings(names)
	return names
}

func (c *Container) add(e *Entry) {
	c.entries = append(c.entries, e)
	c.index[e.Name] = e
}
