package object

import "github.com/VioletHelianthus/uika/handle"

// Names is the host's interned-name table. A name handle is an index into
// the table; equal handles mean equal strings, so comparisons are O(1).
type Names struct {
	byString map[string]handle.Name
	strings  []string
}

func newNames() *Names {
	return &Names{
		byString: make(map[string]handle.Name),
		// Index 0 is reserved for the null name.
		strings: []string{""},
	}
}

// Intern returns the handle for s, creating the entry on first use.
// The empty string interns to the null handle.
func (n *Names) Intern(s string) handle.Name {
	if s == "" {
		return 0
	}
	if h, ok := n.byString[s]; ok {
		return h
	}
	h := handle.Name(len(n.strings))
	n.strings = append(n.strings, s)
	n.byString[s] = h
	return h
}

// String resolves h back to its string, or "" for the null or an unknown
// handle.
func (n *Names) String(h handle.Name) string {
	if h == 0 || int(h) >= len(n.strings) {
		return ""
	}
	return n.strings[h]
}

// Lookup returns the handle for s without interning. Null if unseen.
func (n *Names) Lookup(s string) handle.Name {
	return n.byString[s]
}
