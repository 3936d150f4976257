package interop

import "fmt"

// HandleRef identifies a native object held in the surface's handle table. The surface
// hands out one ID per native object, so two refs with the same ID denote the same node.
// Realm names the document that issued the ref; the surface rejects a ref from any
// other document as released.
type HandleRef struct {
	ID    int64  `json:"__handle"`
	Realm string `json:"__realm,omitempty"`
}

// Valid reports whether the ref was produced by the surface.
func (r HandleRef) Valid() bool { return r.ID > 0 }

func (r HandleRef) String() string { return fmt.Sprintf("handle#%d", r.ID) }

// CallbackRef identifies a Go CallbackTarget registered in a CallbackTable. The surface
// revives it into an object whose invoke(method, ...args) posts back to Go.
type CallbackRef struct {
	ID int64 `json:"__callback"`
}

func (r CallbackRef) String() string { return fmt.Sprintf("callback#%d", r.ID) }
