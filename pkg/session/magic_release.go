//go:build !scardcore_debug

package session

// Release builds skip the magic-sentinel check entirely: Go's type
// system and garbage collector already rule out the use-after-free the
// sentinel guards against in OpenSC's C implementation, so there is
// nothing for it to catch here.

func (c *Card) checkValid() error { return nil }

func (c *Card) setMagic()   {}
func (c *Card) clearMagic() {}
