package token

// Cursor is a position-tracking view over a Buffer, used by both the parser
// (writing) and the interpreter (reading/advancing) so neither has to
// juggle raw Step arithmetic. It is the Go analogue of spec.md §9's
// "tagged union of tokens ... behind a Cursor abstraction".
type Cursor struct {
	Buf *Buffer
	Pos Step
}

// NewCursor returns a Cursor positioned at start.
func NewCursor(buf *Buffer, start Step) *Cursor {
	return &Cursor{Buf: buf, Pos: start}
}

// WriteAt encodes tok at c.Pos, advances Pos past it, and returns the step
// the token was written at (its own address, useful for back-patching).
func (c *Cursor) WriteAt(tok Token) (Step, error) {
	addr := c.Pos
	next, err := c.Buf.Write(c.Pos, tok)
	if err != nil {
		return 0, err
	}
	c.Pos = next
	return addr, nil
}

// ReadNext decodes the token at c.Pos and advances past it.
func (c *Cursor) ReadNext() (Token, error) {
	tok, next, err := c.Buf.Read(c.Pos)
	if err != nil {
		return Token{}, err
	}
	c.Pos = next
	return tok, nil
}

// IterFrom returns a function that yields successive tokens from start
// until a semicolon or end-of-program sentinel is reached, matching
// spec.md §9's `iter_from(step)` operation. The returned bool is true once
// a sentinel has been consumed (caller should stop calling next).
func IterFrom(buf *Buffer, start Step) func() (Token, Step, bool, error) {
	pos := start
	return func() (Token, Step, bool, error) {
		if buf.IsEndOfProgram(pos) {
			return Token{}, pos, true, nil
		}
		if buf.IsSemicolon(pos) {
			addr := pos
			pos = pos.MustAdd(1)
			return Token{}, addr, true, nil
		}
		addr := pos
		tok, next, err := buf.Read(pos)
		if err != nil {
			return Token{}, addr, true, err
		}
		pos = next
		return tok, addr, false, nil
	}
}

// WriteAtStep patches a token in place at a previously-written address,
// used for forward-link back-patching (block start -> elseif/else/end).
// The replacement token must have identical Len() to the original.
func WriteAtStep(buf *Buffer, at Step, tok Token) error {
	_, err := buf.Write(at, tok)
	return err
}
