package token

import (
	"encoding/binary"
	"fmt"
)

// Semicolon and EndOfProgram are the two sentinel header bytes that never
// collide with a Kind-tagged header: a statement is terminated by a
// semicolon token (single byte, value SemicolonByte) and a sequence of
// statements by a zero byte (spec.md §3.1).
const (
	SemicolonByte byte = 0xFE
	EndOfProgram  byte = 0x00
)

// Buffer is the fixed-size program buffer: a contiguous byte array holding
// parsed tokens, split into a program area (persists across statements,
// grows from offset 0) and an immediate-mode area (holds the
// currently-parsed prompt/debugger line, reset on every new top-level
// parse). This mirrors the teacher's Memory segment model (vm.Memory /
// MemorySegment) generalized from address-mapped regions to a single
// split buffer.
type Buffer struct {
	data []byte

	// ProgramEnd is the first free byte after the program area.
	ProgramEnd Step

	// ImmediateStart is the first byte of the immediate-mode area; the
	// program area may grow up to this boundary.
	ImmediateStart Step

	// ImmediateEnd is the first free byte after the immediate-mode area's
	// current content.
	ImmediateEnd Step
}

// NewBuffer allocates a Buffer with the immediate-mode area occupying the
// tail third of the 64 KiB address space.
func NewBuffer() *Buffer {
	immediateStart := Step(MaxBufferSize - MaxBufferSize/3)
	return &Buffer{
		data:           make([]byte, MaxBufferSize),
		ProgramEnd:     0,
		ImmediateStart: immediateStart,
		ImmediateEnd:   immediateStart,
	}
}

// ResetImmediate clears the immediate-mode area back to empty, ready to
// receive the next prompt line or debugger command line.
func (b *Buffer) ResetImmediate() {
	b.ImmediateEnd = b.ImmediateStart
}

// ResetProgram clears the program area back to empty. Callers must first
// free any heap objects the program area's tokens own (constant strings);
// Buffer itself holds no heap references.
func (b *Buffer) ResetProgram() {
	b.ProgramEnd = 0
}

func (b *Buffer) checkRoom(at Step, n int) error {
	end, err := at.Add(n)
	if err != nil {
		return err
	}
	if int(end) > len(b.data) {
		return fmt.Errorf("token: write at %s would exceed buffer", at)
	}
	return nil
}

func (b *Buffer) putByte(at Step, v byte) { b.data[at] = v }
func (b *Buffer) getByte(at Step) byte    { return b.data[at] }

func (b *Buffer) putUint16(at Step, v uint16) {
	binary.LittleEndian.PutUint16(b.data[at:at+2], v)
}
func (b *Buffer) getUint16(at Step) uint16 {
	return binary.LittleEndian.Uint16(b.data[at : at+2])
}

func (b *Buffer) putUint32(at Step, v uint32) {
	binary.LittleEndian.PutUint32(b.data[at:at+4], v)
}
func (b *Buffer) getUint32(at Step) uint32 {
	return binary.LittleEndian.Uint32(b.data[at : at+4])
}

// Write encodes tok at position at and returns the step immediately past
// it, or an error if the buffer has no room (parser error ProgMemoryFull).
func (b *Buffer) Write(at Step, tok Token) (Step, error) {
	n := tok.Len()
	if err := b.checkRoom(at, n); err != nil {
		return 0, err
	}

	switch tok.Kind {
	case KindResWord:
		payload := byte(1) // nonzero so the header never equals EndOfProgram
		if tok.HasJump {
			payload = 2
		}
		b.putByte(at, makeHeader(KindResWord, payload))
		b.putUint16(at.MustAdd(1), tok.CmdIndex)
		if tok.HasJump {
			b.putUint16(at.MustAdd(3), uint16(tok.JumpStep))
		}
	case KindInternalFunc:
		b.putByte(at, makeHeader(KindInternalFunc, 0))
		b.putUint16(at.MustAdd(1), tok.FuncIndex)
	case KindExternalFunc:
		b.putByte(at, makeHeader(KindExternalFunc, 0))
		b.putUint16(at.MustAdd(1), tok.FuncIndex)
	case KindVariable:
		flags := byte(tok.VarScope) & 0x07
		if tok.IsArray {
			flags |= 0x80
		}
		flags |= (tok.Dims & 0x03) << 3
		b.putByte(at, makeHeader(KindVariable, 0))
		b.putByte(at.MustAdd(1), flags)
		b.putByte(at.MustAdd(2), tok.NameIndex)
		b.putByte(at.MustAdd(3), tok.ValueIndex)
	case KindConstant:
		b.putByte(at, makeHeader(KindConstant, byte(tok.ValType)))
		switch tok.ValType {
		case ValueLong:
			b.putUint32(at.MustAdd(1), uint32(tok.LongVal))
		case ValueFloat:
			b.putUint32(at.MustAdd(1), f32bits(tok.FloatVal))
		case ValueString:
			b.putUint32(at.MustAdd(1), tok.StrHandle)
		}
	case KindGenericName:
		b.putByte(at, makeHeader(KindGenericName, 0))
		b.putUint32(at.MustAdd(1), tok.NameHandle)
	case KindTerminal:
		b.putByte(at, makeHeader(KindTerminal, tok.TermIndex&0x0F))
		b.putByte(at.MustAdd(1), byte(tok.TermGroup))
	case KindArrayDims:
		b.putByte(at, makeHeader(KindArrayDims, tok.Dims&0x0F))
	default:
		return 0, fmt.Errorf("token: unknown kind %v", tok.Kind)
	}

	return at.MustAdd(n), nil
}

// WriteSemicolon writes the single-byte statement terminator.
func (b *Buffer) WriteSemicolon(at Step) (Step, error) {
	if err := b.checkRoom(at, 1); err != nil {
		return 0, err
	}
	b.putByte(at, SemicolonByte)
	return at.MustAdd(1), nil
}

// WriteEndOfProgram writes the zero byte that terminates a sequence of
// statements.
func (b *Buffer) WriteEndOfProgram(at Step) (Step, error) {
	if err := b.checkRoom(at, 1); err != nil {
		return 0, err
	}
	b.putByte(at, EndOfProgram)
	return at.MustAdd(1), nil
}

// IsSemicolon reports whether the byte at at is the statement terminator.
func (b *Buffer) IsSemicolon(at Step) bool { return b.getByte(at) == SemicolonByte }

// IsEndOfProgram reports whether the byte at at is the zero terminator.
func (b *Buffer) IsEndOfProgram(at Step) bool { return b.getByte(at) == EndOfProgram }

// Read decodes the token at position at, returning the decoded Token and
// the step immediately past it.
func (b *Buffer) Read(at Step) (Token, Step, error) {
	header := b.getByte(at)
	if header == SemicolonByte || header == EndOfProgram {
		return Token{}, 0, fmt.Errorf("token: Read called on sentinel byte at %s", at)
	}

	kind, payload := splitHeader(header)
	var tok Token
	tok.Kind = kind

	switch kind {
	case KindResWord:
		tok.CmdIndex = b.getUint16(at.MustAdd(1))
		if payload == 2 {
			tok.HasJump = true
			tok.JumpStep = Step(b.getUint16(at.MustAdd(3)))
		}
	case KindInternalFunc, KindExternalFunc:
		tok.FuncIndex = b.getUint16(at.MustAdd(1))
	case KindVariable:
		flags := b.getByte(at.MustAdd(1))
		tok.VarScope = Scope(flags & 0x07)
		tok.IsArray = flags&0x80 != 0
		tok.Dims = (flags >> 3) & 0x03
		tok.NameIndex = b.getByte(at.MustAdd(2))
		tok.ValueIndex = b.getByte(at.MustAdd(3))
	case KindConstant:
		tok.ValType = ValueType(payload)
		switch tok.ValType {
		case ValueLong:
			tok.LongVal = int32(b.getUint32(at.MustAdd(1)))
		case ValueFloat:
			tok.FloatVal = f32frombits(b.getUint32(at.MustAdd(1)))
		case ValueString:
			tok.StrHandle = b.getUint32(at.MustAdd(1))
		}
	case KindGenericName:
		tok.NameHandle = b.getUint32(at.MustAdd(1))
	case KindTerminal:
		tok.TermIndex = payload
		tok.TermGroup = TerminalGroup(b.getByte(at.MustAdd(1)))
	case KindArrayDims:
		tok.Dims = payload
	default:
		return Token{}, 0, fmt.Errorf("token: corrupt header 0x%02X at %s", header, at)
	}

	return tok, at.MustAdd(tok.Len()), nil
}

// PatchJump overwrites the JumpStep field of the resword token at at with
// target. Used by the parser to back-patch a block-start/elseif token's
// jump target once the matching elseif/else/end token's position is known
// (spec.md §4.2.1's forward-link patching).
func (b *Buffer) PatchJump(at Step, target Step) error {
	header := b.getByte(at)
	kind, payload := splitHeader(header)
	if kind != KindResWord || payload != 2 {
		return fmt.Errorf("token: PatchJump called on non-jump token at %s", at)
	}
	b.putUint16(at.MustAdd(3), uint16(target))
	return nil
}

// PatchArrayDims overwrites the dimension count of an already-written
// KindArrayDims marker, once the parser has finished counting an array
// declaration's dimension list.
func (b *Buffer) PatchArrayDims(at Step, dims int) error {
	header := b.getByte(at)
	kind, _ := splitHeader(header)
	if kind != KindArrayDims {
		return fmt.Errorf("token: PatchArrayDims called on non-marker token at %s", at)
	}
	b.putByte(at, makeHeader(KindArrayDims, byte(dims)&0x0F))
	return nil
}

// Next advances past the token (or sentinel byte) at at, without decoding
// it; used by scans that only need to walk the stream (e.g. the reset scan
// that frees constant strings, spec.md §3.3 Lifecycle).
func (b *Buffer) Next(at Step) (Step, bool, error) {
	header := b.getByte(at)
	if header == EndOfProgram {
		return at, true, nil
	}
	if header == SemicolonByte {
		return at.MustAdd(1), false, nil
	}
	tok, next, err := b.Read(at)
	if err != nil {
		return 0, false, err
	}
	_ = tok
	return next, false, nil
}
