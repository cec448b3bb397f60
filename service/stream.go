package service

import (
	"bufio"
	"bytes"
	"io"
	"sync"
	"time"
)

// pipeConsole adapts an io.Pipe to host.InputStream/host.OutputStream for a
// single API session's console (stream 0): SendInput writes to the pipe,
// the program's own stdin reads drain it, and everything the program
// prints is buffered for GetOutputAndClear to hand to the WebSocket
// broadcaster. Grounded on host.consoleStream (same bufio-over-io.Reader
// shape) and api.EventWriter's write-triggers-broadcast pattern.
type pipeConsole struct {
	in      *bufio.Reader
	writer  *io.PipeWriter
	onWrite func([]byte)

	outMu sync.Mutex
	out   bytes.Buffer
	werr  error

	timeout time.Duration
}

func newPipeConsole(onWrite func([]byte)) *pipeConsole {
	r, w := io.Pipe()
	return &pipeConsole{in: bufio.NewReader(r), writer: w, onWrite: onWrite}
}

func (c *pipeConsole) Read() (byte, bool, error) {
	b, err := c.in.ReadByte()
	if err == io.EOF {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return b, true, nil
}

func (c *pipeConsole) Peek() (byte, bool, error) {
	b, err := c.in.Peek(1)
	if err == io.EOF {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return b[0], true, nil
}

func (c *pipeConsole) Available() int          { return c.in.Buffered() }
func (c *pipeConsole) SetTimeout(d time.Duration) { c.timeout = d }

func (c *pipeConsole) WriteByte(b byte) error {
	return c.writeOut([]byte{b})
}

func (c *pipeConsole) Print(data []byte) (int, error) {
	if err := c.writeOut(data); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (c *pipeConsole) Println() error { return c.writeOut([]byte{'\n'}) }
func (c *pipeConsole) Flush() error   { return nil }

func (c *pipeConsole) WriteError() error  { return c.werr }
func (c *pipeConsole) ClearWriteError()   { c.werr = nil }
func (c *pipeConsole) AvailableForWrite() int { return 4096 }

func (c *pipeConsole) writeOut(data []byte) error {
	c.outMu.Lock()
	_, err := c.out.Write(data)
	c.outMu.Unlock()
	if err != nil {
		c.werr = err
		return err
	}
	if c.onWrite != nil {
		c.onWrite(data)
	}
	return nil
}

// GetOutputAndClear returns buffered console output and clears the buffer.
func (c *pipeConsole) GetOutputAndClear() string {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	s := c.out.String()
	c.out.Reset()
	return s
}

// SendInput writes input to the console's stdin pipe. Input sent before the
// program is reading (e.g. between load and run) blocks until a reader
// appears, so callers should send from their own goroutine.
func (c *pipeConsole) SendInput(input string) error {
	_, err := c.writer.Write([]byte(input))
	return err
}
