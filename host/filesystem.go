package host

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"time"
)

// OSFileSystem implements FileSystem over the process's own filesystem,
// rooted at a base directory (so a Justina program's relative paths can't
// escape the host's intended sandbox). This is the desktop-CLI stand-in for
// the SD-card filesystem spec.md §6.1 scopes out of the core.
type OSFileSystem struct {
	root string
}

// NewOSFileSystem roots path lookups at root (created if missing).
func NewOSFileSystem(root string) (*OSFileSystem, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &OSFileSystem{root: root}, nil
}

func (fs *OSFileSystem) resolve(path string) string {
	return filepath.Join(fs.root, filepath.Clean("/"+path))
}

func (fs *OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(fs.resolve(path))
	return err == nil
}

func (fs *OSFileSystem) Mkdir(path string) error {
	return os.Mkdir(fs.resolve(path), 0o755)
}

func (fs *OSFileSystem) Rmdir(path string) error {
	return os.Remove(fs.resolve(path))
}

func (fs *OSFileSystem) Remove(path string) error {
	return os.Remove(fs.resolve(path))
}

func (fs *OSFileSystem) Open(path string, mode FileMode) (File, error) {
	full := fs.resolve(path)
	var f *os.File
	var err error
	switch mode {
	case ModeRead:
		f, err = os.Open(full)
	case ModeWrite:
		f, err = os.Create(full)
	case ModeAppend:
		f, err = os.OpenFile(full, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	}
	if err != nil {
		return nil, err
	}
	return newOSFile(f), nil
}

// OpenNextFile/RewindDirectory implement the host's directory-iteration
// primitives over os.ReadDir; dir must be a handle previously opened with
// Open on a directory path.
func (fs *OSFileSystem) OpenNextFile(dir File) (File, error) {
	of, ok := dir.(*osFile)
	if !ok {
		return nil, os.ErrInvalid
	}
	return of.nextEntry(fs)
}

func (fs *OSFileSystem) RewindDirectory(dir File) error {
	of, ok := dir.(*osFile)
	if !ok {
		return os.ErrInvalid
	}
	of.dirPos = 0
	return nil
}

// osFile adapts *os.File to the File interface (InputStream + OutputStream
// + positional metadata).
type osFile struct {
	f       *os.File
	r       *bufio.Reader
	w       *bufio.Writer
	werr    error
	dirPos  int
	dirCache []os.DirEntry
}

func newOSFile(f *os.File) *osFile {
	return &osFile{f: f, r: bufio.NewReader(f), w: bufio.NewWriter(f)}
}

func (f *osFile) nextEntry(fs *OSFileSystem) (File, error) {
	if f.dirCache == nil {
		entries, err := f.f.ReadDir(-1)
		if err != nil {
			return nil, err
		}
		f.dirCache = entries
	}
	if f.dirPos >= len(f.dirCache) {
		return nil, io.EOF
	}
	entry := f.dirCache[f.dirPos]
	f.dirPos++
	if entry.IsDir() {
		child, err := os.Open(filepath.Join(f.f.Name(), entry.Name()))
		if err != nil {
			return nil, err
		}
		return newOSFile(child), nil
	}
	return fs.Open(filepath.Join(filepath.Base(f.f.Name()), entry.Name()), ModeRead)
}

func (f *osFile) Read() (byte, bool, error) {
	b, err := f.r.ReadByte()
	if err == io.EOF {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return b, true, nil
}

func (f *osFile) Peek() (byte, bool, error) {
	b, err := f.r.Peek(1)
	if err == io.EOF {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return b[0], true, nil
}

func (f *osFile) Available() int       { return f.r.Buffered() }
func (f *osFile) SetTimeout(d time.Duration) {}

func (f *osFile) WriteByte(b byte) error {
	err := f.w.WriteByte(b)
	if err != nil {
		f.werr = err
	}
	return err
}

func (f *osFile) Print(data []byte) (int, error) {
	n, err := f.w.Write(data)
	if err != nil {
		f.werr = err
	}
	return n, err
}

func (f *osFile) Println() error {
	err := f.w.WriteByte('\n')
	if err != nil {
		f.werr = err
	}
	return err
}

func (f *osFile) Flush() error              { return f.w.Flush() }
func (f *osFile) WriteError() error         { return f.werr }
func (f *osFile) ClearWriteError()          { f.werr = nil }
func (f *osFile) AvailableForWrite() int    { return 4096 }

func (f *osFile) IsDirectory() bool {
	info, err := f.f.Stat()
	return err == nil && info.IsDir()
}

func (f *osFile) Name() string { return filepath.Base(f.f.Name()) }

func (f *osFile) Size() int64 {
	info, err := f.f.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}

func (f *osFile) Position() int64 {
	pos, _ := f.f.Seek(0, io.SeekCurrent)
	return pos
}

func (f *osFile) Seek(pos int64) error {
	f.r.Reset(f.f)
	_, err := f.f.Seek(pos, io.SeekStart)
	return err
}

func (f *osFile) Close() error {
	_ = f.w.Flush()
	return f.f.Close()
}
