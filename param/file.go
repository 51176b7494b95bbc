package param

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

const defaultFileContentType = "application/octet-stream"

var ErrFileConsumed = errors.New("file content has already been consumed")

// fileSource opens the content of a file parameter on demand. Sources backed
// by a caller-provided reader can be opened only once.
type fileSource struct {
	open   func() (io.ReadCloser, error)
	length int64
	once   bool

	mu   sync.Mutex
	used bool
}

func (s *fileSource) Open() (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.once && s.used {
		return nil, ErrFileConsumed
	}
	s.used = true
	return s.open()
}

// NewFile creates a file parameter with a custom opener. The opener is not
// called until the multipart body is written. length is -1 when unknown.
func NewFile(name, fileName, contentType string, length int64, open func() (io.ReadCloser, error)) (Parameter, error) {
	if name == "" {
		return Parameter{}, errors.Wrap(ErrEmptyName, "creating file parameter")
	}
	if open == nil {
		return Parameter{}, errors.New("file parameter requires an opener")
	}
	if contentType == "" {
		contentType = defaultFileContentType
	}
	return Parameter{
		Name:        name,
		Type:        File,
		Encode:      true,
		ContentType: contentType,
		FileName:    fileName,
		source:      &fileSource{open: open, length: length},
	}, nil
}

// FileFromBytes creates a file parameter from an in-memory byte slice.
func FileFromBytes(name string, data []byte, fileName, contentType string) (Parameter, error) {
	return NewFile(name, fileName, contentType, int64(len(data)), func() (io.ReadCloser, error) {
		return ioutil.NopCloser(bytes.NewReader(data)), nil
	})
}

// FileFromReader creates a file parameter that streams from r. The reader is
// consumed by the first request that writes it.
func FileFromReader(name string, r io.Reader, fileName, contentType string) (Parameter, error) {
	p, err := NewFile(name, fileName, contentType, -1, func() (io.ReadCloser, error) {
		if rc, ok := r.(io.ReadCloser); ok {
			return rc, nil
		}
		return ioutil.NopCloser(r), nil
	})
	if err != nil {
		return Parameter{}, err
	}
	p.source.once = true
	return p, nil
}

// FileFromPath creates a file parameter that opens path when the body is
// written. When contentType is empty it is detected from the file content.
func FileFromPath(name, path, contentType string) (Parameter, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Parameter{}, errors.Wrapf(err, "reading file parameter '%s'", name)
	}
	if info.IsDir() {
		return Parameter{}, errors.Errorf("file parameter '%s' points to a directory: %s", name, path)
	}
	if contentType == "" {
		mtype, err := mimetype.DetectFile(path)
		if err != nil {
			return Parameter{}, errors.Wrapf(err, "detecting content type of %s", path)
		}
		contentType = mtype.String()
	}
	return NewFile(name, filepath.Base(path), contentType, info.Size(), func() (io.ReadCloser, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "opening file parameter '%s'", name)
		}
		return f, nil
	})
}

// Open returns the content of a file parameter.
func (p Parameter) Open() (io.ReadCloser, error) {
	if p.Type != File || p.source == nil {
		return nil, errors.Errorf("parameter %s is not a file", p)
	}
	return p.source.Open()
}

// Length returns the content length of a file parameter, or -1 when unknown.
func (p Parameter) Length() int64 {
	if p.source == nil {
		return -1
	}
	return p.source.length
}
