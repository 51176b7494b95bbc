package output

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"code.cloudfoundry.org/bytefmt"
	"github.com/pkg/errors"
)

const defaultDownloadName = "index"

var indexSuffix = regexp.MustCompile(`\.(\d+)$`)

// FileWriter saves a response body to disk for --download.
type FileWriter struct {
	fullPath string
}

func NewFileWriter(u *url.URL, options *Options) *FileWriter {
	var fullPath string

	if options.OutputFile == "" {
		name := filepath.Base(u.Path)
		if name == "." || name == "/" || name == "" {
			name = defaultDownloadName
		}
		fullPath = filepath.Join(".", name)
	} else {
		fullPath = options.OutputFile
	}

	if !options.Overwrite {
		fullPath = makeNonOverlappingFilename(fullPath)
	}

	return &FileWriter{
		fullPath: fullPath,
	}
}

// makeNonOverlappingFilename appends or bumps a ".N" suffix until the path
// does not exist.
func makeNonOverlappingFilename(path string) string {
	for {
		if _, err := os.Stat(path); err != nil {
			return path
		}
		newPath := indexSuffix.ReplaceAllStringFunc(path, func(index string) string {
			i, _ := strconv.Atoi(strings.TrimPrefix(index, "."))
			return fmt.Sprintf(".%d", i+1)
		})
		if path == newPath {
			newPath = fmt.Sprintf("%s.%d", path, 1)
		}
		path = newPath
	}
}

// Download writes body to the target file and reports the saved size on
// progress.
func (f *FileWriter) Download(body []byte, progress io.Writer) error {
	file, err := os.Create(f.fullPath)
	if err != nil {
		return errors.Wrapf(err, "creating '%s'", f.fullPath)
	}
	defer file.Close()

	n, err := file.Write(body)
	if err != nil {
		return errors.Wrapf(err, "writing '%s'", f.fullPath)
	}
	if progress != nil {
		fmt.Fprintf(progress, "Downloaded %s to %s\n", bytefmt.ByteSize(uint64(n)), f.fullPath)
	}
	return nil
}

func (f *FileWriter) Filename() string {
	return filepath.Base(f.fullPath)
}

func (f *FileWriter) Path() string {
	return f.fullPath
}
