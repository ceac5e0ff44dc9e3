package output

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"code.cloudfoundry.org/bytefmt"
	"github.com/pkg/errors"
)

var reIndexSuffix = regexp.MustCompile(`\.(\d+)$`)

// FileWriter saves response bodies, such as generated speech or file
// contents, to disk.
type FileWriter struct {
	fullPath string
	progress io.Writer
}

// NewFileWriter returns a FileWriter for resource, the path of the
// requested endpoint. The file is named after the last path segment unless
// options.OutputFile is set. Progress is reported to progress.
func NewFileWriter(resource string, options *Options, progress io.Writer) *FileWriter {
	var fullPath string

	if options.OutputFile == "" {
		fullPath = fmt.Sprintf("./%s", filepath.Base(resource))
	} else {
		fullPath = options.OutputFile
	}

	if !options.Overwrite {
		fullPath = makeNonOverlappingFilename(fullPath)
	}

	return &FileWriter{
		fullPath: fullPath,
		progress: progress,
	}
}

func makeNonOverlappingFilename(path string) string {
	_, err := os.Stat(path)
	if err == nil {
		newPath := reIndexSuffix.ReplaceAllStringFunc(path, func(index string) string {
			i, err := strconv.Atoi(strings.TrimPrefix(index, "."))
			if err != nil {
				panic(err)
			}
			i++
			return fmt.Sprintf(".%d", i)
		})
		if path == newPath {
			path = fmt.Sprintf("%s.%d", path, 1)
		} else {
			path = newPath
		}
		path = makeNonOverlappingFilename(path)
	}
	return path
}

func (f *FileWriter) Download(resp *http.Response) error {
	file, err := os.Create(f.fullPath)
	if err != nil {
		return errors.Wrap(err, "creating output file")
	}
	defer file.Close()

	contentLength := resp.ContentLength
	if contentLength <= 0 {
		n, err := io.Copy(file, resp.Body)
		if err != nil {
			return errors.Wrap(err, "writing output file")
		}
		fmt.Fprintf(f.progress, "Saved %s to %s\n", bytefmt.ByteSize(uint64(n)), f.Filename())
		return nil
	}

	buf := make([]byte, 32*1024)
	var totalRead int64
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				return errors.Wrap(werr, "writing output file")
			}
			totalRead += int64(n)
			fmt.Fprintf(f.progress, "\rProgress: %d%% (%s / %s)",
				totalRead*100/contentLength,
				bytefmt.ByteSize(uint64(totalRead)),
				bytefmt.ByteSize(uint64(contentLength)))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "reading response body")
		}
	}

	fmt.Fprintf(f.progress, "\nSaved to %s\n", f.Filename())
	return nil
}

func (f *FileWriter) Filename() string {
	return filepath.Base(f.fullPath)
}

func (f *FileWriter) Path() string {
	return f.fullPath
}
