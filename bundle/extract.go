package bundle

import (
	"bufio"
	"io"
	"io/fs"
	"os"
	"path"

	"go.uber.org/zap"

	"github.com/wippyai/nativeboot/errors"
	"github.com/wippyai/nativeboot/metrics"
	"github.com/wippyai/nativeboot/platform"
)

// copyBufferSize is the chunk size of the streaming copy.
const copyBufferSize = 1 << 20

// ResourcePath returns the bundle entry holding name for tag
func ResourcePath(tag platform.Tag, name string) string {
	return path.Join("lib", string(tag), name)
}

// Extractor copies bundle entries for one platform into sessions.
type Extractor struct {
	bundle  fs.FS
	metrics *metrics.Collector
	logger  *zap.Logger
	tag     platform.Tag
}

// NewExtractor creates an extractor over bundle for tag.
func NewExtractor(bundle fs.FS, tag platform.Tag, logger *zap.Logger, m *metrics.Collector) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		bundle:  bundle,
		metrics: m,
		logger:  logger,
		tag:     tag,
	}
}

// Extract copies each named library into the session directory.
// It stops at the first failure.
func (e *Extractor) Extract(s *Session, names []string) error {
	for _, name := range names {
		e.logger.Info("extracting", zap.String("library", name))

		src := ResourcePath(e.tag, name)
		if _, err := fs.Stat(e.bundle, src); err != nil {
			return errors.ResourceMissing(name, src)
		}

		dst := s.Path(name)
		n, err := e.copy(name, src, dst)
		if err != nil {
			// a partial file would keep the session directory alive past exit cleanup
			if rerr := os.Remove(dst); rerr != nil && !os.IsNotExist(rerr) {
				e.logger.Warn("remove partial library failed", zap.String("path", dst), zap.Error(rerr))
			}
			return err
		}
		if err := s.cleanup.Register(dst); err != nil {
			return errors.ExtractionFailed(name, dst, "cannot schedule library removal on exit", err)
		}

		e.metrics.RecordExtraction(n)
		e.logger.Debug("extracted", zap.String("library", name), zap.String("path", dst), zap.Int64("bytes", n))
	}
	return nil
}

// copy streams src to dst. Both handles are released on every path and a
// release failure is reported when nothing else failed first.
func (e *Extractor) copy(name, src, dst string) (n int64, err error) {
	in, err := e.bundle.Open(src)
	if err != nil {
		return 0, errors.ExtractionFailed(name, src, "open resource", err)
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = errors.ExtractionFailed(name, src, "close source stream", cerr)
		}
	}()

	f, err := os.Create(dst)
	if err != nil {
		return 0, errors.ExtractionFailed(name, dst, "create destination", err)
	}
	out := bufio.NewWriterSize(f, copyBufferSize)
	defer func() {
		ferr := out.Flush()
		cerr := f.Close()
		if err != nil {
			return
		}
		if ferr != nil {
			err = errors.ExtractionFailed(name, dst, "flush destination stream", ferr)
		} else if cerr != nil {
			err = errors.ExtractionFailed(name, dst, "close destination stream", cerr)
		}
	}()

	buf := make([]byte, copyBufferSize)
	for first := true; ; first = false {
		k, rerr := in.Read(buf)
		// An empty first read means an empty resource, never a valid library.
		if first && k == 0 {
			if rerr != nil && rerr != io.EOF {
				return 0, errors.ExtractionFailed(name, src, "read resource", rerr)
			}
			return 0, errors.ExtractionFailed(name, src, "0 bytes read for resource", nil)
		}
		if k > 0 {
			if _, werr := out.Write(buf[:k]); werr != nil {
				return n, errors.ExtractionFailed(name, dst, "write destination", werr)
			}
			n += int64(k)
		}
		if rerr == io.EOF {
			return n, nil
		}
		if rerr != nil {
			return n, errors.ExtractionFailed(name, src, "read resource", rerr)
		}
	}
}
