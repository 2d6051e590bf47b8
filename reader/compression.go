package reader

import (
	"compress/bzip2"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/nao1215/sqlmagick/domain/model"
)

// openDecompressed opens path and unwraps the given compression. The
// returned closer releases the decoder and the file.
func openDecompressed(path string, compression model.Compression) (io.Reader, func() error, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the caller's own pattern
	if err != nil {
		return nil, nil, err
	}

	switch compression {
	case model.CompressionNone:
		return f, f.Close, nil
	case model.CompressionGZ:
		gz, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, func() error {
			_ = gz.Close()
			return f.Close()
		}, nil
	case model.CompressionBZ2:
		return bzip2.NewReader(f), f.Close, nil
	case model.CompressionXZ:
		xzReader, err := xz.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xzReader, f.Close, nil
	case model.CompressionZSTD:
		decoder, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return decoder, func() error {
			decoder.Close()
			return f.Close()
		}, nil
	default:
		_ = f.Close()
		return nil, nil, fmt.Errorf("unsupported compression: %v", compression)
	}
}
