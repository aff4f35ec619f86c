package pgn

import (
	"github.com/inhies/go-bytesize"
	"github.com/klauspost/compress/zstd"
)

type ZstSource struct {
	path         string
	inputReader  *ByteCountingReader
	outputReader *ByteCountingReader
	size         bytesize.ByteSize
	close        closeFn
}

func NewZstSource(path string) *ZstSource {
	return &ZstSource{
		path: path,
	}
}

func (s *ZstSource) Open() error {
	reader, size, close, err := openSource(s.path)
	if err != nil {
		return err
	}
	// Wrap the file and the zstd Reader in ByteCountingReader to estimate the data size by output/input ratio
	s.inputReader = &ByteCountingReader{reader: reader}
	zstReader, err := zstd.NewReader(s.inputReader)
	if err != nil {
		_ = close()
		return err
	}

	s.outputReader = &ByteCountingReader{reader: zstReader}
	s.close = close
	s.size = size

	return nil
}

func (s *ZstSource) Close() error {
	return s.close()
}

func (s *ZstSource) Read(p []byte) (int, error) {
	return s.outputReader.Read(p)
}

func (s *ZstSource) Size() bytesize.ByteSize {
	if s.inputReader.bytesRead > 0 {
		return s.size * (s.outputReader.bytesRead / s.inputReader.bytesRead)
	}

	return s.size
}

func (s *ZstSource) BytesRead() bytesize.ByteSize {
	return s.outputReader.bytesRead
}
