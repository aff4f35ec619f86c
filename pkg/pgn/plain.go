package pgn

import (
	"github.com/inhies/go-bytesize"
)

type PlainSource struct {
	reader *ByteCountingReader
	close  closeFn
	path   string
	size   bytesize.ByteSize
}

func NewPlainSource(path string) *PlainSource {
	return &PlainSource{
		path: path,
	}
}

func (s *PlainSource) Open() error {
	reader, size, close, err := openSource(s.path)
	if err != nil {
		return err
	}

	s.close = close
	s.reader = &ByteCountingReader{reader: reader}
	s.size = size

	return nil
}

func (s *PlainSource) Close() error {
	return s.close()
}

func (s *PlainSource) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

func (s *PlainSource) Size() bytesize.ByteSize {
	return s.size
}

func (s *PlainSource) BytesRead() bytesize.ByteSize {
	return s.reader.bytesRead
}
