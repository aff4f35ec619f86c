package pgn

import (
	"github.com/dsnet/compress/bzip2"
	"github.com/inhies/go-bytesize"
)

type Bzip2Source struct {
	reader *bzip2.Reader
	close  closeFn
	path   string
	size   bytesize.ByteSize
}

func NewBzip2Source(path string) *Bzip2Source {
	return &Bzip2Source{
		path: path,
	}
}

func (s *Bzip2Source) Open() error {
	reader, size, close, err := openSource(s.path)
	if err != nil {
		return err
	}

	s.reader, err = bzip2.NewReader(reader, nil)
	if err != nil {
		_ = close()
		return err
	}

	s.size = size
	s.close = close

	return nil
}

func (s *Bzip2Source) Close() error {
	return s.close()
}

func (s *Bzip2Source) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

func (s *Bzip2Source) Size() bytesize.ByteSize {
	if s.reader.InputOffset > 0 {
		return s.size * bytesize.ByteSize(s.reader.OutputOffset/s.reader.InputOffset)
	}

	return s.size
}

func (s *Bzip2Source) BytesRead() bytesize.ByteSize {
	return bytesize.ByteSize(s.reader.OutputOffset)
}
