package storage

import (
	"io"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// countingReader считает прочитанные байты
type countingReader struct {
	reader io.Reader
	count  atomic.Int64
}

func newCountingReader(r io.Reader) *countingReader {
	return &countingReader{reader: r}
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	c.count.Add(int64(n))
	return n, err
}

// Count возвращает количество прочитанных байт
func (c *countingReader) Count() int64 {
	return c.count.Load()
}

// meteredBody оборачивает тело GetObject и при закрытии
// добавляет количество отданных байт в счетчик
type meteredBody struct {
	body      io.ReadCloser
	counter   prometheus.Counter
	totalRead int64
	closed    bool
}

func (b *meteredBody) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)
	b.totalRead += int64(n)
	return n, err
}

func (b *meteredBody) Close() error {
	if !b.closed {
		b.closed = true
		b.counter.Add(float64(b.totalRead))
	}
	return b.body.Close()
}
