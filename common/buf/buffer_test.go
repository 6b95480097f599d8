package buf_test

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"

	"github.com/strombase/strom/common/buf"

	"github.com/stretchr/testify/require"
)

func TestBuffer(t *testing.T) {
	t.Parallel()
	content := make([]byte, 1024)
	_, err := io.ReadFull(rand.Reader, content)
	require.NoError(t, err)

	buffer := buf.New()
	defer buffer.Release()
	require.Equal(t, buf.BufferSize, buffer.Cap())
	_, err = buffer.Write(content)
	require.NoError(t, err)
	require.Equal(t, len(content), buffer.Len())
	require.Equal(t, content, buffer.Bytes())

	read := make([]byte, 512)
	n, err := buffer.Read(read)
	require.NoError(t, err)
	require.Equal(t, 512, n)
	require.Equal(t, content[:512], read)
	require.Equal(t, content[512:], buffer.Bytes())

	head, err := buffer.ReadBytes(256)
	require.NoError(t, err)
	require.Equal(t, content[512:768], head)
	require.Equal(t, content[768:], buffer.Bytes())

	_, err = buffer.ReadBytes(512)
	require.ErrorIs(t, err, io.EOF)
}

func TestBufferFree(t *testing.T) {
	t.Parallel()
	buffer := buf.NewSize(64)
	defer buffer.Release()
	require.Equal(t, 64, buffer.FreeLen())

	n, err := buffer.ReadOnceFrom(bytes.NewReader([]byte("ping")))
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, 60, buffer.FreeLen())
	require.Equal(t, []byte("ping"), buffer.Bytes())

	buffer.Truncate(2)
	require.Equal(t, []byte("pi"), buffer.Bytes())
	buffer.Advance(1)
	require.Equal(t, []byte("i"), buffer.Bytes())
	require.Equal(t, 1, buffer.Start())
	require.Equal(t, byte('i'), buffer.Byte(0))

	b, err := buffer.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('i'), b)
	require.True(t, buffer.IsEmpty())
	_, err = buffer.ReadByte()
	require.ErrorIs(t, err, io.EOF)
}

func TestBufferFull(t *testing.T) {
	t.Parallel()
	buffer := buf.As(make([]byte, 16))
	require.True(t, buffer.IsFull())
	_, err := buffer.Write([]byte("overflow"))
	require.ErrorIs(t, err, io.ErrShortBuffer)
	require.ErrorIs(t, buffer.WriteByte('x'), io.ErrShortBuffer)

	buffer.Reset()
	require.True(t, buffer.IsEmpty())
	_, err = buffer.WriteString("0123456789abcde")
	require.NoError(t, err)
	require.NoError(t, buffer.WriteByte('f'))
	require.True(t, buffer.IsFull())
	require.Equal(t, []byte("0123456789abcdef"), buffer.Bytes())
}

func TestBufferReadFull(t *testing.T) {
	t.Parallel()
	buffer := buf.NewSize(8)
	defer buffer.Release()

	n, err := buffer.ReadFullFrom(bytes.NewReader([]byte("pingpong")), 8)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	require.Equal(t, []byte("pingpong"), buffer.Bytes())

	_, err = buffer.ReadFullFrom(bytes.NewReader([]byte("x")), 1)
	require.ErrorIs(t, err, io.ErrShortBuffer)

	short := buf.NewSize(8)
	defer short.Release()
	_, err = short.ReadFullFrom(bytes.NewReader([]byte("pi")), 4)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
