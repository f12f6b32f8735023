package decode

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFakeDecoder(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decoder.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "60155.bufr4")
	require.NoError(t, os.WriteFile(path, []byte{0x42, 0x55, 0x46, 0x52}, 0o644))
	return path
}

func TestExecCodec_Open(t *testing.T) {
	decoder := writeFakeDecoder(t, `echo '[{"stationNumber": 155}, {"stationNumber": 230}]'`)
	codec := NewExecCodec(decoder, nil)

	iter, err := codec.Open(context.Background(), writeArtifact(t))
	require.NoError(t, err)
	defer iter.Close()

	first, err := iter.Next()
	require.NoError(t, err)
	assert.Equal(t, float64(155), first["stationNumber"])

	second, err := iter.Next()
	require.NoError(t, err)
	assert.Equal(t, float64(230), second["stationNumber"])

	_, err = iter.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestExecCodec_Open_MissingArtifact(t *testing.T) {
	decoder := writeFakeDecoder(t, `echo '[]'`)
	codec := NewExecCodec(decoder, nil)

	_, err := codec.Open(context.Background(), filepath.Join(t.TempDir(), "missing.bufr4"))
	assert.Error(t, err)
}

func TestExecCodec_Open_CommandFailure(t *testing.T) {
	decoder := writeFakeDecoder(t, `echo 'broken artifact' >&2; exit 1`)
	codec := NewExecCodec(decoder, nil)

	_, err := codec.Open(context.Background(), writeArtifact(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken artifact")
}

func TestExecCodec_Open_NonArrayOutput(t *testing.T) {
	decoder := writeFakeDecoder(t, `echo '{"stationNumber": 155}'`)
	codec := NewExecCodec(decoder, nil)

	_, err := codec.Open(context.Background(), writeArtifact(t))
	assert.Error(t, err)
}

func TestExecCodec_Open_NonObjectEntry(t *testing.T) {
	decoder := writeFakeDecoder(t, `echo '[42]'`)
	codec := NewExecCodec(decoder, nil)

	iter, err := codec.Open(context.Background(), writeArtifact(t))
	require.NoError(t, err)
	defer iter.Close()

	_, err = iter.Next()
	assert.Error(t, err)
}
