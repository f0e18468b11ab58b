package compression

import (
	"bytes"
	"testing"

	"github.com/iamNilotpal/raftlog/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecs_RoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("raft entry payload "), 64)

	for _, algorithm := range []domain.CompressionAlgorithm{Zstd, LZ4, Snappy} {
		t.Run(string(algorithm), func(t *testing.T) {
			code, err := CodeOf(algorithm)
			require.NoError(t, err)

			codec, err := ForCode(code, DefaultOptions())
			require.NoError(t, err)
			defer codec.Close()

			compressed, err := codec.Compress(payload)
			require.NoError(t, err)
			assert.Less(t, len(compressed), len(payload))

			restored, err := codec.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, payload, restored)
		})
	}
}

func TestCodecs_SmallPayloadUnchanged(t *testing.T) {
	small := []byte("tiny")

	for _, code := range []domain.CompressionCode{domain.CompressionZstd, domain.CompressionLZ4, domain.CompressionSnappy} {
		codec, err := ForCode(code, nil)
		require.NoError(t, err)

		out, err := codec.Compress(small)
		require.NoError(t, err)
		assert.Equal(t, small, out)
		require.NoError(t, codec.Close())
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(DefaultOptions()))
	assert.NoError(t, Validate(&domain.CompressionOptions{Algorithm: LZ4}))
	assert.Error(t, Validate(&domain.CompressionOptions{Algorithm: "brotli"}))
	assert.Error(t, Validate(&domain.CompressionOptions{Algorithm: Zstd, Level: 9}))
}

func TestZstd_Closed(t *testing.T) {
	z, err := NewZstdCompression(DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, DefaultLevel, z.Level())

	require.NoError(t, z.Close())
	require.NoError(t, z.Close())

	_, err = z.Compress(bytes.Repeat([]byte("x"), 128))
	assert.Error(t, err)
}
