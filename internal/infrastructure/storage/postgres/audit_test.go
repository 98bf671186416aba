package postgres

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditCompression(t *testing.T) {
	svc, err := NewAuditService(nil)
	require.NoError(t, err)

	t.Run("small payload stays uncompressed", func(t *testing.T) {
		entry := AuditEntry{Changes: json.RawMessage(`{"status":"delivered"}`)}

		svc.compressEntry(&entry)

		assert.Equal(t, CompressionNone, entry.CompressionAlgo)
		assert.Empty(t, entry.ChangesCompressed)
		assert.JSONEq(t, `{"status":"delivered"}`, string(entry.Changes))
	})

	t.Run("large payload round-trips through zstd", func(t *testing.T) {
		payload, err := json.Marshal(map[string]string{
			"notes": string(bytes.Repeat([]byte("long running delivery note "), 1024)),
		})
		require.NoError(t, err)
		require.Greater(t, len(payload), svc.compressThreshold)

		entry := AuditEntry{Changes: payload}
		svc.compressEntry(&entry)

		assert.Equal(t, CompressionZstd, entry.CompressionAlgo)
		assert.Nil(t, entry.Changes)
		require.NotEmpty(t, entry.ChangesCompressed)
		assert.Less(t, len(entry.ChangesCompressed), len(payload))

		require.NoError(t, svc.decompressEntry(&entry))
		assert.Equal(t, json.RawMessage(payload), entry.Changes)
		assert.Nil(t, entry.ChangesCompressed)
	})

	t.Run("decompress is a no-op for uncompressed entries", func(t *testing.T) {
		entry := AuditEntry{
			Changes:         json.RawMessage(`{"action":"created"}`),
			CompressionAlgo: CompressionNone,
		}

		require.NoError(t, svc.decompressEntry(&entry))
		assert.JSONEq(t, `{"action":"created"}`, string(entry.Changes))
	})
}
