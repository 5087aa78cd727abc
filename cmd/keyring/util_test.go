package main

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/keyring/internal/core/domain"
)

func TestParseMeta(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		meta, err := parseMeta([]string{"name=alice", "isTesting=true", "note=a=b"})
		require.NoError(t, err)
		require.Equal(t, domain.Meta{
			"name":      "alice",
			"isTesting": true,
			"note":      "a=b",
		}, meta)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, arg := range []string{"name", "=alice"} {
			meta, err := parseMeta([]string{arg})
			require.Error(t, err)
			require.Nil(t, meta)
		}
	})
}
