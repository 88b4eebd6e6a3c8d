package liveserver_test

import (
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/livetest/core/liveserver"
)

func TestResolvePort(t *testing.T) {
	t.Parallel()

	t.Run("non_zero_verbatim", func(t *testing.T) {
		t.Parallel()
		port, err := liveserver.ResolvePort(5001)
		require.NoError(t, err)
		assert.Equal(t, 5001, port)
	})

	t.Run("zero_picks_free_port", func(t *testing.T) {
		t.Parallel()
		port, err := liveserver.ResolvePort(0)
		require.NoError(t, err)
		assert.Greater(t, port, 0)

		ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
		require.NoError(t, err, "resolved port should be free again")
		require.NoError(t, ln.Close())
	})

	t.Run("out_of_range", func(t *testing.T) {
		t.Parallel()
		for _, p := range []int{-1, 65536} {
			_, err := liveserver.ResolvePort(p)
			assert.ErrorIs(t, err, liveserver.ErrInvalidPort)
		}
	})
}
