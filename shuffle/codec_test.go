package shuffle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityCodecRoundTrips(t *testing.T) {
	c := IdentityCodec()
	encoded, err := c.Encode([]byte("payload"))
	require.NoError(t, err)

	decoded, err := c.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), decoded)
}
