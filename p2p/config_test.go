package p2p

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ValidateDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ValidateRejectsBadListenAddress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ListenAddresses = []string{"not-a-multiaddr"}
	assert.Error(t, cfg.Validate())
}

func TestConfig_ValidateRejectsInvertedWaterMarks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LowWater, cfg.HighWater = 100, 50
	assert.Error(t, cfg.Validate())
}

func TestConfig_MutualPeerInfosParsesAddresses(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MutualPeers = []string{
		"/ip4/127.0.0.1/tcp/2121/p2p/12D3KooWSv6aX4eweBMUtDBXSbTu2uvX1Nf7eFWsDgrJvrgduzU9",
	}
	infos, err := cfg.MutualPeerInfos()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.NotEmpty(t, infos[0].ID)
}
