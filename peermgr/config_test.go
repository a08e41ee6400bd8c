package peermgr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_ValidateDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ValidateRejectsOutOfOrderLimits(t *testing.T) {
	cases := map[string]Config{
		"negative target": {TargetPeerAmount: -1, SoftLimit: 1, HardLimit: 2, PeerTTL: time.Second, AligningPeriod: time.Second},
		"target above soft": {
			TargetPeerAmount: 10, SoftLimit: 5, HardLimit: 20,
			PeerTTL: time.Second, AligningPeriod: time.Second,
		},
		"soft above hard": {
			TargetPeerAmount: 5, SoftLimit: 20, HardLimit: 10,
			PeerTTL: time.Second, AligningPeriod: time.Second,
		},
		"zero ttl": {
			TargetPeerAmount: 5, SoftLimit: 10, HardLimit: 20,
			PeerTTL: 0, AligningPeriod: time.Second,
		},
		"zero aligning period": {
			TargetPeerAmount: 5, SoftLimit: 10, HardLimit: 20,
			PeerTTL: time.Second, AligningPeriod: 0,
		},
	}

	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, cfg.Validate())
		})
	}
}
