package peermgr

import (
	"fmt"
	"time"
)

// Config is the peering configuration surface. It is built in-process
// (cmd/start.go uses DefaultConfig); no config file is read.
type Config struct {
	// TargetPeerAmount is the desired active-set size.
	TargetPeerAmount int
	// SoftLimit is the size above which eviction is considered.
	SoftLimit int
	// HardLimit is the size above which eviction is mandatory.
	HardLimit int
	// PeerTTL is the maximum silence tolerated before an active peer
	// becomes eligible for soft-limit eviction.
	PeerTTL time.Duration
	// AligningPeriod is the delay between alignments.
	AligningPeriod time.Duration
}

// DefaultConfig returns reasonable defaults for the peering subsystem.
func DefaultConfig() Config {
	return Config{
		TargetPeerAmount: 20,
		SoftLimit:        30,
		HardLimit:        50,
		PeerTTL:          2 * time.Minute,
		AligningPeriod:   30 * time.Second,
	}
}

// Validate checks the configuration invariant: target <= soft <= hard,
// peer_ttl > 0, aligning_period > 0.
func (c *Config) Validate() error {
	if c.TargetPeerAmount < 0 || c.SoftLimit < 0 || c.HardLimit < 0 {
		return fmt.Errorf("peermgr: limits must be non-negative")
	}
	if c.TargetPeerAmount > c.SoftLimit {
		return fmt.Errorf("peermgr: target_peer_amount (%d) must be <= soft_limit (%d)",
			c.TargetPeerAmount, c.SoftLimit)
	}
	if c.SoftLimit > c.HardLimit {
		return fmt.Errorf("peermgr: soft_limit (%d) must be <= hard_limit (%d)",
			c.SoftLimit, c.HardLimit)
	}
	if c.PeerTTL <= 0 {
		return fmt.Errorf("peermgr: peer_ttl must be positive")
	}
	if c.AligningPeriod <= 0 {
		return fmt.Errorf("peermgr: aligning_period must be positive")
	}
	return nil
}
