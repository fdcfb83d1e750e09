package session

import "rindang/dynaroute/pkg/overlay"

// Config collects the engine tunables the hosting application hands in once
// at session construction.
type Config struct {
	// EffectThreshold is the proximity distance (map units) used by every
	// edges-near-segment query.
	EffectThreshold float64
	// NodeSnapRadius: clicks within this distance of a node select the node.
	NodeSnapRadius float64
	// EdgeSnapRadius: failing a node hit, clicks within this distance of an
	// edge create a virtual node on it.
	EdgeSnapRadius float64
	// RatioClampMin/Max bound the split ratio of a virtual node; projections
	// outside the window snap to the nearer endpoint instead of producing a
	// degenerate near-endpoint split.
	RatioClampMin float64
	RatioClampMax float64
	// LightModifiers is the process-wide per-phase weight delta applied by
	// every traffic light.
	LightModifiers overlay.PhaseModifiers
}

func DefaultConfig() Config {
	return Config{
		EffectThreshold: 20,
		NodeSnapRadius:  15,
		EdgeSnapRadius:  25,
		RatioClampMin:   0.05,
		RatioClampMax:   0.95,
		LightModifiers: overlay.PhaseModifiers{
			Red:    50,
			Yellow: 10,
			Green:  0,
		},
	}
}
