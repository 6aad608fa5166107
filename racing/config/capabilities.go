package config

import "fmt"

// Capabilities records which optional inputs a run can rely on. It is resolved once
// when a program starts and handed to the stages, which never look for files themselves.
type Capabilities struct {
	// Qualifying is set when a qualifying position source is usable, making q_pos
	// part of the joined table and the feature set.
	Qualifying bool
}

// ResolveCapabilities combines the configured qualifying mode with whether a
// qualifying source was found. Mode "on" with no source is an error.
func ResolveCapabilities(c *Config, qualifyingFound bool) (Capabilities, error) {
	switch c.Qualifying {
	case QualifyingOff:
		return Capabilities{}, nil
	case QualifyingOn:
		if !qualifyingFound {
			return Capabilities{}, fmt.Errorf("qualifying is on but no qualifying table was found in %s", c.DataDir)
		}
		return Capabilities{Qualifying: true}, nil
	default:
		return Capabilities{Qualifying: qualifyingFound}, nil
	}
}
