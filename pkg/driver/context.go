package driver

// Context configures driver selection at connect time: either an
// explicit, forced driver (skips probing entirely) or an ordered list
// of candidates probed in turn via MatchCard/Init.
//
// This is deliberately a plain struct rather than a config-file/env
// loader: OpenSC's sc_context carries dozens of unrelated concerns
// (reader enumeration, PIN cache, app directories) that don't belong
// to a driver-selection policy, and every field here is either set
// directly by the embedding program or left at its zero value. See
// DESIGN.md for why no configuration library is used.
type Context struct {
	// ForcedDriver, if non-nil, is used unconditionally; no probing
	// occurs and MatchCard is never called.
	ForcedDriver Driver

	// Drivers is the ordered probe list consulted when ForcedDriver is
	// nil. Earlier entries are tried first.
	Drivers []Driver

	// Debug is the core's 0-5 verbosity scale, forwarded to the APDU
	// engine for hex-dump tracing and to the driver probe loop for
	// match/init tracing.
	Debug int
}
