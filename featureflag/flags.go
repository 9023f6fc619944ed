package featureflag

type Flag string

const (
	// Serves the pprof handlers on the admin server.
	FlagEnablePprof Flag = "ENABLE_PPROF"

	// Runs the query against an rtree built from the same tiles and warns
	// when the results differ from the configured index.
	FlagCrossCheckIndex Flag = "CROSS_CHECK_INDEX"

	// Prints only the tiles given by the caller, without their ghosts.
	FlagHideGhosts Flag = "HIDE_GHOSTS"
)
