package domain

const (
	// Blockchain constants
	ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

	// DEFAULT_START_OFFSET is how far behind head a fresh deployment starts when no cursor exists
	DEFAULT_START_OFFSET = 100
)
