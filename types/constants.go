package types

const (
	// StateTreeMaxLevels is the number of levels of the accounts state tree.
	// Account keys are 32 byte compressed points, so every bit is a level.
	StateTreeMaxLevels = 256
	// StateKeyLen is the length in bytes of the state tree keys.
	StateKeyLen = StateTreeMaxLevels / 8
)
