package engine

import "github.com/pkg/errors"

// ErrNotInitialized is returned by configuration calls made before the
// engine finished (or survived) initialization. Callers can tell "not
// ready" apart from a failed search, which never surfaces as an error.
var ErrNotInitialized = errors.New("engine not initialized")

// ErrInvalidDifficulty is returned for skill levels outside [1, 20].
var ErrInvalidDifficulty = errors.New("difficulty level out of range")
