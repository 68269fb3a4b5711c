package engine

import "github.com/rs/zerolog"

const (
	MinSkillLevel     = 1
	MaxSkillLevel     = 20
	DefaultSkillLevel = 10

	// How many times initialization is retried before the engine gives up
	// and degrades to the random-move fallback.
	DefaultMaxRetries = 3
)

// depthForSkillLevel maps the 1-20 difficulty scale onto search depth.
func depthForSkillLevel(level int) int {
	switch {
	case level <= 5:
		return 1
	case level <= 10:
		return 2
	case level <= 15:
		return 3
	default:
		return 4
	}
}

// quiescenceDepthForSkillLevel maps difficulty onto quiescence depth; the
// lowest band plays without quiescence entirely.
func quiescenceDepthForSkillLevel(level int) int {
	switch {
	case level <= 5:
		return 0
	case level <= 10:
		return 1
	case level <= 15:
		return 2
	default:
		return 3
	}
}

// Options configures an Engine at construction. Runtime changes go through
// the typed setters on Engine, which validate initialization state.
type Options struct {
	UseOpeningBook    bool
	UseTransposition  bool
	UseNullMove       bool
	UseQuiescence     bool
	UsePositionalEval bool
	UseLearning       bool

	// TransTableSize bounds the transposition cache entry count;
	// zero means DefaultTransTableSize.
	TransTableSize int

	// RepertoirePath and LearningPath locate the persisted stores. Either
	// may be empty for memory-only operation, and either may end in .zst
	// for compressed storage.
	RepertoirePath string
	LearningPath   string

	// BookPath optionally replaces the embedded opening book with entries
	// from a JSON file of the same shape.
	BookPath string

	// Style is one of solid, aggressive, tricky, balanced.
	Style string

	SkillLevel int
	MaxRetries int

	// Seed fixes every randomness source (book selection, fallback moves,
	// ordering tiebreaks). Zero derives a seed from the clock.
	Seed int64

	Logger zerolog.Logger
}

// DefaultOptions enables every subsystem with memory-only stores and a
// silent logger.
func DefaultOptions() Options {
	return Options{
		UseOpeningBook:    true,
		UseTransposition:  true,
		UseNullMove:       true,
		UseQuiescence:     true,
		UsePositionalEval: true,
		UseLearning:       true,
		Style:             StyleBalanced,
		SkillLevel:        DefaultSkillLevel,
		MaxRetries:        DefaultMaxRetries,
		Logger:            zerolog.Nop(),
	}
}
