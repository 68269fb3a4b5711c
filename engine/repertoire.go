package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Opening styles. Each style partition of the repertoire tracks its own
// learned per-move weights.
const (
	StyleSolid      = "solid"
	StyleAggressive = "aggressive"
	StyleTricky     = "tricky"
	StyleBalanced   = "balanced"
)

var openingStyles = []string{StyleSolid, StyleAggressive, StyleTricky, StyleBalanced}

// ValidStyle reports whether s names a known opening style.
func ValidStyle(s string) bool {
	for _, style := range openingStyles {
		if s == style {
			return true
		}
	}
	return false
}

// OpeningStat accumulates game outcomes for one (position, move) pair.
type OpeningStat struct {
	Games       int     `json:"games"`
	Wins        int     `json:"wins"`
	Draws       int     `json:"draws"`
	Losses      int     `json:"losses"`
	SuccessRate float64 `json:"success_rate"`
}

// Repertoire is the persisted record of how book moves have fared, plus the
// per-style weight multipliers learned from those outcomes. Keys are
// "placement:uci" pairs, placement being the piece-placement FEN field.
type Repertoire struct {
	Openings map[string]*OpeningStat       `json:"openings"`
	Styles   map[string]map[string]float64 `json:"styles"`
	Metadata RepertoireMetadata            `json:"metadata"`
}

type RepertoireMetadata struct {
	LastUpdated string `json:"last_updated"`
	TotalGames  int    `json:"total_games"`
}

func newRepertoire() *Repertoire {
	styles := make(map[string]map[string]float64, len(openingStyles))
	for _, style := range openingStyles {
		styles[style] = make(map[string]float64)
	}
	return &Repertoire{
		Openings: make(map[string]*OpeningStat),
		Styles:   styles,
	}
}

// loadRepertoire reads the repertoire file, starting empty when the file is
// missing or unreadable. Persistence problems are logged, never propagated.
func loadRepertoire(path string, logger zerolog.Logger) *Repertoire {
	rep := newRepertoire()
	if path == "" {
		return rep
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return rep
	}
	if err := loadJSONFile(path, rep); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("loading repertoire failed, starting empty")
		return newRepertoire()
	}
	// Older files may lack one of the style partitions.
	for _, style := range openingStyles {
		if rep.Styles[style] == nil {
			rep.Styles[style] = make(map[string]float64)
		}
	}
	if rep.Openings == nil {
		rep.Openings = make(map[string]*OpeningStat)
	}
	return rep
}

func (r *Repertoire) save(path string) error {
	if path == "" {
		return nil
	}
	r.Metadata.LastUpdated = time.Now().Format(time.RFC3339)
	return saveJSONFile(path, r)
}

// positionMoveKey builds the "placement:uci" key shared by the openings and
// styles maps.
func positionMoveKey(placement, uci string) string {
	return fmt.Sprintf("%s:%s", placement, uci)
}

// recordOutcome folds one game result for a book move into its stats.
// success is 1 for a win by the mover, 0.5 for a draw, 0 for a loss.
func (r *Repertoire) recordOutcome(key string, success float64) {
	stat, ok := r.Openings[key]
	if !ok {
		stat = &OpeningStat{SuccessRate: 0.5}
		r.Openings[key] = stat
	}
	stat.Games++
	switch success {
	case 1.0:
		stat.Wins++
	case 0.5:
		stat.Draws++
	default:
		stat.Losses++
	}
	if stat.Games > 0 {
		stat.SuccessRate = (float64(stat.Wins) + 0.5*float64(stat.Draws)) / float64(stat.Games)
	}
}

// adjustStyleWeight nudges the style multiplier for a move after a game:
// +0.1 on a win, -0.1 on a loss, +0.05 on a draw, clamped to [0.5, 2.0].
func (r *Repertoire) adjustStyleWeight(style, key string, success float64) {
	weights := r.Styles[style]
	if weights == nil {
		weights = make(map[string]float64)
		r.Styles[style] = weights
	}
	current, ok := weights[key]
	if !ok {
		current = 1.0
	}
	switch success {
	case 1.0:
		current = min(2.0, current+0.1)
	case 0.0:
		current = max(0.5, current-0.1)
	default:
		current = min(2.0, current+0.05)
	}
	weights[key] = current
}
