// Package beat finds beat timestamps in a track.
package beat

import (
	"context"
	"fmt"
	"math"

	"github.com/binaryphile/clapper/internal/audio"
)

// Timeline is a list of beat timestamps in seconds.
type Timeline []float64

// Validate checks that every timestamp is finite, the first is not negative
// and each is strictly later than the one before.
func (t Timeline) Validate() error {
	for i, s := range t {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("beat %d: invalid timestamp %v", i, s)
		}
		if i == 0 && s < 0 {
			return fmt.Errorf("beat 0: negative timestamp %v", s)
		}
		if i > 0 && s <= t[i-1] {
			return fmt.Errorf("beat %d: timestamp %v not after %v", i, s, t[i-1])
		}
	}
	return nil
}

// Detector finds the beats of a decoded track.
type Detector interface {
	Detect(ctx context.Context, track *audio.Segment) (Timeline, error)
}
