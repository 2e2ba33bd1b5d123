package bombrps

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RoundsAndForfeits(t *testing.T) {
	resolved := testutil.ToFloat64(roundsResolved.WithLabelValues("user"))
	bombs := testutil.ToFloat64(bombsDetonated.WithLabelValues("user"))
	reused := testutil.ToFloat64(roundsForfeited.WithLabelValues("bomb_already_used"))
	unknown := testutil.ToFloat64(roundsForfeited.WithLabelValues("unknown_move"))
	won := testutil.ToFloat64(gamesFinished.WithLabelValues("user"))

	m := NewMatch("metrics", NewScript(MoveRock))
	for _, raw := range []string{"bomb", "bomb", "xyz"} {
		if _, err := m.Play(raw); err != nil {
			t.Fatal(err)
		}
	}

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"resolved user rounds", testutil.ToFloat64(roundsResolved.WithLabelValues("user")), resolved + 1},
		{"user bombs", testutil.ToFloat64(bombsDetonated.WithLabelValues("user")), bombs + 1},
		{"bomb reuse forfeits", testutil.ToFloat64(roundsForfeited.WithLabelValues("bomb_already_used")), reused + 1},
		{"unknown move forfeits", testutil.ToFloat64(roundsForfeited.WithLabelValues("unknown_move")), unknown + 1},
		{"games won by user", testutil.ToFloat64(gamesFinished.WithLabelValues("user")), won + 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}
