package reconcile

import (
	"math/rand/v2"

	"github.com/edgard/followbot/internal/social"
)

// Pool draws ids uniformly at random without replacement. Removal swaps the
// picked slot with the last one, so each draw is O(1).
type Pool struct {
	ids []social.UserID
	rng *rand.Rand
}

// NewPool copies ids into a pool. A nil rng uses the global source.
func NewPool(ids []social.UserID, rng *rand.Rand) *Pool {
	p := &Pool{ids: make([]social.UserID, len(ids)), rng: rng}
	copy(p.ids, ids)
	return p
}

// Len returns how many ids remain.
func (p *Pool) Len() int {
	return len(p.ids)
}

// Pick removes and returns a random remaining id. ok is false once empty.
func (p *Pool) Pick() (id social.UserID, ok bool) {
	n := len(p.ids)
	if n == 0 {
		return "", false
	}

	var i int
	if p.rng != nil {
		i = p.rng.IntN(n)
	} else {
		i = rand.IntN(n)
	}

	id = p.ids[i]
	p.ids[i] = p.ids[n-1]
	p.ids = p.ids[:n-1]
	return id, true
}
