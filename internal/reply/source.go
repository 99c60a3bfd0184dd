package reply

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Drawer yields uniform draws in [0,1)
type Drawer interface {
	Float64() float64
}

// lockedRand makes a *rand.Rand safe for concurrent connections
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// NewDrawer returns a goroutine-safe Drawer. A zero seed picks one from the clock.
func NewDrawer(seed uint64) Drawer {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// FixedDrawer always returns the same draw
type FixedDrawer float64

func (f FixedDrawer) Float64() float64 { return float64(f) }
