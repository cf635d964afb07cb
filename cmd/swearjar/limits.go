package main

import (
	"sync"
	"time"

	"github.com/RussellLuo/slidingwindow"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

func windowFunc() (slidingwindow.Window, slidingwindow.StopFunc) {
	return slidingwindow.NewLocalWindow()
}

// Per-user slash command limits. Idle users age out of the table after the window passes.
type commandLimits struct {
	lk       sync.Mutex
	perMin   int64
	limiters *expirable.LRU[string, *slidingwindow.Limiter]
}

func newCommandLimits(perMinute int64) *commandLimits {
	return &commandLimits{
		perMin:   perMinute,
		limiters: expirable.NewLRU[string, *slidingwindow.Limiter](10_000, nil, 2*time.Minute),
	}
}

// Reports whether the user may run another command now. A zero limit disables limiting.
func (cl *commandLimits) Allow(userID string) bool {
	if cl == nil || cl.perMin <= 0 {
		return true
	}
	cl.lk.Lock()
	defer cl.lk.Unlock()
	lim, ok := cl.limiters.Get(userID)
	if !ok {
		lim, _ = slidingwindow.NewLimiter(time.Minute, cl.perMin, windowFunc)
	}
	// re-adding refreshes the idle expiry
	cl.limiters.Add(userID, lim)
	return lim.Allow()
}
