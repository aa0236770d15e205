package store

import (
	"math/rand"
	"sync"
	"time"
)

// Push keys are 20 characters: 8 encoding the creation time in milliseconds,
// 12 of random payload. The alphabet sorts in ASCII order, so keys sort by
// creation time, and the random tail is incremented when two keys land on
// the same millisecond. Consumers rely on insertion order == key order.
const pushChars = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

type pushIDGen struct {
	mu        sync.Mutex
	lastMs    int64
	lastRand  [12]int
	nowMillis func() int64
}

func newPushIDGen() *pushIDGen {
	return &pushIDGen{
		nowMillis: func() int64 { return time.Now().UnixMilli() },
	}
}

func (g *pushIDGen) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.nowMillis()
	duplicate := ms == g.lastMs
	if ms < g.lastMs {
		// Clock went backwards; keep ordering by reusing the last stamp.
		ms = g.lastMs
		duplicate = true
	}
	g.lastMs = ms

	var id [20]byte
	for i := 7; i >= 0; i-- {
		id[i] = pushChars[ms%64]
		ms /= 64
	}

	if duplicate {
		// Same millisecond: increment the previous random tail so the new
		// key still sorts after it.
		for i := 11; i >= 0; i-- {
			if g.lastRand[i] != 63 {
				g.lastRand[i]++
				break
			}
			g.lastRand[i] = 0
		}
	} else {
		for i := 0; i < 12; i++ {
			g.lastRand[i] = rand.Intn(64)
		}
	}
	for i := 0; i < 12; i++ {
		id[8+i] = pushChars[g.lastRand[i]]
	}

	return string(id[:])
}
