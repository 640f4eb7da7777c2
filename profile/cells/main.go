// Profiling:
// go build ./profile/cells
// go tool pprof -http=":8000" -nodefraction=0.001 ./cells mem.pprof

package main

import (
	"sync"

	"github.com/edwinsyarief/tabula"
	"github.com/pkg/profile"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

func main() {
	rounds := 20
	iters := 200
	entities := 10000
	workers := 8
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(rounds, iters, entities, workers)
	p.Stop()
}

// run hammers single cells from several goroutines, each owning a disjoint
// slice of keys, so only the structural read lock is shared.
func run(rounds, iters, numEntities, workers int) {
	for range rounds {
		t := tabula.New(tabula.WithColumn[comp1](), tabula.WithColumn[comp2]())
		values := make([]comp1, numEntities)
		keys := tabula.InsertAutoMulti(t, values)
		for _, k := range keys {
			tabula.Insert(t, k, comp2{V: 1, W: 1})
		}

		var wg sync.WaitGroup
		per := len(keys) / workers
		for w := range workers {
			part := keys[w*per : (w+1)*per]
			wg.Go(func() {
				for range iters {
					for _, k := range part {
						c1, _ := tabula.GetMut[comp1](t, k)
						c2, _ := tabula.Get[comp2](t, k)
						c1.Ptr().V += c2.Value().V
						c1.Ptr().W += c2.Value().W
						c2.Release()
						c1.Release()
					}
				}
			})
		}
		wg.Wait()
	}
}
