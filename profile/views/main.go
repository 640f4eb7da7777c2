// Profiling:
// go build ./profile/views
// go tool pprof -http=":8000" -nodefraction=0.001 ./views cpu.pprof

package main

import (
	"slices"

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

type comp3 struct {
	V int64
}

var schema = tabula.MustDefine("profile",
	tabula.Required[comp1]("c1", tabula.AccessWrite),
	tabula.Required[comp2]("c2", tabula.AccessRead),
	tabula.Optional[comp3]("c3", tabula.AccessRead),
)

func main() {
	rounds := 20
	iters := 100
	entities := 10000
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(rounds, iters, entities)
	p.Stop()
}

// run churns rows through the schema and walks the view after each batch.
func run(rounds, iters, numEntities int) {
	for range rounds {
		t := tabula.New(
			tabula.WithColumn[comp1](),
			tabula.WithColumn[comp2](),
			tabula.WithColumn[comp3](),
			tabula.WithView(schema),
		)
		rows := make([]tabula.Values, numEntities)
		for i := range rows {
			rows[i] = tabula.Values{"c1": comp1{}, "c2": comp2{V: 1, W: 2}}
			if i%2 == 0 {
				rows[i]["c3"] = comp3{V: int64(i)}
			}
		}

		for range iters {
			keys, err := schema.InsertAutoMulti(t, rows)
			if err != nil {
				panic(err)
			}
			for key := range t.View(schema).Keys() {
				row := schema.MustOpen(t, key)
				c1, _ := tabula.Write[comp1](row, "c1")
				c2, _ := tabula.Read[comp2](row, "c2")
				c1.V += c2.V
				c1.W += c2.W
				row.Release()
			}
			schema.RemoveMulti(t, slices.Values(keys))
		}
	}
}
