package threadpool

import (
	"sync"
	"testing"
)

type tile struct {
	i, j, k, l, kr, lr int
}

func collectTiles(p *Pool, countI, countJ, rangeK, rangeL, tileK, tileL int) []tile {
	var mu sync.Mutex
	var tiles []tile
	Compute4DTiled(p, func(i, j, k, l, kr, lr int) {
		mu.Lock()
		tiles = append(tiles, tile{i, j, k, l, kr, lr})
		mu.Unlock()
	}, countI, countJ, rangeK, rangeL, tileK, tileL)
	return tiles
}

func TestCompute4DTiledSequentialCoverage(t *testing.T) {
	tiles := collectTiles(nil, 2, 3, 10, 7, 4, 3)

	wantTilesK := 3 // ceil(10/4)
	wantTilesL := 3 // ceil(7/3)
	if len(tiles) != 2*3*wantTilesK*wantTilesL {
		t.Fatalf("expected %d tiles, got %d", 2*3*wantTilesK*wantTilesL, len(tiles))
	}

	// Every (i, j, k, l) cell must be covered exactly once.
	covered := make(map[[4]int]int)
	for _, tl := range tiles {
		if tl.k%4 != 0 || tl.l%3 != 0 {
			t.Fatalf("tile origin (%d, %d) not aligned to tile size", tl.k, tl.l)
		}
		if tl.k+tl.kr > 10 || tl.l+tl.lr > 7 {
			t.Fatalf("tile (%+v) exceeds the grid", tl)
		}
		for k := tl.k; k < tl.k+tl.kr; k++ {
			for l := tl.l; l < tl.l+tl.lr; l++ {
				covered[[4]int{tl.i, tl.j, k, l}]++
			}
		}
	}
	for cell, n := range covered {
		if n != 1 {
			t.Fatalf("cell %v covered %d times", cell, n)
		}
	}
	if len(covered) != 2*3*10*7 {
		t.Fatalf("expected %d cells, got %d", 2*3*10*7, len(covered))
	}
}

func TestCompute4DTiledParallelMatchesSequential(t *testing.T) {
	p := New(4)
	defer p.Close()

	seq := collectTiles(nil, 3, 2, 17, 9, 8, 4)
	par := collectTiles(p, 3, 2, 17, 9, 8, 4)

	if len(seq) != len(par) {
		t.Fatalf("tile count mismatch: sequential %d, parallel %d", len(seq), len(par))
	}
	seen := make(map[tile]int)
	for _, tl := range seq {
		seen[tl]++
	}
	for _, tl := range par {
		seen[tl]--
	}
	for tl, n := range seen {
		if n != 0 {
			t.Fatalf("tile %+v dispatched differently across modes", tl)
		}
	}
}

func TestCompute4DTiledPartialTrailingTiles(t *testing.T) {
	tiles := collectTiles(nil, 1, 1, 5, 5, 4, 4)
	if len(tiles) != 4 {
		t.Fatalf("expected 4 tiles, got %d", len(tiles))
	}
	for _, tl := range tiles {
		wantKR := 4
		if tl.k == 4 {
			wantKR = 1
		}
		wantLR := 4
		if tl.l == 4 {
			wantLR = 1
		}
		if tl.kr != wantKR || tl.lr != wantLR {
			t.Fatalf("tile %+v has wrong trailing ranges", tl)
		}
	}
}

func TestCompute4DTiledEmptyGrid(t *testing.T) {
	called := false
	Compute4DTiled(nil, func(i, j, k, l, kr, lr int) {
		called = true
	}, 0, 3, 10, 10, 2, 2)
	if called {
		t.Fatal("expected no dispatch for an empty grid")
	}
}

func TestNilPoolSize(t *testing.T) {
	var p *Pool
	if p.Size() != 0 {
		t.Fatalf("expected nil pool size 0, got %d", p.Size())
	}
	p.Close() // must not panic
}

func TestPoolReuseAcrossDispatches(t *testing.T) {
	p := New(2)
	defer p.Close()

	for round := 0; round < 10; round++ {
		var mu sync.Mutex
		count := 0
		Compute4DTiled(p, func(i, j, k, l, kr, lr int) {
			mu.Lock()
			count += kr * lr
			mu.Unlock()
		}, 2, 2, 16, 16, 4, 4)
		if count != 2*2*16*16 {
			t.Fatalf("round %d: covered %d cells, want %d", round, count, 2*2*16*16)
		}
	}
}
