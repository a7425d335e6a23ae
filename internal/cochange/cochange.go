// Package cochange implements the Co-change Miner (spec §4.10, see
// GLOSSARY): pairwise file co-change frequency mined from VCS log
// history, grounded on the teacher's internal/git frequency provider.
package cochange

import (
	"context"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/owayo/astro-sight/internal/gitremote"
	"github.com/owayo/astro-sight/internal/types"
)

const (
	defaultLookback      = 100
	defaultMinConfidence = 0.1
)

// Options configures a Mine call; zero values fall back to the spec
// defaults (lookback 100 commits, min_confidence 0.1).
type Options struct {
	Lookback      int
	MinConfidence float64
	// PathFilter, if non-empty, restricts mined history to commits
	// touching this path and retains only pairs involving it.
	PathFilter string
}

// Mine computes co-change pairs over the last Lookback commits,
// filtering by MinConfidence, sorted by confidence then co-change
// count (descending).
func Mine(ctx context.Context, root string, opts Options) ([]types.CoChangePair, error) {
	lookback := opts.Lookback
	if lookback <= 0 {
		lookback = defaultLookback
	}
	minConfidence := opts.MinConfidence
	if minConfidence <= 0 {
		minConfidence = defaultMinConfidence
	}

	repo := gitremote.Open(root)
	commits, err := repo.Log(ctx, lookback, opts.PathFilter)
	if err != nil {
		return nil, err
	}

	total := map[string]int{}
	co := map[uint64][]*pairCount{}

	for _, c := range commits {
		seen := dedupe(c.Paths)
		for _, p := range seen {
			total[p]++
		}
		for i := 0; i < len(seen); i++ {
			for j := i + 1; j < len(seen); j++ {
				a, b := orderPair(seen[i], seen[j])
				h := pairHash(a, b)
				var pc *pairCount
				for _, cand := range co[h] {
					if cand.a == a && cand.b == b {
						pc = cand
						break
					}
				}
				if pc == nil {
					pc = &pairCount{a: a, b: b}
					co[h] = append(co[h], pc)
				}
				pc.count++
			}
		}
	}

	var counts []*pairCount
	for _, bucket := range co {
		counts = append(counts, bucket...)
	}
	var pairs []types.CoChangePair
	for _, pc := range counts {
		a, b := total[pc.a], total[pc.b]
		maxTotal := a
		if b > maxTotal {
			maxTotal = b
		}
		if maxTotal == 0 {
			continue
		}
		confidence := float64(pc.count) / float64(maxTotal)
		if confidence < minConfidence {
			continue
		}
		if opts.PathFilter != "" && pc.a != opts.PathFilter && pc.b != opts.PathFilter {
			continue
		}
		pairs = append(pairs, types.CoChangePair{
			FileA: pc.a, FileB: pc.b, CoChanges: pc.count,
			TotalA: a, TotalB: b, Confidence: confidence,
		})
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].Confidence != pairs[j].Confidence {
			return pairs[i].Confidence > pairs[j].Confidence
		}
		if pairs[i].CoChanges != pairs[j].CoChanges {
			return pairs[i].CoChanges > pairs[j].CoChanges
		}
		if pairs[i].FileA != pairs[j].FileA {
			return pairs[i].FileA < pairs[j].FileA
		}
		return pairs[i].FileB < pairs[j].FileB
	})
	return pairs, nil
}

// pairCount accumulates one unordered file pair's co-change count; the
// map is keyed by pairHash rather than the pair itself, and the stored
// paths are compared within a hash bucket so colliding pairs stay apart.
type pairCount struct {
	a, b  string
	count int
}

// orderPair orders the pair lexically so (x,y) and (y,x) hash and
// accumulate identically.
func orderPair(x, y string) (string, string) {
	if x < y {
		return x, y
	}
	return y, x
}

// pairHash is a fast, non-cryptographic map key for a file pair,
// distinct from the artifact cache's BLAKE3 content hash.
func pairHash(a, b string) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(a)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(b)
	return h.Sum64()
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
