package resolve

import (
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/agnivade/levenshtein"

	"forge-rig/internal/rig"
)

// Config tunes the fuzzy matcher. Zero values fall back to defaults.
type Config struct {
	// Threshold is the minimum combined similarity for a fuzzy match.
	Threshold float64
	// TieEpsilon is the score window inside which hierarchy-depth
	// proximity breaks ties.
	TieEpsilon float64
}

const (
	defaultThreshold  = 0.62
	defaultTieEpsilon = 0.02
)

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = defaultThreshold
	}
	if c.TieEpsilon <= 0 {
		c.TieEpsilon = defaultTieEpsilon
	}
	return c
}

// Entry maps one source bone onto a target bone.
type Entry struct {
	Source  int
	Target  int
	Score   float64
	Concept string
}

// Table is a source→target bone correspondence. Many-to-one is allowed;
// source bones that found no acceptable target are listed in Unmapped,
// never silently dropped.
type Table struct {
	SourceConvention string
	TargetConvention string
	Entries          map[int]Entry
	Unmapped         []int

	sourceLen int
	targetLen int
}

// TargetFor returns the target bone index mapped to source bone src.
func (t *Table) TargetFor(src int) (int, bool) {
	e, ok := t.Entries[src]
	if !ok {
		return 0, false
	}
	return e.Target, true
}

// SourcesFor returns every source bone mapped onto target bone tgt,
// in source index order.
func (t *Table) SourcesFor(tgt int) []int {
	var out []int
	for src := 0; src < t.sourceLen; src++ {
		if e, ok := t.Entries[src]; ok && e.Target == tgt {
			out = append(out, src)
		}
	}
	return out
}

// conceptIndex maps squashed normalized alias → canonical concept.
var conceptIndex = buildConceptIndex()

func buildConceptIndex() map[string]string {
	idx := make(map[string]string, 256)
	for concept, aliases := range variationTable {
		for _, alias := range aliases {
			idx[squash(normalizeName(alias))] = concept
		}
	}
	return idx
}

// ConceptOf returns the canonical bone concept a name resolves to, or
// the empty string for unrecognized names.
func ConceptOf(name string) string {
	return conceptIndex[squash(normalizeName(name))]
}

// tableCache holds one immutable Table per (source, target) convention
// pair. Lazily built, never mutated after first build.
var tableCache sync.Map // map[[2]string]*Table

// Resolve maps every source bone onto the target skeleton and returns
// the correspondence table. Results are cached per convention pair when
// both skeletons carry a convention tag.
func Resolve(src, target *rig.Skeleton, cfg Config) *Table {
	key := [2]string{src.Convention, target.Convention}
	cacheable := key[0] != "" && key[1] != ""
	if cacheable {
		if cached, ok := tableCache.Load(key); ok {
			return cached.(*Table)
		}
	}

	table := build(src, target, cfg.withDefaults())
	if cacheable {
		actual, _ := tableCache.LoadOrStore(key, table)
		return actual.(*Table)
	}
	return table
}

// boneKey is a bone's precomputed matching identity.
type boneKey struct {
	tokens  []string
	squash  string
	concept string
	side    string
	depth   int
}

func keyOf(s *rig.Skeleton, i int) boneKey {
	tokens := normalizeName(s.Bones[i].Name)
	sq := squash(tokens)
	k := boneKey{tokens: tokens, squash: sq, concept: conceptIndex[sq], depth: s.Depth(i)}
	if len(tokens) > 0 && (tokens[0] == "left" || tokens[0] == "right") {
		k.side = tokens[0]
	}
	return k
}

func build(src, target *rig.Skeleton, cfg Config) *Table {
	table := &Table{
		SourceConvention: src.Convention,
		TargetConvention: target.Convention,
		Entries:          make(map[int]Entry, src.Len()),
		sourceLen:        src.Len(),
		targetLen:        target.Len(),
	}

	targetKeys := make([]boneKey, target.Len())
	for i := range targetKeys {
		targetKeys[i] = keyOf(target, i)
	}
	dice := metrics.NewSorensenDice()

	for si := 0; si < src.Len(); si++ {
		sk := keyOf(src, si)

		best, bestScore := -1, 0.0
		for ti := range targetKeys {
			tk := targetKeys[ti]
			// opposite sides never correspond, however close the spelling
			if sk.side != "" && tk.side != "" && sk.side != tk.side {
				continue
			}

			score := matchScore(sk, tk, dice)
			if score < cfg.Threshold {
				continue
			}
			switch {
			case score > bestScore+cfg.TieEpsilon:
				best, bestScore = ti, score
			case score > bestScore-cfg.TieEpsilon && best >= 0:
				// tie: prefer the candidate whose depth-from-root is closest
				if depthDist(sk, tk) < depthDist(sk, targetKeys[best]) {
					best, bestScore = ti, math.Max(score, bestScore)
				}
			}
		}

		if best < 0 {
			table.Unmapped = append(table.Unmapped, si)
			slog.Debug("resolve: unmapped bone", "bone", src.Bones[si].Name, "convention", src.Convention)
			continue
		}
		table.Entries[si] = Entry{Source: si, Target: best, Score: bestScore, Concept: sk.concept}
	}
	return table
}

func depthDist(a, b boneKey) int {
	d := a.depth - b.depth
	if d < 0 {
		d = -d
	}
	return d
}

// matchScore combines exact/concept identity, a per-token score and a
// bigram set similarity over the squashed names.
func matchScore(a, b boneKey, dice *metrics.SorensenDice) float64 {
	if a.squash != "" && a.squash == b.squash {
		return 1
	}
	if a.concept != "" && a.concept == b.concept {
		return 1
	}
	token := tokenScore(a.tokens, b.tokens)
	set := strutil.Similarity(a.squash, b.squash, dice)
	return 0.5*token + 0.5*set
}

// tokenScore averages the best per-token match: exact 1.0, prefix 0.9,
// otherwise a levenshtein penalty with a length-scaled distance cutoff.
func tokenScore(src, tgt []string) float64 {
	if len(src) == 0 || len(tgt) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range src {
		best := 0.0
		for _, t := range tgt {
			score := 0.0
			switch {
			case s == t:
				score = 1.0
			case len(s) >= 2 && strings.HasPrefix(t, s), len(t) >= 2 && strings.HasPrefix(s, t):
				score = 0.9
			default:
				dist := levenshtein.ComputeDistance(s, t)
				if dist <= levenshteinLimit(len(t)) {
					score = 0.72 - 0.08*float64(dist)
				}
			}
			if score > best {
				best = score
			}
		}
		total += best
	}
	n := len(src)
	if len(tgt) > n {
		n = len(tgt)
	}
	return total / float64(n)
}

func levenshteinLimit(candLen int) int {
	limit := candLen / 4
	if limit < 1 {
		limit = 1
	}
	return limit
}
