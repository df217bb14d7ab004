// Package partition implements SRLA's variable block-size search: a
// shortest-path search over an encode-cost graph built from one lookahead
// window, grounded on spec.md §4.10 and
// original_source/libs/srla_encoder/src/srla_encoder.c
// (SRLAEncoder_SearchOptimalBlockPartitions-equivalent flow).
package partition

import (
	"math"

	"github.com/mewkiz/pkg/errutil"

	"github.com/srla-audio/srla/internal/block"
)

// Plan is one chosen block: its sample span [Start, Start+Length) within
// the lookahead window, its encoded Type, and its payload bytes (already
// computed, so the caller need not re-encode).
type Plan struct {
	Start   int
	Length  int
	Type    block.Type
	Payload []byte
}

// Search partitions channels (a lookahead window of L samples) into blocks
// of at most maxBlockSamples and at least minBlockSamples (both assumed to
// divide L except for a final partial block), minimising total encoded
// byte size via Dijkstra's algorithm over the n = L/m + 1 boundary nodes,
// per spec.md §4.10.
//
// Edge weights are obtained by a full BlockCodec encode of the candidate
// span rather than a separate size-only pass: the reference codec's
// "calculate_work_size"-style size query has no Go equivalent here, and
// encoding at every candidate span keeps this search correct without a
// second code path to keep in sync.
func Search(cfg block.Config, channels [][]int32, minBlockSamples, maxBlockSamples int) ([]Plan, error) {
	total := 0
	if len(channels) > 0 {
		total = len(channels[0])
	}
	if total == 0 {
		return nil, nil
	}
	if minBlockSamples <= 0 {
		minBlockSamples = total
	}
	if maxBlockSamples <= 0 || maxBlockSamples > total {
		maxBlockSamples = total
	}

	n := (total + minBlockSamples - 1) / minBlockSamples
	nodes := n + 1 // boundary indices 0..n, node i is sample i*minBlockSamples (clamped)

	boundary := func(i int) int {
		s := i * minBlockSamples
		if s > total {
			s = total
		}
		return s
	}

	type edge struct {
		to      int
		payload []byte
		typ     block.Type
	}
	edges := make([][]edge, nodes)

	for i := 0; i < nodes; i++ {
		start := boundary(i)
		if start >= total {
			continue
		}
		for j := i + 1; j < nodes; j++ {
			end := boundary(j)
			span := end - start
			if span <= 0 {
				continue
			}
			if span > maxBlockSamples {
				break
			}
			sub := make([][]int32, len(channels))
			for c := range channels {
				sub[c] = channels[c][start:end]
			}
			typ, payload, err := block.EncodeBlock(cfg, sub)
			if err != nil {
				return nil, err
			}
			edges[i] = append(edges[i], edge{to: j, payload: payload, typ: typ})
		}
	}

	// Dijkstra with a linear scan: node count is small (a lookahead window
	// divided by the minimum block size).
	const inf = math.MaxInt64
	dist := make([]int64, nodes)
	prevNode := make([]int, nodes)
	visited := make([]bool, nodes)
	for i := range dist {
		dist[i] = inf
		prevNode[i] = -1
	}
	dist[0] = 0

	for {
		u, best := -1, int64(inf)
		for i := 0; i < nodes; i++ {
			if !visited[i] && dist[i] < best {
				u, best = i, dist[i]
			}
		}
		if u == -1 {
			break
		}
		visited[u] = true
		if u == nodes-1 {
			break
		}
		for _, e := range edges[u] {
			w := int64(len(e.payload)) + 11 // + BlockHeader size
			if dist[u]+w < dist[e.to] {
				dist[e.to] = dist[u] + w
				prevNode[e.to] = u
			}
		}
	}

	if dist[nodes-1] == inf {
		return nil, errNoPath
	}

	var chain []int
	for v := nodes - 1; v != 0; v = prevNode[v] {
		chain = append([]int{v}, chain...)
	}
	chain = append([]int{0}, chain...)

	var plans []Plan
	for k := 0; k < len(chain)-1; k++ {
		u, v := chain[k], chain[k+1]
		ei := -1
		for idx := range edges[u] {
			if edges[u][idx].to == v {
				ei = idx
				break
			}
		}
		if ei == -1 {
			return nil, errNoPath
		}
		e := edges[u][ei]
		plans = append(plans, Plan{
			Start:   boundary(u),
			Length:  boundary(v) - boundary(u),
			Type:    e.typ,
			Payload: e.payload,
		})
	}
	return plans, nil
}

var errNoPath = errutil.New("partition: no path spans the full lookahead window within the block-size bounds")
