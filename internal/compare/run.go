package compare

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/reliquary/internal/snapshot"
)

// KindInstancePresence labels findings for instances that exist in only one
// snapshot.
const KindInstancePresence = "InstancePresence"

// Options configures a comparison run.
type Options struct {
	// Workers caps concurrent pair evaluation; values below 1 run serially.
	Workers int

	// Scrub also redacts both snapshots in place, so the caller can log or
	// persist them safely.
	Scrub bool
}

// Report is the outcome of comparing two snapshots.
type Report struct {
	// RunID correlates the report with log output.
	RunID string `json:"run_id"`

	// Findings holds every detected difference in stable order: by
	// InstanceID, then by comparator application order.
	Findings []Finding `json:"findings"`

	// Pairs is the number of instance pairs evaluated.
	Pairs int `json:"pairs"`
}

// Run compares two snapshot documents pairwise.
//
// Instances are paired by InstanceID; an instance present in only one
// snapshot yields an InstancePresence finding. Pair evaluation is
// embarrassingly parallel and fans out across Workers goroutines, then
// merges findings back in a stable order so output is deterministic
// regardless of scheduling.
//
// Run mutates the input slices only when Options.Scrub is set.
func Run(left, right []snapshot.Instance, plan *Plan, opts Options) *Report {
	report := &Report{RunID: uuid.NewString()}

	leftIdx := indexByID(left)
	rightIdx := indexByID(right)

	ids := make([]InstanceID, 0, len(leftIdx))
	for id := range leftIdx {
		ids = append(ids, id)
	}
	for id := range rightIdx {
		if _, ok := leftIdx[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Model != ids[j].Model {
			return ids[i].Model < ids[j].Model
		}
		return ids[i].PK < ids[j].PK
	})

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([][]Finding, len(ids))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id InstanceID) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			li, inLeft := leftIdx[id]
			ri, inRight := rightIdx[id]
			switch {
			case !inRight:
				results[i] = []Finding{{On: id, Kind: KindInstancePresence,
					Reason: fmt.Sprintf("the right snapshot is missing instance %s", id)}}
				if opts.Scrub {
					scrubOne(&left[li], plan)
				}
			case !inLeft:
				results[i] = []Finding{{On: id, Kind: KindInstancePresence,
					Reason: fmt.Sprintf("the left snapshot is missing instance %s", id)}}
				if opts.Scrub {
					scrubOne(&right[ri], plan)
				}
			default:
				results[i] = comparePair(id, left[li], right[ri], plan)
				if opts.Scrub {
					for _, cmp := range plan.Comparators(id.Model) {
						cmp.Scrub(&left[li], &right[ri])
					}
				}
			}
		}(i, id)
	}
	wg.Wait()

	for _, fs := range results {
		report.Findings = append(report.Findings, fs...)
	}
	report.Pairs = len(ids)

	return report
}

// comparePair applies the model's comparators in configured order:
// existence first, then the semantic compare.
func comparePair(id InstanceID, left, right snapshot.Instance, plan *Plan) []Finding {
	var findings []Finding
	for _, cmp := range plan.Comparators(id.Model) {
		findings = append(findings, cmp.Existence(id, left, right)...)
		findings = append(findings, cmp.Compare(id, left, right)...)
	}
	return findings
}

// scrubOne redacts an unpaired instance. Scrub is additive and idempotent,
// so applying it to the same instance on both sides of the call redacts it
// exactly once.
func scrubOne(inst *snapshot.Instance, plan *Plan) {
	for _, cmp := range plan.Comparators(inst.Model) {
		cmp.Scrub(inst, inst)
	}
}

func indexByID(instances []snapshot.Instance) map[InstanceID]int {
	idx := make(map[InstanceID]int, len(instances))
	for i, inst := range instances {
		idx[InstanceID{Model: inst.Model, PK: inst.PK}] = i
	}
	return idx
}
