package rules

import (
	"strings"
	"sync"

	"weblog-hunter/internal/model"
	"weblog-hunter/internal/rules/builtin"
	"weblog-hunter/internal/timebucket"
)

// accumulator holds everything one fold over a slice of records produces.
// Accumulators only ever combine by addition, so any split of the input
// merged back in order yields the same result as a single pass.
type accumulator struct {
	dirbust       *timebucket.Table
	bruteForce    *timebucket.Table
	loginFailures map[string]int
	hits          []*builtin.HitTable
}

func newAccumulator(window int64, matcherCount int) *accumulator {
	hits := make([]*builtin.HitTable, matcherCount)
	for i := range hits {
		hits[i] = builtin.NewHitTable()
	}
	return &accumulator{
		dirbust:       timebucket.NewTable(window),
		bruteForce:    timebucket.NewTable(window),
		loginFailures: make(map[string]int),
		hits:          hits,
	}
}

func fold(records []model.Record, window int64, loginHints []string, matchers []builtin.Matcher) *accumulator {
	acc := newAccumulator(window, len(matchers))
	for i := range records {
		acc.add(&records[i], loginHints, matchers)
	}
	return acc
}

// foldParallel folds contiguous chunks concurrently and merges them in chunk order
func foldParallel(records []model.Record, window int64, loginHints []string, matchers []builtin.Matcher, workers int) *accumulator {
	chunkSize := (len(records) + workers - 1) / workers
	var chunks [][]model.Record
	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}

	parts := make([]*accumulator, len(chunks))
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk []model.Record) {
			defer wg.Done()
			parts[i] = fold(chunk, window, loginHints, matchers)
		}(i, chunk)
	}
	wg.Wait()

	acc := parts[0]
	for _, part := range parts[1:] {
		acc.merge(part)
	}
	return acc
}

func (a *accumulator) add(record *model.Record, loginHints []string, matchers []builtin.Matcher) {
	epoch := record.Epoch()

	if record.Status == 404 {
		a.dirbust.Add(record.Host, epoch)
	}

	if record.Status == 401 && isLoginPath(record.Path, loginHints) {
		a.loginFailures[record.Host]++
		a.bruteForce.Add(record.Host, epoch)
	}

	for i, m := range matchers {
		if m.Match(record) {
			a.hits[i].Add(record.Host, 1)
		}
	}
}

func (a *accumulator) merge(other *accumulator) {
	a.dirbust.Merge(other.dirbust)
	a.bruteForce.Merge(other.bruteForce)
	for host, n := range other.loginFailures {
		a.loginFailures[host] += n
	}
	for i := range a.hits {
		a.hits[i].Merge(other.hits[i])
	}
}

func isLoginPath(path string, loginHints []string) bool {
	lower := strings.ToLower(path)
	for _, hint := range loginHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
