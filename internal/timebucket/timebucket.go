// Package timebucket groups per-host events into fixed, epoch-aligned tumbling windows.
//
// Bucket boundaries depend only on the window width, never on the first event, so two
// runs over the same data always agree. A burst straddling a boundary is split across
// two buckets.
package timebucket

// Event is one (host, epoch seconds) observation
type Event struct {
	Host  string
	Epoch int64
}

// BucketStart returns floor(t/window)*window. window must be positive.
func BucketStart(t, window int64) int64 {
	q := t / window
	if t%window != 0 && t < 0 {
		q--
	}
	return q * window
}

// Table maps host -> bucket start -> count, remembering hosts in first-seen order
type Table struct {
	window  int64
	buckets map[string]map[int64]int
	hosts   []string
}

func NewTable(window int64) *Table {
	return &Table{
		window:  window,
		buckets: make(map[string]map[int64]int),
	}
}

// Bucketize folds a sequence of events into a new table
func Bucketize(events []Event, window int64) *Table {
	table := NewTable(window)
	for _, ev := range events {
		table.Add(ev.Host, ev.Epoch)
	}
	return table
}

func (t *Table) Window() int64 {
	return t.window
}

// Add counts one event for host at epoch seconds ts
func (t *Table) Add(host string, ts int64) {
	t.addCount(host, BucketStart(ts, t.window), 1)
}

func (t *Table) addCount(host string, start int64, n int) {
	hostBuckets, exists := t.buckets[host]
	if !exists {
		hostBuckets = make(map[int64]int)
		t.buckets[host] = hostBuckets
		t.hosts = append(t.hosts, host)
	}
	hostBuckets[start] += n
}

// Merge adds every count of other into t. Hosts new to t are appended in other's order.
// Both tables must use the same window.
func (t *Table) Merge(other *Table) {
	for _, host := range other.hosts {
		for start, n := range other.buckets[host] {
			t.addCount(host, start, n)
		}
	}
}

// Hosts returns the hosts with at least one event, in first-seen order
func (t *Table) Hosts() []string {
	hosts := make([]string, len(t.hosts))
	copy(hosts, t.hosts)
	return hosts
}

// Buckets returns a copy of host's bucket counts
func (t *Table) Buckets(host string) map[int64]int {
	out := make(map[int64]int, len(t.buckets[host]))
	for start, n := range t.buckets[host] {
		out[start] = n
	}
	return out
}

// Peak returns the largest bucket count for host, 0 when host has no events
func (t *Table) Peak(host string) int {
	peak := 0
	for _, n := range t.buckets[host] {
		if n > peak {
			peak = n
		}
	}
	return peak
}

// Len returns the number of hosts in the table
func (t *Table) Len() int {
	return len(t.hosts)
}
