package storage

// StreamStrategy names the scheme that assigns entries to logical ordered
// streams in the secondary index. WriteKey picks the index partition for a new
// entry given its sort-key value; ReadKeys lists the partitions a recent-read
// must cover.
type StreamStrategy interface {
	WriteKey(dateTime string) string
	ReadKeys() []string
}

// DefaultStream is the discriminator value of the production layout.
const DefaultStream = "LOG"

// SingleStream funnels every entry into one index partition so a single
// descending range query yields a correct global time order. Reads stay O(1)
// in total entry count at the price of one hot write partition. A
// time-bucketed strategy (WriteKey derived from the dateTime prefix, ReadKeys
// spanning recent buckets) is the replacement once write volume outgrows a
// single partition.
type SingleStream struct {
	Key string
}

func (s SingleStream) WriteKey(string) string { return s.Key }

func (s SingleStream) ReadKeys() []string { return []string{s.Key} }
