// Package calibration collects raw pressure readings per zone and recommends
// thresholds. Recommendations are advisory; nothing here changes the sensor
// map or the zone thresholds.
package calibration

import (
	"sort"
	"sync"

	"github.com/okian/bullseye/internal/domain/zone"
)

// UnknownBucket holds readings from sensors outside the sensor map.
const UnknownBucket = "unknown"

// ThresholdRatio is applied to the mean reading to get the recommendation.
const ThresholdRatio = 0.7

// Stat summarises the readings of one bucket.
type Stat struct {
	Bucket               string
	Samples              int
	Mean                 float64
	Min                  int
	Max                  int
	RecommendedThreshold int
	CurrentThreshold     int // 0 for the unknown bucket
}

// Collector buckets readings by zone name. It is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	buckets map[string][]int
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{buckets: make(map[string][]int)}
}

// Add records a reading for a resolved zone.
func (c *Collector) Add(z zone.Zone, pressure int) {
	c.add(z.String(), pressure)
}

// AddUnknown records a reading from an unmapped sensor.
func (c *Collector) AddUnknown(pressure int) {
	c.add(UnknownBucket, pressure)
}

func (c *Collector) add(bucket string, pressure int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buckets[bucket] = append(c.buckets[bucket], pressure)
}

// Samples returns how many readings were collected overall.
func (c *Collector) Samples() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, readings := range c.buckets {
		n += len(readings)
	}
	return n
}

// Report computes one Stat per non-empty bucket, zones from the centre
// outwards followed by the unknown bucket.
func (c *Collector) Report() []Stat {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := make([]Stat, 0, len(c.buckets))
	for bucket, readings := range c.buckets {
		if len(readings) == 0 {
			continue
		}
		st := summarise(bucket, readings)
		if z, err := zone.Parse(bucket); err == nil {
			st.CurrentThreshold = z.Threshold()
		}
		stats = append(stats, st)
	}

	sort.Slice(stats, func(i, j int) bool {
		return bucketOrder(stats[i].Bucket) < bucketOrder(stats[j].Bucket)
	})
	return stats
}

// Recommend returns int(mean * ThresholdRatio).
func Recommend(mean float64) int {
	return int(mean * ThresholdRatio)
}

func summarise(bucket string, readings []int) Stat {
	st := Stat{Bucket: bucket, Samples: len(readings), Min: readings[0], Max: readings[0]}
	sum := 0
	for _, r := range readings {
		sum += r
		st.Min = min(st.Min, r)
		st.Max = max(st.Max, r)
	}
	st.Mean = float64(sum) / float64(len(readings))
	st.RecommendedThreshold = Recommend(st.Mean)
	return st
}

func bucketOrder(bucket string) int {
	if z, err := zone.Parse(bucket); err == nil {
		return int(z)
	}
	return len(zone.All()) + 1
}
