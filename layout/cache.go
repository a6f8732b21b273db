package layout

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// CachedMeasurer memoises another Measurer by (text, font). It is safe for
// concurrent use; concurrent misses on the same key measure once.
type CachedMeasurer struct {
	next  Measurer
	group singleflight.Group
	cache sync.Map // measureKey -> Metrics
}

// NewCachedMeasurer wraps next. Errors are not cached.
func NewCachedMeasurer(next Measurer) *CachedMeasurer {
	return &CachedMeasurer{next: next}
}

func (c *CachedMeasurer) Measure(text string, font FontParams) (Metrics, error) {
	key := measureKey{text, font}
	if v, ok := c.cache.Load(key); ok {
		return v.(Metrics), nil
	}
	flightKey := fmt.Sprintf("%g|%d|%q|%t|%s", font.Size, font.Weight, font.Family, font.Italic, text)
	v, err, _ := c.group.Do(flightKey, func() (any, error) {
		m, err := c.next.Measure(text, font)
		if err != nil {
			return Metrics{}, err
		}
		c.cache.Store(key, m)
		return m, nil
	})
	if err != nil {
		return Metrics{}, err
	}
	return v.(Metrics), nil
}
