package layout

import (
	"fmt"
	"math"
	"sync"
)

type measureKey struct {
	text string
	font FontParams
}

// Meter memoises widths for one layout run and remembers the first measurer
// failure. Failed measurements count as zero width so breaking can finish;
// Build reports the failure afterwards.
type Meter struct {
	ms Measurer

	mu     sync.Mutex
	widths map[measureKey]float64
	err    error
}

// NewMeter wraps ms.
func NewMeter(ms Measurer) *Meter {
	return &Meter{ms: ms, widths: map[measureKey]float64{}}
}

// Width returns the width of text in font, measuring it at most once.
func (m *Meter) Width(text string, font FontParams) float64 {
	if m == nil || text == "" {
		return 0
	}
	key := measureKey{text, font}
	m.mu.Lock()
	if w, ok := m.widths[key]; ok {
		m.mu.Unlock()
		return w
	}
	m.mu.Unlock()

	metrics, err := m.ms.Measure(text, font)
	w := metrics.Width
	if err != nil || w < 0 || math.IsNaN(w) {
		w = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil && m.err == nil {
		m.err = fmt.Errorf("layout: measure %q: %w", text, err)
	}
	m.widths[key] = w
	return w
}

// Err returns the first measurement failure, if any.
func (m *Meter) Err() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}
