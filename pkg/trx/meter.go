package trx

import (
	"fmt"
	"math"
)

// S-meter scale in dBm, 6 dB per S unit.
const (
	SMeterS0     = -147
	SMeterS9     = -93
	SMeterDBPerS = 6
)

const (
	meterThreshold = 12   // dB; larger steps take the fast coefficient
	meterKFast     = 0.6  // new carrier
	meterKSlow     = 0.15 // fading
)

// SignalMeter smooths RSSI readings for display. Large jumps are followed
// quickly while small variations are damped.
type SignalMeter struct {
	value  float64
	primed bool
}

// Update folds in a reading in dBm and returns the smoothed value.
func (m *SignalMeter) Update(dBm int) float64 {
	v := float64(dBm)
	if !m.primed {
		m.value = v
		m.primed = true
		return v
	}

	k := meterKSlow
	if math.Abs(v-m.value) > meterThreshold {
		k = meterKFast
	}
	m.value += (v - m.value) * k
	return m.value
}

// Value returns the smoothed level in dBm.
func (m *SignalMeter) Value() float64 {
	return m.value
}

// Reset discards the history.
func (m *SignalMeter) Reset() {
	*m = SignalMeter{}
}

// Bar scales the smoothed level between S0 and S9 to 0..span.
func (m *SignalMeter) Bar(span int) int {
	v := int(math.Round(m.value)) - SMeterS0
	v = min(max(v, 0), SMeterS9-SMeterS0)
	return v * span / (SMeterS9 - SMeterS0)
}

// String formats the level as S units, e.g. "S5" or "S9+20".
func (m *SignalMeter) String() string {
	v := int(math.Round(m.value))
	if v > SMeterS9 {
		return fmt.Sprintf("S9+%d", (v-SMeterS9)/10*10)
	}
	s := (v - SMeterS0) / SMeterDBPerS
	return fmt.Sprintf("S%d", max(s, 0))
}
