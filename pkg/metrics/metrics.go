// Package metrics exposes prometheus collectors for the flash driver, the
// record store and the transceiver. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector used by trxcore.
type Metrics struct {
	flashOps      *prometheus.CounterVec
	flashRetries  prometheus.Counter
	storeSaves    *prometheus.CounterVec
	contacts      *prometheus.GaugeVec
	channelsInUse prometheus.Gauge
	modeChanges   *prometheus.CounterVec
	squelchOpen   prometheus.Gauge
	transmitting  prometheus.Gauge
	rssi          prometheus.Gauge
	noise         prometheus.Gauge
}

// New creates and registers all collectors on reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		flashOps: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trx_flash_operations_total",
				Help: "SPI flash operations by type and result",
			},
			[]string{"op", "result"},
		),
		flashRetries: f.NewCounter(
			prometheus.CounterOpts{
				Name: "trx_flash_retries_total",
				Help: "SPI flash operation retries",
			},
		),
		storeSaves: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trx_codeplug_saves_total",
				Help: "Codeplug record saves by record type and result",
			},
			[]string{"record", "result"},
		),
		contacts: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trx_codeplug_contacts",
				Help: "Cached contacts by call type",
			},
			[]string{"type"},
		),
		channelsInUse: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "trx_codeplug_channels_in_use",
				Help: "Channels marked in use across all banks",
			},
		),
		modeChanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trx_mode_changes_total",
				Help: "Transceiver mode reprogrammings by target mode",
			},
			[]string{"mode"},
		),
		squelchOpen: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "trx_squelch_open",
				Help: "1 while the receive audio path is open",
			},
		),
		transmitting: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "trx_transmitting",
				Help: "1 while transmission is enabled",
			},
		),
		rssi: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "trx_rssi_raw",
				Help: "Last raw RSSI reading",
			},
		),
		noise: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "trx_noise_raw",
				Help: "Last raw noise reading",
			},
		),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// FlashOp records the outcome of a flash operation.
func (m *Metrics) FlashOp(op string, err error) {
	if m == nil {
		return
	}
	m.flashOps.WithLabelValues(op, result(err)).Inc()
}

// FlashRetry counts one retry.
func (m *Metrics) FlashRetry() {
	if m == nil {
		return
	}
	m.flashRetries.Inc()
}

// StoreSave records the outcome of a record save.
func (m *Metrics) StoreSave(record string, err error) {
	if m == nil {
		return
	}
	m.storeSaves.WithLabelValues(record, result(err)).Inc()
}

// SetContacts sets the cached contact count for a call type.
func (m *Metrics) SetContacts(callType string, n int) {
	if m == nil {
		return
	}
	m.contacts.WithLabelValues(callType).Set(float64(n))
}

// SetChannelsInUse sets the in-use channel count.
func (m *Metrics) SetChannelsInUse(n int) {
	if m == nil {
		return
	}
	m.channelsInUse.Set(float64(n))
}

// ModeChange counts a full reprogramming into mode.
func (m *Metrics) ModeChange(mode string) {
	if m == nil {
		return
	}
	m.modeChanges.WithLabelValues(mode).Inc()
}

// SetSquelchOpen records the receive audio gate state.
func (m *Metrics) SetSquelchOpen(open bool) {
	if m == nil {
		return
	}
	m.squelchOpen.Set(boolGauge(open))
}

// SetTransmitting records whether transmission is enabled.
func (m *Metrics) SetTransmitting(tx bool) {
	if m == nil {
		return
	}
	m.transmitting.Set(boolGauge(tx))
}

// SetSignal records the last raw RSSI and noise readings.
func (m *Metrics) SetSignal(rssi, noise uint8) {
	if m == nil {
		return
	}
	m.rssi.Set(float64(rssi))
	m.noise.Set(float64(noise))
}
