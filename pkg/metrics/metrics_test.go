package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.FlashOp("read", nil)
	m.FlashRetry()
	m.StoreSave("channel", errors.New("x"))
	m.SetContacts("group", 3)
	m.SetChannelsInUse(1)
	m.ModeChange("analog")
	m.SetSquelchOpen(true)
	m.SetTransmitting(true)
	m.SetSignal(1, 2)
}

func TestCollectorsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.FlashOp("write", nil)
	m.FlashOp("write", nil)
	m.FlashOp("write", errors.New("timeout"))
	m.StoreSave("contact", nil)
	m.SetContacts("group", 7)
	m.SetSquelchOpen(true)
	m.SetSignal(120, 40)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.flashOps.WithLabelValues("write", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.flashOps.WithLabelValues("write", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeSaves.WithLabelValues("contact", "ok")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.contacts.WithLabelValues("group")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.squelchOpen))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.rssi))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.noise))
}
