// trx-sim: Run the transceiver against simulated chips
//
// This tool tunes the transceiver to a codeplug channel or a frequency and
// runs the receive loop against an in-memory AT1846S and HR-C6000. A
// carrier can be injected on a schedule to watch the squelch open and
// close, and the control lines can be driven through real GPIO lines.
// Metrics are served for Prometheus and the final register state can be
// saved as a snapshot.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/herlein/trxcore/pkg/board"
	"github.com/herlein/trxcore/pkg/calibration"
	"github.com/herlein/trxcore/pkg/codeplug"
	"github.com/herlein/trxcore/pkg/config"
	"github.com/herlein/trxcore/pkg/critical"
	"github.com/herlein/trxcore/pkg/gpio"
	"github.com/herlein/trxcore/pkg/metrics"
	"github.com/herlein/trxcore/pkg/spiflash"
	"github.com/herlein/trxcore/pkg/ticks"
	"github.com/herlein/trxcore/pkg/trx"
)

var (
	configPath   = pflag.StringP("config", "c", "", "Configuration file (default: "+config.DefaultPath()+")")
	channelIndex = pflag.Int("channel", 0, "Codeplug channel to tune (0 uses --freq)")
	frequency    = pflag.Float64P("freq", "f", 438.5, "Receive frequency in MHz")
	txFrequency  = pflag.Float64("tx-freq", 0, "Transmit frequency in MHz (default: receive)")
	digital      = pflag.Bool("dmr", false, "Tune in DMR mode")
	wide         = pflag.Bool("wide", false, "25 kHz bandwidth")
	rssi         = pflag.Uint8("rssi", 120, "Raw RSSI of the injected carrier")
	noise        = pflag.Uint8("noise", 40, "Raw noise of the injected carrier")
	css          = pflag.Bool("css", true, "Injected carrier carries the expected sub-audible code")
	carrierAt    = pflag.Duration("carrier-at", time.Second, "Inject the carrier after this delay (0 disables)")
	carrierFor   = pflag.Duration("carrier-for", 2*time.Second, "Carrier length")
	pttAt        = pflag.Duration("ptt-at", 0, "Transmit after this delay (0 disables)")
	pttFor       = pflag.Duration("ptt-for", time.Second, "Transmission length")
	duration     = pflag.DurationP("duration", "t", 5*time.Second, "Run time (0 runs until interrupted)")
	useGPIO      = pflag.Bool("gpio", false, "Drive the control lines through the configured GPIO chip")
	restore      = pflag.String("restore", "", "Load a register snapshot into the radio before tuning")
	snapshotOut  = pflag.StringP("snapshot", "o", "", "Save the final register snapshot to this file")
	verbose      = pflag.BoolP("verbose", "v", false, "Verbose output")
)

func main() {
	pflag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "trx-sim",
		Level:           cfg.Level(),
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
	})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, reg, logger)
	}

	cal := calibration.DefaultTable()
	if cfg.CalibrationFile != "" {
		if cal, err = calibration.LoadTable(cfg.CalibrationFile); err != nil {
			return err
		}
	}

	sim := board.NewSim()
	hw := sim.Hardware()
	if *useGPIO {
		if err := gpio.CheckAccess(cfg.GPIOChip); err != nil {
			return err
		}
		lines, err := gpio.RequestSet(cfg.GPIOChip, cfg.GPIOLines, "trx-sim")
		if err != nil {
			return err
		}
		defer lines.Close()
		hw = board.WithLines(hw, lines)
		logger.Info("Driving GPIO lines", "chip", cfg.GPIOChip)
	}

	if *restore != "" {
		snapshot, err := config.LoadSnapshot(*restore)
		if err != nil {
			return err
		}
		if err := config.ApplyToChip(sim.Radio, snapshot); err != nil {
			return err
		}
		logger.Info("Snapshot restored", "file", *restore, "taken", snapshot.Timestamp.Format(time.DateTime))
	}

	clock := ticks.NewSystemClock()
	opts := []trx.Option{
		trx.WithLogger(logger.WithPrefix("trx")),
		trx.WithMetrics(m),
		trx.WithPlatform(cfg.PlatformID()),
	}

	channel, err := selectChannel(cfg, m, logger, &opts)
	if err != nil {
		return err
	}

	tr := trx.New(hw, cal, clock, critical.New(), cfg.Radio, opts...)
	if err := tune(tr, channel); err != nil {
		return err
	}
	st := tr.State()
	logger.Info("Tuned",
		"channel", channel.Name,
		"rx", mhz(channel.RxFreq),
		"tx", mhz(channel.TxFreq),
		"mode", channel.Mode,
		"band", st.RxBand)

	sched := ticks.NewScheduler(clock, nil)
	schedule(sched, sim, tr, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var ctx context.Context
	var cancel context.CancelFunc
	if *duration > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), *duration)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
		fmt.Println("Running... (Press Ctrl+C to stop)")
	}
	defer cancel()

	ticker := time.NewTicker(trx.SamplePeriod * time.Millisecond)
	defer ticker.Stop()

	var meter trx.SignalMeter
	open := false
loop:
	for {
		select {
		case <-sigChan:
			fmt.Println("\nStopping...")
			break loop
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			sched.Handle()
			if tr.State().TransmissionEnabled {
				continue
			}
			now, err := poll(tr, channel.Mode)
			if err != nil {
				return err
			}
			meter.Update(tr.RSSIdBm())
			if now != open {
				r, n := tr.Signal()
				logger.Info("Squelch", "open", now, "rssi", tr.RSSIdBm(), "meter", meter.String(), "raw", r, "noise", n)
				open = now
			}
		}
	}

	if err := tr.RxAndTxOff(); err != nil {
		return err
	}
	if *snapshotOut == "" {
		return nil
	}
	snapshot, err := config.DumpFromChip(sim.Radio)
	if err != nil {
		return err
	}
	if err := config.SaveSnapshot(snapshot, *snapshotOut); err != nil {
		return err
	}
	fmt.Printf("Snapshot saved to: %s\n", *snapshotOut)
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.DefaultPath()
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// selectChannel returns the channel to tune: one read from the codeplug
// images when --channel is set, otherwise one built from the flags. User
// band limits stored in the codeplug are added to opts.
func selectChannel(cfg *config.Config, m *metrics.Metrics, logger *log.Logger, opts *[]trx.Option) (codeplug.Channel, error) {
	if *channelIndex == 0 {
		ch := codeplug.Channel{
			Name:   "VFO",
			RxFreq: uint32(*frequency*1e6 + 0.5),
			TxFreq: uint32(*frequency*1e6 + 0.5),
			Mode:   codeplug.RadioModeAnalog,
			RxTone: codeplug.CSSToneNone,
			TxTone: codeplug.CSSToneNone,
		}
		if *txFrequency != 0 {
			ch.TxFreq = uint32(*txFrequency*1e6 + 0.5)
		}
		if *digital {
			ch.Mode = codeplug.RadioModeDigital
		}
		if *wide {
			ch.SetFlag(codeplug.FlagBandwidth25k, 1)
		}
		return ch, nil
	}

	cp, err := cfg.OpenCodeplug(nil,
		[]spiflash.Option{spiflash.WithMetrics(m), spiflash.WithLogger(logger.WithPrefix("spiflash"))},
		codeplug.WithLogger(logger.WithPrefix("codeplug")),
		codeplug.WithMetrics(m))
	if err != nil {
		return codeplug.Channel{}, err
	}
	if raw, err := cp.Store.CustomData(codeplug.CustomDataBandLimits); err == nil {
		if bands, err := trx.ParseBandLimits(raw); err == nil {
			*opts = append(*opts, trx.WithUserBands(bands))
		}
	}
	return cp.Store.Channel(*channelIndex)
}

func tune(tr *trx.Transceiver, ch codeplug.Channel) error {
	tr.SetChannel(ch)
	if err := tr.SetModeAndBandwidth(ch.Mode, ch.Bandwidth25k()); err != nil {
		return err
	}
	if err := tr.SetFrequency(ch.RxFreq, ch.TxFreq, trx.DMRModeAuto); err != nil {
		return err
	}
	if ch.Mode == codeplug.RadioModeDigital {
		return tr.SetDMRColourCode(ch.RxColor)
	}
	if err := tr.SetRxCSS(ch.RxTone); err != nil {
		return err
	}
	return tr.SetTxCSS(ch.TxTone)
}

func poll(tr *trx.Transceiver, mode codeplug.RadioMode) (bool, error) {
	if mode == codeplug.RadioModeDigital {
		if err := tr.ReadRSSIAndNoise(false); err != nil {
			return false, err
		}
		return tr.CheckDigitalSquelch()
	}
	return tr.CheckAnalogSquelch()
}

// schedule arms the carrier and PTT events.
func schedule(sched *ticks.Scheduler, sim *board.Sim, tr *trx.Transceiver, logger *log.Logger) {
	if *carrierAt > 0 {
		sched.Add("carrier-on", func() {
			logger.Debug("Carrier on", "rssi", *rssi, "noise", *noise)
			sim.Radio.SetSignal(*rssi, *noise)
			sim.Radio.SetCSSDetected(*css)
			sched.Add("carrier-off", func() {
				logger.Debug("Carrier off")
				sim.Radio.SetSignal(0, 0xFF)
				sim.Radio.SetCSSDetected(false)
			}, millis(*carrierFor), ticks.ContextAny, false)
		}, millis(*carrierAt), ticks.ContextAny, false)
	}

	if *pttAt > 0 {
		sched.Add("ptt-on", func() {
			if err := tr.EnableTransmission(); err != nil {
				logger.Error("Transmit failed", "err", err)
				return
			}
			logger.Info("Transmitting", "pa", tr.PADrive(), "power", tr.PowerLevel())
			sched.Add("ptt-off", func() {
				if err := tr.DisableTransmission(); err != nil {
					logger.Error("Receive failed", "err", err)
					return
				}
				logger.Info("Receiving")
			}, millis(*pttFor), ticks.ContextAny, false)
		}, millis(*pttAt), ticks.ContextAny, false)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	logger.Info("Serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("Metrics server stopped", "err", err)
	}
}

func millis(d time.Duration) uint32 {
	return uint32(d / time.Millisecond)
}

func mhz(hz uint32) string {
	return fmt.Sprintf("%.5f", float64(hz)/1e6)
}
