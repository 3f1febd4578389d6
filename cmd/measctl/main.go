// Command measctl runs the measurement superloop: a VNA and SA channel
// driven from either a pure-Go synthetic signal path or real hardware,
// configured from a YAML file, grounded on the teacher's direwolf.go
// flag/startup sequence (pflag parsing, then a single blocking run loop).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/brutella/dnssd"
	charmlog "github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
	"github.com/spf13/pflag"

	"github.com/samoyed-instruments/meascore/calibration"
	"github.com/samoyed-instruments/meascore/channel"
	"github.com/samoyed-instruments/meascore/core"
	"github.com/samoyed-instruments/meascore/dsp"
	"github.com/samoyed-instruments/meascore/eventbus"
	"github.com/samoyed-instruments/meascore/hal"
	"github.com/samoyed-instruments/meascore/kernel"
	"github.com/samoyed-instruments/meascore/status"
	"github.com/samoyed-instruments/meascore/trace"
	"github.com/samoyed-instruments/meascore/variant"
)

var log = charmlog.NewWithOptions(os.Stderr, charmlog.Options{Prefix: "measctl"})

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "path to a measctl YAML config file")
		backend    = pflag.String("backend", "", "override config backend: synthetic|hardware")
		once       = pflag.Bool("once", false, "run a single sweep on each channel, then exit")
		logLevel   = pflag.String("log-level", "info", "log level: debug|info|warn|error")
	)
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: measctl [flags]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if lvl, err := charmlog.ParseLevel(*logLevel); err == nil {
		log.SetLevel(lvl)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal("load config", "err", err)
	}
	if *backend != "" {
		cfg.Backend = *backend
	}

	app, err := buildApp(cfg)
	if err != nil {
		log.Fatal("build app", "err", err)
	}
	defer app.Close()

	if cfg.DNSSD.Enabled {
		announceDNSSD(cfg)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *once {
		runOnce(app)
		return
	}
	runForever(ctx, app)
}

// app bundles the wiring buildApp produces: the scheduler plus anything
// that needs explicit cleanup at shutdown.
type app struct {
	sched     *core.Scheduler
	vna       *channel.VNA
	sa        *channel.SA
	vnaTrace  *trace.Trace
	saTrace   *trace.Trace
	link      hal.Link
	udevStop  chan struct{}
	closers   []func() error
	paStarted bool
}

func (a *app) Close() {
	if a.udevStop != nil {
		close(a.udevStop)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn("close", "err", err)
		}
	}
	if a.paStarted {
		portaudio.Terminate()
	}
}

func buildApp(cfg Config) (*app, error) {
	a := &app{}

	table := &dsp.SineTable{}
	table.InitSharedSineTable()

	bus := &eventbus.Bus{}
	bus.Subscribe(0, false, func(ev *eventbus.Event, _ any) {
		log.Debug("event", "kind", ev.Kind, "source", ev.Source)
	}, nil)

	var synth hal.Synthesizer
	var sw hal.FrontEndSwitch
	var vnaRX, saRX hal.Receiver

	switch cfg.Backend {
	case "", "synthetic":
		synth = &syntheticSynth{}
		sw = &syntheticSwitch{}
		vnaRX = &syntheticVNAReceiver{table: table, phaseStep: 37}
		saRX = &syntheticSAReceiver{toneHz: cfg.SA.CenterHz / 1000, sampleRate: cfg.SA.SampleRate}
		a.link = &syntheticLink{}

	case "hardware":
		if cfg.Hardware.HamlibModel != 0 {
			hs, err := hal.OpenHamlibSynth(cfg.Hardware.HamlibModel, cfg.Hardware.HamlibPort)
			if err != nil {
				return nil, fmt.Errorf("measctl: open hamlib synth: %w", err)
			}
			synth = hs
			a.closers = append(a.closers, hs.Close)
		} else {
			synth = &syntheticSynth{}
		}

		if err := portaudio.Initialize(); err != nil {
			return nil, fmt.Errorf("measctl: init portaudio: %w", err)
		}
		a.paStarted = true
		pa, err := hal.NewPortaudioReceiver(kernel.R(cfg.SA.SampleRate))
		if err != nil {
			return nil, fmt.Errorf("measctl: open portaudio receiver: %w", err)
		}
		vnaRX = pa
		saRX = pa
		a.closers = append(a.closers, pa.Close)

		if cfg.Hardware.SerialDevice != "" {
			link, err := hal.OpenSerialLink(cfg.Hardware.SerialDevice, cfg.Hardware.SerialBaud)
			if err != nil {
				return nil, fmt.Errorf("measctl: open serial link: %w", err)
			}
			a.link = link
			a.closers = append(a.closers, link.Close)

			a.udevStop = make(chan struct{})
			go watchSerialHotplug(a.udevStop)
		}

		// Front-end path selection prefers a dedicated GPIO relay board;
		// falling back to a serial port's RTS/DTR lines only when both a
		// link is open and no GPIO chip was configured.
		if cfg.Hardware.GPIOChip != "" {
			gs, err := hal.OpenGPIOSwitch(cfg.Hardware.GPIOChip, cfg.Hardware.GPIOOffsets)
			if err != nil {
				return nil, fmt.Errorf("measctl: open gpio switch: %w", err)
			}
			sw = gs
			a.closers = append(a.closers, gs.Close)
		} else if a.link != nil {
			if sl, ok := a.link.(*hal.SerialLink); ok {
				sw = &hal.SerialLineSwitch{Link: sl}
			}
		}
		if sw == nil {
			sw = &syntheticSwitch{}
		}

	default:
		return nil, fmt.Errorf("measctl: unknown backend %q", cfg.Backend)
	}
	if sw == nil {
		sw = &syntheticSwitch{}
	}
	if st := sw.SetPath(0); st != status.Ok {
		log.Warn("front-end switch: failed to select default path", "status", st)
	}

	vnaX := make([]kernel.R, cfg.VNA.Points)
	vnaY := make([]kernel.C, cfg.VNA.Points)
	a.vnaTrace = trace.NewTraceComplex(vnaX, vnaY)

	vnaCoeffs := make([]calibration.Coeffs, cfg.VNA.Points)
	var cal *calibration.Calibration
	if cfg.CalibrationFile != "" {
		f, err := os.Open(cfg.CalibrationFile)
		if err != nil {
			log.Warn("no calibration file, running uncorrected", "path", cfg.CalibrationFile, "err", err)
		} else {
			points, startHz, stopHz, err := calibration.ReadFile(f, vnaCoeffs)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("measctl: read calibration file: %w", err)
			}
			cal = calibration.New(points, vnaCoeffs, nil, nil, nil, nil, nil)
			log.Info("loaded calibration", "points", points, "start_hz", startHz, "stop_hz", stopHz)
		}
	}

	a.vna = &channel.VNA{
		ChannelID:    1,
		Bus:          bus,
		Synth:        synth,
		RX:           vnaRX,
		Table:        table,
		DDCPhaseStep: 37,
		Cal:          cal,
		Trace:        a.vnaTrace,
	}
	vnaBuf := make([]int16, 4096)
	a.vna.SetProperty(channel.PropBufferPtr, variant.Ptr(vnaBuf))
	a.vna.SetProperty(channel.PropBufferCap, variant.Int64(int64(len(vnaBuf))))
	a.vna.SetProperty(channel.PropStartFreq, variant.Real(kernel.R(cfg.VNA.StartHz)))
	a.vna.SetProperty(channel.PropStopFreq, variant.Real(kernel.R(cfg.VNA.StopHz)))
	a.vna.SetProperty(channel.PropPoints, variant.Int64(int64(cfg.VNA.Points)))
	if st := a.vna.Configure(); st != status.Ok {
		return nil, fmt.Errorf("measctl: configure vna channel failed: %v", st)
	}

	saX := make([]kernel.R, cfg.SA.FFTLength)
	saY := make([]kernel.R, cfg.SA.FFTLength)
	a.saTrace = trace.NewTraceReal(saX, saY)

	a.sa = &channel.SA{
		ChannelID:  2,
		Bus:        bus,
		Synth:      synth,
		RX:         saRX,
		FFTLength:  cfg.SA.FFTLength,
		WindowKind: dsp.Hann,
		CenterHz:   kernel.R(cfg.SA.CenterHz),
		SampleRate: kernel.R(cfg.SA.SampleRate),
		Trace:      a.saTrace,
	}
	saBuf := make([]int16, cfg.SA.FFTLength)
	a.sa.SetProperty(channel.PropBufferPtr, variant.Ptr(saBuf))
	if st := a.sa.Configure(); st != status.Ok {
		return nil, fmt.Errorf("measctl: configure sa channel failed: %v", st)
	}

	a.sched = core.New(bus, a.idleHook, a.vna, a.sa)
	return a, nil
}

// idleHook is invoked once per superloop iteration and polls the host link
// for inbound bytes, matching the superloop's "never block waiting on the
// link" model. The synthetic backend binds an in-process loopback link, so
// this path runs (and returns Pending, not an error) whenever nothing has
// been written to it.
func (a *app) idleHook() {
	if a.link == nil || !a.link.IsConnected() {
		return
	}
	var buf [256]byte
	n, st := a.link.Recv(buf[:])
	if st == status.Ok && n > 0 {
		log.Debug("link: received bytes", "n", n)
	}
}

func runOnce(a *app) {
	a.vna.StartSweep()
	a.sched.RunUntilIdle(10_000)
	x, y, n := a.vnaTrace.Axes()
	log.Info("vna sweep done", "points", n)
	for i := 0; i < n; i++ {
		log.Info("point", "hz", x[i], "gamma_re", y[i].Re, "gamma_im", y[i].Im)
	}

	a.sa.StartSweep()
	a.sched.RunUntilIdle(10_000)
	_, _, sn := a.saTrace.AxesReal()
	log.Info("sa sweep done", "bins", sn)
}

func runForever(ctx context.Context, a *app) {
	a.vna.StartSweep()
	a.sa.StartSweep()
	a.sched.Run(func() bool {
		select {
		case <-ctx.Done():
			return true
		default:
		}
		if a.vna.State() == channel.Idle {
			a.vna.StartSweep()
		}
		if a.sa.State() == channel.Idle {
			a.sa.StartSweep()
		}
		return false
	})
}

func announceDNSSD(cfg Config) {
	name := cfg.DNSSD.Name
	if name == "" {
		name = "meascore"
	}
	sv, err := dnssd.NewService(dnssd.Config{
		Name: name,
		Type: "_meascore._tcp",
		Port: cfg.DNSSD.Port,
	})
	if err != nil {
		log.Warn("dns-sd: create service", "err", err)
		return
	}
	rp, err := dnssd.NewResponder()
	if err != nil {
		log.Warn("dns-sd: create responder", "err", err)
		return
	}
	if _, err := rp.Add(sv); err != nil {
		log.Warn("dns-sd: add service", "err", err)
		return
	}
	log.Info("dns-sd: announcing", "name", name, "port", cfg.DNSSD.Port)
	go func() {
		if err := rp.Respond(context.Background()); err != nil {
			log.Warn("dns-sd: responder stopped", "err", err)
		}
	}()
}
