package hal

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/samoyed-instruments/meascore/kernel"
	"github.com/samoyed-instruments/meascore/status"
)

// PortaudioReceiver implements Receiver over the default sound-card input
// device, grounded on the teacher's use of a host audio stream as its
// sample source (src/audio.go's portaudio-backed build). Start copies the
// most recently completed callback period into the caller's buffer rather
// than blocking for one, keeping the FSM's Acquire state non-blocking.
type PortaudioReceiver struct {
	stream   *portaudio.Stream
	latest   []int16
	sampleHz kernel.R
}

// NewPortaudioReceiver opens (but does not yet start) an input-only stream
// at sampleRate on the default input device.
func NewPortaudioReceiver(sampleRate kernel.R) (*PortaudioReceiver, error) {
	r := &PortaudioReceiver{sampleHz: sampleRate}
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), portaudio.FramesPerBufferUnspecified, r.callback)
	if err != nil {
		return nil, fmt.Errorf("hal: open portaudio input stream: %w", err)
	}
	r.stream = stream
	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("hal: start portaudio input stream: %w", err)
	}
	return r, nil
}

func (r *PortaudioReceiver) callback(in []int16) {
	r.latest = append(r.latest[:0], in...)
}

// Configure is a no-op: the sample rate is fixed at stream-open time.
func (r *PortaudioReceiver) Configure(sampleRate kernel.R, decimation int32) status.Status {
	return status.Ok
}

// Start copies the most recently captured callback period into buf,
// zero-padding if the callback has not produced enough samples yet.
func (r *PortaudioReceiver) Start(buf []int16) status.Status {
	n := copy(buf, r.latest)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return status.Ok
}

// Stop is a no-op; the underlying stream keeps running so the next Start
// always has a fresh callback period available.
func (r *PortaudioReceiver) Stop() status.Status { return status.Ok }

// Close stops and releases the underlying stream.
func (r *PortaudioReceiver) Close() error {
	if r.stream == nil {
		return nil
	}
	if err := r.stream.Stop(); err != nil {
		return err
	}
	return r.stream.Close()
}
