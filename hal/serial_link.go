package hal

import (
	"fmt"

	"github.com/pkg/term"
	"github.com/samoyed-instruments/meascore/status"
	"golang.org/x/sys/unix"
)

// SerialLink implements Link over a raw serial device, grounded on the
// teacher's serial_port.go open/write/read/close sequence (term.Open +
// RawMode, fd.Write, fd.Read) rather than the teacher's cgo termios path.
type SerialLink struct {
	fd *term.Term
}

// OpenSerialLink opens device at baud and puts it in raw mode. Unsupported
// baud rates are rejected outright rather than silently substituted, unlike
// the teacher's serial_port_open which falls back to 4800.
func OpenSerialLink(device string, baud int) (*SerialLink, error) {
	fd, err := term.Open(device, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("hal: open serial link %s: %w", device, err)
	}
	switch baud {
	case 0:
	case 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200, 230400:
		if err := fd.SetSpeed(baud); err != nil {
			fd.Close()
			return nil, fmt.Errorf("hal: set speed %d on %s: %w", baud, device, err)
		}
	default:
		fd.Close()
		return nil, fmt.Errorf("hal: unsupported baud rate %d", baud)
	}
	return &SerialLink{fd: fd}, nil
}

// Send writes buf to the serial device, returning Error if short-written.
func (l *SerialLink) Send(buf []byte) (int, status.Status) {
	n, err := l.fd.Write(buf)
	if err != nil || n != len(buf) {
		return n, status.Error
	}
	return n, status.Ok
}

// Recv reads up to len(buf) bytes, returning Pending on a would-block read
// (the host link is expected to be polled from the superloop's idle hook,
// never blocked on).
func (l *SerialLink) Recv(buf []byte) (int, status.Status) {
	n, err := l.fd.Read(buf)
	if err != nil {
		if n > 0 {
			return n, status.Ok
		}
		return 0, status.Pending
	}
	return n, status.Ok
}

// IsConnected reports whether the underlying descriptor is open.
func (l *SerialLink) IsConnected() bool { return l.fd != nil }

// Flush drains any buffered output.
func (l *SerialLink) Flush() status.Status {
	if l.fd == nil {
		return status.Error
	}
	if err := l.fd.Flush(); err != nil {
		return status.Error
	}
	return status.Ok
}

// Close releases the underlying serial descriptor.
func (l *SerialLink) Close() error {
	if l.fd == nil {
		return nil
	}
	return l.fd.Close()
}

// setModemLine toggles one RS-232 handshake line via TIOCMGET/TIOCMSET,
// grounded on the teacher's ptt.go _TIOCM/RTS_ON/RTS_OFF ioctl sequence.
func (l *SerialLink) setModemLine(bit int, on bool) status.Status {
	fd := int(l.fd.Fd())
	bits, err := unix.IoctlGetInt(fd, unix.TIOCMGET)
	if err != nil {
		return status.Error
	}
	if on {
		bits |= bit
	} else {
		bits &^= bit
	}
	if err := unix.IoctlSetInt(fd, unix.TIOCMSET, bits); err != nil {
		return status.Error
	}
	return status.Ok
}

// SetRTS drives the RTS handshake line, used as a zero-extra-hardware
// relay trigger for instruments whose front-end switch is wired off a
// serial port's handshake lines instead of a dedicated GPIO chip.
func (l *SerialLink) SetRTS(on bool) status.Status { return l.setModemLine(unix.TIOCM_RTS, on) }

// SetDTR drives the DTR handshake line, the second independent switch
// line available on a single serial port (teacher's ptt.go note: "If we
// have two radio channels and only one serial port, DTR can be used for
// the second channel").
func (l *SerialLink) SetDTR(on bool) status.Status { return l.setModemLine(unix.TIOCM_DTR, on) }

var _ FrontEndSwitch = (*SerialLineSwitch)(nil)

// SerialLineSwitch implements FrontEndSwitch over a serial port's RTS/DTR
// handshake lines instead of a dedicated GPIO chip, for instruments whose
// relay board is wired the way the teacher wires two PTT channels off one
// serial port: path 0 drives RTS, path 1 drives DTR, any other path is
// rejected.
type SerialLineSwitch struct {
	Link *SerialLink
}

// SetPath drives RTS (path 0) or DTR (path 1) high and the other line low.
func (s *SerialLineSwitch) SetPath(pathID int32) status.Status {
	switch pathID {
	case 0:
		if st := s.Link.SetDTR(false); st != status.Ok {
			return st
		}
		return s.Link.SetRTS(true)
	case 1:
		if st := s.Link.SetRTS(false); st != status.Ok {
			return st
		}
		return s.Link.SetDTR(true)
	default:
		return status.Error
	}
}
