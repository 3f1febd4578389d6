package main

import (
	"github.com/jochenvg/go-udev"
)

// watchSerialHotplug logs tty add/remove events on a background goroutine,
// so an operator replugging the instrument's USB-serial adapter shows up in
// the log instead of silently leaving the link stale. Grounded on the
// vishvananda/netlink-backed device monitor go-udev wraps; meascore only
// needs the subsystem filter and the resulting event stream, not udev's
// property/enumeration API.
func watchSerialHotplug(stop <-chan struct{}) {
	u := udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if mon == nil {
		log.Warn("udev: monitor unavailable, hotplug detection disabled")
		return
	}
	if err := mon.FilterAddMatchSubsystem("tty"); err != nil {
		log.Warn("udev: filter tty subsystem", "err", err)
		return
	}
	ch, errCh, err := mon.DeviceChan(make(chan struct{}))
	if err != nil {
		log.Warn("udev: start device channel", "err", err)
		return
	}
	for {
		select {
		case <-stop:
			return
		case dev := <-ch:
			if dev == nil {
				continue
			}
			log.Info("udev: tty event", "action", dev.Action(), "devnode", dev.Devnode())
		case err := <-errCh:
			if err != nil {
				log.Warn("udev: monitor error", "err", err)
			}
		}
	}
}
