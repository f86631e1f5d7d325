/* Sigma moving head disk pack controller - channel dispatch and status.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

package modeldp

import (
	D "github.com/rcornwell/sigma/emu/device"
	event "github.com/rcornwell/sigma/emu/event"
	ch "github.com/rcornwell/sigma/emu/sys_channel"
	debug "github.com/rcornwell/sigma/util/debug"
)

/* IO dispatch routine.

   For all operations except AIO, dva carries the full channel/device/unit
   address. For AIO the interrupting unit number is merged into the
   returned status word.
*/

func (ctl *ModelDPctx) Dispatch(op int, dva uint32) (uint32, int) {
	un := int(D.DvaUnit(dva))

	// Unit must exist on this controller. Unit F is only addressable
	// on the T3281.
	if un >= ctl.numDrives() && !(un == ctlUnit && ctl.ctype == ctl3281) {
		return 0, D.RsNoDev
	}

	var dvst uint32
	switch op {

	case D.OpSIO: // Start I/O
		dvst = ctl.tioStatus(un)
		if ch.ChanChkChi(dva) >= 0 || // Controller int pending?
			(ctl.ski&(1<<un)) != 0 { // Seek int on selected unit?
			dvst |= D.CC2 << D.DvsVCC // SIO fails
			break
		}
		// Knock down every other drive's seek interrupt and
		// reschedule it to come back a little later.
		for i := 0; i < ctl.numDrives(); i++ {
			if (ctl.ski & (1 << i)) != 0 {
				ctl.clrSki(i)
				event.AddEvent(ctl, ctl.seekSvc, ch.CtlTime*10, i+seekTimer)
				ctl.units[i].shadow = dscSeekW
			}
		}
		if (dvst & (D.DvsCtlBusy | D.DvsDevBusy)) == 0 { // Ctrl + dev idle?
			ctl.units[un].cmd = dpsInit // Start dev thread
			event.AddEvent(ctl, ctl.unitSvc, ch.CtlTime, un)
		}

	case D.OpTIO: // Test I/O
		dvst = ctl.tioStatus(un)

	case D.OpTDV: // Test device
		dvst = ctl.tdvStatus(un)

	case D.OpHIO: // Halt I/O
		debug.DebugDevf(ctl.addr, ctl.debugMsk, debugCmd, "HIO unit %x", un)
		dvst = ctl.tioStatus(un)
		if un != ctlUnit {
			if un == ch.ChanChkChi(dva) { // Halt active ctrl int?
				ch.ChanClrChi(dva)
			}
			if event.IsActive(ctl, un) { // Transfer in flight?
				event.CancelEvent(ctl, un)
				ctl.units[un].cmd = dpsIdle
				ch.ChanUend(dva)
			}
			ctl.clrSki(un)
			event.CancelEvent(ctl, un+seekTimer)
		} else {
			for i := 0; i < ctl.numDrives(); i++ { // Do every unit
				if event.IsActive(ctl, i) {
					event.CancelEvent(ctl, i)
					ctl.units[i].cmd = dpsIdle
					ch.ChanUend(D.DvaSetUnit(dva, uint32(i)))
				}
				ctl.clrSki(i)
				event.CancelEvent(ctl, i+seekTimer)
			}
			ch.ChanClrChi(dva)
		}

	case D.OpAIO: // Acknowledge interrupt
		iu := ctl.clrInt(dva)
		dvst = ctl.aioStatus(iu) | (uint32(iu) << D.DvsVUnit)

	default:
		return 0, D.RsIErr
	}

	return dvst, D.RsOK
}

/* Status words.

   The controller is busy if any drive is busy. The device is busy if
   either its main timeline or its seek timeline is active. */

func (ctl *ModelDPctx) tioStatus(un int) uint32 {
	stat := D.DvsAuto
	for i := 0; i < ctl.numDrives(); i++ {
		if event.IsActive(ctl, i) {
			stat |= D.DvsCtlBusy | (D.CC2 << D.DvsVCC)
			break
		}
	}
	if event.IsActive(ctl, un) || event.IsActive(ctl, un+seekTimer) {
		stat |= D.DvsDevBusy | (D.CC2 << D.DvsVCC)
	}
	return stat
}

func (ctl *ModelDPctx) tdvStatus(un int) uint32 {
	var st uint32
	if q10B(ctl.ctype) {
		if (ctl.flags & (dpfIva | dpfPge)) != 0 {
			st |= 0x20
		}
		if ctl.onCylinder(un) {
			st |= 0x04
		}
	} else {
		if (ctl.flags & dpfPge) != 0 {
			st |= 0x20
		}
		if (ctl.flags & dpfWpe) != 0 {
			st |= 0x08
		}
	}
	return st
}

func (ctl *ModelDPctx) aioStatus(un int) uint32 {
	var st uint32
	if q10B(ctl.ctype) && ctl.onCylinder(un) {
		st |= 0x04
	}
	if ch.ChanChkChi(uint32(ctl.addr)) < 0 {
		st |= 0x08
	}
	return st
}

// A drive is on cylinder unless its seek timeline is running and has
// not yet reached the waiting to interrupt state.
func (ctl *ModelDPctx) onCylinder(un int) bool {
	return !event.IsActive(ctl, un+seekTimer) ||
		ctl.units[un].shadow == dscSeekW
}

// Overlay status flags onto the sense block. The arm in motion flag is
// derived from the seek timeline at sense time.
func (ctl *ModelDPctx) setSense(un int, c []uint8) {
	if event.IsActive(ctl, un+seekTimer) &&
		ctl.units[un].shadow != dscSeekW {
		ctl.flags |= dpfAim
	} else {
		ctl.flags &^= dpfAim
	}
	tab := senseTab16B
	if q10B(ctl.ctype) {
		tab = senseTab10B
	}
	for _, t := range tab {
		if (ctl.flags & t.mask) != 0 {
			data := uint8((ctl.flags & t.mask) >> t.fpos)
			c[t.byte] |= data << t.tpos
		}
	}
}

/* Interrupt handling.

   A pending channel interrupt is acknowledged first; pending seek
   interrupts are scanned in ascending unit order. With nothing pending
   unit 0 is returned, a quirk kept from the original controller. */

func (ctl *ModelDPctx) clrInt(dva uint32) int {
	if iu := ch.ChanClrChi(dva); iu >= 0 { // Chan int? clear
		if ctl.ski != 0 { // More ints?
			ch.ChanSetDvi(dva) // Set INP
		}
		return iu
	}
	for iu := 0; iu < ctl.numDrives(); iu++ { // Seek int?
		if (ctl.ski & (1 << iu)) != 0 {
			ctl.clrSki(iu)
			return iu
		}
	}
	return 0
}

// Raise a seek interrupt for a unit.
func (ctl *ModelDPctx) setSki(un int) {
	ctl.ski |= 1 << un
	ch.ChanSetDvi(uint32(ctl.addr)) // Set INP
}

// Clear a seek interrupt for a unit. The interrupt request line stays
// up while any other seek interrupt remains.
func (ctl *ModelDPctx) clrSki(un int) {
	ctl.ski &^= 1 << un
	if ctl.ski != 0 {
		ch.ChanSetDvi(uint32(ctl.addr))
	} else if ch.ChanChkChi(uint32(ctl.addr)) < 0 {
		ch.ChanClrChi(uint32(ctl.addr)) // Drop INP
	}
}
