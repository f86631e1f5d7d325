/* Sigma moving head disk pack controller - unit state machine.

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
	"log/slog"

	D "github.com/rcornwell/sigma/emu/device"
	event "github.com/rcornwell/sigma/emu/event"
	ch "github.com/rcornwell/sigma/emu/sys_channel"
	debug "github.com/rcornwell/sigma/util/debug"
)

// Full device address of one unit on this controller.
func (ctl *ModelDPctx) dvaFor(un int) uint32 {
	return D.DvaSetUnit(uint32(ctl.addr), uint32(un))
}

// Current rotational sector position of a drive, a function of elapsed
// virtual time.
func (ctl *ModelDPctx) curSector(dtype int) int {
	return int((event.Time() / uint64(ctl.time*wordsPerSector)) %
		uint64(dpTypes[dtype].sc))
}

// Main unit service.
func (ctl *ModelDPctx) unitSvc(un int) {
	u := &ctl.units[un]
	dva := ctl.dvaFor(un)
	dtype := u.dtype

	switch u.cmd {
	case dpsInit: // Fetch next command
		cmd, st := ch.ChanGetCmd(dva)
		if ch.ChsIsErr(st) { // Channel error?
			ctl.chanErr(dva, st)
			return
		}
		ctl.flags = 0 // Clear status
		debug.DebugDevf(ctl.addr, ctl.debugMsk, debugCmd, "unit %x cmd %02x", un, cmd)
		cap, ok := dpCmds[int(cmd)]
		if !ok || (cap.families&(1<<ctl.ctype)) == 0 { // Cmd valid for dev?
			ctl.flags |= dpfPge
			ch.ChanUend(dva)
			u.cmd = dpsIdle
			return
		}
		if un == ctlUnit && !cap.ctrl { // Ctrl unit, not ctrl cmd?
			ctl.flags |= dpfPge
			ch.ChanUend(dva)
			u.cmd = dpsIdle
			return
		}
		u.cmd = int(cmd)
		event.CancelEvent(ctl, un+seekTimer) // Cancel rest of seek
		if cap.fast {                        // Fast command?
			event.AddEventAbs(ctl, ctl.unitSvc, ch.CtlTime, un)
		} else { // Data transfer, wait for sector
			t := int(dpaSec(u.uda)) - ctl.curSector(dtype)
			if t < 0 { // Wrap around?
				t += dpTypes[dtype].sc
			}
			event.AddEventAbs(ctl, ctl.unitSvc, t*ctl.time*wordsPerSector, un)
		}
		return

	case dpsEnd: // Signal channel end
		st := ch.ChanEnd(dva)
		if ch.ChsIsErr(st) { // Channel error?
			ctl.chanErr(dva, st)
			return
		}
		if st == ch.ChsCCH { // Command chain?
			u.cmd = dpsInit // Restart thread
			event.AddEvent(ctl, ctl.unitSvc, ch.CtlTime, un)
			return
		}
		u.cmd = dpsIdle
		return
	}

	switch u.cmd {
	case dpsSeek, dpsSeekI, dpsRecal, dpsRecalI:
		var da uint32
		if u.cmd == dpsSeek || u.cmd == dpsSeekI {
			// Read the 4 byte target address from the channel.
			var c [4]uint8
			i := 0
			st := ch.ChsOK
			for i = 0; i < 4 && st != ch.ChsZBC; i++ {
				c[i], st = ch.ChanRdByte(dva)
				if ch.ChsIsErr(st) { // Channel error?
					ctl.chanErr(dva, st)
					return
				}
			}
			da = uint32(c[0])<<24 | uint32(c[1])<<16 | uint32(c[2])<<8 | uint32(c[3])
			if (c[0] & 0xFC) != 0 { // High 6 bits non-zero?
				ctl.flags |= dpfPge
			}
			if (i != 4 || st != ch.ChsZBC) && // Length error?
				ch.ChanSetFault(dva, ch.ChfLNTE) { // Care?
				ctl.flags |= dpfPge
				return
			}
			if i < 4 { // At least 4?
				ch.ChanUend(dva)
				return
			}
		}
		// Recalibrate targets cylinder 0.
		t := int(dpaCyl(u.uda)) - int(dpaCyl(da)) // Cylinder difference
		if t < 0 {
			t = -t
		}
		ctl.flags = (ctl.flags &^ dpfDiff) |
			((uint32(t) & dpfMDiff) << dpfVDiff) // Save raw difference
		if t == 0 { // Motion takes at least one tick
			t = 1
		}
		u.uda = da // Save address
		event.AddEvent(ctl, ctl.seekSvc, t*ctl.stime, un+seekTimer)
		if ch.ChanTstMode(dva, ch.CmfCCH) { // Chained, no auto interrupt
			u.shadow = dscSeek
		} else {
			u.shadow = u.cmd & 0x80
		}
		debug.DebugDevf(ctl.addr, ctl.debugMsk, debugDetail,
			"unit %x seek diff %d", un, t)

	case dpsSense:
		var c [senseBytes16B]uint8
		c[0] = uint8(u.uda >> 24) // 0-3 = disk address
		c[1] = uint8(u.uda >> 16)
		c[2] = uint8(u.uda >> 8)
		c[3] = uint8(u.uda)
		c[4] = uint8(ctl.curSector(dtype)) // Current sector
		if event.IsActive(ctl, un) && (u.cmd&0x7F) == dpsSeek {
			c[4] |= 0x80
		}
		if !q10B(ctl.ctype) { // 16 byte families only
			c[5] = uint8(un) | dpTypes[dtype].id // Unit # + drive id
			if ctl.ctype == ctl3281 {            // T3281 only
				c[7] = uint8(un)
			}
			c[10] = uint8(ctl.ski >> 8) // Seek interrupts
			c[11] = uint8(ctl.ski)
		}
		ctl.setSense(un, c[:]) // Flag derived bytes
		nby := senseBytes(ctl.ctype)
		i := 0
		st := ch.ChsOK
		for i = 0; i < nby && st != ch.ChsZBC; i++ {
			st = ch.ChanWrByte(dva, c[i])
			if ch.ChsIsErr(st) { // Channel error?
				ctl.chanErr(dva, st)
				return
			}
		}
		if i != nby || st != ch.ChsZBC { // Length error?
			ctl.flags |= dpfPge
			if ch.ChanSetFault(dva, ch.ChfLNTE) { // Do we care?
				return
			}
		}

	case dpsWrite:
		if u.wlock { // Write locked?
			ctl.flags |= dpfWpe
			ch.ChanUend(dva)
			return
		}
		lba, inv := ctl.invAddr(u) // Invalid address?
		if inv {
			ctl.flags |= dpfPge
			ch.ChanUend(dva)
			return
		}
		st := ch.ChsOK
		for i := 0; i < wordsPerSector; i++ { // Sector loop
			var wd uint32
			if st != ch.ChsZBC { // Channel not done?
				wd, st = ch.ChanRdWord(dva)
				if ch.ChsIsErr(st) { // Channel error?
					ctl.incAddr(u) // Address increments
					ctl.chanErr(dva, st)
					return
				}
			}
			ctl.buffer[i] = wd // Short transfers zero fill
		}
		if !ctl.dpWrite(un, dva, lba) { // Write buffer, error?
			return
		}
		if ctl.endSec(un, wordsPerSector, wordsPerSector, st) {
			return // Error or continue
		}

	// Write header "writes" eight bytes per sector and throws them in
	// the bit bucket.
	case dpsWhdr:
		if u.wlock { // Write locked?
			ctl.flags |= dpfWpe
			ch.ChanUend(dva)
			return
		}
		if _, inv := ctl.invAddr(u); inv { // Invalid address?
			ctl.flags |= dpfPge
			ch.ChanUend(dva)
			return
		}
		if dpaSec(u.uda) != 0 { // Must start at sector 0
			ctl.flags |= dpfSnz
			ch.ChanUend(dva)
			return
		}
		i := 0
		st := ch.ChsOK
		for i = 0; i < bytesPerHeader && st != ch.ChsZBC; i++ {
			_, st = ch.ChanRdByte(dva)
			if ch.ChsIsErr(st) { // Channel error?
				ctl.incAddr(u) // Address increments
				ctl.chanErr(dva, st)
				return
			}
		}
		if ctl.endSec(un, i, bytesPerHeader, st) {
			return // Error or continue
		}

	// Write check is done by bytes to get a precise miscompare.
	case dpsCheck:
		lba, inv := ctl.invAddr(u) // Invalid address?
		if inv {
			ctl.flags |= dpfPge
			ch.ChanUend(dva)
			return
		}
		if !ctl.dpRead(un, dva, lba) { // Read buffer, error?
			return
		}
		i := 0
		st := ch.ChsOK
		for i = 0; i < wordsPerSector*4 && st != ch.ChsZBC; i++ {
			var by uint8
			by, st = ch.ChanRdByte(dva)
			if ch.ChsIsErr(st) { // Channel error?
				ctl.incAddr(u) // Address increments
				ctl.chanErr(dva, st)
				return
			}
			by1 := uint8(ctl.buffer[i>>2] >> (24 - ((i & 0x3) * 8)))
			if by != by1 { // Check error?
				ctl.incAddr(u) // Address increments
				ctl.flags |= dpfWchk
				ch.ChanUend(dva)
				return
			}
		}
		if ctl.endSec(un, i, wordsPerSector*4, st) {
			return // Error or continue
		}

	case dpsRead:
		lba, inv := ctl.invAddr(u) // Invalid address?
		if inv {
			ctl.flags |= dpfPge
			ch.ChanUend(dva)
			return
		}
		if !ctl.dpRead(un, dva, lba) { // Read buffer, error?
			return
		}
		i := 0
		st := ch.ChsOK
		for i = 0; i < wordsPerSector && st != ch.ChsZBC; i++ {
			st = ch.ChanWrWord(dva, ctl.buffer[i])
			if ch.ChsIsErr(st) { // Channel error?
				ctl.incAddr(u) // Address increments
				ctl.chanErr(dva, st)
				return
			}
		}
		if ctl.endSec(un, i, wordsPerSector, st) {
			return // Error or continue
		}

	// Read header synthesizes 8 bytes per sector.
	case dpsRhdr:
		if _, inv := ctl.invAddr(u); inv { // Invalid address?
			ctl.flags |= dpfPge
			ch.ChanUend(dva)
			return
		}
		var c [bytesPerHeader]uint8
		cy := dpaCyl(u.uda)
		c[1] = uint8(cy >> 8)
		c[2] = uint8(cy)
		c[3] = uint8(dpaHead(u.uda))
		c[4] = uint8(dpaSec(u.uda))
		i := 0
		st := ch.ChsOK
		for i = 0; i < bytesPerHeader && st != ch.ChsZBC; i++ {
			st = ch.ChanWrByte(dva, c[i])
			if ch.ChsIsErr(st) { // Channel error?
				ctl.incAddr(u) // Address increments
				ctl.chanErr(dva, st)
				return
			}
		}
		if ctl.endSec(un, i, bytesPerHeader, st) {
			return // Error or continue
		}

	// Test mode stores the specification bytes and nothing more.
	case dpsTest:
		if !ctl.testMode(dva) {
			return
		}

	default: // Reserve, release and friends are no-ops
	}

	u.cmd = dpsEnd // Op done, next state
	event.AddEvent(ctl, ctl.unitSvc, ch.CtlTime, un)
}

// Seek completion service. If an interrupt is wanted but a channel
// interrupt is outstanding, come back after a full track time; the
// seek interrupt only lasts a sector's time.
func (ctl *ModelDPctx) seekSvc(iarg int) {
	un := iarg - seekTimer
	u := &ctl.units[un]

	if u.shadow != dscSeek { // Interrupt wanted?
		if ch.ChanChkChi(uint32(ctl.addr)) >= 0 { // Ctrl int pending?
			event.AddEvent(ctl, ctl.seekSvc, ctl.time*dpTypes[u.dtype].sc, iarg)
			u.shadow = dscSeekW
		} else {
			ctl.setSki(un)
		}
	}
}

/* Common read/write sector end routine.

   case 1 - more to transfer, not end cylinder - reschedule, return true
   case 2 - more to transfer, end cylinder - uend, return true
   case 3 - transfer done, length error - uend, return true
   case 4 - transfer done, no length error - return false (schedule end)
*/

func (ctl *ModelDPctx) endSec(un int, lnt int, exp int, st int) bool {
	u := &ctl.units[un]
	dva := ctl.dvaFor(un)

	if st != ch.ChsZBC { // End of record?
		if ctl.incAddr(u) { // Increment address, cross cylinder?
			ctl.flags |= dpfIva | dpfEoc
			ch.ChanUend(dva)
		} else { // No, next sector
			event.AddEvent(ctl, ctl.unitSvc, ctl.time*16, un)
		}
		return true
	}
	ctl.incAddr(u) // Just increment address
	if lnt != exp { // Length error at end?
		if exp == bytesPerHeader { // Header op?
			ctl.flags |= dpfPge
		}
		if ch.ChanSetFault(dva, ch.ChfLNTE) { // Do we care?
			return true
		}
	}
	return false // Command done
}

// Validate the drive's disk address against its geometry. Returns the
// linear sector number when the address is valid.
func (ctl *ModelDPctx) invAddr(u *dpUnit) (uint32, bool) {
	geom := &dpTypes[u.dtype]
	cy := dpaCyl(u.uda)
	hd := dpaHead(u.uda)
	sc := dpaSec(u.uda)

	if cy >= uint32(geom.cyl) || hd >= uint32(geom.hd) || sc >= uint32(geom.sc) {
		return 0, true
	}
	return ((cy*uint32(geom.hd))+hd)*uint32(geom.sc) + sc, false
}

// Increment the drive's disk address, wrapping sector into head into
// cylinder; the cylinder wraps within the geometry so the result is
// always in range. Returns true when the increment crossed a cylinder
// boundary.
func (ctl *ModelDPctx) incAddr(u *dpUnit) bool {
	geom := &dpTypes[u.dtype]
	cy := dpaCyl(u.uda)
	hd := dpaHead(u.uda)
	sc := dpaSec(u.uda)

	sc++
	if sc >= uint32(geom.sc) { // Sector overflow?
		sc = 0
		hd++
		if hd >= uint32(geom.hd) { // Head overflow?
			hd = 0
			cy++
			if cy >= uint32(geom.cyl) {
				cy = 0
			}
		}
	}
	u.uda = (cy << dpaVCyl) | (hd << dpaVHead) | (sc << dpaVSec)
	return hd == 0 && sc == 0
}

// Read one sector from backing store into the transfer buffer.
func (ctl *ModelDPctx) dpRead(un int, dva uint32, lba uint32) bool {
	u := &ctl.units[un]
	if err := u.context.ReadSector(lba, ctl.buffer[:]); err != nil {
		return ctl.ioErr(un, dva, err)
	}
	debug.DebugDevf(ctl.addr, ctl.debugMsk, debugData, "unit %x read lba %d", un, lba)
	return true
}

// Write the transfer buffer to one sector of backing store.
func (ctl *ModelDPctx) dpWrite(un int, dva uint32, lba uint32) bool {
	u := &ctl.units[un]
	if err := u.context.WriteSector(lba, ctl.buffer[:]); err != nil {
		return ctl.ioErr(un, dva, err)
	}
	debug.DebugDevf(ctl.addr, ctl.debugMsk, debugData, "unit %x write lba %d", un, lba)
	return true
}

// Backing store failure: tell the operator, flag a data error and force
// abnormal end. Distinct from the logical errors; never retried here.
// STOPIOE raises the record to the error log, otherwise it only shows
// as a warning.
func (ctl *ModelDPctx) ioErr(un int, dva uint32, err error) bool {
	if ctl.stopIOE {
		slog.Error("DP I/O error", "device", ctl.name, "unit", un, "err", err)
	} else {
		slog.Warn("DP I/O error", "device", ctl.name, "unit", un, "err", err)
	}
	ctl.flags |= dpfDpe
	ch.ChanSetFault(dva, ch.ChfXMDE)
	ch.ChanUend(dva) // Force uend
	return false
}

// Test mode reads the family sized specification into the test
// register. No further behavior is modeled.
func (ctl *ModelDPctx) testMode(dva uint32) bool {
	ctl.test = 0
	nby := testBytes(ctl.ctype)
	st := ch.ChsOK
	for i := 0; i < nby; i++ {
		var by uint8
		if st != ch.ChsZBC { // Channel not done?
			by, st = ch.ChanRdByte(dva)
			if ch.ChsIsErr(st) {
				ctl.chanErr(dva, st)
				return false
			}
		}
		ctl.test |= uint16(by) << (i * 8)
	}
	return true
}

// Channel error: force abnormal end and abandon the operation.
func (ctl *ModelDPctx) chanErr(dva uint32, st int) {
	debug.DebugDevf(ctl.addr, ctl.debugMsk, debugDetail, "channel error %02x", st)
	ch.ChanUend(dva)
}
