package sys_channel

/*
 * Sigma - Channel transfer and interrupt handling
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

import (
	"fmt"

	D "github.com/rcornwell/sigma/emu/device"
)

// Controllers are registered at a base device number; the low nibble of
// a full device address selects the unit on the controller.
var devTab [256]*chanCtl

// Clear all channel state.
func InitializeChannels() {
	for i := range devTab {
		devTab[i] = nil
	}
}

// Register a device at a controller address.
func AddDevice(dev D.Device, devNum uint16) error {
	base := ctlIndex(uint32(devNum))
	if devTab[base] != nil {
		return fmt.Errorf("device %03x already defined", devNum)
	}
	devTab[base] = &chanCtl{dev: dev, chi: -1}
	return nil
}

// Remove a device from the channel.
func DelDevice(devNum uint16) {
	devTab[ctlIndex(uint32(devNum))] = nil
}

// Find the device registered at an address.
func GetDevice(devNum uint16) (D.Device, error) {
	ctl := devTab[ctlIndex(uint32(devNum))]
	if ctl == nil {
		return nil, fmt.Errorf("no device at %03x", devNum)
	}
	return ctl.dev, nil
}

// Reset all registered devices and clear channel state.
func ResetChannels() {
	for _, ctl := range devTab {
		if ctl == nil {
			continue
		}
		ctl.progs = nil
		ctl.cur = nil
		ctl.pos = 0
		ctl.fault = 0
		ctl.chi = -1
		ctl.dvi = false
		ctl.dev.Reset()
	}
}

// Queue a channel program chain for a controller. The caller keeps the
// program entries; data stored by the device lands in their buffers.
func QueueProgram(devNum uint16, progs []*ChanProgram) {
	ctl := devTab[ctlIndex(uint32(devNum))]
	if ctl == nil {
		return
	}
	ctl.progs = append(ctl.progs, progs...)
}

// Issue a channel operation to the controller owning an address.
func Dispatch(op int, dva uint32) (uint32, int) {
	ctl := devTab[ctlIndex(dva)]
	if ctl == nil {
		return 0, D.RsNoDev
	}
	return ctl.dev.Dispatch(op, dva)
}

func ctlIndex(dva uint32) uint32 {
	return (dva >> 4) & 0xFF
}

func findCtl(dva uint32) *chanCtl {
	return devTab[ctlIndex(dva)]
}

// Fetch the next command for a device. Starts the next queued channel
// program.
func ChanGetCmd(dva uint32) (uint8, int) {
	ctl := findCtl(dva)
	if ctl == nil {
		return 0, ChsNoDev
	}
	if len(ctl.progs) == 0 {
		return 0, ChsInactive
	}
	ctl.cur = ctl.progs[0]
	ctl.progs = ctl.progs[1:]
	ctl.pos = 0
	if ctl.cur.Count == 0 {
		ctl.cur.Count = len(ctl.cur.Data)
	}
	return ctl.cur.Cmd, ChsOK
}

// Read one byte from the channel. Returns ChsZBC along with the byte
// that exhausts the program count.
func ChanRdByte(dva uint32) (uint8, int) {
	ctl := findCtl(dva)
	if ctl == nil {
		return 0, ChsNoDev
	}
	if ctl.cur == nil {
		return 0, ChsInactive
	}
	if ctl.pos >= ctl.cur.Count {
		return 0, ChsZBC
	}
	var by uint8
	if ctl.pos < len(ctl.cur.Data) {
		by = ctl.cur.Data[ctl.pos]
	}
	ctl.pos++
	if ctl.pos >= ctl.cur.Count {
		return by, ChsZBC
	}
	return by, ChsOK
}

// Store one byte into the channel.
func ChanWrByte(dva uint32, by uint8) int {
	ctl := findCtl(dva)
	if ctl == nil {
		return ChsNoDev
	}
	if ctl.cur == nil {
		return ChsInactive
	}
	if ctl.pos >= ctl.cur.Count {
		return ChsZBC
	}
	for ctl.pos >= len(ctl.cur.Data) {
		ctl.cur.Data = append(ctl.cur.Data, 0)
	}
	ctl.cur.Data[ctl.pos] = by
	ctl.pos++
	if ctl.pos >= ctl.cur.Count {
		return ChsZBC
	}
	return ChsOK
}

// Read one 32 bit word from the channel, big endian byte order. A short
// final word is zero filled.
func ChanRdWord(dva uint32) (uint32, int) {
	var wd uint32
	st := ChsOK
	for i := 0; i < 4; i++ {
		var by uint8
		wd <<= 8
		if st == ChsOK {
			by, st = ChanRdByte(dva)
			if ChsIsErr(st) {
				return 0, st
			}
		}
		wd |= uint32(by)
	}
	return wd, st
}

// Store one 32 bit word into the channel, big endian byte order.
func ChanWrWord(dva uint32, wd uint32) int {
	st := ChsOK
	for i := 0; i < 4 && st == ChsOK; i++ {
		st = ChanWrByte(dva, uint8(wd>>(24-(i*8))))
		if ChsIsErr(st) {
			return st
		}
	}
	return st
}

// Signal channel end for the current program. Returns ChsCCH when a
// chained command follows.
func ChanEnd(dva uint32) int {
	ctl := findCtl(dva)
	if ctl == nil {
		return ChsNoDev
	}
	if ctl.cur == nil {
		return ChsInactive
	}
	prog := ctl.cur
	ctl.cur = nil
	ctl.pos = 0
	if (prog.Flags & CmfIEND) != 0 {
		ctl.chi = int(D.DvaUnit(dva))
		ctl.dvi = true
	}
	if (prog.Flags&CmfCCH) != 0 && len(ctl.progs) != 0 {
		return ChsCCH
	}
	return ChsOK
}

// Signal unusual end. Aborts the current program and any chained
// programs and posts a channel interrupt owned by the addressed unit.
func ChanUend(dva uint32) int {
	ctl := findCtl(dva)
	if ctl == nil {
		return ChsNoDev
	}
	ctl.cur = nil
	ctl.pos = 0
	ctl.progs = nil
	ctl.chi = int(D.DvaUnit(dva))
	ctl.dvi = true
	return ChsOK
}

// Record a channel fault. Returns true when the fault terminates the
// operation; incorrect length is ignored when the program sets the
// suppress length flag. A terminating fault performs the unusual end.
func ChanSetFault(dva uint32, fault uint16) bool {
	ctl := findCtl(dva)
	if ctl == nil {
		return false
	}
	ctl.fault |= fault
	if fault == ChfLNTE && ctl.cur != nil && (ctl.cur.Flags&CmfSLI) != 0 {
		return false
	}
	ChanUend(dva)
	return true
}

// Return accumulated channel faults for a controller.
func ChanFault(devNum uint16) uint16 {
	ctl := devTab[ctlIndex(uint32(devNum))]
	if ctl == nil {
		return 0
	}
	return ctl.fault
}

// Test a flag on the current channel program.
func ChanTstMode(dva uint32, flag uint16) bool {
	ctl := findCtl(dva)
	if ctl == nil || ctl.cur == nil {
		return false
	}
	return (ctl.cur.Flags & flag) != 0
}

// Return the unit owning a pending channel interrupt, -1 if none.
func ChanChkChi(dva uint32) int {
	ctl := findCtl(dva)
	if ctl == nil {
		return -1
	}
	return ctl.chi
}

// Clear a pending channel interrupt, returning the owning unit. With no
// interrupt pending the device interrupt line is dropped instead.
func ChanClrChi(dva uint32) int {
	ctl := findCtl(dva)
	if ctl == nil {
		return -1
	}
	if ctl.chi >= 0 {
		iu := ctl.chi
		ctl.chi = -1
		return iu
	}
	ctl.dvi = false
	return -1
}

// Raise the device interrupt request line.
func ChanSetDvi(dva uint32) {
	ctl := findCtl(dva)
	if ctl != nil {
		ctl.dvi = true
	}
}

// Check whether a controller has an interrupt request outstanding.
func IntPending(devNum uint16) bool {
	ctl := devTab[ctlIndex(uint32(devNum))]
	if ctl == nil {
		return false
	}
	return ctl.dvi || ctl.chi >= 0
}

// Clear interrupt and program state for one controller.
func ChanResetDev(dva uint32) {
	ctl := findCtl(dva)
	if ctl == nil {
		return
	}
	ctl.progs = nil
	ctl.cur = nil
	ctl.pos = 0
	ctl.fault = 0
	ctl.chi = -1
	ctl.dvi = false
}
