package sys_channel

/*
 * Sigma - Channel definitions
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
	D "github.com/rcornwell/sigma/emu/device"
)

// Transfer status codes returned by channel data routines.
const (
	ChsOK       = 0    // Transfer accepted, count remains
	ChsZBC      = 1    // Transfer accepted, count exhausted
	ChsCCH      = 2    // Channel end with command chaining
	ChsErr      = 0x80 // Codes at or above this are errors
	ChsInactive = 0x81 // No channel program active
	ChsNoDev    = 0x82 // No device at address
)

// Check a channel status code for an error.
func ChsIsErr(st int) bool {
	return st >= ChsErr
}

// Channel fault flags.
const (
	ChfLNTE uint16 = 0x01 // Incorrect length
	ChfXMDE uint16 = 0x02 // Transmission data error
)

// Channel program flags.
const (
	CmfCCH  uint16 = 0x01 // Command chain to next program
	CmfSLI  uint16 = 0x02 // Suppress incorrect length indication
	CmfIEND uint16 = 0x04 // Interrupt at channel end
)

// Time for the channel to process one control operation.
var CtlTime = 10

// One channel program entry: a command, a data buffer and a byte count.
// Data supplies bytes for device read operations and captures bytes the
// device stores. A zero Count means len(Data).
type ChanProgram struct {
	Cmd   uint8  // Command opcode
	Data  []byte // Data buffer
	Count int    // Byte count
	Flags uint16 // Program flags
}

// Per controller channel state.
type chanCtl struct {
	dev   D.Device       // Device dispatch interface
	progs []*ChanProgram // Queued channel programs
	cur   *ChanProgram   // Program in progress
	pos   int            // Byte position in current program
	fault uint16         // Accumulated channel faults
	chi   int            // Unit owning pending channel interrupt, -1 none
	dvi   bool           // Device interrupt request line
}
