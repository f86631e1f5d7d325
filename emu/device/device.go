/*
 * Sigma - I/O device interface.
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

package device

// Channel operations passed to a device dispatch routine.
const (
	OpSIO = iota // Start I/O
	OpTIO        // Test I/O
	OpTDV        // Test device
	OpHIO        // Halt I/O
	OpAIO        // Acknowledge interrupt
)

// Dispatch results.
const (
	RsOK    = iota // Operation accepted
	RsNoDev        // No such controller or unit
	RsIErr         // Internal error, bad operation code
)

// Device status word layout, common to all controllers. The low byte
// carries controller dependent status; condition codes and the
// interrupting unit number are merged in by the dispatch routine.
const (
	DvsAuto    uint32 = 0x00010000 // Device is automatic
	DvsCtlBusy uint32 = 0x00020000 // Controller busy
	DvsDevBusy uint32 = 0x00040000 // Device busy
	DvsVUnit          = 8          // Interrupting unit position
	DvsVCC            = 24         // Condition code position
	CC1        uint32 = 0x8        // Condition code 1
	CC2        uint32 = 0x4        // Condition code 2

	dvaUnitMask uint32 = 0xF // Unit number field of address

	NoDev uint16 = 0xFFFF // Invalid device address
)

// Return unit number field of a device address.
func DvaUnit(dva uint32) uint32 {
	return dva & dvaUnitMask
}

// Replace unit number field of a device address.
func DvaSetUnit(dva uint32, unit uint32) uint32 {
	return (dva &^ dvaUnitMask) | (unit & dvaUnitMask)
}

// Interface for devices attached to a channel. Dispatch handles one
// channel operation and returns a status word plus a result code.
type Device interface {
	Dispatch(op int, dva uint32) (uint32, int)
	Reset()
}
