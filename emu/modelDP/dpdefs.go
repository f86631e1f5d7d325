/* Sigma moving head disk pack controller definitions.

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

import "github.com/rcornwell/sigma/util/disk"

// Controller types. The 7240 and 7270 return 10 sense bytes and drive
// eight units; the rest return 16 sense bytes and drive fifteen. The
// T3281 allows a different drive type on every unit.
const (
	ctl7240 = iota
	ctl7270
	ctl7260
	ctl7265
	ctl7275
	ctl3281

	numCtlTypes = 6
)

var ctlNames = []string{"7240", "7270", "7260", "7265", "7275", "T3281"}

// Check for a 10 byte sense controller.
func q10B(ctype int) bool {
	return ctype <= ctl7270
}

const (
	numDrives10B = 8   // Drives on a 10 byte controller
	numDrives16B = 15  // Drives on a 16 byte controller
	ctlUnit      = 0xF // Controller pseudo unit number

	wordsPerSector = disk.WordsPerSector
	bytesPerHeader = 8

	// Offset into the event argument space for seek completion timers.
	// Each drive runs two independent timelines.
	seekTimer = 0x10
)

// Packed disk address fields.
const (
	dpaVCyl  = 16
	dpaMCyl  = 0x3FF
	dpaVHead = 8
	dpaMHead = 0x1F
	dpaVSec  = 0
	dpaMSec  = 0x1F
)

func dpaCyl(addr uint32) uint32 {
	return (addr >> dpaVCyl) & dpaMCyl
}

func dpaHead(addr uint32) uint32 {
	return (addr >> dpaVHead) & dpaMHead
}

func dpaSec(addr uint32) uint32 {
	return (addr >> dpaVSec) & dpaMSec
}

// Command opcodes, plus internal states for the unit state machine.
const (
	dpsWrite  = 0x01 // Write sectors
	dpsRead   = 0x02 // Read sectors
	dpsSeek   = 0x03 // Seek
	dpsSeekI  = 0x83 // Seek, interrupt when complete
	dpsSense  = 0x04 // Sense controller status
	dpsCheck  = 0x05 // Write check
	dpsRsrv   = 0x07 // Reserve
	dpsWhdr   = 0x09 // Write headers
	dpsRhdr   = 0x0A // Read headers
	dpsCriof  = 0x0F // Reserve/interrupt control off
	dpsRdees  = 0x12 // Read ECC error status
	dpsTest   = 0x13 // Test mode
	dpsRls    = 0x17 // Release
	dpsCrion  = 0x1F // Reserve/interrupt control on
	dpsRlsa   = 0x23 // Release attention
	dpsRecal  = 0x33 // Recalibrate to cylinder 0
	dpsRecalI = 0xB3 // Recalibrate, interrupt when complete

	dpsIdle = 0x000 // No command in flight
	dpsInit = 0x100 // Fetch next command from channel
	dpsEnd  = 0x101 // Signal channel end
)

// Seek completion states.
const (
	dscSeek  = 0x00 // Seeking, no interrupt wanted
	dscSeekI = 0x80 // Seeking, interrupt on completion
	dscSeekW = 0x01 // Waiting to deliver interrupt
)

// Controller status flags. The upper halfword of the flag register
// holds the cylinder difference of the last seek.
const (
	dpfVWchk = 0
	dpfVDpe  = 1
	dpfVSnz  = 2
	dpfVEoc  = 3
	dpfVIva  = 4
	dpfVPge  = 5
	dpfVWpe  = 6
	dpfVAim  = 7

	dpfWchk uint32 = 1 << dpfVWchk // Write check error
	dpfDpe  uint32 = 1 << dpfVDpe  // Data error
	dpfSnz  uint32 = 1 << dpfVSnz  // Sector not zero at write header
	dpfEoc  uint32 = 1 << dpfVEoc  // End of cylinder
	dpfIva  uint32 = 1 << dpfVIva  // Invalid address
	dpfPge  uint32 = 1 << dpfVPge  // Program error
	dpfWpe  uint32 = 1 << dpfVWpe  // Write protect error
	dpfAim  uint32 = 1 << dpfVAim  // Arm in motion

	dpfVDiff        = 16
	dpfMDiff uint32 = 0xFFFF
	dpfDiff  uint32 = dpfMDiff << dpfVDiff
)

// Sense block sizes and test mode sizes per family.
const (
	senseBytes10B = 10
	senseBytes16B = 16
	testBytes10B  = 1
	testBytes16B  = 2
)

func senseBytes(ctype int) int {
	if q10B(ctype) {
		return senseBytes10B
	}
	return senseBytes16B
}

func testBytes(ctype int) int {
	if q10B(ctype) {
		return testBytes10B
	}
	return testBytes16B
}

// Drive types. The table must stay in ascending capacity order so
// autosizing on the T3281 picks the smallest type that covers a file.
type dpType struct {
	name  string
	cyl   int    // Cylinders per drive
	hd    int    // Heads per cylinder
	sc    int    // Sectors per track
	ctype int    // Controller this drive belongs to
	capac uint32 // Capacity in words
	id    uint8  // Drive ID byte
}

var dpTypes = []dpType{
	{"7242", 203, 20, 6, ctl7240, 203 * 20 * 6 * wordsPerSector, 0},
	{"7261", 203, 20, 11, ctl7260, 203 * 20 * 11 * wordsPerSector, 5 << 5},
	{"7271", 406, 20, 6, ctl7270, 406 * 20 * 6 * wordsPerSector, 0},
	{"3288", 822, 5, 17, ctl3281, 822 * 5 * 17 * wordsPerSector, 0},
	{"7276", 411, 19, 11, ctl7275, 411 * 19 * 11 * wordsPerSector, 7 << 5},
	{"7266", 411, 20, 11, ctl7265, 411 * 20 * 11 * wordsPerSector, 6 << 5},
	{"3282", 815, 19, 11, ctl3281, 815 * 19 * 11 * wordsPerSector, 0},
	{"3283", 815, 19, 17, ctl3281, 815 * 19 * 17 * wordsPerSector, 0},
}

// Family membership masks for the command capability table.
const (
	c10B uint8 = 1<<ctl7240 | 1<<ctl7270
	c16B uint8 = 1<<ctl7260 | 1<<ctl7265 | 1<<ctl7275 | 1<<ctl3281
	cAll uint8 = c10B | c16B
)

// Capability of one command opcode.
type dpCmd struct {
	families uint8 // Controllers accepting the command
	fast     bool  // Scheduled without rotational delay
	ctrl     bool  // May address the controller pseudo unit
}

// Closed command capability table. An opcode missing here is illegal on
// every controller.
var dpCmds = map[int]dpCmd{
	dpsWrite:  {families: cAll},
	dpsRead:   {families: cAll},
	dpsSeek:   {families: cAll, fast: true},
	dpsSeekI:  {families: cAll, fast: true},
	dpsSense:  {families: cAll, fast: true},
	dpsCheck:  {families: cAll},
	dpsRsrv:   {families: c16B, fast: true},
	dpsWhdr:   {families: cAll},
	dpsRhdr:   {families: cAll},
	dpsCriof:  {families: c16B, fast: true, ctrl: true},
	dpsRdees:  {families: cAll},
	dpsTest:   {families: cAll, fast: true},
	dpsRls:    {families: c16B, fast: true},
	dpsCrion:  {families: c16B, fast: true, ctrl: true},
	dpsRlsa:   {families: c10B, fast: true},
	dpsRecal:  {families: cAll, fast: true},
	dpsRecalI: {families: c16B, fast: true},
}

// Sense overlay entry: copy flag register bits into the sense block at
// a documented byte and bit position. New status bits belong here, not
// in the transfer logic.
type senseOverlay struct {
	byte int    // Destination byte in sense block
	mask uint32 // Flag register test mask
	fpos int    // Source bit position
	tpos int    // Destination bit position
}

var senseTab10B = []senseOverlay{
	{7, 0x00FF0000, 16, 0},
	{8, dpfWchk, dpfVWchk, 6},
	{8, dpfSnz, dpfVSnz, 2},
	{9, 0x01000000, 24, 0},
}

var senseTab16B = []senseOverlay{
	{8, dpfWchk, dpfVWchk, 7},
	{8, dpfEoc, dpfVEoc, 3},
	{8, dpfAim, dpfVAim, 2},
	{14, 0xFF000000, 24, 0},
	{15, 0x00FF0000, 16, 0},
}
