/*
 * Sigma - Channel transfer test cases.
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

package sys_channel

import (
	"testing"
)

type testDev struct {
	resets int
}

func (d *testDev) Dispatch(_ int, _ uint32) (uint32, int) {
	return 0, 0
}

func (d *testDev) Reset() {
	d.resets++
}

const testAddr = uint16(0x1F0)

var testDevice = &testDev{}

// Initialize for each test.
func initTest(t *testing.T) {
	t.Helper()
	InitializeChannels()
	testDevice.resets = 0
	if err := AddDevice(testDevice, testAddr); err != nil {
		t.Fatalf("unable to add device: %v", err)
	}
}

func TestAddDevice(t *testing.T) {
	initTest(t)
	if err := AddDevice(testDevice, testAddr); err == nil {
		t.Errorf("adding device twice should fail")
	}
	dev, err := GetDevice(testAddr)
	if err != nil {
		t.Errorf("unable to find device: %v", err)
	}
	if dev != testDevice {
		t.Errorf("wrong device found")
	}
	DelDevice(testAddr)
	if _, err := GetDevice(testAddr); err == nil {
		t.Errorf("deleted device still found")
	}
}

// Byte reads return ZBC together with the byte that exhausts the count.
func TestRdByte(t *testing.T) {
	initTest(t)
	dva := uint32(testAddr)
	prog := &ChanProgram{Cmd: 0x02, Data: []byte{1, 2, 3}}
	QueueProgram(testAddr, []*ChanProgram{prog})

	cmd, st := ChanGetCmd(dva)
	if st != ChsOK || cmd != 0x02 {
		t.Fatalf("get command failed cmd %02x st %02x", cmd, st)
	}

	for i, want := range []uint8{1, 2} {
		by, st := ChanRdByte(dva)
		if by != want || st != ChsOK {
			t.Errorf("byte %d got %d st %02x", i, by, st)
		}
	}
	by, st := ChanRdByte(dva)
	if by != 3 || st != ChsZBC {
		t.Errorf("final byte should carry ZBC, got %d st %02x", by, st)
	}
	by, st = ChanRdByte(dva)
	if by != 0 || st != ChsZBC {
		t.Errorf("read past end should give zero and ZBC, got %d st %02x", by, st)
	}
}

// Word transfers are big endian, short final word zero filled.
func TestRdWord(t *testing.T) {
	initTest(t)
	dva := uint32(testAddr)
	prog := &ChanProgram{Cmd: 0x02, Data: []byte{0x12, 0x34, 0x56, 0x78, 0x9A}}
	QueueProgram(testAddr, []*ChanProgram{prog})

	if _, st := ChanGetCmd(dva); st != ChsOK {
		t.Fatalf("get command failed st %02x", st)
	}
	wd, st := ChanRdWord(dva)
	if wd != 0x12345678 || st != ChsOK {
		t.Errorf("word got %08x st %02x", wd, st)
	}
	wd, st = ChanRdWord(dva)
	if wd != 0x9A000000 || st != ChsZBC {
		t.Errorf("short word got %08x st %02x", wd, st)
	}
}

// Device stores land in the program buffer.
func TestWrByte(t *testing.T) {
	initTest(t)
	dva := uint32(testAddr)
	prog := &ChanProgram{Cmd: 0x04, Count: 3}
	QueueProgram(testAddr, []*ChanProgram{prog})

	if _, st := ChanGetCmd(dva); st != ChsOK {
		t.Fatalf("get command failed st %02x", st)
	}
	if st := ChanWrByte(dva, 5); st != ChsOK {
		t.Errorf("store 1 st %02x", st)
	}
	if st := ChanWrByte(dva, 6); st != ChsOK {
		t.Errorf("store 2 st %02x", st)
	}
	if st := ChanWrByte(dva, 7); st != ChsZBC {
		t.Errorf("final store should carry ZBC")
	}
	if st := ChanWrByte(dva, 8); st != ChsZBC {
		t.Errorf("store past end should give ZBC")
	}
	if len(prog.Data) != 3 || prog.Data[0] != 5 || prog.Data[1] != 6 || prog.Data[2] != 7 {
		t.Errorf("stored data wrong: %v", prog.Data)
	}
}

func TestWrWord(t *testing.T) {
	initTest(t)
	dva := uint32(testAddr)
	prog := &ChanProgram{Cmd: 0x02, Count: 4}
	QueueProgram(testAddr, []*ChanProgram{prog})

	if _, st := ChanGetCmd(dva); st != ChsOK {
		t.Fatalf("get command failed st %02x", st)
	}
	if st := ChanWrWord(dva, 0xCAFEF00D); st != ChsZBC {
		t.Errorf("word store should exhaust count")
	}
	want := []byte{0xCA, 0xFE, 0xF0, 0x0D}
	for i, by := range want {
		if prog.Data[i] != by {
			t.Errorf("byte %d got %02x want %02x", i, prog.Data[i], by)
		}
	}
}

// Channel end with command chaining runs the next queued program.
func TestChanEndChain(t *testing.T) {
	initTest(t)
	dva := uint32(testAddr)
	progs := []*ChanProgram{
		{Cmd: 0x03, Data: []byte{0, 0, 0, 0}, Flags: CmfCCH},
		{Cmd: 0x02, Data: make([]byte, 4)},
	}
	QueueProgram(testAddr, progs)

	cmd, st := ChanGetCmd(dva)
	if cmd != 0x03 || st != ChsOK {
		t.Fatalf("first command wrong cmd %02x st %02x", cmd, st)
	}
	if st := ChanEnd(dva); st != ChsCCH {
		t.Errorf("chained end should return CCH, got %02x", st)
	}
	cmd, st = ChanGetCmd(dva)
	if cmd != 0x02 || st != ChsOK {
		t.Errorf("second command wrong cmd %02x st %02x", cmd, st)
	}
	if st := ChanEnd(dva); st != ChsOK {
		t.Errorf("last end should return OK, got %02x", st)
	}
}

// Interrupt at end posts a channel interrupt owned by the unit.
func TestChanEndInterrupt(t *testing.T) {
	initTest(t)
	dva := uint32(testAddr) | 3
	QueueProgram(testAddr, []*ChanProgram{{Cmd: 0x04, Data: []byte{0}, Flags: CmfIEND}})

	if _, st := ChanGetCmd(dva); st != ChsOK {
		t.Fatalf("get command failed st %02x", st)
	}
	if ChanChkChi(dva) >= 0 {
		t.Errorf("interrupt pending before end")
	}
	if st := ChanEnd(dva); st != ChsOK {
		t.Errorf("end failed st %02x", st)
	}
	if !IntPending(testAddr) {
		t.Errorf("interrupt not pending after end")
	}
	if iu := ChanClrChi(dva); iu != 3 {
		t.Errorf("interrupt owned by wrong unit %d", iu)
	}
	// Second clear drops the request line instead.
	if iu := ChanClrChi(dva); iu != -1 {
		t.Errorf("second clear should return -1, got %d", iu)
	}
	if IntPending(testAddr) {
		t.Errorf("interrupt still pending after clear")
	}
}

// Unusual end aborts the whole chain.
func TestChanUend(t *testing.T) {
	initTest(t)
	dva := uint32(testAddr) | 1
	progs := []*ChanProgram{
		{Cmd: 0x01, Data: make([]byte, 4), Flags: CmfCCH},
		{Cmd: 0x02, Data: make([]byte, 4)},
	}
	QueueProgram(testAddr, progs)

	if _, st := ChanGetCmd(dva); st != ChsOK {
		t.Fatalf("get command failed st %02x", st)
	}
	ChanUend(dva)
	if iu := ChanChkChi(dva); iu != 1 {
		t.Errorf("uend interrupt owned by wrong unit %d", iu)
	}
	if _, st := ChanGetCmd(dva); st != ChsInactive {
		t.Errorf("chained program should be gone, st %02x", st)
	}
}

// Length faults are suppressed when the program asks for it.
func TestChanFault(t *testing.T) {
	initTest(t)
	dva := uint32(testAddr)
	QueueProgram(testAddr, []*ChanProgram{{Cmd: 0x03, Data: []byte{0, 0}, Flags: CmfSLI}})

	if _, st := ChanGetCmd(dva); st != ChsOK {
		t.Fatalf("get command failed st %02x", st)
	}
	if ChanSetFault(dva, ChfLNTE) {
		t.Errorf("suppressed length fault should not terminate")
	}
	if ChanFault(testAddr)&ChfLNTE == 0 {
		t.Errorf("fault not recorded")
	}
	if !ChanSetFault(dva, ChfXMDE) {
		t.Errorf("data fault should terminate")
	}
	if ChanChkChi(dva) < 0 {
		t.Errorf("terminating fault should post interrupt")
	}
}

// Reset clears program and interrupt state and resets devices.
func TestResetChannels(t *testing.T) {
	initTest(t)
	dva := uint32(testAddr)
	QueueProgram(testAddr, []*ChanProgram{{Cmd: 0x01, Data: make([]byte, 4)}})
	if _, st := ChanGetCmd(dva); st != ChsOK {
		t.Fatalf("get command failed st %02x", st)
	}
	ChanUend(dva)
	ResetChannels()
	if testDevice.resets != 1 {
		t.Errorf("device reset not called")
	}
	if IntPending(testAddr) {
		t.Errorf("interrupt survived reset")
	}
	if _, st := ChanGetCmd(dva); st != ChsInactive {
		t.Errorf("program survived reset, st %02x", st)
	}
}
