/*
 * Sigma - Disk backing store test cases.
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

package disk

import (
	"os"
	"path/filepath"
	"testing"
)

func tempImage(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "disk.img")
}

func TestAttach(t *testing.T) {
	name := tempImage(t)
	ctx := NewContext()
	if ctx.Attached() {
		t.Errorf("new context should not be attached")
	}
	if err := ctx.Attach(name, false); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if !ctx.Attached() {
		t.Errorf("context should be attached")
	}
	if err := ctx.Attach(name, false); err == nil {
		t.Errorf("double attach should fail")
	}
	if ctx.Size() != 0 {
		t.Errorf("new image should be empty, size %d", ctx.Size())
	}
	if err := ctx.Detach(); err != nil {
		t.Errorf("detach failed: %v", err)
	}
	if err := ctx.Detach(); err == nil {
		t.Errorf("double detach should fail")
	}
}

// Read only attach refuses to create the file.
func TestAttachReadOnly(t *testing.T) {
	name := tempImage(t)
	ctx := NewContext()
	if err := ctx.Attach(name, true); err == nil {
		t.Errorf("read only attach of missing file should fail")
	}
	if err := os.WriteFile(name, make([]byte, sectorBytes), 0o644); err != nil {
		t.Fatalf("unable to create image: %v", err)
	}
	if err := ctx.Attach(name, true); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if !ctx.WriteLocked() {
		t.Errorf("context should be write locked")
	}
	var buffer [WordsPerSector]uint32
	if err := ctx.WriteSector(0, buffer[:]); err == nil {
		t.Errorf("write to locked disk should fail")
	}
	_ = ctx.Detach()
}

func TestReadWrite(t *testing.T) {
	name := tempImage(t)
	ctx := NewContext()
	if err := ctx.Attach(name, false); err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	var out, in [WordsPerSector]uint32
	for i := range out {
		out[i] = uint32(i) * 0x01010101
	}
	if err := ctx.WriteSector(5, out[:]); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if ctx.Size() != 6*sectorBytes {
		t.Errorf("size not tracked, got %d", ctx.Size())
	}
	if err := ctx.ReadSector(5, in[:]); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if in != out {
		t.Errorf("read data does not match written data")
	}

	// Sectors never written read as zero.
	if err := ctx.ReadSector(2, in[:]); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	for i, wd := range in {
		if wd != 0 {
			t.Errorf("unwritten word %d not zero: %08x", i, wd)
			break
		}
	}

	// Reads past end of file zero fill.
	if err := ctx.ReadSector(100, in[:]); err != nil {
		t.Fatalf("read past end failed: %v", err)
	}
	_ = ctx.Detach()
}

// Words are stored big endian in the image.
func TestByteOrder(t *testing.T) {
	name := tempImage(t)
	ctx := NewContext()
	if err := ctx.Attach(name, false); err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	var out [WordsPerSector]uint32
	out[0] = 0x01020304
	if err := ctx.WriteSector(0, out[:]); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	_ = ctx.Detach()

	by, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("unable to read image: %v", err)
	}
	want := []byte{1, 2, 3, 4}
	for i, b := range want {
		if by[i] != b {
			t.Errorf("byte %d got %02x want %02x", i, by[i], b)
		}
	}
}
