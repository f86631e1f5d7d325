/*
 * Sigma - Flat sector file backing store
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
	"errors"
	"io"
	"os"
)

// Words per sector. The file holds fixed size sectors addressed
// linearly, each word stored as four big endian bytes. No metadata is
// kept in the file.
const WordsPerSector = 256

const sectorBytes = WordsPerSector * 4

// Context for one disk image file.
type Context struct {
	file     *os.File // File handle
	readOnly bool     // Disk can not be written
	size     int64    // File size at attach
}

// Check if a file is attached to the context.
func (disk *Context) Attached() bool {
	return disk.file != nil
}

// Check if the disk is write locked.
func (disk *Context) WriteLocked() bool {
	return disk.readOnly
}

// Size of attached file in bytes.
func (disk *Context) Size() int64 {
	return disk.size
}

// Attach a disk image file to the context. The file is created if it
// does not exist and the disk is not write locked.
func (disk *Context) Attach(fileName string, readOnly bool) error {
	if disk.file != nil {
		return errors.New("disk already attached: " + disk.file.Name())
	}
	var file *os.File
	var err error
	if readOnly {
		file, err = os.Open(fileName)
	} else {
		file, err = os.OpenFile(fileName, os.O_RDWR|os.O_CREATE, 0o644)
	}
	if err != nil {
		return err
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}
	disk.file = file
	disk.readOnly = readOnly
	disk.size = stat.Size()
	return nil
}

// Detach the image file from the context.
func (disk *Context) Detach() error {
	if disk.file == nil {
		return errors.New("disk not attached")
	}
	err := disk.file.Close()
	disk.file = nil
	disk.size = 0
	return err
}

// Read one sector at the linear sector address. A read past the end of
// the file, or a short sector, zero fills the remainder.
func (disk *Context) ReadSector(lba uint32, buffer []uint32) error {
	if disk.file == nil {
		return errors.New("disk not attached")
	}
	var by [sectorBytes]byte
	n, err := disk.file.ReadAt(by[:], int64(lba)*sectorBytes)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	for n < sectorBytes {
		by[n] = 0
		n++
	}
	for i := range buffer[:WordsPerSector] {
		buffer[i] = uint32(by[i*4])<<24 | uint32(by[i*4+1])<<16 |
			uint32(by[i*4+2])<<8 | uint32(by[i*4+3])
	}
	return nil
}

// Write one sector at the linear sector address.
func (disk *Context) WriteSector(lba uint32, buffer []uint32) error {
	if disk.file == nil {
		return errors.New("disk not attached")
	}
	if disk.readOnly {
		return errors.New("disk write locked")
	}
	var by [sectorBytes]byte
	for i, wd := range buffer[:WordsPerSector] {
		by[i*4] = byte(wd >> 24)
		by[i*4+1] = byte(wd >> 16)
		by[i*4+2] = byte(wd >> 8)
		by[i*4+3] = byte(wd)
	}
	_, err := disk.file.WriteAt(by[:], int64(lba)*sectorBytes)
	if err != nil {
		return err
	}
	if end := (int64(lba) + 1) * sectorBytes; end > disk.size {
		disk.size = end
	}
	return nil
}

// Create a new disk context.
func NewContext() *Context {
	return &Context{}
}
