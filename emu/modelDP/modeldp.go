/* Sigma moving head disk pack controller.

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

   This module simulates five Sigma controller/disk pack pairs (7240, 7270;
   7260, 7265, 7275) and one Telefile controller that supported different
   disk models on the same controller (T3281/3282/3283/3288).

   Transfers are always done a sector at a time. Each drive runs two
   timelines: one timing channel operations, one timing asynchronous seek
   completions. The controller will not start a new operation while it is
   busy (any main timeline active) or while the target drive is busy (its
   seek timeline active).

   The seek interrupt comes and goes, lasting only a sector's time, and is
   knocked down by any SIO to a different unit:

   1. If there's a controller interrupt, the SIO fails.
   2. If there's a seek interrupt on the selected unit, the SIO fails.
   3. All other seek interrupts are knocked down and rescheduled for
      some time in the future.
   4. The SIO completes normally.
*/

package modeldp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	command "github.com/rcornwell/sigma/command/command"
	config "github.com/rcornwell/sigma/config/configparser"
	event "github.com/rcornwell/sigma/emu/event"
	ch "github.com/rcornwell/sigma/emu/sys_channel"
	"github.com/rcornwell/sigma/util/disk"
)

const (
	// Debug options.
	debugCmd = 1 << iota
	debugData
	debugDetail
)

var debugOption = map[string]int{
	"CMD":    debugCmd,
	"DATA":   debugData,
	"DETAIL": debugDetail,
}

// Enable a debug trace option by name.
func (ctl *ModelDPctx) Debug(opt string) error {
	mask, ok := debugOption[strings.ToUpper(opt)]
	if !ok {
		return errors.New("invalid debug option: " + opt)
	}
	ctl.debugMsk |= mask
	return nil
}

// One drive on the controller. Unit number ctlUnit is the controller
// pseudo unit and never owns a disk.
type dpUnit struct {
	dtype   int           // Index into dpTypes
	uda     uint32        // Packed disk address register
	cmd     int           // Current command state
	shadow  int           // Seek completion state
	wlock   bool          // Drive is write locked
	auto    bool          // Autosize on attach (T3281 only)
	context *disk.Context // Backing store
}

// Context for one disk pack controller.
type ModelDPctx struct {
	addr     uint16                   // Controller device address
	name     string                   // Console name
	ctype    int                      // Controller type
	time     int                      // Inter-word time
	stime    int                      // Inter-track seek time
	flags    uint32                   // Status flags plus cylinder difference
	ski      uint16                   // Pending seek interrupts by unit
	test     uint16                   // Test mode register
	stopIOE  bool                     // Stop simulation on I/O error
	debugMsk int                      // Debug trace options
	units    [numDrives16B + 1]dpUnit // Drives plus controller pseudo unit
	buffer   [wordsPerSector]uint32   // Sector transfer buffer
}

// Number of drives for the configured controller type.
func (ctl *ModelDPctx) numDrives() int {
	if q10B(ctl.ctype) {
		return numDrives10B
	}
	return numDrives16B
}

// Default drive type for a controller type.
func defaultDrive(ctype int) int {
	for i := range dpTypes {
		if dpTypes[i].ctype == ctype {
			return i
		}
	}
	return 0
}

// Find a drive type by name.
func findDrive(name string) int {
	for i := range dpTypes {
		if dpTypes[i].name == name {
			return i
		}
	}
	return -1
}

// Select a new controller type. All drives must be detached since the
// change resets per drive geometry.
func (ctl *ModelDPctx) setCtlType(name string) error {
	ctype := -1
	for i, cn := range ctlNames {
		if strings.EqualFold(cn, name) {
			ctype = i
		}
	}
	if ctype < 0 {
		return errors.New("unknown controller type: " + name)
	}
	if ctype == ctl.ctype {
		return nil
	}
	for i := 0; i < ctl.numDrives(); i++ {
		if ctl.units[i].context.Attached() {
			return errors.New("controller type change requires all drives detached")
		}
	}
	ctl.ctype = ctype
	dtype := defaultDrive(ctype)
	for i := 0; i < numDrives16B; i++ {
		ctl.units[i].dtype = dtype
		if ctype != ctl3281 {
			ctl.units[i].auto = false
		}
	}
	return nil
}

// Reset the controller: stop both timelines of every drive, clear
// flags, seek interrupts and test mode. Controller type and timing
// survive a reset.
func (ctl *ModelDPctx) Reset() {
	for i := 0; i <= numDrives16B; i++ {
		event.CancelEvent(ctl, i)
		event.CancelEvent(ctl, i+seekTimer)
		ctl.units[i].uda = 0
		ctl.units[i].cmd = dpsIdle
		ctl.units[i].shadow = dscSeek
	}
	ctl.flags = 0
	ctl.ski = 0
	ctl.test = 0
	ch.ChanResetDev(uint32(ctl.addr))
}

// Console option list.
func (ctl *ModelDPctx) Options(cmdType int) []command.Options {
	opts := []command.Options{
		{Name: "TYPE", OptionType: command.OptionName, OptionValid: command.ValidSet},
		{Name: "TIME", OptionType: command.OptionNumber, OptionValid: command.ValidSet},
		{Name: "STIME", OptionType: command.OptionNumber, OptionValid: command.ValidSet},
		{Name: "LOCKED", OptionType: command.OptionSwitch, OptionValid: command.ValidSet | command.ValidAttach},
		{Name: "WRITEENABLED", OptionType: command.OptionSwitch, OptionValid: command.ValidSet | command.ValidAttach},
		{Name: "AUTOSIZE", OptionType: command.OptionSwitch, OptionValid: command.ValidSet | command.ValidAttach},
		{Name: "DEBUG", OptionType: command.OptionList, OptionValid: command.ValidSet,
			OptionList: []string{"CMD", "DATA", "DETAIL"}},
	}
	for i := range dpTypes {
		opts = append(opts, command.Options{Name: dpTypes[i].name,
			OptionType: command.OptionSwitch, OptionValid: command.ValidSet})
	}
	return opts
}

// Attach a disk image to one drive.
func (ctl *ModelDPctx) Attach(unit int, fileName string, options []*command.CmdOption) error {
	if unit < 0 || unit >= ctl.numDrives() {
		return fmt.Errorf("%s: no such unit %d", ctl.name, unit)
	}
	u := &ctl.units[unit]
	for _, opt := range options {
		switch opt.Name {
		case "LOCKED":
			u.wlock = true
		case "WRITEENABLED":
			u.wlock = false
		case "AUTOSIZE":
			if ctl.ctype != ctl3281 {
				return errors.New("autosize only supported on the T3281")
			}
			u.auto = true
		default:
			return errors.New("invalid attach option: " + opt.Name)
		}
	}
	if err := u.context.Attach(fileName, u.wlock); err != nil {
		return err
	}
	if u.auto && u.context.Size() != 0 {
		// Pick the smallest cataloged drive that covers the file.
		for i := range dpTypes {
			if dpTypes[i].ctype == ctl3281 &&
				u.context.Size() <= int64(dpTypes[i].capac)*4 {
				u.dtype = i
				break
			}
		}
	}
	return nil
}

// Detach the image from one drive.
func (ctl *ModelDPctx) Detach(unit int) error {
	if unit < 0 || unit >= ctl.numDrives() {
		return fmt.Errorf("%s: no such unit %d", ctl.name, unit)
	}
	return ctl.units[unit].context.Detach()
}

// Handle set/unset console command.
func (ctl *ModelDPctx) Set(set bool, unit int, options []*command.CmdOption) error {
	for _, opt := range options {
		switch opt.Name {
		case "TYPE":
			if !set {
				return errors.New("controller type can not be unset")
			}
			if err := ctl.setCtlType(opt.EqualOpt); err != nil {
				return err
			}
		case "TIME":
			ctl.time = opt.Value
		case "STIME":
			ctl.stime = opt.Value
		case "LOCKED":
			if unit < 0 || unit >= ctl.numDrives() {
				return errors.New("option LOCKED requires a unit")
			}
			ctl.units[unit].wlock = set
		case "WRITEENABLED":
			if unit < 0 || unit >= ctl.numDrives() {
				return errors.New("option WRITEENABLED requires a unit")
			}
			ctl.units[unit].wlock = !set
		case "AUTOSIZE":
			if ctl.ctype != ctl3281 {
				return errors.New("autosize only supported on the T3281")
			}
			if unit < 0 || unit >= ctl.numDrives() {
				return errors.New("option AUTOSIZE requires a unit")
			}
			ctl.units[unit].auto = set
		case "DEBUG":
			mask, ok := debugOption[strings.ToUpper(opt.EqualOpt)]
			if !ok {
				return errors.New("invalid debug option: " + opt.EqualOpt)
			}
			if set {
				ctl.debugMsk |= mask
			} else {
				ctl.debugMsk &^= mask
			}
		default:
			// Drive type names select a new drive type on the T3281.
			dtype := findDrive(opt.Name)
			if dtype < 0 {
				return errors.New("invalid option: " + opt.Name)
			}
			if unit < 0 || unit >= ctl.numDrives() {
				return errors.New("drive type requires a unit")
			}
			if ctl.ctype != ctl3281 {
				return errors.New("drive type can only be set on the T3281")
			}
			if ctl.units[unit].context.Attached() {
				return errors.New("drive type change requires the unit detached")
			}
			ctl.units[unit].dtype = dtype
		}
	}
	return nil
}

// Handle show console command.
func (ctl *ModelDPctx) Show(unit int, _ []*command.CmdOption) (string, error) {
	if unit >= ctl.numDrives() {
		return "", fmt.Errorf("%s: no such unit %d", ctl.name, unit)
	}
	if unit >= 0 {
		u := &ctl.units[unit]
		str := fmt.Sprintf("%s%X %s addr=%02X/%02X/%02X cmd=%03x",
			ctl.name, unit, dpTypes[u.dtype].name,
			dpaCyl(u.uda), dpaHead(u.uda), dpaSec(u.uda), u.cmd)
		if u.wlock {
			str += " locked"
		}
		if u.context.Attached() {
			str += " attached"
		}
		return str, nil
	}
	str := fmt.Sprintf("%s %s controller flags=%02x diff=%d ski=%04x test=%04x",
		ctl.name, ctlNames[ctl.ctype], ctl.flags&0xFF,
		(ctl.flags>>dpfVDiff)&dpfMDiff, ctl.ski, ctl.test)
	return str, nil
}

// register a device on initialize.
func init() {
	config.RegisterModel("DP", config.TypeModel, create)
}

// Create a disk pack controller.
func create(devNum uint16, name string, options []config.Option) error {
	ctl := &ModelDPctx{
		addr:  devNum,
		name:  name,
		ctype: ctl7270,
		time:  1,
		stime: 20,
	}
	if ctl.name == "" {
		ctl.name = "DP" + strconv.FormatUint(uint64(devNum), 16)
	}
	for i := 0; i <= numDrives16B; i++ {
		ctl.units[i].context = disk.NewContext()
	}
	for _, option := range options {
		switch strings.ToUpper(option.Name) {
		case "TYPE":
			if err := ctl.setCtlType(option.EqualOpt); err != nil {
				return err
			}
		case "TIME":
			t, err := strconv.Atoi(option.EqualOpt)
			if err != nil || t <= 0 {
				return errors.New("invalid TIME option: " + option.EqualOpt)
			}
			ctl.time = t
		case "STIME":
			t, err := strconv.Atoi(option.EqualOpt)
			if err != nil || t <= 0 {
				return errors.New("invalid STIME option: " + option.EqualOpt)
			}
			ctl.stime = t
		case "STOPIOE":
			ctl.stopIOE = true
		default:
			return errors.New("DP invalid option: " + option.Name)
		}
	}
	dtype := defaultDrive(ctl.ctype)
	for i := 0; i <= numDrives16B; i++ {
		ctl.units[i].dtype = dtype
	}
	if err := ch.AddDevice(ctl, devNum); err != nil {
		return fmt.Errorf("unable to create DP at %03x", devNum)
	}
	command.RegisterDevice(ctl.name, devNum, ctl)
	return nil
}
