/*
 * Sigma - Command interface
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

package command

import (
	"sort"
	"strings"
)

// List of options to pass to set or show function
type CmdOption struct {
	Name     string // Name of option.
	EqualOpt string // Value of string after =.
	Value    int    // Numeric value.
}

// List of option types.
const (
	OptionSwitch = 1 + iota
	OptionFile
	OptionNumber
	OptionName
	OptionList
)

const (
	ValidAttach = 1 << iota
	ValidSet
	ValidShow
)

type Options struct {
	Name        string   // Name of option.
	OptionType  int      // Type of argument.
	OptionValid int      // Option valid for command type.
	OptionList  []string // List of valid options for this options.
}

// Console interface to a device. Units are addressed by their number on
// the controller; devices with a single unit get unit 0.
type Command interface {
	Options(cmdType int) []Options                                // Return list of supported options.
	Attach(unit int, fileName string, options []*CmdOption) error // Attach unit to file.
	Detach(unit int) error                                        // Detach a unit.
	Set(set bool, unit int, options []*CmdOption) error           // Do set/unset command.
	Show(unit int, options []*CmdOption) (string, error)          // Do show command.
}

type regDevice struct {
	name   string  // Configured device name.
	devNum uint16  // Device address.
	dev    Command // Console interface.
}

var devices = map[string]*regDevice{}

// Register a device under its configured name so console commands can
// find it.
func RegisterDevice(name string, devNum uint16, dev Command) {
	devices[strings.ToUpper(name)] = &regDevice{name: strings.ToUpper(name), devNum: devNum, dev: dev}
}

// Remove a device registration.
func UnRegisterDevice(name string) {
	delete(devices, strings.ToUpper(name))
}

// Find a device by console name. Names may carry a trailing hex unit
// number, "DPA3" addresses unit 3 of device DPA. A bare device name
// returns unit -1 and addresses the controller itself.
func FindDevice(name string) (Command, int, bool) {
	name = strings.ToUpper(name)
	if d, ok := devices[name]; ok {
		return d.dev, -1, true
	}
	// Strip trailing hex digits off until a device matches.
	for i := len(name) - 1; i > 0; i-- {
		if !isHex(name[i]) {
			break
		}
		if d, ok := devices[name[:i]]; ok {
			unit := 0
			for _, c := range []byte(name[i:]) {
				unit = unit<<4 | hexVal(c)
			}
			return d.dev, unit, true
		}
	}
	return nil, 0, false
}

// List of registered device names, for command completion.
func ListDevices() []string {
	names := make([]string, 0, len(devices))
	for n := range devices {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) int {
	if c >= 'A' {
		return int(c-'A') + 10
	}
	return int(c - '0')
}
