/*
 * Sigma - Debug options configuration.
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

package debugconfig

import (
	"errors"
	"strings"

	config "github.com/rcornwell/sigma/config/configparser"
	dev "github.com/rcornwell/sigma/emu/device"
	ch "github.com/rcornwell/sigma/emu/sys_channel"
)

// Devices that support trace options implement this.
type debugger interface {
	Debug(option string) error
}

// register a device on initialize.
func init() {
	config.RegisterModel("DEBUG", config.TypeOptions, setDebug)
}

// Enable debug options for a device named by address.
func setDebug(devNum uint16, device string, options []config.Option) error {
	if devNum == dev.NoDev {
		return errors.New("debug requires a device address: " + device)
	}
	d, err := ch.GetDevice(devNum)
	if err != nil {
		return err
	}
	dbg, ok := d.(debugger)
	if !ok {
		return errors.New("device does not support debug options")
	}

	for _, opt := range options {
		if err := dbg.Debug(strings.ToUpper(opt.Name)); err != nil {
			return err
		}
		for _, value := range opt.Value {
			if err := dbg.Debug(strings.ToUpper(*value)); err != nil {
				return err
			}
		}
	}
	return nil
}
