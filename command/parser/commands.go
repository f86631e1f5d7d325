/*
 * Sigma - Command executer.
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

package parser

import (
	"errors"
	"fmt"
	"log/slog"

	command "github.com/rcornwell/sigma/command/command"
	core "github.com/rcornwell/sigma/emu/core"
)

var cmdList = []cmd{
	{Name: "attach", Min: 2, Process: attach, Complete: attachComplete},
	{Name: "detach", Min: 2, Process: detach, Complete: deviceComplete},
	{Name: "set", Min: 3, Process: set, Complete: setComplete},
	{Name: "unset", Min: 4, Process: unset, Complete: setComplete},
	{Name: "quit", Min: 4, Process: quit},
	{Name: "stop", Min: 3, Process: stop},
	{Name: "continue", Min: 1, Process: cont},
	{Name: "start", Min: 3, Process: start},
	{Name: "step", Min: 4, Process: step},
	{Name: "show", Min: 2, Process: show, Complete: showComplete},
	{Name: "reset", Min: 5, Process: reset, Complete: deviceComplete},
}

// Handle attach commands.
func attach(line *cmdLine, _ *core.Core) (bool, error) {
	slog.Debug("Command Attach")

	device, unit, err := line.getDevice()
	if err != nil {
		return false, err
	}

	optlist, err := line.getOptions(device, command.ValidAttach)
	if err != nil {
		return false, err
	}
	fileName := ""
	opts := []*command.CmdOption{}
	for _, opt := range optlist {
		if opt.Name == "file" {
			fileName = opt.EqualOpt
			continue
		}
		opts = append(opts, opt)
	}
	if fileName == "" {
		return false, errors.New("no file given to attach command")
	}
	return false, device.Attach(unit, fileName, opts)
}

// Handle detach command.
func detach(line *cmdLine, _ *core.Core) (bool, error) {
	slog.Debug("Command Detach")

	device, unit, err := line.getDevice()
	if err != nil {
		return false, err
	}
	return false, device.Detach(unit)
}

// Handle set commands.
func set(line *cmdLine, _ *core.Core) (bool, error) {
	slog.Debug("Command Set")

	device, unit, err := line.getDevice()
	if err != nil {
		return false, err
	}

	optlist, err := line.getOptions(device, command.ValidSet)
	if err != nil {
		return false, err
	}
	if len(optlist) == 0 {
		return false, errors.New("no options given to set command")
	}
	return false, device.Set(true, unit, optlist)
}

// Handle unset commands.
func unset(line *cmdLine, _ *core.Core) (bool, error) {
	slog.Debug("Command Unset")

	device, unit, err := line.getDevice()
	if err != nil {
		return false, err
	}

	optlist, err := line.getOptions(device, command.ValidSet)
	if err != nil {
		return false, err
	}
	if len(optlist) == 0 {
		return false, errors.New("no options given to unset command")
	}
	return false, device.Set(false, unit, optlist)
}

// Handle commands that quit simulation.
func quit(_ *cmdLine, _ *core.Core) (bool, error) {
	slog.Debug("Command Quit")
	return true, nil
}

// Stop the event clock.
func stop(_ *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Stop")
	core.SendStop()
	return false, nil
}

// Continue simulation from where it left off.
func cont(_ *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Continue")
	core.SendStart()
	return false, nil
}

// Start simulation.
func start(_ *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Start")
	core.SendStart()
	return false, nil
}

// Advance the event clock a fixed number of ticks.
func step(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Step")
	count := 1
	if !line.isEOL() {
		num, err := line.getNumber()
		if err != nil {
			return false, err
		}
		count = num
	}
	core.SendStep(count)
	return false, nil
}

// Process the show command.
func show(line *cmdLine, _ *core.Core) (bool, error) {
	slog.Debug("Command Show")
	line.skipSpace()
	if line.isEOL() {
		// Show every registered device.
		for _, name := range command.ListDevices() {
			device, _, ok := command.FindDevice(name)
			if !ok {
				continue
			}
			out, err := device.Show(-1, nil)
			if err != nil {
				continue
			}
			fmt.Println(out)
		}
		return false, nil
	}

	device, unit, err := line.getDevice()
	if err != nil {
		return false, err
	}

	optlist, err := line.getShowOptions(device)
	if err != nil {
		return false, err
	}

	out, err := device.Show(unit, optlist)
	if err != nil {
		return false, err
	}

	fmt.Println(out)
	return false, nil
}

// Reset a device, or all devices.
func reset(line *cmdLine, _ *core.Core) (bool, error) {
	slog.Debug("Command Reset")
	line.skipSpace()

	names := []string{}
	if line.isEOL() {
		names = command.ListDevices()
	} else {
		names = append(names, line.getToken())
	}

	for _, name := range names {
		device, _, ok := command.FindDevice(name)
		if !ok {
			return false, errors.New("no such device: " + name)
		}
		if rst, can := device.(interface{ Reset() }); can {
			rst.Reset()
		}
	}
	return false, nil
}
