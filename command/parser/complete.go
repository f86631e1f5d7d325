/*
 * Sigma - Command completion functions.
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
	"slices"
	"strings"
	"unicode"

	command "github.com/rcornwell/sigma/command/command"
)

// Called to complete a command line, during line editing.
func CompleteCmd(commandLine string) []string {
	line := cmdLine{line: commandLine}
	name := line.getWord(false)

	// We have a command, let it try and complete it.
	if !line.isEOL() && !unicode.IsSpace(rune(line.getCurrent())) {
		// See if there is a completer for this command.
		match := matchList(name)
		if len(match) != 1 {
			return nil
		}

		if match[0].Complete != nil {
			return match[0].Complete(&line)
		}
		return nil
	}

	// Try and match one command.
	var matches []string
	for _, m := range cmdList {
		if strings.HasPrefix(m.Name, name) {
			matches = append(matches, m.Name)
		}
	}
	slices.Sort(matches)
	return matches
}

// Match a partial device name against registered devices. The scan
// position is restored so the name can be parsed again.
func (line *cmdLine) matchDevice() []string {
	line.skipSpace()
	pos := line.pos
	leading := line.line[:line.pos]
	partial := strings.ToUpper(line.getToken())
	line.pos = pos

	devices := []string{}
	for _, name := range command.ListDevices() {
		if strings.HasPrefix(name, partial) {
			devices = append(devices, leading+strings.ToLower(name)+" ")
		}
	}
	return devices
}

// Complete option names valid for a command type.
func (line *cmdLine) matchOptions(device command.Command, cmdType int) []string {
	leading := line.line[:line.pos]
	partial := line.getWord(true)

	matches := []string{}
	for _, opt := range device.Options(cmdType) {
		if (opt.OptionValid & cmdType) == 0 {
			continue
		}
		name := strings.ToLower(opt.Name)
		if strings.HasPrefix(name, partial) {
			eq := " "
			if opt.OptionType != command.OptionSwitch {
				eq = "="
			}
			matches = append(matches, leading+name+eq)
		}
	}
	return matches
}

// Complete device style commands.
func (line *cmdLine) scanDevice(cmdType int) []string {
	devices := line.matchDevice()
	if len(devices) != 1 {
		return devices
	}

	device, _, err := line.getDevice()
	if err != nil {
		return devices
	}

	return line.matchOptions(device, cmdType)
}

// Attach command completion.
func attachComplete(line *cmdLine) []string {
	return line.scanDevice(command.ValidAttach)
}

// Set/Unset command completion.
func setComplete(line *cmdLine) []string {
	return line.scanDevice(command.ValidSet)
}

// Show command completion.
func showComplete(line *cmdLine) []string {
	return line.scanDevice(command.ValidShow)
}

// Complete commands that only need a device name.
func deviceComplete(line *cmdLine) []string {
	return line.matchDevice()
}
