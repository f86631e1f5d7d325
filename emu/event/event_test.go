/*
 * Sigma - Event system test cases.
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

package event

import (
	"testing"
)

type testDev struct {
	iarg  int
	time  uint64
	count int
}

// Callbacks, save virtual time and set argument to iarg.
func (d *testDev) callback(iarg int) {
	d.iarg = iarg
	d.time = Time()
	d.count++
}

// Callback that schedules a followup event on deviceA.
func (d *testDev) chainCallback(iarg int) {
	d.iarg = iarg
	d.time = Time()
	d.count++
	AddEvent(deviceA, deviceA.callback, iarg, iarg)
}

func (d *testDev) Dispatch(_ int, _ uint32) (uint32, int) {
	return 0, 0
}

func (d *testDev) Reset() {
}

var (
	deviceA = &testDev{}
	deviceB = &testDev{}
	deviceC = &testDev{}
)

// Initialize for each test.
func initTest() {
	ClearEvents()
	stepCount = 0
	*deviceA = testDev{}
	*deviceB = testDev{}
	*deviceC = testDev{}
}

func TestAddEvent1(t *testing.T) {
	initTest()
	AddEvent(deviceA, deviceA.callback, 10, 1)
	for _i := 0; _i < 20; _i++ {
		Advance(1)
	}
	if deviceA.time != 10 {
		t.Errorf("Event did not fire at correct time %d got %d", 10, deviceA.time)
	}
	if deviceA.iarg != 1 {
		t.Errorf("Event did not set data correct %d got %d", 1, deviceA.iarg)
	}
}

// Add two events.
func TestAddEvent2(t *testing.T) {
	initTest()
	AddEvent(deviceA, deviceA.callback, 10, 1)
	AddEvent(deviceB, deviceB.callback, 5, 2)
	for _i := 0; _i < 20; _i++ {
		Advance(1)
	}
	if deviceA.time != 10 {
		t.Errorf("Event A did not fire at correct time %d got %d", 10, deviceA.time)
	}
	if deviceA.iarg != 1 {
		t.Errorf("Event A did not set data correct %d got %d", 1, deviceA.iarg)
	}
	if deviceB.time != 5 {
		t.Errorf("Event B did not fire at correct time %d got %d", 5, deviceB.time)
	}
	if deviceB.iarg != 2 {
		t.Errorf("Event B did not set data correct %d got %d", 2, deviceB.iarg)
	}
}

// Add event with same time.
func TestAddEvent3(t *testing.T) {
	initTest()
	AddEvent(deviceA, deviceA.callback, 10, 1)
	AddEvent(deviceB, deviceB.callback, 10, 2)
	for _i := 0; _i < 20; _i++ {
		Advance(1)
	}
	if deviceA.time != 10 {
		t.Errorf("Event A did not fire at correct time %d got %d", 10, deviceA.time)
	}
	if deviceB.time != 10 {
		t.Errorf("Event B did not fire at correct time %d got %d", 10, deviceB.time)
	}
}

// Add event during event.
func TestAddEvent4(t *testing.T) {
	initTest()
	AddEvent(deviceC, deviceC.chainCallback, 10, 2)
	for _i := 0; _i < 30; _i++ {
		Advance(1)
	}
	if deviceC.time != 10 {
		t.Errorf("Event C did not fire at correct time %d got %d", 10, deviceC.time)
	}
	if deviceA.time != 12 {
		t.Errorf("Chained event did not fire at correct time %d got %d", 12, deviceA.time)
	}
}

// Zero time fires the callback immediately.
func TestAddEvent5(t *testing.T) {
	initTest()
	AddEvent(deviceA, deviceA.callback, 0, 7)
	if deviceA.count != 1 {
		t.Errorf("Zero time event did not fire immediately")
	}
	if deviceA.iarg != 7 {
		t.Errorf("Event did not set data correct %d got %d", 7, deviceA.iarg)
	}
}

// Cancel an event, other events keep their schedule.
func TestCancelEvent(t *testing.T) {
	initTest()
	AddEvent(deviceA, deviceA.callback, 10, 1)
	AddEvent(deviceB, deviceB.callback, 20, 2)
	CancelEvent(deviceA, 1)
	if IsActive(deviceA, 1) {
		t.Errorf("Canceled event still active")
	}
	for _i := 0; _i < 30; _i++ {
		Advance(1)
	}
	if deviceA.count != 0 {
		t.Errorf("Canceled event fired")
	}
	if deviceB.time != 20 {
		t.Errorf("Event B did not fire at correct time %d got %d", 20, deviceB.time)
	}
}

// Two timelines on the same device, cancel only one of them.
func TestCancelEvent2(t *testing.T) {
	initTest()
	AddEvent(deviceA, deviceA.callback, 10, 1)
	AddEvent(deviceA, deviceA.callback, 15, 0x11)
	CancelEvent(deviceA, 1)
	if IsActive(deviceA, 1) {
		t.Errorf("Canceled event still active")
	}
	if !IsActive(deviceA, 0x11) {
		t.Errorf("Other timeline should still be active")
	}
	for _i := 0; _i < 30; _i++ {
		Advance(1)
	}
	if deviceA.time != 15 {
		t.Errorf("Remaining event did not fire at correct time %d got %d", 15, deviceA.time)
	}
	if deviceA.iarg != 0x11 {
		t.Errorf("Remaining event did not set data correct %d got %d", 0x11, deviceA.iarg)
	}
}

// Replace a pending event with a new schedule.
func TestAddEventAbs(t *testing.T) {
	initTest()
	AddEvent(deviceA, deviceA.callback, 10, 1)
	AddEventAbs(deviceA, deviceA.callback, 25, 1)
	for _i := 0; _i < 30; _i++ {
		Advance(1)
	}
	if deviceA.count != 1 {
		t.Errorf("Replaced event fired %d times", deviceA.count)
	}
	if deviceA.time != 25 {
		t.Errorf("Event did not fire at correct time %d got %d", 25, deviceA.time)
	}
}

// Advance in large steps, overshoot carries to following events.
func TestAdvance(t *testing.T) {
	initTest()
	AddEvent(deviceA, deviceA.callback, 10, 1)
	AddEvent(deviceB, deviceB.callback, 12, 2)
	for _i := 0; _i < 5; _i++ {
		Advance(4)
	}
	if deviceA.count != 1 || deviceB.count != 1 {
		t.Errorf("Events did not fire once each")
	}
	if deviceA.time != 12 {
		t.Errorf("Event A did not fire at correct step %d got %d", 12, deviceA.time)
	}
	if deviceB.time != 12 {
		t.Errorf("Event B did not fire at correct step %d got %d", 12, deviceB.time)
	}
}
