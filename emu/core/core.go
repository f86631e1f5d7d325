/*
   Core Sigma simulator loop.

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

package core

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rcornwell/sigma/emu/event"
)

// Control messages for the simulation loop.
const (
	Start = 1 + iota // Free run the event clock.
	Stop             // Halt the event clock.
	Step             // Advance the event clock Count ticks.
)

type Packet struct {
	Msg   int // Control message.
	Count int // Tick count for Step.
}

type Core struct {
	wg      sync.WaitGroup
	done    chan struct{} // Signal to shutdown simulator.
	running bool          // Indicate when simulator should run or not.
	steps   int           // Pending single step ticks.
	Master  chan Packet
}

// Create instance of simulation core.
func NewCore(master chan Packet) *Core {
	return &Core{
		Master: master,
		done:   make(chan struct{}),
	}
}

// Run the event clock until told to shut down.
func (core *Core) Start() {
	core.wg.Add(1)
	defer core.wg.Done()
	for {
		if core.running && event.AnyEvent() {
			event.Advance(1)
		} else if core.steps > 0 {
			event.Advance(1)
			core.steps--
		}
		select {
		case <-core.done:
			return
		case packet := <-core.Master:
			core.processPacket(packet)
		default:
		}
	}
}

// Stop a running server.
func (core *Core) Stop() {
	slog.Info("Shutting down simulator")
	close(core.done)
	done := make(chan struct{})
	go func() {
		core.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(time.Second):
		slog.Warn("Timed out waiting for simulator to finish.")
		return
	}
}

// Start the event clock.
func (core *Core) SendStart() {
	core.Master <- Packet{Msg: Start}
}

// Stop the event clock.
func (core *Core) SendStop() {
	core.Master <- Packet{Msg: Stop}
}

// Advance the event clock a fixed number of ticks.
func (core *Core) SendStep(count int) {
	core.Master <- Packet{Msg: Step, Count: count}
}

// Process a packet sent to system simulation.
func (core *Core) processPacket(packet Packet) {
	switch packet.Msg {
	case Start:
		core.running = true
	case Stop:
		core.running = false
	case Step:
		core.steps += packet.Count
	}
}
