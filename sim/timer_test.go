package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Timer", func() {
	var (
		engine *SerialEngine
	)

	BeforeEach(func() {
		engine = NewSerialEngine()
	})

	It("should fire the event after the delay", func() {
		fired := false
		timer := NewTimer(engine, NewFuncEvent(func() { fired = true }))

		Expect(timer.Start(2.0)).To(BeTrue())
		Expect(timer.IsRunning()).To(BeTrue())

		engine.RunUntil(3.0)

		Expect(fired).To(BeTrue())
		Expect(timer.IsRunning()).To(BeFalse())
	})

	It("should not start when already running", func() {
		timer := NewTimer(engine, NewNoOpEvent())

		Expect(timer.Start(2.0)).To(BeTrue())
		Expect(timer.Start(1.0)).To(BeFalse())
	})

	It("should stop a running timer", func() {
		fired := false
		timer := NewTimer(engine, NewFuncEvent(func() { fired = true }))

		timer.Start(2.0)
		Expect(timer.Stop()).To(BeTrue())
		Expect(timer.IsRunning()).To(BeFalse())

		engine.RunUntil(3.0)
		Expect(fired).To(BeFalse())
	})

	It("should treat stopping an idle timer as a no-op", func() {
		timer := NewTimer(engine, NewNoOpEvent())
		Expect(timer.Stop()).To(BeFalse())
	})

	It("should reschedule regardless of running state", func() {
		var firedAt VTimeInSec
		timer := NewTimer(engine, NewFuncEvent(func() {
			firedAt = engine.CurrentTime()
		}))

		timer.Start(5.0)
		Expect(timer.Reschedule(1.0)).To(BeTrue())

		engine.RunUntil(10.0)
		Expect(firedAt).To(Equal(VTimeInSec(1.0)))
	})

	It("should report the time remaining", func() {
		timer := NewTimer(engine, NewNoOpEvent())

		Expect(timer.TimeRemaining()).To(Equal(VTimeInSec(0)))

		timer.Start(4.0)
		Expect(timer.TimeRemaining()).To(Equal(VTimeInSec(4.0)))
	})

	It("should stop before swapping events", func() {
		fired := false
		timer := NewTimer(engine, NewFuncEvent(func() { fired = true }))
		timer.Start(1.0)

		replacementFired := false
		timer.SetEvent(NewFuncEvent(func() { replacementFired = true }))
		Expect(timer.IsRunning()).To(BeFalse())

		timer.Start(2.0)
		engine.RunUntil(5.0)

		Expect(fired).To(BeFalse())
		Expect(replacementFired).To(BeTrue())
	})
})
