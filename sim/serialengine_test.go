package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SerialEngine", func() {
	var (
		engine *SerialEngine
	)

	BeforeEach(func() {
		engine = NewSerialEngine()
	})

	It("should run events in time order", func() {
		var order []int

		engine.Schedule(NewFuncEvent(func() { order = append(order, 3) }), 3.0)
		engine.Schedule(NewFuncEvent(func() { order = append(order, 1) }), 1.0)
		engine.Schedule(NewFuncEvent(func() { order = append(order, 2) }), 2.0)

		engine.RunUntil(10.0)

		Expect(order).To(Equal([]int{1, 2, 3}))
		Expect(engine.CurrentTime()).To(Equal(VTimeInSec(10.0)))
	})

	It("should run same-time events in scheduling order", func() {
		var order []int

		for i := 0; i < 10; i++ {
			i := i
			engine.Schedule(
				NewFuncEvent(func() { order = append(order, i) }), 1.0)
		}

		engine.RunUntil(2.0)

		Expect(order).To(Equal([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}))
	})

	It("should allow events to schedule more events", func() {
		var times []VTimeInSec

		engine.Schedule(NewFuncEvent(func() {
			times = append(times, engine.CurrentTime())
			engine.Schedule(NewFuncEvent(func() {
				times = append(times, engine.CurrentTime())
			}), 1.5)
		}), 1.0)

		engine.RunUntil(10.0)

		Expect(times).To(Equal([]VTimeInSec{1.0, 2.5}))
	})

	It("should not run events past the stop time", func() {
		ran := false
		engine.Schedule(NewFuncEvent(func() { ran = true }), 5.0)

		engine.RunUntil(2.0)

		Expect(ran).To(BeFalse())
		Expect(engine.CurrentTime()).To(Equal(VTimeInSec(2.0)))
	})

	It("should mark events queued and unqueued", func() {
		evt := NewNoOpEvent()

		engine.Schedule(evt, 1.0)
		Expect(evt.InQueue()).To(BeTrue())

		engine.RunUntil(2.0)
		Expect(evt.InQueue()).To(BeFalse())
	})

	It("should cancel queued events", func() {
		ran := false
		evt := NewFuncEvent(func() { ran = true })

		engine.Schedule(evt, 1.0)
		Expect(engine.Cancel(evt)).To(BeTrue())
		Expect(evt.InQueue()).To(BeFalse())

		engine.RunUntil(2.0)
		Expect(ran).To(BeFalse())
	})

	It("should refuse to cancel an unqueued event", func() {
		evt := NewNoOpEvent()
		Expect(engine.Cancel(evt)).To(BeFalse())
	})

	It("should panic on negative delays", func() {
		Expect(func() {
			engine.Schedule(NewNoOpEvent(), -1.0)
		}).To(Panic())
	})

	It("should panic when double-scheduling an event", func() {
		evt := NewNoOpEvent()
		engine.Schedule(evt, 1.0)

		Expect(func() {
			engine.Schedule(evt, 2.0)
		}).To(Panic())
	})

	It("should fan out simulation end handlers in order", func() {
		var order []int

		engine.RegisterSimulationEndHandler(endHandlerFunc(func(now VTimeInSec) {
			order = append(order, 1)
			Expect(now).To(Equal(VTimeInSec(4.0)))
		}))
		engine.RegisterSimulationEndHandler(endHandlerFunc(func(now VTimeInSec) {
			order = append(order, 2)
		}))

		engine.RunUntil(4.0)

		Expect(order).To(Equal([]int{1, 2}))
	})

	It("should reset the clock and the queue", func() {
		evt := NewNoOpEvent()
		engine.Schedule(evt, 3.0)
		engine.RunUntil(1.0)

		engine.Reset()

		Expect(engine.CurrentTime()).To(Equal(VTimeInSec(0.0)))
		Expect(evt.InQueue()).To(BeFalse())
	})
})

type endHandlerFunc func(now VTimeInSec)

func (f endHandlerFunc) Handle(now VTimeInSec) {
	f(now)
}
