package sim

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("EventQueueImpl", func() {
	var (
		mockCtrl *gomock.Controller
		queue    *EventQueueImpl
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		queue = NewEventQueue()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should pop in order", func() {
		numEvents := 100
		for i := 0; i < numEvents; i++ {
			event := NewMockEvent(mockCtrl)
			event.EXPECT().
				Time().
				Return(VTimeInSec(rand.Float64() / 1e8)).
				AnyTimes()
			queue.Push(event)
		}

		now := VTimeInSec(-1)
		for i := 0; i < numEvents; i++ {
			event := queue.Pop()
			Expect(event.Time() >= now).To(BeTrue())
			now = event.Time()
		}
	})

	It("should pop same-time events first-in-first-out", func() {
		numEvents := 20
		events := make([]Event, 0, numEvents)
		for i := 0; i < numEvents; i++ {
			event := NewMockEvent(mockCtrl)
			event.EXPECT().
				Time().
				Return(VTimeInSec(1.0)).
				AnyTimes()
			events = append(events, event)
			queue.Push(event)
		}

		for i := 0; i < numEvents; i++ {
			Expect(queue.Pop()).To(BeIdenticalTo(events[i]))
		}
	})

	It("should keep ties stable among mixed times", func() {
		early := NewMockEvent(mockCtrl)
		early.EXPECT().Time().Return(VTimeInSec(0.5)).AnyTimes()

		first := NewMockEvent(mockCtrl)
		first.EXPECT().Time().Return(VTimeInSec(1.0)).AnyTimes()

		second := NewMockEvent(mockCtrl)
		second.EXPECT().Time().Return(VTimeInSec(1.0)).AnyTimes()

		queue.Push(first)
		queue.Push(second)
		queue.Push(early)

		Expect(queue.Pop()).To(BeIdenticalTo(early))
		Expect(queue.Pop()).To(BeIdenticalTo(first))
		Expect(queue.Pop()).To(BeIdenticalTo(second))
	})

	It("should cancel the exact event within a time bucket", func() {
		first := NewMockEvent(mockCtrl)
		first.EXPECT().Time().Return(VTimeInSec(2.0)).AnyTimes()

		second := NewMockEvent(mockCtrl)
		second.EXPECT().Time().Return(VTimeInSec(2.0)).AnyTimes()

		queue.Push(first)
		queue.Push(second)

		Expect(queue.Cancel(first)).To(BeTrue())
		Expect(queue.Len()).To(Equal(1))
		Expect(queue.Pop()).To(BeIdenticalTo(second))
	})

	It("should report failure when cancelling an unqueued event", func() {
		event := NewMockEvent(mockCtrl)
		event.EXPECT().Time().Return(VTimeInSec(2.0)).AnyTimes()

		Expect(queue.Cancel(event)).To(BeFalse())
	})
})
