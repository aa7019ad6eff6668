package session_test

import (
	ratomic "sync/atomic"

	"github.com/google/uuid"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/galaxyeye/pioneer/session"
)

var _ = Describe("AsyncManager fan-in", func() {
	var mgr *session.AsyncManager

	BeforeEach(func() {
		mgr = session.NewAsyncManager()
	})

	// Continuation invoked exactly k times (k <= N), ready() true only on
	// the Nth, session then removed.
	It("invokes the continuation once per response and reports ready on the Nth", func() {
		id := uuid.New()
		var calls int32
		var goodAck int32

		err := mgr.Suspend(id, 3, func(_ []byte, _ int32, view session.View) {
			ratomic.AddInt32(&calls, 1)
			if calls < 3 {
				Expect(view.Ready()).To(BeFalse())
			}
			if view.Ready() {
				ratomic.AddInt32(&goodAck, 1)
			}
		})
		Expect(err).NotTo(HaveOccurred())

		for i := 0; i < 3; i++ {
			Expect(mgr.Resume(id, []byte("ack"), 0)).To(Succeed())
		}

		Expect(ratomic.LoadInt32(&calls)).To(Equal(int32(3)))
		Expect(ratomic.LoadInt32(&goodAck)).To(Equal(int32(1)))
		Expect(mgr.Len()).To(Equal(0))

		// a further, late response is dropped, not double-counted.
		Expect(mgr.Resume(id, []byte("late"), 0)).To(HaveOccurred())
		Expect(ratomic.LoadInt32(&calls)).To(Equal(int32(3)))
	})

	It("aggregates payloads in arrival order without sorting", func() {
		id := uuid.New()
		var lastAggregated [][]byte
		Expect(mgr.Suspend(id, 2, func(_ []byte, _ int32, view session.View) {
			lastAggregated = view.Aggregated
		})).To(Succeed())

		Expect(mgr.Resume(id, []byte("b"), 0)).To(Succeed())
		Expect(mgr.Resume(id, []byte("a"), 0)).To(Succeed())

		Expect(lastAggregated).To(Equal([][]byte{[]byte("b"), []byte("a")}))
	})

	It("reaps sessions that never reach expected within the TTL", func() {
		id := uuid.New()
		Expect(mgr.Suspend(id, 3, func([]byte, int32, session.View) {})).To(Succeed())
		Expect(mgr.Resume(id, []byte("one"), 0)).To(Succeed())

		n := mgr.ReapExpired(0) // TTL of 0 treats every existing entry as stale
		Expect(n).To(Equal(1))
		Expect(mgr.Len()).To(Equal(0))
	})
})
