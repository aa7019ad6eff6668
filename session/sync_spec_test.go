package session_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/galaxyeye/pioneer/cmn"
	"github.com/galaxyeye/pioneer/rpc"
	"github.com/galaxyeye/pioneer/session"
)

var _ = Describe("SyncManager", func() {
	var mgr *session.SyncManager

	BeforeEach(func() {
		mgr = session.NewSyncManager()
	})

	// After suspend+resume the table no longer holds the id, and a second
	// resume is a no-op.
	It("removes the session on resume and ignores a second resume", func() {
		id := uuid.New()
		done := make(chan rpc.Result, 1)
		go func() {
			res, err := mgr.Suspend(context.Background(), id)
			Expect(err).NotTo(HaveOccurred())
			done <- res
		}()

		Eventually(func() int { return mgr.Len() }).Should(Equal(1))
		Expect(mgr.Resume(id, rpc.Final([]byte("10"), 0))).To(Succeed())

		var got rpc.Result
		Eventually(done).Should(Receive(&got))
		Expect(got.Data).To(Equal([]byte("10")))
		Expect(mgr.Len()).To(Equal(0))

		// A late resume against a completed/unknown session is dropped,
		// not double-delivered.
		Expect(mgr.Resume(id, rpc.Final([]byte("late"), 0))).To(MatchError(cmn.ErrBadSession))
	})

	// A sync call exceeds its timeout.
	It("times out a call that is never resumed", func() {
		id := uuid.New()
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := mgr.Suspend(ctx, id)
		Expect(cmn.CodeOf(err)).To(Equal(cmn.CodeConnectionTimeout))
		Expect(mgr.Len()).To(Equal(0))
	})

	It("rejects a second suspend against an in-use id", func() {
		id := uuid.New()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go mgr.Suspend(ctx, id) //nolint:errcheck
		Eventually(func() int { return mgr.Len() }).Should(Equal(1))

		_, err := mgr.Suspend(context.Background(), id)
		Expect(cmn.CodeOf(err)).To(Equal(cmn.CodeDuplicatedSession))
	})

	It("cancels every pending promise on Clear", func() {
		id := uuid.New()
		errc := make(chan error, 1)
		go func() {
			_, err := mgr.Suspend(context.Background(), id)
			errc <- err
		}()
		Eventually(func() int { return mgr.Len() }).Should(Equal(1))

		mgr.Clear(cmn.ErrShuttingDown)
		Eventually(errc).Should(Receive(Equal(error(cmn.ErrShuttingDown))))
	})
})
