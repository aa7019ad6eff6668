package mcast

import (
	"net"
	"testing"
	"time"

	"github.com/galaxyeye/pioneer/wire"
)

const testGroup = "234.1.1.18"
const testPort = 21234

func encodeTestFrame(t *testing.T, payload string) []byte {
	t.Helper()
	codec := wire.NewMsgpCodec()
	bd := wire.Builder{FnID: 7, ReturnMode: wire.AsyncFireAndForget, Origin: wire.OriginAny}
	raw, err := bd.Encode(codec, wire.Tuple{wire.Bytes([]byte(payload))})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return raw
}

func TestSenderReceiverRoundTrip(t *testing.T) {
	group := net.ParseIP(testGroup)
	recv, err := NewReceiver(group, testPort)
	if err != nil {
		t.Skipf("multicast unavailable in this sandbox: %v", err)
	}
	defer recv.Stop()

	sender, err := NewSender(group, testPort)
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	defer sender.Stop()

	received := make(chan *wire.Frame, 1)
	go recv.Run(func(_ string, frame *wire.Frame) {
		select {
		case received <- frame:
		default:
		}
	})

	raw := encodeTestFrame(t, "hello")
	if err := sender.Send(raw); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case frame := <-received:
		if frame.Header.FnID != 7 {
			t.Fatalf("fn_id = %d, want 7", frame.Header.FnID)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for datagram")
	}
}

func TestSendAfterStopFails(t *testing.T) {
	group := net.ParseIP(testGroup)
	sender, err := NewSender(group, testPort+1)
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	sender.Stop()
	if err := sender.Send([]byte("x")); err == nil {
		t.Fatal("send after stop should fail")
	}
}
