package cluster

import "testing"

func TestAddRemovePeers(t *testing.T) {
	v := New("10.0.0.1")
	v.AddOutward("10.0.0.2")
	v.AddOutward("10.0.0.3")
	v.AddInward("10.0.0.4")

	if v.OutwardCount() != 2 {
		t.Fatalf("outward count = %d, want 2", v.OutwardCount())
	}
	if v.InwardCount() != 1 {
		t.Fatalf("inward count = %d, want 1", v.InwardCount())
	}

	v.RemoveOutward("10.0.0.2")
	if v.OutwardCount() != 1 {
		t.Fatalf("outward count after remove = %d, want 1", v.OutwardCount())
	}
}

func TestQuittingFlag(t *testing.T) {
	v := New("10.0.0.1")
	if v.Quitting() {
		t.Fatal("new view should not be quitting")
	}
	v.SetQuitting()
	if !v.Quitting() {
		t.Fatal("view should report quitting after SetQuitting")
	}
}
