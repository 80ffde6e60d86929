package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/five82/trailedit/internal/socket"
)

type fakeSource struct {
	mu  sync.Mutex
	fns []func(socket.Status)
	off int
}

func (f *fakeSource) OnStatus(fn func(socket.Status)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fns = append(f.fns, fn)
	return func() {
		f.mu.Lock()
		f.off++
		f.mu.Unlock()
	}
}

func (f *fakeSource) emit(s socket.Status) {
	f.mu.Lock()
	fns := append([]func(socket.Status)(nil), f.fns...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

type fakeNet struct {
	statuses chan socket.Status
	lists    chan struct{}
	block    bool
	err      error
}

func newFakeNet() *fakeNet {
	return &fakeNet{statuses: make(chan socket.Status, 16), lists: make(chan struct{}, 16)}
}

func (f *fakeNet) HandleStatus(s socket.Status) { f.statuses <- s }

func (f *fakeNet) ListAll(ctx context.Context) error {
	f.lists <- struct{}{}
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func recvStatus(t *testing.T, ch <-chan socket.Status) socket.Status {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for status")
		return 0
	}
}

func expectList(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a collection refresh")
	}
}

func expectNoList(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
		t.Fatal("unexpected collection refresh")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSupervisorRefreshesOnConnect(t *testing.T) {
	src := &fakeSource{}
	net := newFakeNet()
	stop := StartSupervisor(context.Background(), src, net, nil, time.Second)
	defer stop()

	src.emit(socket.StatusConnected)
	if got := recvStatus(t, net.statuses); got != socket.StatusConnected {
		t.Fatalf("status = %v, want connected", got)
	}
	expectList(t, net.lists)

	src.emit(socket.StatusDisconnected)
	if got := recvStatus(t, net.statuses); got != socket.StatusDisconnected {
		t.Fatalf("status = %v, want disconnected", got)
	}
	expectNoList(t, net.lists)

	src.emit(socket.StatusReconnected)
	recvStatus(t, net.statuses)
	expectList(t, net.lists)
}

func TestSupervisorDoesNotRefreshWhenGivingUp(t *testing.T) {
	src := &fakeSource{}
	net := newFakeNet()
	stop := StartSupervisor(context.Background(), src, net, nil, time.Second)
	defer stop()

	src.emit(socket.StatusGaveUp)
	if got := recvStatus(t, net.statuses); got != socket.StatusGaveUp {
		t.Fatalf("status = %v, want gave up", got)
	}
	expectNoList(t, net.lists)
}

func TestSupervisorRefreshErrorIsNotFatal(t *testing.T) {
	src := &fakeSource{}
	net := newFakeNet()
	net.err = errors.New("boom")
	stop := StartSupervisor(context.Background(), src, net, nil, time.Second)
	defer stop()

	src.emit(socket.StatusConnected)
	recvStatus(t, net.statuses)
	expectList(t, net.lists)

	src.emit(socket.StatusReconnected)
	recvStatus(t, net.statuses)
	expectList(t, net.lists)
}

func TestSupervisorStopCancelsRefresh(t *testing.T) {
	src := &fakeSource{}
	net := newFakeNet()
	net.block = true
	stop := StartSupervisor(context.Background(), src, net, nil, time.Minute)

	src.emit(socket.StatusConnected)
	recvStatus(t, net.statuses)
	expectList(t, net.lists)

	done := make(chan struct{})
	go func() {
		stop()
		stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not cancel the blocked refresh")
	}
	if src.off != 1 {
		t.Fatalf("status listener removed %d times, want 1", src.off)
	}
}
