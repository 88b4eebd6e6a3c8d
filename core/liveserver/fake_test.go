package liveserver_test

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/livetest/core/liveserver"
)

// fakeProcess simulates a live server process by listening on its address.
type fakeProcess struct {
	ln              net.Listener
	done            chan struct{}
	once            sync.Once
	exitOnInterrupt bool
	interruptErr    error
	interrupts      atomic.Int32
	kills           atomic.Int32
}

func (p *fakeProcess) Pid() int { return 4242 }

func (p *fakeProcess) Interrupt() error {
	p.interrupts.Add(1)
	if p.interruptErr != nil {
		return p.interruptErr
	}
	if p.exitOnInterrupt {
		p.exit()
	}
	return nil
}

func (p *fakeProcess) Kill() error {
	p.kills.Add(1)
	p.exit()
	return nil
}

func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) Err() error { return nil }

func (p *fakeProcess) exit() {
	p.once.Do(func() {
		if p.ln != nil {
			_ = p.ln.Close()
		}
		close(p.done)
	})
}

type fakeLauncher struct {
	proc   *fakeProcess
	listen bool
	err    error

	mu    sync.Mutex
	specs []liveserver.Spec
}

func newFakeLauncher(proc *fakeProcess) *fakeLauncher {
	proc.done = make(chan struct{})
	return &fakeLauncher{proc: proc, listen: true}
}

func (l *fakeLauncher) Launch(spec liveserver.Spec) (liveserver.Process, error) {
	l.mu.Lock()
	l.specs = append(l.specs, spec)
	l.mu.Unlock()

	if l.err != nil {
		return nil, l.err
	}
	if l.listen {
		ln, err := net.Listen("tcp", spec.Addr)
		if err != nil {
			return nil, err
		}
		l.proc.ln = ln
	}
	return l.proc, nil
}

func (l *fakeLauncher) launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.specs)
}

var errNoSignal = errors.New("signal not supported")
