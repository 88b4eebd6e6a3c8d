package liveserver

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"al.essio.dev/pkg/shellescape"

	"github.com/dmitrymomot/livetest/core/app"
	"github.com/dmitrymomot/livetest/core/logger"
)

// Environment variables that turn a re-executed test binary into a live server process.
const (
	EnvChildID     = "LIVETEST_CHILD_ID"
	EnvChildApp    = "LIVETEST_CHILD_APP"
	EnvChildAddr   = "LIVETEST_CHILD_ADDR"
	EnvChildConfig = "LIVETEST_CHILD_CONFIG"
)

// Spec describes one live server process.
type Spec struct {
	ID     string
	App    string
	Addr   string
	Config *app.Config
}

// Process is a handle to a launched live server process.
type Process interface {
	Pid() int
	// Interrupt asks the process to shut down gracefully.
	Interrupt() error
	// Kill terminates the process immediately.
	Kill() error
	// Done is closed once the process has exited and was reaped.
	Done() <-chan struct{}
	// Err returns the exit error after Done is closed.
	Err() error
}

// Launcher starts live server processes.
type Launcher interface {
	Launch(spec Spec) (Process, error)
}

// ExecLauncher re-executes the current test binary as the live server process.
type ExecLauncher struct {
	// Executable defaults to os.Executable().
	Executable string
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     *slog.Logger
}

// Launch starts the process and returns without waiting for readiness.
// The child's stdin is a pipe owned by this process; the child treats EOF on
// it as the death of its parent.
func (l *ExecLauncher) Launch(spec Spec) (Process, error) {
	exe := l.Executable
	if exe == "" {
		var err error
		exe, err = os.Executable()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
		}
	}

	cfg := spec.Config
	if cfg == nil {
		cfg = app.NewConfig(nil)
	}
	encoded, err := cfg.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	cmd := exec.Command(exe, "-test.run=^$")
	cmd.Env = append(childEnviron(os.Environ()),
		EnvChildID+"="+spec.ID,
		EnvChildApp+"="+spec.App,
		EnvChildAddr+"="+spec.Addr,
		EnvChildConfig+"="+encoded,
	)
	cmd.Stdout = writerOr(l.Stdout, os.Stderr)
	cmd.Stderr = writerOr(l.Stderr, os.Stderr)
	cmd.SysProcAttr = sysProcAttr()
	cmd.WaitDelay = time.Second

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	log := l.Logger
	if log == nil {
		log = logger.Discard()
	}
	log.Debug("launching live server process",
		logger.InstanceID(spec.ID),
		logger.App(spec.App),
		logger.Addr(spec.Addr),
		logger.Key("command", shellescape.QuoteCommand(cmd.Args)),
	)

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrLaunch, shellescape.Quote(exe), err)
	}

	p := &execProcess{cmd: cmd, stdin: stdin, done: make(chan struct{})}
	go p.wait()
	return p, nil
}

// childEnviron drops stale child markers inherited from an enclosing live server.
func childEnviron(environ []string) []string {
	out := make([]string, 0, len(environ)+4)
	for _, kv := range environ {
		if strings.HasPrefix(kv, "LIVETEST_CHILD_") {
			continue
		}
		out = append(out, kv)
	}
	return out
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}

type execProcess struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	done  chan struct{}

	mu  sync.Mutex
	err error
}

func (p *execProcess) wait() {
	err := p.cmd.Wait()
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
	close(p.done)
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Interrupt() error {
	if p.exited() {
		return os.ErrProcessDone
	}
	return interrupt(p.cmd.Process)
}

func (p *execProcess) Kill() error {
	if p.exited() {
		return os.ErrProcessDone
	}
	_ = p.stdin.Close()
	return p.cmd.Process.Kill()
}

func (p *execProcess) Done() <-chan struct{} {
	return p.done
}

func (p *execProcess) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *execProcess) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}
