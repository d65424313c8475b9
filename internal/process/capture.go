package process

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// setupCapture wires piped stdout/stderr into the log sink for the one kind
// that asks for it. Two reader loops feed a shared ordered queue; a single
// writer drains it into the log file and republishes each line as an event,
// so the two streams never interleave mid-line in the file.
//
// The returned function starts the pump; call it after cmd.Start succeeds.
func (p *Process) setupCapture(cmd *exec.Cmd, plog *procLog) (func(), error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	done := make(chan struct{})
	p.captureDone = done

	start := func() {
		lines := make(chan string, 128)
		var readers sync.WaitGroup

		read := func(r io.Reader, prefix string) {
			defer readers.Done()
			sc := bufio.NewScanner(r)
			sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for sc.Scan() {
				lines <- fmt.Sprintf("[%s] %s", prefix, sc.Text())
			}
		}
		readers.Add(2)
		go read(stdout, "STDOUT")
		go read(stderr, "STDERR")

		go func() {
			readers.Wait()
			close(lines)
		}()

		go func() {
			defer close(done)
			for line := range lines {
				plog.raw(line + "\n")
				p.publish(Event{Type: EventLogLine, Line: line})
			}
		}()
	}
	return start, nil
}
