package runner

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

const relayBufferSize = 4096

// pipes are the three stream pipes of one child process
type pipes struct {
	stdinR, stdinW   *os.File
	stdoutR, stdoutW *os.File
	stderrR, stderrW *os.File

	stdinOnce   sync.Once
	outputsOnce sync.Once
}

func openPipes() (*pipes, error) {
	p := &pipes{}
	var err error

	if p.stdinR, p.stdinW, err = os.Pipe(); err != nil {
		return nil, err
	}
	if p.stdoutR, p.stdoutW, err = os.Pipe(); err != nil {
		p.stdinR.Close()
		p.stdinW.Close()
		return nil, err
	}
	if p.stderrR, p.stderrW, err = os.Pipe(); err != nil {
		p.stdinR.Close()
		p.stdinW.Close()
		p.stdoutR.Close()
		p.stdoutW.Close()
		return nil, err
	}
	return p, nil
}

// closeChildEnds closes the ends handed to the child. Until they are closed
// here the output pipes never report EOF.
func (p *pipes) closeChildEnds() {
	p.stdinR.Close()
	p.stdoutW.Close()
	p.stderrW.Close()
}

func (p *pipes) closeStdin() {
	p.stdinOnce.Do(func() { p.stdinW.Close() })
}

func (p *pipes) closeOutputs() {
	p.outputsOnce.Do(func() {
		p.stdoutR.Close()
		p.stderrR.Close()
	})
}

func (p *pipes) closeParentEnds() {
	p.closeStdin()
	p.closeOutputs()
}

type flusher interface {
	Flush() error
}

// pump copies src to dst chunk by chunk as data arrives, flushing after
// every write. If dst fails, the rest of src is still drained so the child
// never blocks on a full pipe.
func (s *Supervisor) pump(relay Relay, dst io.Writer, src io.Reader) error {
	buf := make([]byte, relayBufferSize)
	var writeErr error

	for {
		n, err := src.Read(buf)
		if n > 0 && writeErr == nil {
			writeErr = writeAndFlush(dst, buf[:n])
			if writeErr != nil {
				s.logger.Error("error writing process output", "relay", string(relay), "error", writeErr)
			}
		}
		if err != nil {
			if writeErr != nil {
				return errors.Wrapf(writeErr, "%s relay", relay)
			}
			if errors.Is(err, io.EOF) {
				s.logger.Debug("process stream closed", "relay", string(relay))
				return nil
			}
			return errors.Wrapf(err, "%s relay", relay)
		}
	}
}

func writeAndFlush(dst io.Writer, data []byte) error {
	if _, err := dst.Write(data); err != nil {
		return err
	}
	if f, ok := dst.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// feed forwards src to the child line by line, ending each line with a
// newline and flushing it. It returns at end of input.
func (s *Supervisor) feed(dst io.Writer, src io.Reader) error {
	reader := bufio.NewReader(src)
	writer := bufio.NewWriter(dst)

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			writer.WriteString(line)
			writer.WriteByte('\n')
			if ferr := writer.Flush(); ferr != nil {
				return errors.Wrap(ferr, "stdin relay")
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Debug("end of input, closing process input")
				return nil
			}
			return errors.Wrap(err, "stdin relay")
		}
	}
}
