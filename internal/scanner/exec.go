package scanner

import (
	"os/exec"
	"strings"

	"github.com/Jay1/budsctl/internal/errors"
	"github.com/Jay1/budsctl/internal/logger"
)

// ExecSource runs the helper command and streams its stdout.
type ExecSource struct {
	cmd    *exec.Cmd
	stream *StreamSource
}

// NewExecSource starts the given helper command line. The command is
// split on whitespace; quoting is not supported.
func NewExecSource(command string) (*ExecSource, error) {
	errFactory := errors.New()

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return nil, errFactory.WithMessage(errors.ErrScannerStart, "empty scanner command")
	}

	cmd := exec.Command(parts[0], parts[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrScannerStart, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, errFactory.Wrap(errors.ErrScannerStart, err)
	}

	logger.Info().Str("command", command).Msg("Scanner helper started")

	return &ExecSource{
		cmd:    cmd,
		stream: NewStreamSource(stdout),
	}, nil
}

func (s *ExecSource) Advertisements() <-chan Advertisement {
	return s.stream.Advertisements()
}

func (s *ExecSource) Close() error {
	errFactory := errors.New()

	if err := s.stream.Close(); err != nil {
		return err
	}

	if s.cmd.Process != nil {
		if err := s.cmd.Process.Kill(); err != nil {
			logger.Debug().Err(err).Msg("Failed to kill scanner helper")
		}
	}

	if err := s.cmd.Wait(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return nil
		}

		return errFactory.Wrap(errors.ErrShutdownFailed, err)
	}

	return nil
}
