package logs

import (
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

var Output *os.File

// InitializeFileLogger sends the standard logger to dir/logs.txt, truncating it.
func InitializeFileLogger(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "couldn't create log directory %s", dir)
	}
	f, err := os.Create(filepath.Join(dir, "logs.txt"))
	if err != nil {
		return errors.Wrap(err, "couldn't create logs file")
	}
	if Output != nil {
		Output.Close()
	}
	Output = f
	log.SetOutput(Output)
	return nil
}

// InitializeStderrLogger keeps logs on stderr, for interactive debugging.
func InitializeStderrLogger() {
	log.SetOutput(os.Stderr)
}

func CloseLogger() error {
	if Output == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := Output.Close()
	Output = nil
	return err
}
