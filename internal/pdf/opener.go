package pdf

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Opener launches a document viewer.
type Opener struct {
	reader string
}

// NewOpener creates an opener. reader is "system" (the platform default
// handler) or a command line such as "zathura" or "open -a Skim".
func NewOpener(reader string) *Opener {
	if strings.TrimSpace(reader) == "" {
		reader = "system"
	}
	return &Opener{reader: reader}
}

// Open starts the viewer on path without waiting for it to exit.
func (o *Opener) Open(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("document does not exist: %s", path)
		}
		return fmt.Errorf("checking document: %w", err)
	}

	cmd, err := o.command(path)
	if err != nil {
		return err
	}
	return cmd.Start()
}

func (o *Opener) command(path string) (*exec.Cmd, error) {
	if o.reader != "system" {
		args := strings.Fields(o.reader)
		return exec.Command(args[0], append(args[1:], path)...), nil
	}
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", path), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", path), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}
