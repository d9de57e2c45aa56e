// Package clipboard copies rendered citation markers to the system clipboard
// through the platform's clipboard tool.
package clipboard

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"
)

// ErrClipboardUnavailable is returned when no clipboard tool is installed.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// tools lists the clipboard writers tried per platform, in order.
var tools = map[string][][]string{
	"darwin":  {{"pbcopy"}},
	"linux":   {{"wl-copy"}, {"xclip", "-selection", "clipboard"}, {"xsel", "--clipboard", "--input"}},
	"windows": {{"clip.exe"}},
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// IsAvailable reports whether a clipboard tool is installed.
func IsAvailable() bool {
	_, err := getClipboardCommand()
	return err == nil
}

// Copy writes text to the system clipboard.
func Copy(text string) error {
	cmd, err := getClipboardCommand()
	if err != nil {
		return err
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// getClipboardCommand returns the first installed tool for this platform.
func getClipboardCommand() (*exec.Cmd, error) {
	for _, argv := range tools[runtime.GOOS] {
		if _, err := lookPath(argv[0]); err == nil {
			return exec.Command(argv[0], argv[1:]...), nil
		}
	}
	return nil, ErrClipboardUnavailable
}
