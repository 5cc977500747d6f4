package cmd

import (
	"os/exec"
	"path/filepath"
	"runtime"
)

// revealInFileBrowser opens the folder containing path in the platform's
// file browser without waiting for it.
func revealInFileBrowser(path string) error {
	dir := filepath.Dir(path)

	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", dir)
	case "windows":
		c = exec.Command("explorer", dir)
	default:
		c = exec.Command("xdg-open", dir)
	}
	if err := c.Start(); err != nil {
		return err
	}
	go c.Wait() //nolint:errcheck
	return nil
}
