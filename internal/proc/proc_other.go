//go:build !unix

package proc

import "os/exec"

func setProcAttr(cmd *exec.Cmd) {}

func terminate(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

func exitStatus(cmd *exec.Cmd) (*int, string) {
	if cmd.ProcessState == nil {
		return nil, ""
	}
	code := cmd.ProcessState.ExitCode()
	return &code, ""
}
