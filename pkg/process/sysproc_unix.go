//go:build !windows

package process

import "syscall"

// Houdini runs in its own process group so terminal signals do not reach it
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true,
	}
}
