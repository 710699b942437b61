//go:build !unix

package worker

import "syscall"

func detachedAttr() *syscall.SysProcAttr {
	return nil
}
