package server

import (
	"os"
	"syscall"
	"time"
)

// isProcessRunning reports whether a process with the given PID exists
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes for existence without delivering anything
	return proc.Signal(syscall.Signal(0)) == nil
}

// monitorParentProcess shuts the server down when the parent process
// exits. A stdio server is orphaned if its client dies without closing
// stdin.
func (s *Server) monitorParentProcess(interval time.Duration) {
	ppid := os.Getppid()
	s.logger.Debug("monitoring parent process", "ppid", ppid)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !isProcessRunning(ppid) || os.Getppid() != ppid {
				s.logger.Info("parent process exited, shutting down", "ppid", ppid)
				s.Shutdown()
				return
			}
		case <-s.stopCh:
			return
		}
	}
}
