//go:build linux

package segment

import (
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// adviseSequential tells the kernel readers scan the file front to back.
func adviseSequential(file any, logger *zap.SugaredLogger) {
	f, ok := file.(interface{ Fd() uintptr })
	if !ok {
		return
	}
	if err := unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL); err != nil {
		logger.Debugw("fadvise failed", "error", err)
	}
}
