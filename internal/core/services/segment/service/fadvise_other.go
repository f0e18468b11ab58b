//go:build !linux

package segment

import "go.uber.org/zap"

func adviseSequential(file any, logger *zap.SugaredLogger) {}
