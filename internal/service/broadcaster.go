package service

import "hugoquiz/internal/model"

// Broadcaster interface for the operator progress feed (avoids import cycle)
type Broadcaster interface {
	BroadcastProgress(event *model.ProgressEvent)
}
