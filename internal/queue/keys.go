package queue

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	// jobsKey is the pending-jobs list. Enqueue pushes to its head,
	// workers pop from its tail.
	jobsKey = "inference:jobs"

	// processingKey holds jobs a worker has picked up but not yet
	// acknowledged, so a crashed worker's jobs remain recoverable.
	processingKey = "inference:processing"
)

func JobProgressKey(jobID uuid.UUID) string {
	return fmt.Sprintf("inference:progress:%s", jobID)
}
