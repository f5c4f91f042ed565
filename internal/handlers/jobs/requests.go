package jobs

import (
	"fmt"

	"gitlab.com/renderfarm.net/internal/domain"
)

// CreateJobRequest represents a request to create a job
type CreateJobRequest struct {
	Name     string         `json:"name"`
	UserName string         `json:"user_name"`
	Priority int            `json:"priority"`
	Blocks   []BlockRequest `json:"blocks"`
}

// BlockRequest describes one block. Either Tasks names every task or
// Frames asks for that many tasks named after their frame number.
type BlockRequest struct {
	Name     string   `json:"name"`
	Service  string   `json:"service"`
	Capacity int      `json:"capacity"`
	Command  string   `json:"command"`
	Tasks    []string `json:"tasks"`
	Frames   int      `json:"frames"`
}

// CreateJobResponse represents a response to a create job request
type CreateJobResponse struct {
	JobID int32 `json:"jobId"`
}

func (req CreateJobRequest) toJob() *domain.Job {
	job := &domain.Job{
		Name:     req.Name,
		UserName: req.UserName,
		Priority: req.Priority,
	}
	for _, b := range req.Blocks {
		block := &domain.Block{
			Name:     b.Name,
			Service:  b.Service,
			Capacity: b.Capacity,
			Command:  b.Command,
		}
		for _, name := range b.Tasks {
			block.Tasks = append(block.Tasks, &domain.Task{Name: name})
		}
		if len(b.Tasks) == 0 {
			for i := 0; i < b.Frames; i++ {
				block.Tasks = append(block.Tasks, &domain.Task{Name: fmt.Sprintf("frame %d", i+1)})
			}
		}
		job.Blocks = append(job.Blocks, block)
	}
	return job
}
