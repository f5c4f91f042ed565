package errs

import "errors"

var (
	ErrRenderNotFound       = errors.New("render not found")
	ErrRenderOnline         = errors.New("render is online")
	ErrRenderAlreadyOnline  = errors.New("render with this name is already online")
	ErrRenderZombie         = errors.New("render is waiting for deletion")
	ErrRenderNameEmpty      = errors.New("render name is empty")
	ErrUnknownAction        = errors.New("unknown render action")
	ErrMonitorNotFound      = errors.New("monitor not found")
	ErrJobNotFound          = errors.New("job not found")
	ErrEngineStopped        = errors.New("scheduler engine is stopped")
	ErrEngineBusy           = errors.New("scheduler engine inbox is full")
	ErrConnectionNotFound   = errors.New("connection not found")
	ErrConnectionClosed     = errors.New("connection is closed")
	ErrOutboxFull           = errors.New("connection outbox is full")
	ErrRegistrationExpected = errors.New("first message must be a registration")
)

var ErrJobEmpty = errors.New("job has no tasks")
