package service

import "fmt"

type ErrRunQueueFull struct{}

func (e ErrRunQueueFull) Error() string {
	return "run queue is full"
}

func NewErrRunQueueFull() *ErrRunQueueFull {
	return &ErrRunQueueFull{}
}

type ErrUnknownEnvironment struct {
	Name string
}

func (e ErrUnknownEnvironment) Error() string {
	return fmt.Sprintf("unknown environment '%s'", e.Name)
}

type RunCancelError struct {
	Message string
}

func (rce RunCancelError) Error() string {
	return rce.Message
}
