package model

// Result is the only thing the form caller ever sees.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Succeeded returns the success result.
func Succeeded() Result {
	return Result{Success: true}
}

// Failed returns a failure result carrying msg.
func Failed(msg string) Result {
	return Result{Success: false, Error: msg}
}
