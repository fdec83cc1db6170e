package driver

import (
	"context"
	"errors"
	"fmt"
)

// Pinger probes the external service's availability before any
// resolution work is spent on an unreachable backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectivityError is raised only during the API-connection phase.
// Fatal: no job submission is attempted against an unreachable backend,
// so no partially populated manifest can exist.
type ConnectivityError struct {
	Detail string
}

// Error implements the error interface.
func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("image backend unreachable: %s", e.Detail)
}

// IsConnectivityError reports whether err is a ConnectivityError.
func IsConnectivityError(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}

// CheckConnectivity probes the submitter when it implements Pinger.
// Submitters without a probe are assumed reachable; the first Submit
// will surface the truth per job.
func CheckConnectivity(ctx context.Context, submitter Submitter) error {
	pinger, ok := submitter.(Pinger)
	if !ok {
		return nil
	}
	if err := pinger.Ping(ctx); err != nil {
		return &ConnectivityError{Detail: err.Error()}
	}
	return nil
}
