package oauth2client

import "context"

// Acquisition is a handle to a Credential that is either already known or
// still being fetched from the token endpoint.
//
// The result is written exactly once. Every clone of an Acquisition shares
// the same result cell, so all holders observe the identical Credential or
// error and no clone ever triggers another token request.
type Acquisition struct {
	cell *acquisitionCell
}

type acquisitionCell struct {
	done chan struct{}
	cred *Credential
	err  error
}

// resolvedAcquisition wraps a credential that is already known.
// It can be read any number of times.
func resolvedAcquisition(cred *Credential) *Acquisition {
	cell := &acquisitionCell{done: make(chan struct{}), cred: cred}
	close(cell.done)
	return &Acquisition{cell: cell}
}

// startAcquisition runs fetch in its own goroutine. The result is stored even
// if nobody is waiting for it any more.
func startAcquisition(ctx context.Context, fetch func(context.Context) (*Credential, error)) *Acquisition {
	cell := &acquisitionCell{done: make(chan struct{})}
	go func() {
		defer close(cell.done)
		cell.cred, cell.err = fetch(ctx)
	}()
	return &Acquisition{cell: cell}
}

// Clone returns another handle to the same result.
func (a *Acquisition) Clone() *Acquisition {
	return &Acquisition{cell: a.cell}
}

// Done returns a channel that is closed once the result is available.
func (a *Acquisition) Done() <-chan struct{} {
	return a.cell.done
}

// Wait blocks until the result is available or ctx is done. Abandoning the
// wait does not cancel the underlying token request.
func (a *Acquisition) Wait(ctx context.Context) (*Credential, error) {
	select {
	case <-a.cell.done:
		return a.cell.cred, a.cell.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Peek returns the result without blocking. resolved is false while the
// request is still in flight.
func (a *Acquisition) Peek() (cred *Credential, resolved bool, err error) {
	select {
	case <-a.cell.done:
		return a.cell.cred, true, a.cell.err
	default:
		return nil, false, nil
	}
}

// Same reports whether both handles share one result.
func (a *Acquisition) Same(other *Acquisition) bool {
	return other != nil && a.cell == other.cell
}
