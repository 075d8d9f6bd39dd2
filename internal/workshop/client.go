// Package workshop drives a callback-based workshop client from ordinary Go
// code.
//
// The client library delivers request results only as a side effect of its
// servicing routine (RunCallbacks), which must be invoked by the owner of the
// client and never concurrently with another client call. The Registry owns
// the single live client and serializes every call into it; the Bridge runs
// one request to completion by pairing a polling worker goroutine with a pump
// loop on the caller's goroutine.
package workshop

// Client is a live session with the workshop service for one application.
//
// Implementations are not required to be safe for concurrent use. The
// Registry guarantees that at most one method call is in flight at a time.
type Client interface {
	// UnsubscribeItem submits an unsubscribe request. done is invoked at most
	// once, from inside a later RunCallbacks call (or synchronously, if the
	// library already knows the answer), with nil on success.
	UnsubscribeItem(itemID uint64, done func(error))

	// RunCallbacks services the client, delivering any queued results.
	RunCallbacks()

	// Close shuts the session down. The client is unusable afterwards.
	Close() error
}

// Factory builds a client bound to appID.
type Factory func(appID uint32) (Client, error)
