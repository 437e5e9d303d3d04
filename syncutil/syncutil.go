// Package syncutil holds the locks used by the link, the store and the
// session. Building with -tags=deadlock backs them with go-deadlock, which
// reports lock order inversions and locks held past a drain's worst case.
package syncutil

// Detecting reports whether locks are checked for deadlocks.
func Detecting() bool {
	return detecting
}
