// Package source fetches raw page and library text from the local
// filesystem or from a GitHub repository's contents API.
package source

import (
	"context"
	"errors"
	"fmt"
)

// Source locates one file. A non-empty Project selects the remote variant.
type Source struct {
	Path    string
	Project string
}

// Remote reports whether the file lives in a remote repository
func (s Source) Remote() bool {
	return s.Project != ""
}

func (s Source) String() string {
	if s.Remote() {
		return s.Project + ":" + s.Path
	}
	return s.Path
}

// Fetcher retrieves the text of a Source. Implementations never retry.
type Fetcher interface {
	Fetch(ctx context.Context, src Source) (string, error)
}

var (
	// ErrLocalFileNotFound is returned when a local file is missing or unreadable
	ErrLocalFileNotFound = errors.New("local file not found")
	// ErrNoRemote is returned when a remote source is requested but no client is configured
	ErrNoRemote = errors.New("no remote client configured")
)

// RemoteError describes a failed contents API call.
// Status is zero for transport failures.
type RemoteError struct {
	Project string
	Path    string
	Status  int
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("remote fetch %s:%s: status %d", e.Project, e.Path, e.Status)
	}
	if e.Status != 0 {
		return fmt.Sprintf("remote fetch %s:%s: status %d: %v", e.Project, e.Path, e.Status, e.Err)
	}
	return fmt.Sprintf("remote fetch %s:%s: %v", e.Project, e.Path, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Multi routes each Source to the local or remote fetcher
type Multi struct {
	Local  Fetcher
	Remote Fetcher
}

// Fetch implements Fetcher
func (m Multi) Fetch(ctx context.Context, src Source) (string, error) {
	if src.Remote() {
		if m.Remote == nil {
			return "", &RemoteError{Project: src.Project, Path: src.Path, Err: ErrNoRemote}
		}
		return m.Remote.Fetch(ctx, src)
	}
	if m.Local == nil {
		return "", fmt.Errorf("%w: no local root configured for %s", ErrLocalFileNotFound, src.Path)
	}
	return m.Local.Fetch(ctx, src)
}
