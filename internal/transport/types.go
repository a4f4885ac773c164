// Package transport defines the provider-facing contracts: what a recipient
// is, how a media payload is referenced, and the two operations the
// dispatcher needs from the messaging provider (send, fetch-by-reference).
package transport

import (
	"context"
	"fmt"
	"strconv"
)

// Recipient is an opaque, provider-scoped numeric identifier.
type Recipient int64

func (r Recipient) String() string { return strconv.FormatInt(int64(r), 10) }

type MediaKind string

const (
	// MediaRemoteURL lets the provider fetch the content itself.
	MediaRemoteURL MediaKind = "remote_url"
	// MediaFileRef reuses a reference the provider issued for an earlier upload.
	MediaFileRef MediaKind = "file_ref"
	// MediaBytes uploads raw content held in memory.
	MediaBytes MediaKind = "bytes"
)

// MediaRef is a tagged value naming one way to supply the media payload.
// Exactly one variant is set; use the constructors.
type MediaRef struct {
	kind MediaKind

	url     string
	fileRef string
	data    []byte
	name    string
}

func RemoteURL(u string) MediaRef { return MediaRef{kind: MediaRemoteURL, url: u} }

func FileRef(ref string) MediaRef { return MediaRef{kind: MediaFileRef, fileRef: ref} }

func Bytes(b []byte, name string) MediaRef {
	return MediaRef{kind: MediaBytes, data: b, name: name}
}

func (m MediaRef) Kind() MediaKind { return m.kind }
func (m MediaRef) URL() string     { return m.url }
func (m MediaRef) FileRef() string { return m.fileRef }
func (m MediaRef) Data() []byte    { return m.data }
func (m MediaRef) Name() string    { return m.name }

// SendError is the structured failure a provider send can return:
// a numeric status plus the provider's free-text description.
// Code 0 means the provider gave no usable status (transport-level fault).
type SendError struct {
	Code        int
	Description string
}

func (e *SendError) Error() string {
	if e.Code == 0 {
		return e.Description
	}
	return fmt.Sprintf("send failed (%d): %s", e.Code, e.Description)
}

// SendResult reports provider-side details of a successful send.
// FileRef is the reference the provider issued (or echoed) for the
// delivered media, when the provider reports one.
type SendResult struct {
	FileRef string
}

// Sender is the single outbound operation the dispatcher needs.
type Sender interface {
	SendMedia(ctx context.Context, to Recipient, media MediaRef, caption string) (SendResult, error)
}

// Fetcher resolves a provider file reference to raw bytes. Backed by a
// secondary credential that is expected to recognize the reference.
type Fetcher interface {
	FetchBytes(ctx context.Context, ref string) ([]byte, error)
}
