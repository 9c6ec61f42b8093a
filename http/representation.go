package http

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/indigo-web/connector/http/mime"
	"github.com/indigo-web/connector/http/status"
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
)

// UnknownSize marks entities whose length isn't known in advance. Such entities are
// transmitted using the chunked transfer coding.
const UnknownSize int64 = -1

// Representation is a message entity: the stream of its bytes with the metadata
// describing them.
//
// Representations received from the network hold the connection. They must be released
// by the consumer as soon as they aren't needed anymore, otherwise the connection leaks.
type Representation struct {
	// Stream is the source of the entity's bytes. Nil stream is allowed only for empty
	// entities.
	Stream io.Reader
	// Size is the declared length of the entity or UnknownSize.
	Size int64
	// MediaType is the media type without parameters.
	MediaType mime.MIME
	// Charset is the charset parameter of the Content-Type.
	Charset mime.Charset
	// Encodings lists applied content codings in their order.
	Encodings []string
	// Languages lists natural languages of the intended audience.
	Languages []string
	// Tag is the entity tag, including quotes and the weakness marker if any.
	Tag string
	// Expires is the moment the entity is considered stale after.
	Expires time.Time
	// Modified is the moment of the last modification.
	Modified time.Time
	// Location is the URI the entity is accessible via directly.
	Location string
	// Disposition is the raw Content-Disposition value.
	Disposition string
	// Range is the raw Content-Range value of a partial entity.
	Range string

	unavailable bool
	released    bool
	onRelease   []func()
	buff        []byte
}

func NewRepresentation(stream io.Reader, size int64) *Representation {
	return &Representation{
		Stream: stream,
		Size:   size,
	}
}

func StringRepresentation(text string, mediaType mime.MIME) *Representation {
	r := NewRepresentation(strings.NewReader(text), int64(len(text)))
	r.MediaType = mediaType
	return r
}

func BytesRepresentation(data []byte, mediaType mime.MIME) *Representation {
	r := NewRepresentation(bytes.NewReader(data), int64(len(data)))
	r.MediaType = mediaType
	return r
}

// Available reports whether the content can be read. It's false for representations
// explicitly marked unavailable, already released ones, or lacking a stream while
// declaring some content.
func (r *Representation) Available() bool {
	if r == nil || r.unavailable || r.released {
		return false
	}

	return r.Stream != nil || r.Size == 0
}

// SetAvailable marks the representation (un)available for reading.
func (r *Representation) SetAvailable(flag bool) *Representation {
	r.unavailable = !flag
	return r
}

// Chunked reports whether the entity is transmitted with the chunked coding.
func (r *Representation) Chunked() bool {
	return r.Size == UnknownSize
}

// OnRelease registers a callback, called once the representation is released.
func (r *Representation) OnRelease(cb func()) *Representation {
	r.onRelease = append(r.onRelease, cb)
	return r
}

// Release closes the stream if it is closable and notifies registered callbacks. It is
// safe to call it multiple times, as well as on a nil representation.
func (r *Representation) Release() {
	if r == nil || r.released {
		return
	}

	r.released = true

	if closer, ok := r.Stream.(io.Closer); ok {
		_ = closer.Close()
	}

	for _, cb := range r.onRelease {
		cb()
	}
}

// Bytes reads the whole entity at once.
func (r *Representation) Bytes() ([]byte, error) {
	if r == nil || r.Stream == nil {
		return nil, nil
	}

	if r.buff != nil {
		return r.buff, nil
	}

	if r.Size > 0 {
		r.buff = make([]byte, 0, r.Size)
	}

	buff := bytes.NewBuffer(r.buff)
	_, err := buff.ReadFrom(r.Stream)
	r.buff = buff.Bytes()

	return r.buff, err
}

// Text returns the whole entity at once in a string representation.
func (r *Representation) Text() (string, error) {
	data, err := r.Bytes()
	return uf.B2S(data), err
}

// JSON decodes the entity into the model. Entities of incompatible media type are
// rejected with status.ErrUnsupportedMediaType.
func (r *Representation) JSON(model any) error {
	if !mime.Complies(mime.JSON, r.MediaType) {
		return status.ErrUnsupportedMediaType
	}

	data, err := r.Bytes()
	if err != nil {
		return err
	}

	iterator := json.ConfigDefault.BorrowIterator(data)
	iterator.ReadVal(model)
	err = iterator.Error
	json.ConfigDefault.ReturnIterator(iterator)

	return err
}

// Discard reads the rest of the entity, dropping the data.
func (r *Representation) Discard() error {
	if r == nil || r.Stream == nil {
		return nil
	}

	_, err := io.Copy(io.Discard, r.Stream)
	return err
}
