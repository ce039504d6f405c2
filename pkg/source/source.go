// Package source opens the input of a run: a local file, a gzip-compressed
// file, or an S3 object.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// SizeUnknown is reported when the decoded length of an input cannot be known
// up front.
const SizeUnknown = -1

// Input is an opened input stream.
type Input struct {
	io.ReadCloser
	// Name identifies the input in logs.
	Name string
	// Size is the number of bytes the stream will yield, or SizeUnknown.
	Size int64
}

// Opener opens inputs by URI. The zero value is ready to use.
type Opener struct {
	// S3 serves s3:// URIs. When nil, a client is created from the default
	// AWS configuration on first use.
	S3 ObjectStreamer

	mu sync.Mutex
}

// Open opens uri with a zero Opener.
func Open(ctx context.Context, uri string) (Input, error) {
	var o Opener
	return o.Open(ctx, uri)
}

// Open opens uri. Paths ending in .gz are decompressed transparently.
func (o *Opener) Open(ctx context.Context, uri string) (Input, error) {
	if uri == "" {
		return Input{}, errors.New("empty input path")
	}

	var (
		in  Input
		err error
	)
	if IsS3URI(uri) {
		in, err = o.openS3(ctx, uri)
	} else {
		in, err = openFile(uri)
	}
	if err != nil {
		return Input{}, err
	}

	if !strings.HasSuffix(strings.ToLower(uri), ".gz") {
		return in, nil
	}
	return decompress(in)
}

func openFile(path string) (Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return Input{}, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return Input{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		f.Close()
		return Input{}, fmt.Errorf("open %s: is a directory", path)
	}
	return Input{ReadCloser: f, Name: path, Size: st.Size()}, nil
}

func (o *Opener) openS3(ctx context.Context, uri string) (Input, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return Input{}, err
	}
	if key == "" {
		return Input{}, fmt.Errorf("invalid S3 URI %q: missing object key", uri)
	}

	store, err := o.s3Store(ctx)
	if err != nil {
		return Input{}, err
	}
	body, size, err := store.StreamObject(ctx, bucket, key)
	if err != nil {
		return Input{}, err
	}
	return Input{ReadCloser: body, Name: uri, Size: size}, nil
}

func (o *Opener) s3Store(ctx context.Context) (ObjectStreamer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.S3 == nil {
		client, err := NewClient(ctx)
		if err != nil {
			return nil, err
		}
		o.S3 = client
	}
	return o.S3, nil
}

type gzipInput struct {
	*gzip.Reader
	underlying io.Closer
}

func (g *gzipInput) Close() error {
	gzErr := g.Reader.Close()
	if err := g.underlying.Close(); err != nil {
		return err
	}
	return gzErr
}

func decompress(in Input) (Input, error) {
	gzr, err := gzip.NewReader(in.ReadCloser)
	if err != nil {
		in.Close()
		return Input{}, fmt.Errorf("create gzip reader for %s: %w", in.Name, err)
	}
	return Input{
		ReadCloser: &gzipInput{Reader: gzr, underlying: in.ReadCloser},
		Name:       in.Name,
		Size:       SizeUnknown,
	}, nil
}
