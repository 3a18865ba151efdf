package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Client is an interface to the storage holding uploaded region files.
type Client interface {
	// NewObjectHandle returns a handle to a specified object in the storage
	// engine.
	NewObjectHandle(bucket, object string) ObjectHandle
}

// ObjectHandle is an interface to a single stored object.
type ObjectHandle interface {
	// NewRangeReader returns a reader that reads from a specified range.
	// Length of -1 means to capture everything until the end.
	NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error)
}

// GCSClient is Client for accessing Google Cloud Storage.
type GCSClient struct {
	*storage.Client
}

// NewObjectHandle returns a handle to a specified object in the storage
// engine.
func (c GCSClient) NewObjectHandle(bucket, object string) ObjectHandle {
	return gcsObjectHandle{c.Bucket(bucket).Object(object)}
}

type gcsObjectHandle struct {
	*storage.ObjectHandle
}

func (h gcsObjectHandle) NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
	return h.ObjectHandle.NewRangeReader(ctx, offset, length)
}

// sharedClient lazily creates one storage client per set of options and
// reuses it for every request.
type sharedClient struct {
	once   sync.Once
	client *storage.Client
	err    error
}

func (shared *sharedClient) get(opts ...option.ClientOption) (Client, http.Header, error) {
	shared.once.Do(func() {
		shared.client, shared.err = storage.NewClient(context.Background(), opts...)
	})
	if shared.err != nil {
		return nil, nil, fmt.Errorf("creating shared storage client: %v", shared.err)
	}
	return GCSClient{shared.client}, nil, nil
}

var defaultClient, publicClient sharedClient

// NewDefaultClient returns a storage client that uses the application default
// credentials.  It caches the storage client for efficiency.
func NewDefaultClient(_ *http.Request) (Client, http.Header, error) {
	return defaultClient.get()
}

// NewPublicClient returns a storage client that does not use any form of
// client authorization.  It can only be used to read publicly-readable
// objects.  It caches the storage client for efficiency.
func NewPublicClient(_ *http.Request) (Client, http.Header, error) {
	return publicClient.get(option.WithHTTPClient(http.DefaultClient))
}

// NewClientFromBearerToken constructs a storage client that uses the OAuth2
// bearer token found in req to make storage requests.  The authorization
// header is returned so the token can be logged against the request.
func NewClientFromBearerToken(req *http.Request) (Client, http.Header, error) {
	authorization := req.Header.Get("Authorization")

	fields := strings.Split(authorization, " ")
	if len(fields) != 2 || fields[0] != "Bearer" {
		return nil, nil, errMissingOrInvalidToken
	}

	token := oauth2.Token{
		TokenType:   fields[0],
		AccessToken: fields[1],
	}
	client, err := storage.NewClient(req.Context(), option.WithTokenSource(oauth2.StaticTokenSource(&token)))
	if err != nil {
		return nil, nil, fmt.Errorf("creating client with token source: %v", err)
	}

	return GCSClient{client}, http.Header{
		"Authorization": []string{authorization},
	}, nil
}

func newStorageError(context string, err error) error {
	if err == errMissingOrInvalidToken {
		return newPermissionDeniedError(context, err)
	}
	if err == storage.ErrObjectNotExist || err == storage.ErrBucketNotExist {
		return newNotFoundError(context, err)
	}
	if err, ok := err.(*googleapi.Error); ok {
		switch err.Code {
		case http.StatusUnauthorized:
			return newInvalidAuthenticationError(context, err)
		case http.StatusForbidden:
			return newPermissionDeniedError(context, err)
		case http.StatusNotFound:
			return newNotFoundError(context, err)
		}
	}
	return fmt.Errorf("%s: %v", context, err)
}
