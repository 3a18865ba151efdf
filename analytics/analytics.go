// Copyright 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package analytics provides functions for sending anonymous usage events to
// Google Analytics.
package analytics

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PropertyID is the analytics property that usage events are sent to.
	PropertyID = "UA-103022118-2"

	defaultEndpoint  = "https://www.google-analytics.com"
	defaultBatchSize = 20 // The maximum number supported by batch endpoint.
)

// Hit represents a single analytics event (called a 'hit').
type Hit map[string]string

// Event generates a new event typed hit.  The label may be empty and the
// value may be nil but category and action are required.
func Event(category, action, label string, value *int64) Hit {
	hit := Hit{
		"t":  "event",
		"ec": category,
		"ea": action,
	}
	if label != "" {
		hit["el"] = label
	}
	if value != nil {
		hit["ev"] = strconv.FormatInt(*value, 10)
	}
	return hit
}

// Client defines a type for communicating with Google Analytics.  To create a
// properly initialized Client instance, use NewClient.
type Client struct {
	propertyID string
	clientID   string
	endpoint   string
	batchSize  int
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithClientID sets the anonymous client ID reported with every hit.  By
// default a random ID is generated for each Client.
func WithClientID(clientID string) Option {
	return func(c *Client) { c.clientID = clientID }
}

// WithHTTPClient sets the HTTP client used to upload hits.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithLogger sets the logger used to report failed uploads.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient returns a Client that sends hits to the analytics property
// propertyID.
func NewClient(propertyID string, opts ...Option) *Client {
	c := &Client{
		propertyID: propertyID,
		clientID:   uuid.New().String(),
		endpoint:   defaultEndpoint,
		batchSize:  defaultBatchSize,
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send attempts to upload the provided hits to the analytics server.
func (c *Client) Send(ctx context.Context, hits []Hit) error {
	if len(hits) > 0 {
		if err := c.upload(ctx, hits); err != nil {
			return fmt.Errorf("uploading hits: %v", err)
		}
	}
	return nil
}

// Track sends hits and logs any failure.  It is suitable as the track
// function of Middleware.
func (c *Client) Track(hits []Hit) {
	if err := c.Send(context.Background(), hits); err != nil {
		c.logger.Warn("Failed to send hits to analytics", zap.Int("hits", len(hits)), zap.Error(err))
	}
}

func (c *Client) upload(ctx context.Context, hits []Hit) error {
	for i := 0; i < len(hits); i += c.batchSize {
		start, end := i, i+c.batchSize
		if end > len(hits) {
			end = len(hits)
		}

		var body bytes.Buffer
		for _, hit := range hits[start:end] {
			payload := url.Values{
				"v":   []string{"1"},
				"tid": []string{c.propertyID},
				"cid": []string{c.clientID},
			}
			for key, value := range hit {
				payload.Add(key, value)
			}
			body.WriteString(payload.Encode())
			body.WriteByte('\n')
		}

		request, err := http.NewRequest("POST", c.endpoint+"/batch", &body)
		if err != nil {
			return fmt.Errorf("creating request: %v", err)
		}
		response, err := c.httpClient.Do(request.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("sending request: %v", err)
		}
		response.Body.Close()
		if response.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected response status: %v", response.Status)
		}
	}
	return nil
}

type contextKey int

var (
	hitsKey = contextKey(1)
)

// Middleware returns a gin handler that prepares the context of each request
// for use with the TrackerFromContext function.  When the remaining handlers
// complete, track is invoked with any hits accumulated during the request.
func Middleware(track func([]Hit)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var hits []Hit
		ctx := context.WithValue(c.Request.Context(), hitsKey, &hits)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		track(hits)
	}
}

// TrackerFromContext is intended to be used with request contexts prepared by
// Middleware.  It returns a function that buffers hits to be delivered to the
// track function provided in the original call to Middleware.
func TrackerFromContext(ctx context.Context) func(Hit) {
	if hits, ok := ctx.Value(hitsKey).(*[]Hit); ok {
		return func(hit Hit) { *hits = append(*hits, hit) }
	}
	return func(Hit) {}
}
