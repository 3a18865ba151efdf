// Copyright 2018 Google Inc.
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

// Package screen queries the SCREEN GraphQL service for the conservation,
// motif, cCRE and linked gene data used to rank regions.
package screen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/machinebox/graphql"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	// DefaultEndpoint is the public SCREEN GraphQL endpoint.
	DefaultEndpoint = "https://screen.api.wenglab.org/graphql"

	// DefaultBatchSize is the largest number of base pairs sent in a single
	// conservation query.
	DefaultBatchSize = 10000

	maxErrorBody = 1024
)

// Client issues queries against a GraphQL endpoint.  To create a properly
// initialized Client, use NewClient.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
	batchSize  int
	gql        *graphql.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for queries.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithTokenSource authorizes every query with tokens from source.  It wraps
// the transport of the HTTP client configured so far.
func WithTokenSource(source oauth2.TokenSource) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{
			Transport: &oauth2.Transport{Source: source, Base: c.httpClient.Transport},
			Timeout:   c.httpClient.Timeout,
		}
	}
}

// WithLogger sets the logger used to report queries.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithBatchSize sets the base pair budget of a single conservation query.
func WithBatchSize(basePairs int) Option {
	return func(c *Client) { c.batchSize = basePairs }
}

// NewClient returns a Client that sends queries to endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
		batchSize:  DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	httpClient := &http.Client{
		Transport: statusTransport{base: c.httpClient.Transport},
		Timeout:   c.httpClient.Timeout,
	}
	c.gql = graphql.NewClient(endpoint, graphql.WithHTTPClient(httpClient))
	c.gql.Log = func(s string) { c.logger.Debug(s) }
	return c
}

// QueryError holds the errors reported in the body of a GraphQL response.
type QueryError struct {
	Operation string
	Messages  []string
}

func (err *QueryError) Error() string {
	return fmt.Sprintf("%s: %s", err.Operation, strings.Join(err.Messages, "; "))
}

// StatusError is returned when the endpoint responds with a non-2xx status.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (err *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected response status %d %s: %s",
		err.Operation, err.StatusCode, http.StatusText(err.StatusCode), err.Body)
}

// statusTransport reports non-2xx responses as a *StatusError carrying the
// start of the body.
type statusTransport struct {
	base http.RoundTripper
}

func (t statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(text)}
	}
	return resp, nil
}

// graphqlErrorPrefix starts the message of errors reported in the body of a
// GraphQL response.  Only the first such error is returned by the client.
const graphqlErrorPrefix = "graphql: "

// query runs a GraphQL operation and decodes its data into v.
func (c *Client) query(ctx context.Context, operation, query string, variables map[string]interface{}, v interface{}) error {
	req := graphql.NewRequest(query)
	for name, value := range variables {
		req.Var(name, value)
	}

	start := time.Now()
	err := c.gql.Run(ctx, req, v)
	c.logger.Debug("GraphQL query",
		zap.String("operation", operation),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	if err == nil {
		return nil
	}

	var serr *StatusError
	if errors.As(err, &serr) {
		serr.Operation = operation
		return serr
	}
	if strings.HasPrefix(err.Error(), graphqlErrorPrefix) {
		return &QueryError{Operation: operation, Messages: []string{strings.TrimPrefix(err.Error(), graphqlErrorPrefix)}}
	}
	return fmt.Errorf("%s: %v", operation, err)
}
