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

// Package api implements the ARGO region ranking HTTP service.
//
// A client posts a set of genomic regions, either inline as BED text or as the
// name of a Google Cloud Storage object holding BED text, together with the
// ranking options.  The service responds with the sequence, element, gene and
// aggregate rank of every region, as JSON or as a CSV download.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/googlegenomics/argo/analytics"
	"github.com/googlegenomics/argo/internal/argo"
	"github.com/googlegenomics/argo/internal/export"
	"github.com/googlegenomics/argo/internal/genomics"
	"go.uber.org/zap"
)

const (
	rankPath   = "/argo/rank"
	healthPath = "/healthcheck"

	// maxObjectSize bounds the bytes read from a region object.  Uploads are
	// limited to 10,000 base pairs so valid files are far smaller.
	maxObjectSize = 4 * 1024 * 1024

	requestIDHeader = "X-Request-Id"
	loggerKey       = "argo.logger"
)

var (
	errInvalidOrUnspecifiedID = errors.New("invalid or unspecified object ID")
	errMissingOrInvalidToken  = errors.New("missing or invalid token")
	errAmbiguousRegions       = errors.New("exactly one of regions and object must be set")
)

// NewStorageClientFunc is the type of function that constructs the appropriate
// storage.Client to satisfy the incoming request.  Any headers that caused this
// particular client to be created are returned as well.
type NewStorageClientFunc func(*http.Request) (Client, http.Header, error)

// Ranker ranks validated regions.  It is implemented by *argo.Ranker.
type Ranker interface {
	Rank(ctx context.Context, regions []genomics.InputRegion, opts argo.Options) (*argo.Result, error)
}

// Server provides the ranking service.  Must be created with NewServer.
type Server struct {
	newStorageClient NewStorageClientFunc
	ranker           Ranker
	logger           *zap.Logger
	whitelist        map[string]bool
}

// NewServer returns a new Server that ranks regions with ranker.  The server
// will call newStorageClient on each request that names a region object to
// determine which GCS storage client to use.  A nil logger discards log
// output.
func NewServer(newStorageClient NewStorageClientFunc, ranker Ranker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{newStorageClient, ranker, logger, make(map[string]bool)}
}

// Whitelist adds buckets to the set of buckets which the server is allowed to
// read region objects from.  If Whitelist is never called for a given Server
// then reads from any bucket are allowed.
func (server *Server) Whitelist(buckets []string) {
	for _, bucket := range buckets {
		server.whitelist[bucket] = true
	}
}

// Export registers the service endpoints with router.
func (server *Server) Export(router gin.IRouter) {
	router.Use(server.requestLogger, forwardOrigin)
	router.POST(rankPath, server.serveRank)
	router.OPTIONS(rankPath, servePreflight)
	router.GET(healthPath, func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
}

type rankRequest struct {
	// Regions holds BED formatted regions.
	Regions string `json:"regions"`
	// Object names a BED object as bucket/object.
	Object  string       `json:"object"`
	Options argo.Options `json:"options"`
}

func (server *Server) serveRank(c *gin.Context) {
	ctx := c.Request.Context()
	logger := loggerFrom(c)

	track := analytics.TrackerFromContext(ctx)
	track(analytics.Event("Rank", "Rank Request Received", "", nil))

	format, err := parseFormat(c.Query("format"))
	if err != nil {
		writeError(c, newUnsupportedFormatError(err))
		return
	}

	request := rankRequest{Options: argo.DefaultOptions()}
	if err := c.ShouldBindJSON(&request); err != nil {
		writeError(c, newInvalidInputError("decoding request", err))
		return
	}

	regions, err := server.readRegions(c.Request, request)
	if err != nil {
		writeError(c, err)
		return
	}
	logger.Debug("Parsed regions", zap.Int("count", len(regions)))

	result, err := server.ranker.Rank(ctx, regions, request.Options)
	if err != nil {
		var verr *genomics.ValidationError
		if errors.As(err, &verr) {
			writeError(c, newInvalidInputError("validating regions", err))
			return
		}
		track(analytics.Event("Rank", "Rank Upstream Error", "", nil))
		logger.Error("Ranking failed", zap.Error(err))
		writeError(c, newUpstreamError("ranking regions", err))
		return
	}

	switch format {
	case "csv":
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="argo.csv"`)
		c.Status(http.StatusOK)
		if err := export.WriteCSV(c.Writer, result.Ranked); err != nil {
			logger.Error("Failed to write CSV", zap.Error(err))
			return
		}
	default:
		writeJSON(c, http.StatusOK, result)
	}

	count := int64(len(result.Ranked))
	track(analytics.Event("Rank", "Rank Response Region Count", format, &count))
	track(analytics.Event("Rank", "Rank Response Sent", format, nil))
}

// readRegions parses the regions of request, reading them from storage when
// they are named by object.
func (server *Server) readRegions(req *http.Request, request rankRequest) ([]genomics.InputRegion, error) {
	if (request.Regions == "") == (request.Object == "") {
		return nil, newInvalidInputError("reading regions", errAmbiguousRegions)
	}
	if request.Regions != "" {
		return parseRegions(strings.NewReader(request.Regions))
	}

	bucket, object, err := parseID(request.Object)
	if err != nil {
		return nil, newInvalidInputError("parsing object ID", err)
	}

	if err := server.checkWhitelist(bucket); err != nil {
		return nil, newPermissionDeniedError("checking whitelist", err)
	}

	gcs, _, err := server.newStorageClient(req)
	if err != nil {
		return nil, newStorageError("creating client", err)
	}

	data, err := gcs.NewObjectHandle(bucket, object).NewRangeReader(req.Context(), 0, maxObjectSize)
	if err != nil {
		return nil, newStorageError("opening regions", err)
	}
	defer data.Close()

	return parseRegions(data)
}

func parseRegions(r io.Reader) ([]genomics.InputRegion, error) {
	regions, err := genomics.ParseBED(r)
	if err != nil {
		var verr *genomics.ValidationError
		if errors.As(err, &verr) {
			return nil, newInvalidInputError("parsing regions", err)
		}
		return nil, fmt.Errorf("reading regions: %v", err)
	}
	return regions, nil
}

func (server *Server) checkWhitelist(bucket string) error {
	if len(server.whitelist) == 0 || server.whitelist[bucket] {
		return nil
	}
	return fmt.Errorf("access to bucket %s is not allowed", bucket)
}

// parseID parses id and returns a GCS bucket and object, or an error.
func parseID(id string) (string, string, error) {
	id = strings.TrimPrefix(id, "gs://")
	if parts := strings.SplitN(id, "/", 2); len(parts) == 2 {
		if parts[0] != "" && parts[1] != "" {
			return parts[0], parts[1], nil
		}
	}
	return "", "", errInvalidOrUnspecifiedID
}

func parseFormat(format string) (string, error) {
	switch format {
	case "", "json":
		return "json", nil
	case "csv":
		return "csv", nil
	}
	return "", fmt.Errorf("unsupported format %q", format)
}

// requestLogger tags each request with an ID and logs its outcome.
func (server *Server) requestLogger(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.New().String()
	}
	c.Header(requestIDHeader, id)

	logger := server.logger.With(zap.String("requestID", id))
	c.Set(loggerKey, logger)

	start := time.Now()
	c.Next()
	logger.Info("Handled request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("latency", time.Since(start)))
}

func loggerFrom(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if logger, ok := v.(*zap.Logger); ok {
			return logger
		}
	}
	return zap.NewNop()
}

// apiError is used to capture errors that have been defined in the API.
type apiError struct {
	name  string
	code  int
	cause error
}

func (err *apiError) Error() string {
	return fmt.Sprintf("%s (%d): %v", err.name, err.code, err.cause)
}

func newApiError(name string, code int, context string, err error) error {
	return &apiError{name, code, fmt.Errorf("%s: %v", context, err)}
}

func newInvalidAuthenticationError(context string, err error) error {
	return newApiError("InvalidAuthentication", http.StatusUnauthorized, context, err)
}

func newInvalidInputError(context string, err error) error {
	return newApiError("InvalidInput", http.StatusBadRequest, context, err)
}

func newPermissionDeniedError(context string, err error) error {
	return newApiError("PermissionDenied", http.StatusForbidden, context, err)
}

func newUnsupportedFormatError(err error) error {
	return &apiError{"UnsupportedFormat", http.StatusBadRequest, err}
}

func newNotFoundError(context string, err error) error {
	return newApiError("NotFound", http.StatusNotFound, context, err)
}

func newUpstreamError(context string, err error) error {
	return newApiError("UpstreamError", http.StatusBadGateway, context, err)
}

// writeError writes either a JSON object or bare HTTP error describing err.  A
// JSON object is written only when the error has a name and code defined by
// the API.
func writeError(c *gin.Context, err error) {
	if err, ok := err.(*apiError); ok {
		writeJSON(c, err.code, gin.H{
			"error":   err.name,
			"message": fmt.Sprintf("%s: %v", http.StatusText(err.code), err.cause),
		})
		return
	}

	writeHTTPError(c, http.StatusInternalServerError, err)
}

func writeHTTPError(c *gin.Context, code int, err error) {
	c.String(code, "%s: %v", http.StatusText(code), err)
}

func writeJSON(c *gin.Context, code int, v interface{}) {
	c.JSON(code, v)
}

func forwardOrigin(c *gin.Context) {
	if origin := c.GetHeader("Origin"); origin != "" {
		c.Header("Access-Control-Allow-Origin", origin)
	}
	c.Next()
}

func servePreflight(c *gin.Context) {
	c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
	c.Status(http.StatusNoContent)
}
