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

// Package argo serves the region ranking API on App Engine.
package argo

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/googlegenomics/argo/api"
	argoranker "github.com/googlegenomics/argo/internal/argo"
	"github.com/googlegenomics/argo/internal/screen"
	"go.uber.org/zap"
	"google.golang.org/appengine"
)

func init() {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}

	endpoint := screen.DefaultEndpoint
	if e := os.Getenv("ARGO_ENDPOINT"); e != "" {
		endpoint = e
	}
	ranker := argoranker.NewRanker(screen.NewClient(endpoint, screen.WithLogger(logger)), logger)

	router := gin.New()
	router.Use(gin.Recovery())
	server := api.NewServer(newAppEngineClient, ranker, logger)
	if list := os.Getenv("BUCKET_WHITELIST"); list != "" {
		server.Whitelist(strings.Split(list, ","))
	}
	server.Export(router)
	http.Handle("/", router)
}

func newAppEngineClient(req *http.Request) (api.Client, http.Header, error) {
	return api.NewClientFromBearerToken(req.WithContext(appengine.NewContext(req)))
}
