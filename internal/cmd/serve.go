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

package cmd

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/googlegenomics/argo/analytics"
	"github.com/googlegenomics/argo/api"
	"github.com/googlegenomics/argo/internal/argo"
	"github.com/googlegenomics/argo/internal/config"
	"github.com/googlegenomics/argo/internal/screen"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the region ranking HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, logger, err := o.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			switch c.Server.Profile {
			case "cpu":
				defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
			case "mem":
				defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
			}

			return serve(c, newRouter(c, logger), logger)
		},
	}

	flags := cmd.Flags()
	flags.Int("port", 0, "HTTP service port")
	flags.StringSlice("buckets", nil, "if set, restricts region objects to a comma-separated list of buckets")
	flags.Bool("secure", false, "serve in HTTPS-only mode and forward client bearer tokens")
	flags.String("https-cert", "", "HTTPS certificate file")
	flags.String("https-key", "", "HTTPS key file")
	flags.String("profile", "", `write a "cpu" or "mem" profile to the working directory`)

	// Enable or disable anonymous usage tracking.
	//
	// If enabled, anonymous information about requests handled by the server is
	// logged to Google via Google Analytics.  No user identifying information
	// is ever sent.
	flags.Bool("track-usage", false, "anonymous usage tracking")

	o.bindFlags("server.", flags, "port", "buckets", "secure", "https-cert", "https-key", "profile", "track-usage")
	return cmd
}

// newRouter wires the ranking service described by c into a gin engine.
func newRouter(c config.Config, logger *zap.Logger) *gin.Engine {
	client := screen.NewClient(c.Endpoint,
		screen.WithBatchSize(c.BatchSize),
		screen.WithLogger(logger.Named("screen")))
	ranker := argo.NewRanker(client, logger.Named("argo"))

	newStorageClient := api.NewPublicClient
	if c.Server.Secure {
		newStorageClient = api.NewClientFromBearerToken
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if c.Server.TrackUsage {
		logger.Info("Enabling anonymous usage tracking")
		tracker := analytics.NewClient(analytics.PropertyID, analytics.WithLogger(logger.Named("analytics")))
		router.Use(analytics.Middleware(tracker.Track))
	}

	server := api.NewServer(newStorageClient, ranker, logger.Named("api"))
	if len(c.Server.Buckets) > 0 {
		server.Whitelist(c.Server.Buckets)
	}
	server.Export(router)
	return router
}

func serve(c config.Config, router *gin.Engine, logger *zap.Logger) error {
	address := fmt.Sprintf(":%d", c.Server.Port)
	logger.Info("Serving", zap.String("address", address), zap.Bool("secure", c.Server.Secure))

	if c.Server.Secure {
		if err := router.RunTLS(address, c.Server.HTTPSCert, c.Server.HTTPSKey); err != nil {
			return fmt.Errorf("HTTPS server returned an error: %v", err)
		}
		return nil
	}
	if err := router.Run(address); err != nil {
		return fmt.Errorf("HTTP server returned an error: %v", err)
	}
	return nil
}
