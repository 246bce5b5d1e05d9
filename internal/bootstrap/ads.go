// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"context"
	"fmt"

	"github.com/AccelByte/extend-ads-policy/internal/config"
	"github.com/AccelByte/extend-ads-policy/pkg/ads"
	"github.com/AccelByte/extend-ads-policy/pkg/clock"
	"github.com/AccelByte/extend-ads-policy/pkg/metrics"
	"github.com/AccelByte/extend-ads-policy/pkg/placement"
	"github.com/AccelByte/extend-ads-policy/pkg/policy"
	"github.com/AccelByte/extend-ads-policy/pkg/provider"
	"github.com/sirupsen/logrus"
)

// logPlayback is the playback controller for the standalone service. The
// real client app supplies its own PlaybackController when it embeds the
// ads service; here the hand-offs just go to the log.
type logPlayback struct{}

func (logPlayback) PauseContent() {
	logrus.Infof("playback: content paused for ad")
}

func (logPlayback) ProceedWithContent(episodeID string) {
	logrus.Infof("playback: proceeding with episode %s", episodeID)
}

// InitAdsService assembles the ads facade: policy engine, format managers
// and the event sinks feeding logs and Prometheus.
func InitAdsService(
	ctx context.Context,
	cfg *config.Config,
	store policy.SessionStore,
	configService *policy.ConfigService,
	backend provider.Provider,
	placements *placement.Config,
	appMetrics *metrics.Metrics,
) (*ads.Service, error) {
	sink := ads.MultiSink{
		ads.NewLogSink(configService),
		metrics.NewSink(appMetrics),
	}

	svc, err := ads.NewService(ctx, ads.ServiceConfig{
		ProfileID:      cfg.ProfileID,
		SessionTimeout: cfg.SessionTimeout,
		Store:          store,
		Config:         configService,
		Provider:       backend,
		Clock:          clock.NewSystem(),
		Placements:     placements,
		Sink:           sink,
		Playback:       logPlayback{},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ads service: %w", err)
	}

	logrus.Infof("initialized ads service (profile: %s, provider: %s)", cfg.ProfileID, backend.Name())

	return svc, nil
}
