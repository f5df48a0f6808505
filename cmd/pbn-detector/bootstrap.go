package main

import (
	"github.com/rs/zerolog"

	"github.com/rawblock/pbn-detector/internal/cache"
	"github.com/rawblock/pbn-detector/internal/classifier"
	"github.com/rawblock/pbn-detector/internal/config"
	"github.com/rawblock/pbn-detector/internal/detector"
	"github.com/rawblock/pbn-detector/internal/logging"
	"github.com/rawblock/pbn-detector/internal/threshold"
)

// app bundles everything a running process needs: config, logger,
// detector, and the background services a supervisor must run alongside
// the HTTP server.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	det      *detector.Detector
	learned  *classifier.Learned
	cacheDB  *cache.Cache
}

func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logging.New(cfg.Logging)

	cacheDB, err := cache.Open(cfg.CacheDir(), log)
	if err != nil {
		return nil, err
	}

	lightweight := classifier.Lightweight{}
	learned := classifier.NewLearned(cfg.ClassifierModelPath, log)

	det := &detector.Detector{
		Scorer: detector.Scorer{
			Lightweight: lightweight,
			Learned:     learned,
			Thresholds:  threshold.Thresholds{High: cfg.HighRiskThreshold, Medium: cfg.MediumRiskThreshold},
			Options: detector.Options{
				UseEnsemble:         cfg.UseEnsemble,
				UseEnhancedFeatures: cfg.UseEnhancedFeatures,
				MinhashThreshold:    cfg.MinhashThreshold,
			},
		},
		ContentCache:      cacheDB,
		MinhashThreshold:  cfg.MinhashThreshold,
		ParallelWorkers:   cfg.ParallelWorkers,
		ParallelThreshold: cfg.ParallelThreshold,
	}
	if !cfg.UseParallelProcessing {
		det.ParallelThreshold = 1 << 30
	}

	return &app{cfg: cfg, log: log, det: det, learned: learned, cacheDB: cacheDB}, nil
}
