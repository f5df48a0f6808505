package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rawblock/pbn-detector/internal/detector"
	"github.com/rawblock/pbn-detector/internal/models"
)

func scoreCmd() *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one JSON batch from a file and print the response",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			defer a.cacheDB.Close()

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			var req models.DetectionRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("parse input: %w", err)
			}
			if len(req.Backlinks) == 0 {
				return fmt.Errorf("backlinks must not be empty")
			}
			if len(req.Backlinks) > a.cfg.MaxBacklinks {
				return fmt.Errorf("backlinks count %d exceeds max_backlinks %d", len(req.Backlinks), a.cfg.MaxBacklinks)
			}

			start := time.Now()
			items, err := a.det.Detect(context.Background(), req.Backlinks, start, nil)
			if err != nil {
				return fmt.Errorf("detect: %w", err)
			}

			resp := models.DetectionResponse{
				Domain:      req.Domain,
				TaskID:      req.TaskID,
				GeneratedAt: time.Now().UTC(),
				Items:       items,
				Summary:     detector.Summarize(items),
				Meta: models.DetectionMeta{
					LatencyMS:    time.Since(start).Milliseconds(),
					ModelVersion: a.learned.ModelVersion(),
				},
			}

			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal response: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "path to a JSON detection request")
	cmd.MarkFlagRequired("input")
	return cmd
}
