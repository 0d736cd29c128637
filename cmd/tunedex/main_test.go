package main

import (
	"testing"

	"github.com/tunedex/tunedex/internal/config"
)

func TestRunConfigMapping(t *testing.T) {
	cfg := &config.Config{
		Mode:           config.ModeMinimal,
		SkipValidation: true,
		ReportUsage:    true,
		MinimalLimit:   5,
		BatchSize:      7,
		Concurrency:    3,
	}
	rc := runConfig(cfg)

	if rc.Mode != config.ModeMinimal || !rc.SkipValidation || rc.SkipEnrichment {
		t.Errorf("mode toggles not mapped: %+v", rc)
	}
	if !rc.ReportUsage {
		t.Error("ReportUsage must flow from config into the run")
	}
	if rc.MinimalLimit != 5 || rc.BatchSize != 7 || rc.Concurrency != 3 {
		t.Errorf("limits not mapped: %+v", rc)
	}
}

func TestRefreshJob(t *testing.T) {
	job := refreshJob(config.ModeMinimal, "Germany", "news")
	if job.Mode != config.ModeMinimal || job.Country != "Germany" || job.Category != "news" {
		t.Errorf("job = %+v", job)
	}
}
