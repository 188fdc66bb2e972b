package models

import (
	"encoding/json"
	"testing"
)

func TestJobStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   JobStatus
		terminal bool
		failure  bool
	}{
		{JobStatusNotStarted, false, false},
		{JobStatusPending, false, false},
		{JobStatusRunning, false, false},
		{JobStatusCancelling, false, false},
		{JobStatusSucceeded, true, false},
		{JobStatusFailed, true, true},
		{JobStatusError, true, true},
		{JobStatusCancelled, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
			if got := tt.status.IsFailure(); got != tt.failure {
				t.Errorf("IsFailure() = %v, want %v", got, tt.failure)
			}
		})
	}
}

func TestSetting_IntValue(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    int
		wantErr bool
	}{
		{"json number", float64(5), 5, false},
		{"numeric string", "100", 100, false},
		{"padded string", " 12 ", 12, false},
		{"decoder number", json.Number("7"), 7, false},
		{"fraction", 2.5, 0, true},
		{"word", "many", 0, true},
		{"missing", nil, 0, true},
		{"bool", true, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Setting{Name: SettingMaxConcurrentJobs, Value: tt.value}.IntValue()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %v, got %d", tt.value, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("IntValue() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSetting_DecodesFromListing(t *testing.T) {
	body := `[{"name": "MAX_CONCURRENT_JOBS", "value": 10, "minValue": 1, "maxValue": 100},
	          {"name": "JOB_QUERY_MAX_AOI_SIZE", "value": "5000"}]`

	var settings []Setting
	if err := json.Unmarshal([]byte(body), &settings); err != nil {
		t.Fatalf("failed to decode settings: %v", err)
	}
	if len(settings) != 2 {
		t.Fatalf("expected 2 settings, got %d", len(settings))
	}

	maxJobs, err := settings[0].IntValue()
	if err != nil || maxJobs != 10 {
		t.Errorf("expected 10, got %d (err %v)", maxJobs, err)
	}
	aoi, err := settings[1].IntValue()
	if err != nil || aoi != 5000 {
		t.Errorf("expected 5000, got %d (err %v)", aoi, err)
	}
}
