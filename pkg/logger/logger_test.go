package logger

import "testing"

func TestNewWithLevelFallsBackToInfo(t *testing.T) {
	log := NewWithLevel("verbose").With("component", "test")
	log.Debug("dropped")
	log.Info("kept", "key", "value")
}

func TestNopLogger(t *testing.T) {
	log := NewNop()
	log.Warn("ignored", "n", 1)
	if err := log.With("a", 1).Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}
