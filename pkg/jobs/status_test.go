package jobs

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deepfence/MispHarvester/pkg/output"
	"github.com/stretchr/testify/require"
)

func statuses(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var doc map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &doc))
		out = append(out, doc["run_status"].(string))
	}
	return out
}

func TestStatusReporterComplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.log")
	res, done := StartStatusReporter(context.Background(), path, "run-1", time.Hour)
	res <- nil
	<-done

	require.Equal(t, []string{output.StatusInProgress, output.StatusComplete}, statuses(t, path))
}

func TestStatusReporterError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.log")
	res, done := StartStatusReporter(context.Background(), path, "run-2", time.Hour)
	res <- errors.New("listing failed")
	<-done

	got := statuses(t, path)
	require.Equal(t, output.StatusError, got[len(got)-1])
}

func TestStatusReporterCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.log")
	ctx, cancel := context.WithCancel(context.Background())
	_, done := StartStatusReporter(ctx, path, "run-3", time.Hour)
	cancel()
	<-done

	got := statuses(t, path)
	require.Equal(t, output.StatusCancelled, got[len(got)-1])
}

func TestStatusReporterTicks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.log")
	res, done := StartStatusReporter(context.Background(), path, "run-4", 10*time.Millisecond)
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && bytes.Count(data, []byte("\n")) >= 3
	}, 5*time.Second, 10*time.Millisecond)
	res <- nil
	<-done

	got := statuses(t, path)
	require.Equal(t, output.StatusComplete, got[len(got)-1])
}
