package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"

	"github.com/TopChef/TopChefClient/worker"
)

// newExecTask builds a task that runs command for each job, writing the job
// parameters as JSON to its stdin and parsing its stdout as the JSON result.
// A non-zero exit or unparseable output fails the job.
func newExecTask(command []string) worker.Task {
	return worker.TaskFunc(func(ctx context.Context, parameters any) (any, error) {
		input, err := json.Marshal(parameters)
		if err != nil {
			return nil, fmt.Errorf("failed to encode parameters: %w", err)
		}

		cmd := exec.CommandContext(ctx, command[0], command[1:]...)
		cmd.Stdin = bytes.NewReader(input)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			slog.Error("Task command failed", "command", command[0], "stderr", stderr.String())
			return nil, fmt.Errorf("task command failed: %w", err)
		}

		var result any
		if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
			return nil, fmt.Errorf("task produced invalid JSON: %w", err)
		}
		return result, nil
	})
}

func writeJSON(rw http.ResponseWriter, status int, body any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
