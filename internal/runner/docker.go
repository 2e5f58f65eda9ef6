package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// dockerRunner drives sandboxes through the docker CLI. The container id is
// the handle, so a worker that restarts mid-run can still inspect or kill
// executions started by its previous incarnation.
type dockerRunner struct {
	image string
	log   *zap.Logger
}

func NewDockerRunner(image string, log *zap.Logger) Runner {
	return &dockerRunner{image: image, log: log.Named("runner.docker")}
}

// Available reports whether a docker daemon is reachable.
func Available(ctx context.Context) bool {
	return exec.CommandContext(ctx, "docker", "version", "--format", "{{.Server.Version}}").Run() == nil
}

func (r *dockerRunner) StartDetached(ctx context.Context, command string, limits Limits) (string, error) {
	name := "cq-job-" + uuid.NewString()
	args := []string{
		"run", "-d",
		"--name", name,
		"--memory", limits.Memory,
		"--cpus", limits.CPUs,
		"--network", limits.Network,
		r.image,
		"sh", "-c", command,
	}
	out, err := r.run(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("starting container: %w", err)
	}
	r.log.Debug("container started", zap.String("name", name), zap.String("id", out))
	return name, nil
}

func (r *dockerRunner) IsRunning(ctx context.Context, handle string) (bool, error) {
	out, err := r.run(ctx, "inspect", "-f", "{{.State.Running}}", handle)
	if err != nil {
		return false, err
	}
	return out == "true", nil
}

func (r *dockerRunner) Kill(ctx context.Context, handle string) error {
	_, err := r.run(ctx, "kill", handle)
	if err != nil && strings.Contains(err.Error(), "is not running") {
		return nil
	}
	return err
}

func (r *dockerRunner) ExitCode(ctx context.Context, handle string) (int, error) {
	out, err := r.run(ctx, "inspect", "-f", "{{.State.ExitCode}}", handle)
	if err != nil {
		return -1, err
	}
	code, err := strconv.Atoi(out)
	if err != nil {
		return -1, fmt.Errorf("parsing exit code %q: %w", out, err)
	}
	return code, nil
}

func (r *dockerRunner) Logs(ctx context.Context, handle string) (string, error) {
	cmd := exec.CommandContext(ctx, "docker", "logs", handle)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return buf.String(), err
	}
	return buf.String(), nil
}

func (r *dockerRunner) Cleanup(ctx context.Context, handle string) {
	if _, err := r.run(ctx, "rm", "-f", handle); err != nil {
		r.log.Warn("container cleanup failed", zap.String("handle", handle), zap.Error(err))
	}
}

func (r *dockerRunner) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "docker", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("docker %s: %s", args[0], msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}
