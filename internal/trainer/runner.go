package trainer

import (
	"context"
	"errors"
	"os/exec"

	"github.com/localrivet/textsummarizer/internal/errortypes"
	"github.com/localrivet/textsummarizer/internal/logger"
)

// Runner executes the external training loop for a job already written to jobPath.
type Runner interface {
	Run(ctx context.Context, jobPath string, job TrainingJob) error
}

// CommandRunner runs Command with "--job <jobPath>" appended and forwards
// its output to the logger.
type CommandRunner struct {
	Command []string
	Log     *logger.Logger
}

// NewCommandRunner creates a CommandRunner.
func NewCommandRunner(command []string, log *logger.Logger) *CommandRunner {
	if log == nil {
		log = logger.Discard()
	}
	return &CommandRunner{Command: command, Log: log.WithContext("runner")}
}

// Run implements Runner.
func (r *CommandRunner) Run(ctx context.Context, jobPath string, _ TrainingJob) error {
	if len(r.Command) == 0 {
		return errortypes.ConfigError(errors.New("empty trainer command"), "cannot start training")
	}

	args := append(append([]string{}, r.Command[1:]...), "--job", jobPath)
	cmd := exec.CommandContext(ctx, r.Command[0], args...)
	cmd.Stdout = r.Log.Writer(logger.INFO)
	cmd.Stderr = r.Log.Writer(logger.WARN)

	r.Log.Info("starting training: %s", cmd.String())
	if err := cmd.Run(); err != nil {
		appErr := errortypes.FrameworkError(err, "training run failed").WithField("command", r.Command[0])
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			appErr = appErr.WithField("exit_code", exitErr.ExitCode())
		}
		return appErr
	}
	return nil
}
