package restic

import (
	"context"
	"encoding/json"
	"github.com/pkg/errors"
	"imagevault/internal/types"
	"strings"
)

const (
	// restic's documented "some source files could not be read" exit code;
	// the snapshot still exists and is usable.
	exitCodeWarnings = 3

	wrongPasswordMarker    = "wrong password or no key found"
	alreadyInitializedHint = "already initialized"
	configExistsHint       = "config file already exists"
)

type (
	// Client turns restic invocations into typed results. All commands run
	// with --json so snapshot ids and statistics come from structured output
	// rather than log scraping.
	Client interface {
		Init(ctx context.Context, repo Repository) error
		Backup(ctx context.Context, repo Repository, sourcePath string, tags []string, onLine LineFunc) (*BackupSummary, bool, error)
		Restore(ctx context.Context, repo Repository, snapshotID, targetPath string, onLine LineFunc) error
		Snapshots(ctx context.Context, repo Repository) ([]Snapshot, error)
		Unlock(ctx context.Context, repo Repository) error
	}

	// Repository is a locator plus everything restic needs in its environment
	// to reach it.
	Repository struct {
		Locator  string
		Password string
		Storage  *types.StorageCredentials
	}

	client struct {
		runner Runner
	}
)

func NewClient(runner Runner) Client {
	return &client{runner: runner}
}

func (r Repository) env() []string {
	env := []string{"RESTIC_PASSWORD=" + r.Password}
	if IsS3(r.Locator) && r.Storage != nil {
		env = append(env,
			"AWS_ACCESS_KEY_ID="+r.Storage.AccessKeyID,
			"AWS_SECRET_ACCESS_KEY="+r.Storage.SecretKey,
		)
		if r.Storage.Region != "" {
			env = append(env, "AWS_DEFAULT_REGION="+r.Storage.Region)
		}
	}
	return env
}

func (c *client) Init(ctx context.Context, repo Repository) error {
	result, err := c.runner.Run(ctx, Command{
		Args: []string{"-r", repo.Locator, "init", "--json"},
		Env:  repo.env(),
	}, nil)
	if err != nil {
		return errors.Wrap(err, "failed to run restic init")
	}

	if result.ExitCode == 0 {
		return nil
	}
	if strings.Contains(result.Stderr, alreadyInitializedHint) ||
		strings.Contains(result.Stderr, configExistsHint) {
		return nil
	}
	return classify("init", result)
}

// Backup runs restic backup and returns the summary plus a warnings flag.
// Exit code 3 means some files could not be read; the snapshot is still good
// and the operation counts as a success.
func (c *client) Backup(ctx context.Context, repo Repository, sourcePath string, tags []string, onLine LineFunc) (*BackupSummary, bool, error) {
	args := []string{"-r", repo.Locator, "backup", sourcePath, "--json"}
	for _, tag := range tags {
		args = append(args, "--tag", tag)
	}

	var summary *BackupSummary
	result, err := c.runner.Run(ctx, Command{Args: args, Env: repo.env()}, func(line string) {
		if s, ok := parseSummary(line); ok {
			summary = s
		}
		if onLine != nil {
			onLine(line)
		}
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to run restic backup")
	}

	switch result.ExitCode {
	case 0:
		// fallthrough to summary check
	case exitCodeWarnings:
		if summary == nil {
			summary = scanForSummary(result.Stdout)
		}
		if summary == nil {
			return nil, false, classify("backup", result)
		}
		return summary, true, nil
	default:
		return nil, false, classify("backup", result)
	}

	if summary == nil {
		summary = scanForSummary(result.Stdout)
	}
	if summary == nil {
		return nil, false, errors.New("restic backup produced no summary")
	}
	return summary, false, nil
}

func (c *client) Restore(ctx context.Context, repo Repository, snapshotID, targetPath string, onLine LineFunc) error {
	result, err := c.runner.Run(ctx, Command{
		Args: []string{"-r", repo.Locator, "restore", snapshotID, "--target", targetPath, "--json"},
		Env:  repo.env(),
	}, onLine)
	if err != nil {
		return errors.Wrap(err, "failed to run restic restore")
	}
	if result.ExitCode != 0 {
		return classify("restore", result)
	}
	return nil
}

func (c *client) Snapshots(ctx context.Context, repo Repository) ([]Snapshot, error) {
	result, err := c.runner.Run(ctx, Command{
		Args: []string{"-r", repo.Locator, "snapshots", "--json"},
		Env:  repo.env(),
	}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run restic snapshots")
	}
	if result.ExitCode != 0 {
		return nil, classify("snapshots", result)
	}

	snapshots := make([]Snapshot, 0)
	if err := json.Unmarshal([]byte(strings.TrimSpace(result.Stdout)), &snapshots); err != nil {
		return nil, errors.Wrap(err, "failed to parse restic snapshots output")
	}
	return snapshots, nil
}

func (c *client) Unlock(ctx context.Context, repo Repository) error {
	result, err := c.runner.Run(ctx, Command{
		Args: []string{"-r", repo.Locator, "unlock"},
		Env:  repo.env(),
	}, nil)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return classify("unlock", result)
	}
	return nil
}

// classify maps a nonzero exit onto the error taxonomy. A rejected password is
// its own error class: callers must never react to it by regenerating the
// credential or re-initializing the repository.
func classify(op string, result Result) error {
	if strings.Contains(result.Stderr, wrongPasswordMarker) {
		return types.ErrCredentialRejected
	}
	return &types.ExternalToolError{
		Tool:     "restic " + op,
		ExitCode: result.ExitCode,
		Stderr:   result.Stderr,
	}
}

func parseSummary(line string) (*BackupSummary, bool) {
	if !strings.Contains(line, "summary") {
		return nil, false
	}
	var s BackupSummary
	if err := json.Unmarshal([]byte(line), &s); err != nil || s.MessageType != "summary" {
		return nil, false
	}
	return &s, true
}

func scanForSummary(stdout string) *BackupSummary {
	for _, line := range strings.Split(stdout, "\n") {
		if s, ok := parseSummary(line); ok {
			return s
		}
	}
	return nil
}
