package restic

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imagevault/internal/types"
	"testing"
)

type fakeRunner struct {
	results []Result
	err     error
	calls   []Command
}

func (f *fakeRunner) Run(_ context.Context, cmd Command, onLine LineFunc) (Result, error) {
	f.calls = append(f.calls, cmd)
	if f.err != nil {
		return Result{}, f.err
	}
	result := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	if onLine != nil {
		for _, line := range splitLines(result.Stdout) {
			onLine(line)
		}
	}
	return result, nil
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

const summaryLine = `{"message_type":"summary","files_new":12,"data_added":1048576,"total_bytes_processed":4096000,"total_duration":42.5,"snapshot_id":"9c3a1f"}`

func testRepo() Repository {
	return Repository{
		Locator:  "s3:http://localhost:9000/imagevault/acme/hq",
		Password: "secret",
		Storage: &types.StorageCredentials{
			AccessKeyID: "key",
			SecretKey:   "secret",
		},
	}
}

func TestBackup_Success(t *testing.T) {
	runner := &fakeRunner{results: []Result{{
		ExitCode: 0,
		Stdout:   `{"message_type":"status","percent_done":0.5}` + "\n" + summaryLine + "\n",
	}}}
	cli := NewClient(runner)

	var lines []string
	summary, warnings, err := cli.Backup(context.Background(), testRepo(), `C:\staging`, []string{"role=workstation"}, func(line string) {
		lines = append(lines, line)
	})
	require.NoError(t, err)
	assert.False(t, warnings)
	assert.Equal(t, "9c3a1f", summary.SnapshotID)
	assert.Equal(t, uint64(1048576), summary.DataAdded)
	assert.Len(t, lines, 2, "all stdout lines forwarded in order")

	cmd := runner.calls[0]
	assert.Contains(t, cmd.Args, "backup")
	assert.Contains(t, cmd.Args, "--json")
	assert.Contains(t, cmd.Args, "--tag")
	assert.Contains(t, cmd.Env, "RESTIC_PASSWORD=secret")
	assert.Contains(t, cmd.Env, "AWS_ACCESS_KEY_ID=key")
}

func TestBackup_WarningsExitCode(t *testing.T) {
	runner := &fakeRunner{results: []Result{{
		ExitCode: 3,
		Stdout:   summaryLine + "\n",
		Stderr:   "Warning: failed to read pagefile.sys",
	}}}
	cli := NewClient(runner)

	summary, warnings, err := cli.Backup(context.Background(), testRepo(), `C:\staging`, nil, nil)
	require.NoError(t, err)
	assert.True(t, warnings)
	assert.Equal(t, "9c3a1f", summary.SnapshotID)
}

func TestBackup_Failure(t *testing.T) {
	runner := &fakeRunner{results: []Result{{
		ExitCode: 1,
		Stderr:   "Fatal: unable to open repository",
	}}}
	cli := NewClient(runner)

	_, _, err := cli.Backup(context.Background(), testRepo(), `C:\staging`, nil, nil)
	require.Error(t, err)

	var toolErr *types.ExternalToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, 1, toolErr.ExitCode)
	assert.Contains(t, toolErr.Stderr, "unable to open repository")
}

func TestBackup_WrongPassword(t *testing.T) {
	runner := &fakeRunner{results: []Result{{
		ExitCode: 1,
		Stderr:   "Fatal: wrong password or no key found",
	}}}
	cli := NewClient(runner)

	_, _, err := cli.Backup(context.Background(), testRepo(), `C:\staging`, nil, nil)
	assert.ErrorIs(t, err, types.ErrCredentialRejected)
}

func TestInit_AlreadyInitializedIsBenign(t *testing.T) {
	runner := &fakeRunner{results: []Result{{
		ExitCode: 1,
		Stderr:   "Fatal: create repository at s3:... failed: config file already exists",
	}}}
	cli := NewClient(runner)

	assert.NoError(t, cli.Init(context.Background(), testRepo()))
}

func TestSnapshots(t *testing.T) {
	runner := &fakeRunner{results: []Result{{
		ExitCode: 0,
		Stdout:   `[{"id":"abc","short_id":"abc123","time":"2026-08-30T10:00:00Z","paths":["C:\\staging"],"tags":["role=server"]}]`,
	}}}
	cli := NewClient(runner)

	snaps, err := cli.Snapshots(context.Background(), testRepo())
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "abc123", snaps[0].ShortID)
}

func TestLocators(t *testing.T) {
	cred := types.StorageCredentials{
		Endpoint: "minio.internal:9000",
		Bucket:   "imagevault",
	}
	assert.Equal(t, "s3:http://minio.internal:9000/imagevault/acme/hq", S3Locator(cred, "ACME", "HQ"))

	cred.UseTLS = true
	assert.Equal(t, "s3:https://minio.internal:9000/imagevault/acme/hq", S3Locator(cred, "ACME", "HQ"))

	assert.True(t, IsS3("s3:http://x/y"))
	assert.False(t, IsS3("/var/imagevault/repos/acme/hq"))
}
