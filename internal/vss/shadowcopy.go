package vss

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/pkg/errors"
	"os/exec"
	"strings"
)

// shadowCopySnapshotter drives the Volume Shadow Copy service through
// powershell. Create asks Win32_ShadowCopy for a ClientAccessible copy and
// resolves its device object; Delete removes the copy by id.
type shadowCopySnapshotter struct{}

func newShadowCopySnapshotter() Snapshotter {
	return &shadowCopySnapshotter{}
}

const createScript = `
$r = (Get-WmiObject -List Win32_ShadowCopy).Create('%s\', 'ClientAccessible')
if ($r.ReturnValue -ne 0) { throw "shadow copy create returned $($r.ReturnValue)" }
$sc = Get-WmiObject Win32_ShadowCopy | Where-Object { $_.ID -eq $r.ShadowID }
@{ id = $sc.ID; device = $sc.DeviceObject } | ConvertTo-Json -Compress
`

func (s *shadowCopySnapshotter) Create(ctx context.Context, volume string) (*Snapshot, error) {
	volume = strings.TrimSuffix(volume, `\`)
	script := fmt.Sprintf(createScript, volume)

	out, err := runPowershell(ctx, script)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create shadow copy for "+volume)
	}

	var result struct {
		ID     string `json:"id"`
		Device string `json:"device"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &result); err != nil {
		return nil, errors.Wrap(err, "unexpected shadow copy output")
	}

	return &Snapshot{
		ID:         result.ID,
		Volume:     volume,
		DevicePath: result.Device,
	}, nil
}

func (s *shadowCopySnapshotter) Delete(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil || snapshot.ID == "" {
		return nil
	}

	script := fmt.Sprintf(
		`Get-WmiObject Win32_ShadowCopy | Where-Object { $_.ID -eq '%s' } | ForEach-Object { $_.Delete() }`,
		snapshot.ID)
	_, err := runPowershell(ctx, script)
	if err != nil {
		return errors.Wrap(err, "failed to delete shadow copy "+snapshot.ID)
	}
	return nil
}

func runPowershell(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%v: %s", err, string(out))
	}
	return string(out), nil
}
