package config

import "runtime"

var (
	defaultDataDir       = "/var/imagevault/data"
	defaultStagingVolume = "/"
)

func init() {
	if runtime.GOOS == "windows" {
		defaultDataDir = `C:\ProgramData\imagevault`
		defaultStagingVolume = `C:\`
	}
}
