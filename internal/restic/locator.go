package restic

import (
	"fmt"
	"imagevault/internal/types"
	"path/filepath"
	"strings"
)

// S3Locator builds the repository locator for a client/site pair inside the
// shared bucket, e.g. s3:http://minio:9000/imagevault/acme/hq.
func S3Locator(cred types.StorageCredentials, clientShort, siteShort string) string {
	scheme := "http"
	if cred.UseTLS {
		scheme = "https"
	}
	endpoint := cred.Endpoint
	if strings.Contains(endpoint, "://") {
		endpoint = endpoint[strings.Index(endpoint, "://")+3:]
	}
	return fmt.Sprintf("s3:%s://%s/%s/%s/%s",
		scheme, endpoint, cred.Bucket,
		strings.ToLower(clientShort), strings.ToLower(siteShort))
}

// LocalLocator is the fallback when no object storage is configured.
func LocalLocator(dataDir, clientShort, siteShort string) string {
	return filepath.Join(dataDir, "repos",
		strings.ToLower(clientShort), strings.ToLower(siteShort))
}

// IsS3 reports whether the locator points at an S3 backend.
func IsS3(locator string) bool {
	return strings.HasPrefix(locator, "s3:")
}
