package config

import "strings"

// StorageConfig selects the blob store used for service request images.
type StorageConfig struct {
	Driver          string // s3 or memory
	Bucket          string
	Region          string
	Endpoint        string // optional, for MinIO and other S3-compatible servers
	PathStyle       bool
	AccessKeyID     string // optional, falls back to the default credential chain
	SecretAccessKey string
	PublicBaseURL   string // optional prefix for stored image URLs
	MaxUploadBytes  int64
}

// LoadStorageConfig reads the STORAGE_* variables.
func LoadStorageConfig() StorageConfig {
	return StorageConfig{
		Driver:          strings.ToLower(envStr("STORAGE_DRIVER", "memory")),
		Bucket:          envStr("STORAGE_S3_BUCKET", ""),
		Region:          envStr("STORAGE_S3_REGION", "us-east-1"),
		Endpoint:        envStr("STORAGE_S3_ENDPOINT", ""),
		PathStyle:       envBool("STORAGE_S3_PATH_STYLE", false),
		AccessKeyID:     envStr("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: envStr("AWS_SECRET_ACCESS_KEY", ""),
		PublicBaseURL:   strings.TrimRight(envStr("STORAGE_PUBLIC_BASE_URL", ""), "/"),
		MaxUploadBytes:  int64(envInt("STORAGE_MAX_UPLOAD_BYTES", 5<<20)),
	}
}
