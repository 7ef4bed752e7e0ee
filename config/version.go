package config

var (
	Version    string = "dev"
	CommitHash string = ""
)

// IsProduction reports a release build: Version "release" with a commit hash.
func IsProduction() bool {
	return Version == "release" && CommitHash != ""
}

// IsDevelopment 开发环境
func IsDevelopment() bool {
	return Version == "dev"
}
