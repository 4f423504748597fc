package version

// Version is the current version of the huddle CLI, set at release time with
//
//	go build -ldflags="-X 'github.com/BioHazard786/Huddle/cli/internal/version.Version=v1.0.0'"
var Version = "dev"
