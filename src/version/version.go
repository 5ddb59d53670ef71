package version

// Version is the rsyncsnap release string. Overridden at build time via
// -ldflags "-X rsyncsnap/src/version.Version=...".
var Version = "0.1.0-dev"
