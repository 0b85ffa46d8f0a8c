package types

// Version is the canonical project version.
// The CLI, the User-Agent sent by the fetcher, and the stdio frame protocol
// all report this value.
const Version = "0.3.0"
