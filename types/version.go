package types

// Version is the canonical project version.
// The CLI, the ledger record format and the notification payloads share
// this version.
const Version = "0.3.0"

// AppName is the application identifier tagged on every upload.
const AppName = "StreamVault"
