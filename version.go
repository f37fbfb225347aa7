package machina

// Version is the library version, surfaced by the CLI version command.
const Version = "0.2.0"
