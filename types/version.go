package types

// Version is the easel release version.
const Version = "0.1.0"
