package types

// The `pkg/config/types` package contains common types used by the Memwarden configuration files.
// These types are defined in the `types` package to allow for easy import and avoid circular dependencies.
// The `types` package should not import any other config or options-related packages.
