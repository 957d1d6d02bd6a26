//go:build tools

package tools

// Tool dependencies are tracked here with blank imports when a tool is
// invoked via go run. The tools currently in use are installed as
// binaries, so no imports are needed.
