package main

import (
	"bytes"
	"testing"
)

// executeCommand runs the root command with args, capturing stdout and
// restoring global flag state afterwards.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	origStdout, origRun := stdout, runFlags
	origVerbose, origQuiet, origJSON, origLogJSON := verbose, quiet, jsonOut, logJSON
	t.Cleanup(func() {
		stdout, runFlags = origStdout, origRun
		verbose, quiet, jsonOut, logJSON = origVerbose, origQuiet, origJSON, origLogJSON
		rootCmd.SetArgs(nil)
	})

	var out bytes.Buffer
	stdout = &out
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}
