package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const sampleLog = `A-Benchmark shuffle, B-tuple_size, C-Tuples, D-GB, E-Partitions, F-Threads
SmbLockFreeBatched,16,336000000,5.0 GB,32,1,4.0,1,2,3000000,4000000,5000000,6000000,7,8,1.1,1,3.0
SmbLockFreeBatched,16,336000000,5.0 GB,32,2,2.0,1,2,3100000,4100000,5100000,6100000,7,8,1.2,2,3.0
Radix,16,336000000,5.0 GB,32,2,3.0,1,2,3200000,4200000,5200000,6200000,7,8,1.3,2,3.0
Radix,16,336000000,5.0 GB,32,1,5.0,1,2,3300000,4300000,5300000,6300000,7,8,1.4,1,3.0
Radix,16,336000000,5.0 GB,64,1,6.0,1,2,3300000,4300000,5300000,6300000,7,8,1.4,1,3.0
SmbLockFreeBatched,4,672000000,2.5 GB,32,1,2.0,1,2,3000000,4000000,5000000,6000000,7,8,0.9,1,3.0
SmbLockFreeBatched,4,672000000,2.5 GB,1024,1,9.0,1,2,3000000,4000000,5000000,6000000,7,8,bad,1,3.0
`

const sampleWriteOut = `Benchmarking (not-synchronised) using 32 Partitions and 1 Thread(s): written 16B tuples: 80.00 Mio
Benchmarking (not-synchronised) using 32 Partitions and 2 Thread(s): written 16B tuples: 150.50 Mio
Benchmarking (synchronised) using 32 Partitions and 2 Thread(s): written 16B tuples: 120.29 Mio
`

// executeCommand executes a cobra command and returns its output.
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	resetFlags(root)
	cfgFile = ""
	// Mock exit
	oldExit := exit
	exit = func(code int) {
		if code != 0 {
			panic(fmt.Sprintf("exit-%d", code))
		}
	}
	defer func() { exit = oldExit }()
	defer func() {
		if r := recover(); r != nil {
			if s, ok := r.(string); ok && strings.HasPrefix(s, "exit-") {
				return
			}
			panic(r)
		}
	}()
	root.SetArgs(args)
	b := new(bytes.Buffer)
	root.SetOut(b)
	root.SetErr(b)
	root.SetIn(bytes.NewBufferString(""))
	err := root.Execute()
	return b.String(), err
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		}
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// inTempDir runs the test in an empty working directory so that no
// shufflebench.yaml or .env of the repository is picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
