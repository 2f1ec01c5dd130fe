package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/reliquary/internal/schema"
)

// LoadSchema loads and compiles the CUE schema declarations in dir into a
// registry. The registry is the explicit configuration every pipeline
// receives; loading it is the only place the CUE toolchain runs.
func LoadSchema(dir string) (*schema.Registry, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("schema directory not found: %s", dir))
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "error accessing schema directory", err)
	}
	if !info.IsDir() {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("not a directory: %s", dir))
	}

	cueFiles, err := findCUEFiles(dir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "error scanning schema directory", err)
	}
	if len(cueFiles) == 0 {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("no CUE files found in %s", dir))
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, NewExitError(ExitCommandError, "no CUE instances loaded")
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, WrapExitError(ExitCommandError, "loading CUE files", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, WrapExitError(ExitCommandError, "building CUE value", err)
	}

	reg, err := schema.CompileRegistry(value)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "compiling schema", err)
	}
	return reg, nil
}

// findCUEFiles returns the .cue files directly under dir, sorted for
// deterministic load order.
func findCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".cue") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
