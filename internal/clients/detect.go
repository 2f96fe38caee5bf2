package clients

import (
	"log"
	"os"
)

// Status reports whether a client's data directory exists on this
// machine.
type Status struct {
	Definition
	Path      string
	Installed bool
}

// Detect resolves every registry entry against home and checks which
// data directories are present. Missing directories are normal; they
// just mean the tool has never run here.
func Detect(home string) []Status {
	out := make([]Status, 0, len(registry))
	for _, def := range registry {
		path := def.ResolvePath(home)
		installed := dirExists(path)
		if !installed {
			for _, legacy := range def.LegacyPaths(home) {
				if dirExists(legacy) {
					installed = true
					path = legacy
					break
				}
			}
		}
		if installed {
			log.Printf("[clients] found %s data at %s", def.ID, path)
		}
		out = append(out, Status{Definition: def, Path: path, Installed: installed})
	}
	return out
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
