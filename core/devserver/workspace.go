package devserver

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// workspaceFiles mark the root of a JavaScript monorepo.
var workspaceFiles = []string{"pnpm-workspace.yaml", "lerna.json"}

// WorkspaceRoot returns the monorepo root that contains root, the way Vite
// picks its default server.fs.allow. It walks up from root looking for a
// pnpm or lerna workspace file or a package.json with a "workspaces" field.
// When there is none, the nearest directory holding a package.json is used,
// and root itself when that is missing too.
func WorkspaceRoot(root string) string {
	root = filepath.Clean(root)
	pkgRoot := ""

	for dir := root; ; {
		for _, name := range workspaceFiles {
			if fileExists(filepath.Join(dir, name)) {
				return dir
			}
		}
		if pkg := filepath.Join(dir, "package.json"); fileExists(pkg) {
			if hasWorkspaces(pkg) {
				return dir
			}
			if pkgRoot == "" {
				pkgRoot = dir
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if pkgRoot != "" {
		return pkgRoot
	}
	return root
}

func fileExists(name string) bool {
	info, err := os.Stat(name)
	return err == nil && !info.IsDir()
}

func hasWorkspaces(pkgFile string) bool {
	data, err := os.ReadFile(pkgFile)
	if err != nil {
		return false
	}
	var pkg struct {
		Workspaces json.RawMessage `json:"workspaces"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return false
	}
	return len(pkg.Workspaces) > 0 && string(pkg.Workspaces) != "null"
}
