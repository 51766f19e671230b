package storage

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/pfrederiksen/vols1365/internal/logger"
)

// Dumper writes raw response bodies for later inspection. Dumps are best
// effort: failures are logged and never interrupt a run.
type Dumper struct {
	dir string
}

// NewDumper returns a Dumper writing into dir. An empty dir disables dumping.
func NewDumper(dir string) *Dumper {
	return &Dumper{dir: dir}
}

var unsafeName = regexp.MustCompile(`[^\p{L}\p{N}._+()-]+`)

// Dump writes data to dir/name, replacing any previous dump of that name.
// Characters outside letters, digits and ._+()- are replaced with '_'.
// It returns the path written, or "" when nothing was written.
func (d *Dumper) Dump(name string, data []byte) string {
	if d == nil || d.dir == "" {
		return ""
	}
	dir, err := expandHome(d.dir)
	if err != nil {
		logger.Warn("debug dump skipped", logger.Fields{"name": name, "error": err.Error()})
		return ""
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Warn("debug dump skipped", logger.Fields{"name": name, "error": err.Error()})
		return ""
	}

	path := filepath.Join(dir, unsafeName.ReplaceAllString(name, "_"))
	if err := os.WriteFile(path, data, 0644); err != nil {
		logger.Warn("debug dump failed", logger.Fields{"path": path, "error": err.Error()})
		return ""
	}
	logger.Debug("debug dump written", logger.Fields{"path": path, "bytes": len(data)})
	return path
}
