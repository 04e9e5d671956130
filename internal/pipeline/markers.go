package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/specialistvlad/pipeliner/internal/fsutil"
	"github.com/specialistvlad/pipeliner/internal/node"
)

// MarkerPath returns where the marker file for n lives:
// <markerDir>/<type code>/<name>. It fails for names that would resolve
// outside of the marker tree.
func (p *PipeLine) MarkerPath(n node.Node) (string, error) {
	rel := filepath.Clean(strings.TrimLeft(filepath.ToSlash(n.Name), "/"))
	if rel == "." || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("node name %q escapes the marker directory", n.Name)
	}
	return filepath.Join(p.markerDir, strconv.Itoa(int(n.Type)), rel), nil
}

// TouchTemporaryNodeFile writes a zero-byte marker for n into the marker
// tree when the node's own file exists, or unconditionally when force is
// set. It reports whether the node's file exists. Failing to write the marker
// is logged and does not change the result.
func (p *PipeLine) TouchTemporaryNodeFile(n node.Node, force bool) bool {
	exists := p.prober.Exists(n.Name)
	if !exists && !force {
		return false
	}

	path, err := p.MarkerPath(n)
	if err != nil {
		p.logger.Warn("Marker skipped.", "node", n.Name, "error", err)
		return exists
	}
	if err := fsutil.Touch(path); err != nil {
		p.logger.Warn("Marker could not be written.", "node", n.Name, "path", path, "error", err)
		return exists
	}
	p.logger.Debug("Marker written.", "node", n.Name, "path", path)
	return exists
}

// MakeNodeDirectory rebuilds the marker tree from scratch and touches a
// marker for every live node whose file exists. It returns how many nodes had
// their file present.
func (p *PipeLine) MakeNodeDirectory(ctx context.Context) (int, error) {
	if err := os.RemoveAll(p.markerDir); err != nil {
		return 0, fmt.Errorf("clear marker directory %s: %w", p.markerDir, err)
	}
	if err := os.MkdirAll(p.markerDir, 0o755); err != nil {
		return 0, fmt.Errorf("create marker directory %s: %w", p.markerDir, err)
	}

	present := 0
	for i := 0; i < p.nodes.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return present, err
		}
		nd, ok := p.nodes.Get(i)
		if !ok {
			continue
		}
		if p.TouchTemporaryNodeFile(*nd, false) {
			present++
		}
	}
	p.logger.Info("Marker directory written.", "dir", p.markerDir, "nodes", p.nodes.Live(), "present", present)
	return present, nil
}
