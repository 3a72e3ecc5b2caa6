package artifact

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// Workspace is the scratch directory downloads land in. Close removes it;
// callers defer Close immediately so the directory goes away on every
// exit path, including errors and signals handled by cmd.
type Workspace struct {
	Dir string
}

func NewWorkspace() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "riveter-*")
	if err != nil {
		return nil, fmt.Errorf("creating download workspace: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

func (w *Workspace) Close() {
	if w == nil || w.Dir == "" {
		return
	}
	if err := os.RemoveAll(w.Dir); err != nil {
		log.WithFields(log.Fields{"dir": w.Dir, "error": err}).Warn("Failed to remove download workspace")
	}
	w.Dir = ""
}
