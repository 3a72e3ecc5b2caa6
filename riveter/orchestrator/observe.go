package orchestrator

import (
	"context"

	"github.com/riveterops/riveter/riveter/toolspec"
)

// Observe re-derives the installed state from the host. Nothing here is
// cached or persisted between runs.
func (o *Orchestrator) Observe(ctx context.Context, spec *toolspec.ToolSpec) (toolspec.InstalledState, error) {
	state := toolspec.InstalledState{}

	version, err := o.installedVersion(ctx, spec)
	if err != nil {
		return state, err
	}
	state.Version = version
	if version != "" {
		state.BinaryPath = o.binaryPath(spec)
	}

	if spec.Config != nil {
		if exists, err := o.Files.Exists(ctx, spec.Config.Path); err == nil && exists {
			state.ConfigPath = spec.Config.Path
		}
	}
	if spec.Service != nil && o.Services != nil {
		unitPath := o.Services.UnitPath(spec.Service.Name)
		if exists, err := o.Files.Exists(ctx, unitPath); err == nil && exists {
			state.UnitPath = unitPath
		}
	}
	if spec.ServiceUser != "" && o.Users != nil {
		if _, exists, err := o.Users.Get(ctx, spec.ServiceUser); err == nil && exists {
			state.User = spec.ServiceUser
		}
	}
	return state, nil
}
