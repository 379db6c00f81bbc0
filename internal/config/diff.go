package config

import "reflect"

// ConfigDiff describes what changed between two configs.
type ConfigDiff struct {
	AgentsChanged []string

	RouterChanged   bool
	NewDefaultAgent string

	WorkflowChanged bool
	NewWorkflow     WorkflowConfig

	// Non-reloadable fields that changed (log warnings only)
	NonReloadable []string
}

// HasChanges reports whether any reloadable field changed.
func (d *ConfigDiff) HasChanges() bool {
	return len(d.AgentsChanged) > 0 ||
		d.RouterChanged ||
		d.WorkflowChanged
}

// Diff compares two configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	var d ConfigDiff

	// Overrides added, removed or edited all count as a change for that id.
	for name, newDef := range new.Agents {
		if oldDef, ok := old.Agents[name]; !ok || !reflect.DeepEqual(oldDef, newDef) {
			d.AgentsChanged = append(d.AgentsChanged, name)
		}
	}
	for name := range old.Agents {
		if _, ok := new.Agents[name]; !ok {
			d.AgentsChanged = append(d.AgentsChanged, name)
		}
	}

	if old.Router.DefaultAgent != new.Router.DefaultAgent {
		d.RouterChanged = true
		d.NewDefaultAgent = new.Router.DefaultAgent
	}

	if old.Workflow != new.Workflow {
		d.WorkflowChanged = true
		d.NewWorkflow = new.Workflow
	}

	if old.LLM != new.LLM {
		d.NonReloadable = append(d.NonReloadable, "llm")
	}
	if old.Web.Port != new.Web.Port {
		d.NonReloadable = append(d.NonReloadable, "web.port")
	}
	if old.NATS.DataDir != new.NATS.DataDir {
		d.NonReloadable = append(d.NonReloadable, "nats.data_dir")
	}
	if old.Store.Path != new.Store.Path {
		d.NonReloadable = append(d.NonReloadable, "store.path")
	}
	if old.Training.Passphrase != new.Training.Passphrase {
		d.NonReloadable = append(d.NonReloadable, "training.passphrase")
	}

	return d
}
