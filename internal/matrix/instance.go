package matrix

import (
	"strings"

	"github.com/vk/gridci/internal/config"
)

// Binding pins one axis to one concrete value.
type Binding struct {
	Axis  string
	Value string
}

// Instance is one concrete runnable unit: a job template with every axis
// bound. Identity, bindings and resolved attributes are immutable after
// expansion; only the scheduler's bookkeeping around an instance changes.
type Instance struct {
	Template *config.Job
	ID       string
	Bindings []Binding // in template axis order
	Eligible bool      // resolved once at expansion time, per template

	// Resolved per-instance attributes, with matrix placeholders
	// substituted.
	Produces []string
	Consumes []string
	Env      map[string]string
	Commands []string
}

// BindingValue returns the bound value for the named axis.
func (i *Instance) BindingValue(axis string) (string, bool) {
	for _, b := range i.Bindings {
		if b.Axis == axis {
			return b.Value, true
		}
	}
	return "", false
}

// instanceID formats instance identity as job.<name> for zero-axis
// templates, or job.<name>[axis=value,...] in axis order.
func instanceID(job string, bindings []Binding) string {
	var sb strings.Builder
	sb.WriteString("job.")
	sb.WriteString(job)
	if len(bindings) == 0 {
		return sb.String()
	}
	sb.WriteByte('[')
	for i, b := range bindings {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(b.Axis)
		sb.WriteByte('=')
		sb.WriteString(b.Value)
	}
	sb.WriteByte(']')
	return sb.String()
}
