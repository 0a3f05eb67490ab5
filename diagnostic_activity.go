package assoc

import (
	"context"

	"github.com/goliatone/go-assoc/pkg/activity"
)

// ActivityReporter forwards diagnostics to activity hooks as
// property.rejected events. Hook failures are dropped.
type ActivityReporter struct {
	Hooks   activity.Hooks
	Channel string
}

// Report implements Reporter.
func (r ActivityReporter) Report(d Diagnostic) {
	if !r.Hooks.Enabled() {
		return
	}
	event := activity.BuildPropertyRejectedEvent(activity.PropertyEventInput{
		Owner:      d.Owner,
		Property:   d.Property,
		Channel:    r.Channel,
		Diagnostic: d.ID(),
		Metadata: map[string]any{
			"message":  d.Message(),
			"severity": d.Severity().String(),
			"position": d.Pos.String(),
		},
	})
	_ = r.Hooks.Notify(context.Background(), event)
}
