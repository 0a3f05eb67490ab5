package activity

import (
	"strings"
	"time"
)

const (
	// VerbPropertyUpdated is emitted after a property write completes.
	VerbPropertyUpdated = "property.updated"
	// VerbPropertyRejected is emitted when a declaration fails validation.
	VerbPropertyRejected = "property.rejected"
	// ObjectTypeProperty is the object type of every property event.
	ObjectTypeProperty = "property"
)

// PropertyEventInput describes the common fields for property lifecycle events.
type PropertyEventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	Owner          string
	Property       string
	Policy         string
	Key            string
	OldValue       any
	NewValue       any
	Diagnostic     string
	OccurredAt     time.Time
}

// BuildPropertyUpdatedEvent constructs a normalized activity event for a
// completed property write.
func BuildPropertyUpdatedEvent(input PropertyEventInput) Event {
	return buildPropertyEvent(VerbPropertyUpdated, input)
}

// BuildPropertyRejectedEvent constructs an activity event for a declaration
// that failed validation.
func BuildPropertyRejectedEvent(input PropertyEventInput) Event {
	return buildPropertyEvent(VerbPropertyRejected, input)
}

func buildPropertyEvent(verb string, input PropertyEventInput) Event {
	metadata := cloneMap(input.Metadata)
	qualified := qualifiedProperty(input.Owner, input.Property)
	if qualified != "" {
		metadata = ensureMetadata(metadata)
		metadata["property"] = qualified
	}
	if input.Policy != "" {
		metadata = ensureMetadata(metadata)
		metadata["policy"] = input.Policy
	}
	if input.Key != "" {
		metadata = ensureMetadata(metadata)
		metadata["key"] = input.Key
	}
	if input.Diagnostic != "" {
		metadata = ensureMetadata(metadata)
		metadata["diagnostic"] = input.Diagnostic
	}
	if input.OldValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["new_value"] = input.NewValue
	}

	recipients := input.Recipients
	if len(recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" {
		objectID = qualified
	}
	if objectID == "" {
		objectID = ObjectTypeProperty
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		ObjectType:     ObjectTypeProperty,
		ObjectID:       objectID,
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: strings.TrimSpace(input.DefinitionCode),
		Recipients:     recipients,
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}

func qualifiedProperty(owner, property string) string {
	owner = strings.TrimSpace(owner)
	property = strings.TrimSpace(property)
	switch {
	case owner == "":
		return property
	case property == "":
		return owner
	default:
		return owner + "." + property
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
