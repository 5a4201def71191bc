package nodes

import (
	"fmt"
	"strings"

	"github.com/dukex/composer/pkg/models"
	"github.com/robfig/cron/v3"
)

// Type describes a registered node type: its default label, default
// parameters and the JSON schema its parameters must satisfy.
type Type struct {
	ID          string
	Name        string
	Description string
	Defaults    func() map[string]any
	Schema      map[string]any

	// Check runs after schema validation for rules a JSON schema cannot express.
	Check func(parameters map[string]any) error
}

var httpMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"}

// HTTPType performs an outbound HTTP request.
func HTTPType() Type {
	return Type{
		ID:          models.NodeTypeHTTP,
		Name:        "HTTP Request",
		Description: "Performs an HTTP request",
		Defaults: func() map[string]any {
			return map[string]any{
				"url":     "https://example.com/api",
				"method":  "GET",
				"headers": map[string]any{},
			}
		},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{
					"type":      "string",
					"minLength": 1,
				},
				"method": map[string]any{
					"type": "string",
					"enum": httpMethods,
				},
				"headers": map[string]any{
					"type":                 "object",
					"additionalProperties": map[string]any{"type": "string"},
				},
			},
			"required": []string{"url", "method"},
		},
	}
}

// FunctionType runs user code over the items flowing through the workflow.
func FunctionType() Type {
	return Type{
		ID:          models.NodeTypeFunction,
		Name:        "Function",
		Description: "Runs custom code over the incoming items",
		Defaults: func() map[string]any {
			return map[string]any{"code": "return items;"}
		},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code": map[string]any{"type": "string"},
			},
			"required": []string{"code"},
		},
	}
}

// WebhookType starts a workflow from an inbound HTTP call.
func WebhookType() Type {
	return Type{
		ID:          models.NodeTypeWebhook,
		Name:        "Webhook",
		Description: "Starts the workflow when an HTTP request hits the path",
		Defaults: func() map[string]any {
			return map[string]any{"path": "/webhook", "method": "POST"}
		},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":    "string",
					"pattern": "^/",
				},
				"method": map[string]any{
					"type": "string",
					"enum": httpMethods,
				},
			},
			"required": []string{"path", "method"},
		},
	}
}

// Frequencies accepted by the schedule node besides raw cron expressions.
var namedFrequencies = map[string]string{
	"hourly":   "@hourly",
	"daily":    "@daily",
	"weekly":   "@weekly",
	"monthly":  "@monthly",
	"yearly":   "@yearly",
	"annually": "@annually",
}

// FrequencyManual marks a schedule that only runs when started by hand.
const FrequencyManual = "manual"

// ScheduleType starts a workflow on a recurring schedule.
func ScheduleType() Type {
	return Type{
		ID:          models.NodeTypeSchedule,
		Name:        "Schedule",
		Description: "Starts the workflow on a schedule",
		Defaults: func() map[string]any {
			return map[string]any{"frequency": "hourly"}
		},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"frequency": map[string]any{
					"type":      "string",
					"minLength": 1,
				},
			},
			"required": []string{"frequency"},
		},
		Check: checkFrequency,
	}
}

// checkFrequency accepts "manual", a named frequency, a cron descriptor or a
// standard five-field cron expression.
func checkFrequency(parameters map[string]any) error {
	frequency, _ := parameters["frequency"].(string)
	frequency = strings.TrimSpace(frequency)

	if frequency == FrequencyManual {
		return nil
	}

	spec := frequency
	if descriptor, ok := namedFrequencies[strings.ToLower(frequency)]; ok {
		spec = descriptor
	}

	if _, err := cron.ParseStandard(spec); err != nil {
		return &ParameterError{
			Type:    models.NodeTypeSchedule,
			Details: []string{fmt.Sprintf("frequency: %q is not a valid schedule: %v", frequency, err)},
		}
	}

	return nil
}

// BuiltinTypes returns the node types every factory starts with.
func BuiltinTypes() []Type {
	return []Type{HTTPType(), FunctionType(), WebhookType(), ScheduleType()}
}
