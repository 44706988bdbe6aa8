// Package validation checks and normalizes task payloads before they reach
// the resource handlers.
//
// A Schema validates a decoded JSON body (map[string]any) and returns a
// Result that holds either the normalized fields or the ordered list of
// field-level issues. Fields are checked in declaration order (title,
// description, complete, due) and every independent field is checked even
// when an earlier one failed. The "due in the future" rule runs only after
// due itself coerced to a valid date.
package validation

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Field limits.
const (
	TitleMaxLen       = 100
	DescriptionMaxLen = 2000
)

// User-facing messages.
const (
	MsgTitleRequired      = "Title is required"
	MsgTitleType          = "Title must be a string"
	MsgTitleTooLong       = "Title must be less than 100 characters"
	MsgDescriptionType    = "Description must be a string"
	MsgDescriptionTooLong = "Description must be less than 2000 characters"
	MsgCompleteType       = "Complete must be a boolean"
	MsgDueInvalid         = "Due must be a valid date"
	MsgDueNotFuture       = "Due date cannot be before or at the same time as the created date"
	MsgBodyType           = "Task data must be an object"
)

// validate is shared; validator.Validate caches rules and is safe for concurrent use.
var validate = validator.New()

// Issue is a single failed constraint.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error reports every issue found while validating a payload.
type Error struct {
	Issues []Issue
}

// Error joins the issue messages: "Validation failed: a, b".
func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		msgs = append(msgs, is.Message)
	}
	return "Validation failed: " + strings.Join(msgs, ", ")
}

// IssuesOf returns the issues carried by err, or nil.
func IssuesOf(err error) []Issue {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Issues
	}
	return nil
}

// TaskFields is the normalized payload. A nil pointer means the field was not
// supplied (partial updates only; Create always fills Title, Complete and Due).
type TaskFields struct {
	Title       *string
	Description *string
	Complete    *bool
	Due         *time.Time
}

// Empty reports whether no field was supplied.
func (f TaskFields) Empty() bool {
	return f.Title == nil && f.Description == nil && f.Complete == nil && f.Due == nil
}

// Result is the outcome of Schema.Validate: Value is meaningful only when
// Issues is empty.
type Result struct {
	Value  TaskFields
	Issues []Issue
}

// OK reports whether validation passed.
func (r Result) OK() bool { return len(r.Issues) == 0 }

// Err returns a *Error when validation failed, nil otherwise.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &Error{Issues: r.Issues}
}

// Schema validates task payloads.
type Schema struct {
	// Partial makes every field optional (PATCH semantics). Complete is not
	// defaulted in partial mode.
	Partial bool
	// Now returns the validation instant; defaults to time.Now.
	Now func() time.Time
	// Location is used for legacy DD/MM/YYYY dates; defaults to UTC.
	Location *time.Location
}

// CreateSchema validates full task payloads.
func CreateSchema() Schema { return Schema{} }

// UpdateSchema validates partial task payloads.
func UpdateSchema() Schema { return Schema{Partial: true} }

func (s Schema) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Validate checks raw against the task field set.
func (s Schema) Validate(raw any) Result {
	body, ok := raw.(map[string]any)
	if !ok {
		return Result{Issues: []Issue{{Field: "", Message: MsgBodyType}}}
	}

	var (
		out    TaskFields
		issues []Issue
	)
	add := func(field, msg string) { issues = append(issues, Issue{Field: field, Message: msg}) }

	// title
	if v, present := body["title"]; !present || v == nil {
		if !s.Partial || present {
			add("title", MsgTitleRequired)
		}
	} else if title, ok := v.(string); !ok {
		add("title", MsgTitleType)
	} else if msg := lengthRule(title, "min=1,max="+strconv.Itoa(TitleMaxLen), MsgTitleRequired, MsgTitleTooLong); msg != "" {
		add("title", msg)
	} else {
		out.Title = &title
	}

	// description
	if v, present := body["description"]; present {
		if desc, ok := v.(string); !ok {
			add("description", MsgDescriptionType)
		} else if msg := lengthRule(desc, "max="+strconv.Itoa(DescriptionMaxLen), "", MsgDescriptionTooLong); msg != "" {
			add("description", msg)
		} else {
			out.Description = &desc
		}
	}

	// complete
	if v, present := body["complete"]; present {
		if b, ok := v.(bool); !ok {
			add("complete", MsgCompleteType)
		} else {
			out.Complete = &b
		}
	} else if !s.Partial {
		f := false
		out.Complete = &f
	}

	// due
	if v, present := body["due"]; present || !s.Partial {
		if due, ok := CoerceDate(v, s.Location); !ok {
			add("due", MsgDueInvalid)
		} else if !due.After(s.now()) {
			add("due", MsgDueNotFuture)
		} else {
			out.Due = &due
		}
	}

	if len(issues) > 0 {
		return Result{Issues: issues}
	}
	return Result{Value: out}
}

// lengthRule runs a validator tag against s and maps the failing rule to a
// message: "min" → minMsg, "max" → maxMsg.
func lengthRule(s, tag, minMsg, maxMsg string) string {
	err := validate.Var(s, tag)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Tag() {
		case "min":
			return minMsg
		case "max":
			return maxMsg
		}
	}
	return err.Error()
}
