package validation

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/delegateas/XrmSync-sub000/internal/model"
)

// Messages that accept entity images.
var imageMessages = mapset.NewSet(
	"assign",
	"create",
	"delete",
	"deliverincoming",
	"deliverpromote",
	"merge",
	"route",
	"send",
	"setstate",
	"setstatedynamicentity",
	"update",
)

func isAssociate(message string) bool {
	return model.SameKey(message, "Associate") || model.SameKey(message, "Disassociate")
}

// PreStageNotAsync rejects asynchronous steps in a pre-execution stage.
var PreStageNotAsync = NewRule(ErrPreStageAsync, func(s model.Step) []string {
	if s.Stage.IsPreExecution() && s.Mode == model.ModeAsynchronous {
		return []string{fmt.Sprintf("%s steps cannot run asynchronously", s.Stage)}
	}
	return nil
})

// AssociateNoFilter rejects filtered attributes on Associate and Disassociate.
var AssociateNoFilter = NewRule(ErrAssociateFilter, func(s model.Step) []string {
	if isAssociate(s.EventOperation) && strings.TrimSpace(s.FilteredAttributes) != "" {
		return []string{fmt.Sprintf("%s steps cannot filter attributes", s.EventOperation)}
	}
	return nil
})

// AssociateAllEntities requires Associate and Disassociate steps to target
// every entity.
var AssociateAllEntities = NewRule(ErrAssociateEntity, func(s model.Step) []string {
	if isAssociate(s.EventOperation) && strings.TrimSpace(s.LogicalName) != "" {
		return []string{fmt.Sprintf("%s steps must target all entities, not %q", s.EventOperation, s.LogicalName)}
	}
	return nil
})

// AsyncAutoDeleteRequiresAsync rejects async auto delete on synchronous steps.
var AsyncAutoDeleteRequiresAsync = NewRule(ErrAsyncAutoDeleteNotAsync, func(s model.Step) []string {
	if s.AsyncAutoDelete && s.Mode != model.ModeAsynchronous {
		return []string{"async auto delete requires asynchronous mode"}
	}
	return nil
})

// NoDuplicateRegistrations rejects sibling steps registered on the same
// message, stage and entity.
var NoDuplicateRegistrations = NewChildRule(ErrDuplicateRegistration,
	func(s model.Step, _ model.PluginType, siblings []model.Step) []string {
		key := registration(s)
		n := 0
		for _, o := range siblings {
			if registration(o) == key {
				n++
			}
		}
		if n > 1 {
			return []string{fmt.Sprintf("%d steps registered on %s %s of %s",
				n, s.Stage, s.EventOperation, entityOrAny(s.LogicalName))}
		}
		return nil
	})

func registration(s model.Step) string {
	return fmt.Sprintf("%s|%d|%s", model.Key(s.EventOperation), s.Stage, model.Key(s.LogicalName))
}

func entityOrAny(name string) string {
	if strings.TrimSpace(name) == "" {
		return "any entity"
	}
	return name
}

// UserContextExists rejects steps impersonating a user listed as missing.
func UserContextExists(missing []uuid.UUID) Rule[model.Step] {
	set := mapset.NewThreadUnsafeSet(missing...)
	return NewRule(ErrUserContextMissing, func(s model.Step) []string {
		if s.UserContext != uuid.Nil && set.Contains(s.UserContext) {
			return []string{fmt.Sprintf("user context %s does not exist", s.UserContext)}
		}
		return nil
	})
}

// ImagesSupported rejects images on messages that carry no entity image.
var ImagesSupported = NewChildRule(ErrImageNotSupported,
	func(_ model.Image, s model.Step, _ []model.Image) []string {
		if !imageMessages.Contains(model.Key(s.EventOperation)) {
			return []string{fmt.Sprintf("%s steps do not support images", s.EventOperation)}
		}
		return nil
	})

// CreateNoPreImage rejects pre-images on Create steps.
var CreateNoPreImage = NewChildRule(ErrCreatePreImage,
	func(img model.Image, s model.Step, _ []model.Image) []string {
		if model.SameKey(s.EventOperation, "Create") && img.ImageType.HasPre() {
			return []string{"Create steps do not support pre-images"}
		}
		return nil
	})

// DeleteNoPostImage rejects post-images on Delete steps.
var DeleteNoPostImage = NewChildRule(ErrDeletePostImage,
	func(img model.Image, s model.Step, _ []model.Image) []string {
		if model.SameKey(s.EventOperation, "Delete") && img.ImageType.HasPost() {
			return []string{"Delete steps do not support post-images"}
		}
		return nil
	})

// PreStageNoPostImage rejects post-images on steps that run before the
// core operation.
var PreStageNoPostImage = NewChildRule(ErrPreStagePostImage,
	func(img model.Image, s model.Step, _ []model.Image) []string {
		if s.Stage.IsPreExecution() && img.ImageType.HasPost() {
			return []string{fmt.Sprintf("%s steps do not support post-images", s.Stage)}
		}
		return nil
	})

// BoundEntityMatchesBinding requires a bound entity on bound APIs.
var BoundEntityMatchesBinding = NewRule(ErrBoundEntityMissing, func(api model.CustomAPI) []string {
	if api.BindingType.IsBound() && strings.TrimSpace(api.BoundEntityLogicalName) == "" {
		return []string{fmt.Sprintf("%s binding requires a bound entity", api.BindingType)}
	}
	return nil
})

// UnboundHasNoEntity rejects a bound entity on a global API.
var UnboundHasNoEntity = NewRule(ErrBoundEntityUnexpected, func(api model.CustomAPI) []string {
	if !api.BindingType.IsBound() && strings.TrimSpace(api.BoundEntityLogicalName) != "" {
		return []string{fmt.Sprintf("global API cannot be bound to %q", api.BoundEntityLogicalName)}
	}
	return nil
})

// FunctionNotWorkflow rejects functions enabled for workflow.
var FunctionNotWorkflow = NewRule(ErrFunctionWorkflow, func(api model.CustomAPI) []string {
	if api.IsFunction && api.EnabledForWorkflow {
		return []string{"functions cannot be enabled for workflow"}
	}
	return nil
})

// RequirePrefix rejects unique names outside the publisher prefix. An empty
// prefix disables the rule.
func RequirePrefix[T any](code string, kind model.Kind, prefix string, name func(T) string) Rule[T] {
	want := model.Key(prefix)
	return NewRule(code, func(e T) []string {
		if want == "" {
			return nil
		}
		n := model.Key(name(e))
		if n == "" || strings.HasPrefix(n, want+"_") {
			return nil
		}
		return []string{fmt.Sprintf("%s %q must start with %q", kind, name(e), prefix+"_")}
	})
}

// EntityNameForEntityTypes allows a logical entity name only on types that
// refer to a table.
func EntityNameForEntityTypes[T any](kind model.Kind, typ func(T) model.ParameterType, entity func(T) string) Rule[T] {
	return NewRule(ErrParameterEntity, func(e T) []string {
		if strings.TrimSpace(entity(e)) != "" && !typ(e).IsEntityType() {
			return []string{fmt.Sprintf("%s of type %s cannot name entity %q", kind, typ(e), entity(e))}
		}
		return nil
	})
}
