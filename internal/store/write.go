package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/delegateas/XrmSync-sub000/internal/model"
)

// ErrNotFound is returned when an update or delete names no existing row.
var ErrNotFound = errors.New("not found")

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var tables = map[model.Kind]string{
	model.KindPluginType:       "plugin_types",
	model.KindStep:             "steps",
	model.KindImage:            "images",
	model.KindCustomAPI:        "custom_apis",
	model.KindRequestParameter: "request_parameters",
	model.KindResponseProperty: "response_properties",
}

// Writer applies operations to one solution of the store.
// It implements reconcile.Writer.
type Writer struct {
	store    *Store
	solution string
}

// Writer returns a Writer creating top-level entities in solution.
func (s *Store) Writer(solution string) *Writer {
	return &Writer{store: s, solution: solution}
}

// CreatePluginType inserts t into the writer's solution under a new ID.
func (w *Writer) CreatePluginType(ctx context.Context, t model.PluginType) (uuid.UUID, error) {
	t.ID = w.store.newID()
	return t.ID, insertPluginType(ctx, w.store.db, w.solution, t)
}

// CreateStep inserts st under the plugin type identified by st.PluginTypeID.
func (w *Writer) CreateStep(ctx context.Context, st model.Step) (uuid.UUID, error) {
	st.ID = w.store.newID()
	return st.ID, insertStep(ctx, w.store.db, st)
}

// CreateImage inserts i under the step identified by i.StepID.
func (w *Writer) CreateImage(ctx context.Context, i model.Image) (uuid.UUID, error) {
	i.ID = w.store.newID()
	return i.ID, insertImage(ctx, w.store.db, i)
}

// CreateCustomAPI inserts a into the writer's solution under a new ID.
func (w *Writer) CreateCustomAPI(ctx context.Context, a model.CustomAPI) (uuid.UUID, error) {
	a.ID = w.store.newID()
	return a.ID, insertCustomAPI(ctx, w.store.db, w.solution, a)
}

// CreateRequestParameter inserts p under the custom API identified by p.CustomAPIID.
func (w *Writer) CreateRequestParameter(ctx context.Context, p model.RequestParameter) (uuid.UUID, error) {
	p.ID = w.store.newID()
	return p.ID, insertRequestParameter(ctx, w.store.db, p)
}

// CreateResponseProperty inserts p under the custom API identified by p.CustomAPIID.
func (w *Writer) CreateResponseProperty(ctx context.Context, p model.ResponseProperty) (uuid.UUID, error) {
	p.ID = w.store.newID()
	return p.ID, insertResponseProperty(ctx, w.store.db, p)
}

// UpdateStep overwrites the mutable columns of step st.ID.
func (w *Writer) UpdateStep(ctx context.Context, st model.Step) error {
	res, err := w.store.db.ExecContext(ctx, `
		UPDATE steps SET
			name = ?, event_operation = ?, logical_name = ?, stage = ?, mode = ?, deployment = ?,
			execution_order = ?, filtered_attributes = ?, user_context = ?, async_auto_delete = ?
		WHERE id = ?
	`,
		st.Name, st.EventOperation, st.LogicalName, int(st.Stage), int(st.Mode), int(st.Deployment),
		st.ExecutionOrder, st.FilteredAttributes, st.UserContext, st.AsyncAutoDelete,
		st.ID,
	)
	return checkAffected(res, err, model.KindStep, st.ID)
}

// UpdateImage overwrites the mutable columns of image i.ID.
func (w *Writer) UpdateImage(ctx context.Context, i model.Image) error {
	res, err := w.store.db.ExecContext(ctx, `
		UPDATE images SET name = ?, entity_alias = ?, image_type = ?, attributes = ?
		WHERE id = ?
	`, i.Name, i.EntityAlias, int(i.ImageType), i.Attributes, i.ID)
	return checkAffected(res, err, model.KindImage, i.ID)
}

// UpdateCustomAPI overwrites the mutable columns of custom API a.ID.
func (w *Writer) UpdateCustomAPI(ctx context.Context, a model.CustomAPI) error {
	res, err := w.store.db.ExecContext(ctx, `
		UPDATE custom_apis SET
			unique_name = ?, name = ?, display_name = ?, description = ?, binding_type = ?,
			bound_entity_logical_name = ?, is_function = ?, enabled_for_workflow = ?,
			allowed_custom_processing_step_type = ?, execute_privilege_name = ?,
			is_customizable = ?, is_private = ?, plugin_type_name = ?
		WHERE id = ?
	`,
		a.UniqueName, a.Name, a.DisplayName, a.Description, int(a.BindingType),
		a.BoundEntityLogicalName, a.IsFunction, a.EnabledForWorkflow,
		int(a.AllowedCustomProcessingStepType), a.ExecutePrivilegeName,
		a.IsCustomizable, a.IsPrivate, a.PluginTypeName,
		a.ID,
	)
	return checkAffected(res, err, model.KindCustomAPI, a.ID)
}

// UpdateRequestParameter overwrites the mutable columns of request parameter p.ID.
func (w *Writer) UpdateRequestParameter(ctx context.Context, p model.RequestParameter) error {
	res, err := w.store.db.ExecContext(ctx, `
		UPDATE request_parameters SET
			unique_name = ?, name = ?, display_name = ?, description = ?, type = ?,
			logical_entity_name = ?, is_optional = ?, is_customizable = ?
		WHERE id = ?
	`,
		p.UniqueName, p.Name, p.DisplayName, p.Description, int(p.Type),
		p.LogicalEntityName, p.IsOptional, p.IsCustomizable,
		p.ID,
	)
	return checkAffected(res, err, model.KindRequestParameter, p.ID)
}

// UpdateResponseProperty overwrites the mutable columns of response property p.ID.
func (w *Writer) UpdateResponseProperty(ctx context.Context, p model.ResponseProperty) error {
	res, err := w.store.db.ExecContext(ctx, `
		UPDATE response_properties SET
			unique_name = ?, name = ?, display_name = ?, description = ?, type = ?,
			logical_entity_name = ?, is_customizable = ?
		WHERE id = ?
	`,
		p.UniqueName, p.Name, p.DisplayName, p.Description, int(p.Type),
		p.LogicalEntityName, p.IsCustomizable,
		p.ID,
	)
	return checkAffected(res, err, model.KindResponseProperty, p.ID)
}

// Delete removes one entity. Its children must already be gone.
func (w *Writer) Delete(ctx context.Context, kind model.Kind, id uuid.UUID) error {
	table, ok := tables[kind]
	if !ok {
		return fmt.Errorf("delete: unknown kind %q", kind)
	}
	res, err := w.store.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	return checkAffected(res, err, kind, id)
}

func checkAffected(res sql.Result, err error, kind model.Kind, id uuid.UUID) error {
	if err != nil {
		return fmt.Errorf("write %s %s: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write %s %s: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("write %s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

func insertPluginType(ctx context.Context, db execer, solution string, t model.PluginType) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO plugin_types (id, solution, name) VALUES (?, ?, ?)
	`, t.ID, solution, t.Name)
	if err != nil {
		return fmt.Errorf("insert plugin type %q: %w", t.Name, err)
	}
	return nil
}

func insertStep(ctx context.Context, db execer, st model.Step) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO steps
		(id, plugin_type_id, name, event_operation, logical_name, stage, mode, deployment,
		 execution_order, filtered_attributes, user_context, async_auto_delete)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		st.ID, st.PluginTypeID, st.Name, st.EventOperation, st.LogicalName, int(st.Stage), int(st.Mode), int(st.Deployment),
		st.ExecutionOrder, st.FilteredAttributes, st.UserContext, st.AsyncAutoDelete,
	)
	if err != nil {
		return fmt.Errorf("insert step %q: %w", st.Name, err)
	}
	return nil
}

func insertImage(ctx context.Context, db execer, i model.Image) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO images (id, step_id, name, entity_alias, image_type, attributes)
		VALUES (?, ?, ?, ?, ?, ?)
	`, i.ID, i.StepID, i.Name, i.EntityAlias, int(i.ImageType), i.Attributes)
	if err != nil {
		return fmt.Errorf("insert image %q: %w", i.Name, err)
	}
	return nil
}

func insertCustomAPI(ctx context.Context, db execer, solution string, a model.CustomAPI) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO custom_apis
		(id, solution, unique_name, name, display_name, description, binding_type,
		 bound_entity_logical_name, is_function, enabled_for_workflow,
		 allowed_custom_processing_step_type, execute_privilege_name,
		 is_customizable, is_private, plugin_type_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID, solution, a.UniqueName, a.Name, a.DisplayName, a.Description, int(a.BindingType),
		a.BoundEntityLogicalName, a.IsFunction, a.EnabledForWorkflow,
		int(a.AllowedCustomProcessingStepType), a.ExecutePrivilegeName,
		a.IsCustomizable, a.IsPrivate, a.PluginTypeName,
	)
	if err != nil {
		return fmt.Errorf("insert custom api %q: %w", a.UniqueName, err)
	}
	return nil
}

func insertRequestParameter(ctx context.Context, db execer, p model.RequestParameter) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO request_parameters
		(id, custom_api_id, unique_name, name, display_name, description, type,
		 logical_entity_name, is_optional, is_customizable)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.CustomAPIID, p.UniqueName, p.Name, p.DisplayName, p.Description, int(p.Type),
		p.LogicalEntityName, p.IsOptional, p.IsCustomizable,
	)
	if err != nil {
		return fmt.Errorf("insert request parameter %q: %w", p.UniqueName, err)
	}
	return nil
}

func insertResponseProperty(ctx context.Context, db execer, p model.ResponseProperty) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO response_properties
		(id, custom_api_id, unique_name, name, display_name, description, type,
		 logical_entity_name, is_customizable)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.CustomAPIID, p.UniqueName, p.Name, p.DisplayName, p.Description, int(p.Type),
		p.LogicalEntityName, p.IsCustomizable,
	)
	if err != nil {
		return fmt.Errorf("insert response property %q: %w", p.UniqueName, err)
	}
	return nil
}
