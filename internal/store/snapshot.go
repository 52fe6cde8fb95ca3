package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/delegateas/XrmSync-sub000/internal/model"
)

// Snapshot returns the registered graph of solution with every ID and
// parent link filled in. An unknown solution yields an empty graph.
//
// Rows are read in (name, id) order so repeated snapshots are identical.
func (s *Store) Snapshot(ctx context.Context, solution string) (model.Declaration, error) {
	decl := model.Declaration{Solution: solution}

	types, err := s.readPluginTypes(ctx, solution)
	if err != nil {
		return model.Declaration{}, err
	}
	steps, err := s.readSteps(ctx, solution)
	if err != nil {
		return model.Declaration{}, err
	}
	images, err := s.readImages(ctx, solution)
	if err != nil {
		return model.Declaration{}, err
	}
	apis, err := s.readCustomAPIs(ctx, solution)
	if err != nil {
		return model.Declaration{}, err
	}
	params, err := s.readRequestParameters(ctx, solution)
	if err != nil {
		return model.Declaration{}, err
	}
	props, err := s.readResponseProperties(ctx, solution)
	if err != nil {
		return model.Declaration{}, err
	}

	imagesByStep := groupBy(images, func(i model.Image) uuid.UUID { return i.StepID })
	for i := range steps {
		steps[i].Images = imagesByStep[steps[i].ID]
	}
	stepsByType := groupBy(steps, func(st model.Step) uuid.UUID { return st.PluginTypeID })
	for i := range types {
		types[i].Steps = stepsByType[types[i].ID]
	}

	paramsByAPI := groupBy(params, func(p model.RequestParameter) uuid.UUID { return p.CustomAPIID })
	propsByAPI := groupBy(props, func(p model.ResponseProperty) uuid.UUID { return p.CustomAPIID })
	for i := range apis {
		apis[i].RequestParameters = paramsByAPI[apis[i].ID]
		apis[i].ResponseProperties = propsByAPI[apis[i].ID]
	}

	decl.PluginTypes = types
	decl.CustomAPIs = apis
	return decl.Linked(), nil
}

func groupBy[T any](items []T, key func(T) uuid.UUID) map[uuid.UUID][]T {
	out := make(map[uuid.UUID][]T)
	for _, item := range items {
		k := key(item)
		out[k] = append(out[k], item)
	}
	return out
}

// collect runs query and scans every row with scan.
func collect[T any](ctx context.Context, db *sql.DB, what, query string, arg any, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return out, nil
}

func (s *Store) readPluginTypes(ctx context.Context, solution string) ([]model.PluginType, error) {
	return collect(ctx, s.db, "plugin types", `
		SELECT id, name
		FROM plugin_types
		WHERE solution = ?
		ORDER BY name, id
	`, solution, func(rows *sql.Rows) (model.PluginType, error) {
		var t model.PluginType
		err := rows.Scan(&t.ID, &t.Name)
		return t, err
	})
}

func (s *Store) readSteps(ctx context.Context, solution string) ([]model.Step, error) {
	return collect(ctx, s.db, "steps", `
		SELECT s.id, s.plugin_type_id, s.name, s.event_operation, s.logical_name, s.stage, s.mode,
		       s.deployment, s.execution_order, s.filtered_attributes, s.user_context, s.async_auto_delete
		FROM steps s
		JOIN plugin_types t ON s.plugin_type_id = t.id
		WHERE t.solution = ?
		ORDER BY s.name, s.id
	`, solution, func(rows *sql.Rows) (model.Step, error) {
		var st model.Step
		err := rows.Scan(&st.ID, &st.PluginTypeID, &st.Name, &st.EventOperation, &st.LogicalName,
			&st.Stage, &st.Mode, &st.Deployment, &st.ExecutionOrder, &st.FilteredAttributes,
			&st.UserContext, &st.AsyncAutoDelete)
		return st, err
	})
}

func (s *Store) readImages(ctx context.Context, solution string) ([]model.Image, error) {
	return collect(ctx, s.db, "images", `
		SELECT i.id, i.step_id, i.name, i.entity_alias, i.image_type, i.attributes
		FROM images i
		JOIN steps s ON i.step_id = s.id
		JOIN plugin_types t ON s.plugin_type_id = t.id
		WHERE t.solution = ?
		ORDER BY i.name, i.id
	`, solution, func(rows *sql.Rows) (model.Image, error) {
		var i model.Image
		err := rows.Scan(&i.ID, &i.StepID, &i.Name, &i.EntityAlias, &i.ImageType, &i.Attributes)
		return i, err
	})
}

func (s *Store) readCustomAPIs(ctx context.Context, solution string) ([]model.CustomAPI, error) {
	return collect(ctx, s.db, "custom apis", `
		SELECT id, unique_name, name, display_name, description, binding_type,
		       bound_entity_logical_name, is_function, enabled_for_workflow,
		       allowed_custom_processing_step_type, execute_privilege_name,
		       is_customizable, is_private, plugin_type_name
		FROM custom_apis
		WHERE solution = ?
		ORDER BY unique_name, id
	`, solution, func(rows *sql.Rows) (model.CustomAPI, error) {
		var a model.CustomAPI
		err := rows.Scan(&a.ID, &a.UniqueName, &a.Name, &a.DisplayName, &a.Description, &a.BindingType,
			&a.BoundEntityLogicalName, &a.IsFunction, &a.EnabledForWorkflow,
			&a.AllowedCustomProcessingStepType, &a.ExecutePrivilegeName,
			&a.IsCustomizable, &a.IsPrivate, &a.PluginTypeName)
		return a, err
	})
}

func (s *Store) readRequestParameters(ctx context.Context, solution string) ([]model.RequestParameter, error) {
	return collect(ctx, s.db, "request parameters", `
		SELECT p.id, p.custom_api_id, p.unique_name, p.name, p.display_name, p.description, p.type,
		       p.logical_entity_name, p.is_optional, p.is_customizable
		FROM request_parameters p
		JOIN custom_apis a ON p.custom_api_id = a.id
		WHERE a.solution = ?
		ORDER BY p.unique_name, p.id
	`, solution, func(rows *sql.Rows) (model.RequestParameter, error) {
		var p model.RequestParameter
		err := rows.Scan(&p.ID, &p.CustomAPIID, &p.UniqueName, &p.Name, &p.DisplayName, &p.Description,
			&p.Type, &p.LogicalEntityName, &p.IsOptional, &p.IsCustomizable)
		return p, err
	})
}

func (s *Store) readResponseProperties(ctx context.Context, solution string) ([]model.ResponseProperty, error) {
	return collect(ctx, s.db, "response properties", `
		SELECT p.id, p.custom_api_id, p.unique_name, p.name, p.display_name, p.description, p.type,
		       p.logical_entity_name, p.is_customizable
		FROM response_properties p
		JOIN custom_apis a ON p.custom_api_id = a.id
		WHERE a.solution = ?
		ORDER BY p.unique_name, p.id
	`, solution, func(rows *sql.Rows) (model.ResponseProperty, error) {
		var p model.ResponseProperty
		err := rows.Scan(&p.ID, &p.CustomAPIID, &p.UniqueName, &p.Name, &p.DisplayName, &p.Description,
			&p.Type, &p.LogicalEntityName, &p.IsCustomizable)
		return p, err
	})
}
