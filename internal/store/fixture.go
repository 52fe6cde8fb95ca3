package store

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/delegateas/XrmSync-sub000/internal/model"
)

// Fixture is a remote state to seed a store with.
//
// Example YAML:
//
//	users:
//	  - id: 5f0c1c52-0000-0000-0000-000000000001
//	    name: integration user
//	solutions:
//	  Core:
//	    plugin_types:
//	      - name: Ctx.Plugins.AccountPlugin
//	        steps:
//	          - name: "AccountPlugin: PostOperation Update of account"
//	            event_operation: Update
//	            logical_name: account
//	            stage: PostOperation
//	            mode: Synchronous
//	            deployment: ServerOnly
//	            execution_order: 1
//
// Entities without an ID get one from the store's ID generator.
type Fixture struct {
	Users     []User                       `yaml:"users"`
	Solutions map[string]model.Declaration `yaml:"solutions"`
}

// User is a system user steps may impersonate.
type User struct {
	ID   uuid.UUID `yaml:"id"`
	Name string    `yaml:"name"`
}

// LoadFixture reads a YAML fixture from path.
// Unknown fields are rejected to catch typos early.
func LoadFixture(path string) (Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	var fx Fixture
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return fx, nil
}

// Seed inserts every user and solution of fx in one transaction.
func (s *Store) Seed(ctx context.Context, fx Fixture) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, u := range fx.Users {
		if _, err := tx.ExecContext(ctx, `INSERT INTO system_users (id, name) VALUES (?, ?)`, u.ID, u.Name); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

	names := make([]string, 0, len(fx.Solutions))
	for name := range fx.Solutions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.seedSolution(ctx, tx, name, fx.Solutions[name]); err != nil {
			return fmt.Errorf("seed solution %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit: %w", err)
	}
	return nil
}

func (s *Store) seedSolution(ctx context.Context, db execer, solution string, decl model.Declaration) error {
	for _, t := range decl.PluginTypes {
		t.ID = s.idOrNew(t.ID)
		if err := insertPluginType(ctx, db, solution, t); err != nil {
			return err
		}
		for _, st := range t.Steps {
			st.ID = s.idOrNew(st.ID)
			st.PluginTypeID = t.ID
			if err := insertStep(ctx, db, st); err != nil {
				return err
			}
			for _, img := range st.Images {
				img.ID = s.idOrNew(img.ID)
				img.StepID = st.ID
				if err := insertImage(ctx, db, img); err != nil {
					return err
				}
			}
		}
	}

	for _, a := range decl.CustomAPIs {
		a.ID = s.idOrNew(a.ID)
		if err := insertCustomAPI(ctx, db, solution, a); err != nil {
			return err
		}
		for _, p := range a.RequestParameters {
			p.ID = s.idOrNew(p.ID)
			p.CustomAPIID = a.ID
			if err := insertRequestParameter(ctx, db, p); err != nil {
				return err
			}
		}
		for _, p := range a.ResponseProperties {
			p.ID = s.idOrNew(p.ID)
			p.CustomAPIID = a.ID
			if err := insertResponseProperty(ctx, db, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) idOrNew(id uuid.UUID) uuid.UUID {
	if id != uuid.Nil {
		return id
	}
	return s.newID()
}
