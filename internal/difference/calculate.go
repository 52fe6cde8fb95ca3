package difference

import (
	"github.com/google/uuid"

	"github.com/delegateas/XrmSync-sub000/internal/compare"
	"github.com/delegateas/XrmSync-sub000/internal/model"
)

// level wires one entity kind into the generic walk.
type level[T any] struct {
	cmp compare.Comparer[T]
	id  func(T) uuid.UUID

	// adopt copies the remote identity (own ID and parent ID) onto a local entity.
	adopt func(local, remote T) T
	// bare strips children.
	bare func(T) T

	// created, deleted and matched cascade into the children of an entity.
	created func(local T)
	deleted func(remote T)
	matched func(local, remote T)
}

// diffLevel classifies one level and cascades into children.
func diffLevel[T any](set *Set[T], l level[T], local, remote []T) {
	m := match(l.cmp, l.id, local, remote)

	for _, e := range m.localOnly {
		set.Creates = append(set.Creates, Change[T]{Local: l.bare(e)})
		l.created(e)
	}

	for _, e := range m.remoteOnly {
		set.Deletes = append(set.Deletes, l.bare(e))
		l.deleted(e)
	}

	for _, p := range m.pairs {
		changes := l.cmp.Diff(p.local, p.remote)
		switch changes.Disposition() {
		case compare.Recreate:
			set.Deletes = append(set.Deletes, l.bare(p.remote))
			set.Creates = append(set.Creates, Change[T]{
				Local:   l.bare(p.local),
				Remote:  l.bare(p.remote),
				Changes: changes,
			})
			l.deleted(p.remote)
			l.created(p.local)
		case compare.Update:
			adopted := l.adopt(p.local, p.remote)
			set.Updates = append(set.Updates, Change[T]{
				Local:   l.bare(adopted),
				Remote:  l.bare(p.remote),
				Changes: changes,
			})
			l.matched(adopted, p.remote)
		default:
			l.matched(l.adopt(p.local, p.remote), p.remote)
		}
	}
}

// Calculate returns the operations that turn remote into local.
func Calculate(local, remote model.Declaration) Differences {
	c := &calculator{}
	local = local.Linked()
	remote = remote.Linked()

	diffLevel(&c.out.PluginTypes, c.pluginTypeLevel(), local.PluginTypes, remote.PluginTypes)
	diffLevel(&c.out.CustomAPIs, c.customAPILevel(), local.CustomAPIs, remote.CustomAPIs)

	c.out.sort()
	return c.out
}

type calculator struct {
	out Differences
}

func noop[T any](T) {}

// Plugin hierarchy

func (c *calculator) pluginTypeLevel() level[model.PluginType] {
	return level[model.PluginType]{
		cmp: compare.PluginTypes,
		id:  func(t model.PluginType) uuid.UUID { return t.ID },
		adopt: func(local, remote model.PluginType) model.PluginType {
			local.ID = remote.ID
			return local
		},
		bare: func(t model.PluginType) model.PluginType {
			t.Steps = nil
			return t
		},
		created: func(t model.PluginType) {
			for _, s := range t.Steps {
				c.createStep(s)
			}
		},
		deleted: func(t model.PluginType) {
			for _, s := range t.Steps {
				c.deleteStep(s)
			}
		},
		matched: func(local, remote model.PluginType) {
			steps := make([]model.Step, len(local.Steps))
			for i, s := range local.Steps {
				s.PluginTypeName = local.Name
				s.PluginTypeID = remote.ID
				steps[i] = s
			}
			diffLevel(&c.out.Steps, c.stepLevel(), steps, remote.Steps)
		},
	}
}

func (c *calculator) stepLevel() level[model.Step] {
	return level[model.Step]{
		cmp: compare.Steps,
		id:  func(s model.Step) uuid.UUID { return s.ID },
		adopt: func(local, remote model.Step) model.Step {
			local.ID = remote.ID
			local.PluginTypeID = remote.PluginTypeID
			return local
		},
		bare: func(s model.Step) model.Step {
			s.Images = nil
			return s
		},
		created: func(s model.Step) {
			for _, i := range s.Images {
				c.createImage(i)
			}
		},
		deleted: func(s model.Step) {
			for _, i := range s.Images {
				c.out.Images.Deletes = append(c.out.Images.Deletes, i)
			}
		},
		matched: func(local, remote model.Step) {
			images := make([]model.Image, len(local.Images))
			for i, img := range local.Images {
				img.StepName = local.Name
				img.StepID = remote.ID
				img.PluginTypeName = local.PluginTypeName
				images[i] = img
			}
			diffLevel(&c.out.Images, c.imageLevel(), images, remote.Images)
		},
	}
}

func (c *calculator) imageLevel() level[model.Image] {
	return level[model.Image]{
		cmp: compare.Images,
		id:  func(i model.Image) uuid.UUID { return i.ID },
		adopt: func(local, remote model.Image) model.Image {
			local.ID = remote.ID
			local.StepID = remote.StepID
			return local
		},
		bare:    func(i model.Image) model.Image { return i },
		created: noop[model.Image],
		deleted: noop[model.Image],
		matched: func(model.Image, model.Image) {},
	}
}

// createStep emits a step whose parent is being created, with its images.
func (c *calculator) createStep(s model.Step) {
	s.ID = uuid.Nil
	s.PluginTypeID = uuid.Nil
	images := s.Images
	s.Images = nil
	c.out.Steps.Creates = append(c.out.Steps.Creates, Change[model.Step]{Local: s})
	for _, i := range images {
		i.StepName = s.Name
		i.PluginTypeName = s.PluginTypeName
		c.createImage(i)
	}
}

func (c *calculator) createImage(i model.Image) {
	i.ID = uuid.Nil
	i.StepID = uuid.Nil
	c.out.Images.Creates = append(c.out.Images.Creates, Change[model.Image]{Local: i})
}

// deleteStep emits a step whose parent is being deleted, with its images.
func (c *calculator) deleteStep(s model.Step) {
	images := s.Images
	s.Images = nil
	c.out.Steps.Deletes = append(c.out.Steps.Deletes, s)
	c.out.Images.Deletes = append(c.out.Images.Deletes, images...)
}

// Custom API hierarchy

func (c *calculator) customAPILevel() level[model.CustomAPI] {
	return level[model.CustomAPI]{
		cmp: compare.CustomAPIs,
		id:  func(a model.CustomAPI) uuid.UUID { return a.ID },
		adopt: func(local, remote model.CustomAPI) model.CustomAPI {
			local.ID = remote.ID
			return local
		},
		bare: func(a model.CustomAPI) model.CustomAPI {
			a.RequestParameters = nil
			a.ResponseProperties = nil
			return a
		},
		created: func(a model.CustomAPI) {
			for _, p := range a.RequestParameters {
				p.ID, p.CustomAPIID = uuid.Nil, uuid.Nil
				c.out.RequestParameters.Creates = append(c.out.RequestParameters.Creates, Change[model.RequestParameter]{Local: p})
			}
			for _, p := range a.ResponseProperties {
				p.ID, p.CustomAPIID = uuid.Nil, uuid.Nil
				c.out.ResponseProperties.Creates = append(c.out.ResponseProperties.Creates, Change[model.ResponseProperty]{Local: p})
			}
		},
		deleted: func(a model.CustomAPI) {
			c.out.RequestParameters.Deletes = append(c.out.RequestParameters.Deletes, a.RequestParameters...)
			c.out.ResponseProperties.Deletes = append(c.out.ResponseProperties.Deletes, a.ResponseProperties...)
		},
		matched: func(local, remote model.CustomAPI) {
			params := make([]model.RequestParameter, len(local.RequestParameters))
			for i, p := range local.RequestParameters {
				p.CustomAPIName = local.UniqueName
				p.CustomAPIID = remote.ID
				params[i] = p
			}
			diffLevel(&c.out.RequestParameters, requestParameterLevel(), params, remote.RequestParameters)

			props := make([]model.ResponseProperty, len(local.ResponseProperties))
			for i, p := range local.ResponseProperties {
				p.CustomAPIName = local.UniqueName
				p.CustomAPIID = remote.ID
				props[i] = p
			}
			diffLevel(&c.out.ResponseProperties, responsePropertyLevel(), props, remote.ResponseProperties)
		},
	}
}

func requestParameterLevel() level[model.RequestParameter] {
	return level[model.RequestParameter]{
		cmp: compare.RequestParameters,
		id:  func(p model.RequestParameter) uuid.UUID { return p.ID },
		adopt: func(local, remote model.RequestParameter) model.RequestParameter {
			local.ID = remote.ID
			local.CustomAPIID = remote.CustomAPIID
			return local
		},
		bare:    func(p model.RequestParameter) model.RequestParameter { return p },
		created: noop[model.RequestParameter],
		deleted: noop[model.RequestParameter],
		matched: func(model.RequestParameter, model.RequestParameter) {},
	}
}

func responsePropertyLevel() level[model.ResponseProperty] {
	return level[model.ResponseProperty]{
		cmp: compare.ResponseProperties,
		id:  func(p model.ResponseProperty) uuid.UUID { return p.ID },
		adopt: func(local, remote model.ResponseProperty) model.ResponseProperty {
			local.ID = remote.ID
			local.CustomAPIID = remote.CustomAPIID
			return local
		},
		bare:    func(p model.ResponseProperty) model.ResponseProperty { return p },
		created: noop[model.ResponseProperty],
		deleted: noop[model.ResponseProperty],
		matched: func(model.ResponseProperty, model.ResponseProperty) {},
	}
}
