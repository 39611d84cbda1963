package scene

import (
	"fmt"
	"os"

	"github.com/maze-engine/world/internal/component"
	"github.com/maze-engine/world/internal/core/ecs"
	"gopkg.in/yaml.v3"
)

// Document is the on-disk form of a world: its id counter and every live
// entity with its serializable components.
type Document struct {
	IDCounter ecs.EntityID `yaml:"id_counter"`
	Entities  []EntityDoc  `yaml:"entities"`
}

type EntityDoc struct {
	ID         ecs.EntityID   `yaml:"id"`
	Inactive   bool           `yaml:"inactive,omitempty"`
	Components []ComponentDoc `yaml:"components"`
}

type ComponentDoc struct {
	Type string    `yaml:"type"`
	Data yaml.Node `yaml:"data"`
}

// Load reads a scene file.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	seen := make(map[ecs.EntityID]struct{}, len(doc.Entities))
	for _, e := range doc.Entities {
		if !e.ID.Valid() {
			return nil, fmt.Errorf("parse scene: entity with invalid id %d", e.ID)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("parse scene: duplicate entity id %d", e.ID)
		}
		seen[e.ID] = struct{}{}
		if e.ID > doc.IDCounter {
			doc.IDCounter = e.ID
		}
	}
	return &doc, nil
}

func (d *Document) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// Save writes the document to path.
func (d *Document) Save(path string) error {
	raw, err := d.Marshal()
	if err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}
	return nil
}

// Instantiate stages every entity of doc into w, keeping saved ids. The
// entities become live at the next Update. On error nothing is staged.
// w should have been created with ecs.WithEntityIDSeed(doc.IDCounter) so
// fresh ids never collide.
func Instantiate(w *ecs.World, reg *Registry, doc *Document) ([]*ecs.Entity, error) {
	// Nothing is staged unless every id is free.
	seen := make(map[ecs.EntityID]struct{}, len(doc.Entities))
	for _, ed := range doc.Entities {
		if _, dup := seen[ed.ID]; dup || !ed.ID.Valid() || w.IDInUse(ed.ID) {
			return nil, fmt.Errorf("entity %d: id already in use", ed.ID)
		}
		seen[ed.ID] = struct{}{}
	}

	entities := make([]*ecs.Entity, 0, len(doc.Entities))
	for _, ed := range doc.Entities {
		e := ecs.NewEntityWithID(ed.ID)
		e.SetActiveSelf(!ed.Inactive)
		for _, cd := range ed.Components {
			c, err := reg.Decode(cd)
			if err != nil {
				return nil, fmt.Errorf("entity %d: %w", ed.ID, err)
			}
			if !e.AddComponent(c) {
				return nil, fmt.Errorf("entity %d: duplicate component %s", ed.ID, cd.Type)
			}
		}
		entities = append(entities, e)
	}
	component.RebuildHierarchy(entities)
	for i, e := range entities {
		if !w.AddEntity(e) {
			for _, staged := range entities[:i] {
				w.RemoveEntity(staged)
			}
			return nil, fmt.Errorf("entity %d: id already in use", e.ID())
		}
	}
	return entities, nil
}

// Capture builds a document from the live entities of w in id order.
// Components without a codec are skipped.
func Capture(w *ecs.World, reg *Registry) (*Document, error) {
	doc := &Document{
		IDCounter: w.EntityIDCounter(),
		Entities:  make([]EntityDoc, 0, w.EntityCount()),
	}
	var err error
	w.EachEntity(func(e *ecs.Entity) {
		if err != nil {
			return
		}
		ed := EntityDoc{ID: e.ID(), Inactive: !e.ActiveSelf()}
		for _, c := range e.Components() {
			cd, ok, encErr := reg.Encode(c)
			if encErr != nil {
				err = fmt.Errorf("entity %d: %w", e.ID(), encErr)
				return
			}
			if ok {
				ed.Components = append(ed.Components, cd)
			}
		}
		doc.Entities = append(doc.Entities, ed)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
