package sql

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nkhine/itools/pkg/resource"
)

// entry is a handle on one row, identified by ID so that it follows the
// row rather than a name.
type entry struct {
	s    *Store
	id   string
	kind resource.Kind
}

var (
	_ resource.Container = (*entry)(nil)
	_ resource.Tagged    = (*entry)(nil)
	_ resource.Taggable  = (*entry)(nil)
)

func (e *entry) kindErr(want resource.Kind) error {
	if e.kind == want {
		return nil
	}
	if want == resource.KindFile {
		return resource.ErrIsContainer
	}
	return resource.ErrNotContainer
}

func (e *entry) Kind() resource.Kind { return e.kind }

func (e *entry) load(ctx context.Context, columns ...string) (*Node, error) {
	db, err := e.s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var n Node
	if err := db.Select(columns).Where("id = ?", e.id).First(&n).Error; err != nil {
		return nil, convertNotFoundError(err)
	}
	return &n, nil
}

func (e *entry) Read(ctx context.Context) ([]byte, error) {
	if err := e.kindErr(resource.KindFile); err != nil {
		return nil, err
	}
	n, err := e.load(ctx, "id", "data")
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if n.Data == nil {
		return []byte{}, nil
	}
	return n.Data, nil
}

func (e *entry) update(ctx context.Context, op string, values map[string]any) error {
	db, err := e.s.conn(ctx)
	if err != nil {
		return err
	}
	result := db.Model(&Node{}).Where("id = ?", e.id).Updates(values)
	if result.Error != nil {
		return fmt.Errorf("%s: %w", op, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, resource.ErrNotFound)
	}
	return nil
}

func (e *entry) Write(ctx context.Context, data []byte) error {
	if err := e.kindErr(resource.KindFile); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	return e.update(ctx, "write", map[string]any{"data": data})
}

func (e *entry) Append(ctx context.Context, data []byte) error {
	if err := e.kindErr(resource.KindFile); err != nil {
		return err
	}
	db, err := e.s.conn(ctx)
	if err != nil {
		return err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		var n Node
		if err := tx.Select("id", "data").Where("id = ?", e.id).First(&n).Error; err != nil {
			return convertNotFoundError(err)
		}
		return tx.Model(&Node{}).Where("id = ?", e.id).
			Updates(map[string]any{"data": append(n.Data, data...)}).Error
	})
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}
	return nil
}

func (e *entry) ModTime(ctx context.Context) (time.Time, bool, error) {
	n, err := e.load(ctx, "id", "updated_at")
	if err != nil {
		return time.Time{}, false, err
	}
	return n.UpdatedAt, true, nil
}

func (e *entry) Tag(ctx context.Context) (string, error) {
	n, err := e.load(ctx, "id", "tag")
	if err != nil {
		return "", err
	}
	return n.Tag, nil
}

// SetTag does not advance the modification time.
func (e *entry) SetTag(ctx context.Context, tag string) error {
	db, err := e.s.conn(ctx)
	if err != nil {
		return err
	}
	result := db.Model(&Node{}).Where("id = ?", e.id).UpdateColumn("tag", tag)
	if result.Error != nil {
		return fmt.Errorf("set tag: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("set tag: %w", resource.ErrNotFound)
	}
	return nil
}

func (e *entry) Child(ctx context.Context, name string) (resource.Resource, error) {
	if err := e.kindErr(resource.KindFolder); err != nil {
		return nil, err
	}
	db, err := e.s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var n Node
	err = db.Select("id", "kind").Where("parent_id = ? AND name = ?", e.id, name).First(&n).Error
	if err != nil {
		return nil, fmt.Errorf("child %q: %w", name, convertNotFoundError(err))
	}
	return &entry{s: e.s, id: n.ID, kind: resource.Kind(n.Kind)}, nil
}

func (e *entry) Create(ctx context.Context, name string, kind resource.Kind) (resource.Resource, error) {
	if err := resource.ValidateName(name); err != nil {
		return nil, fmt.Errorf("create %q: %w", name, err)
	}
	if err := e.kindErr(resource.KindFolder); err != nil {
		return nil, err
	}
	db, err := e.s.conn(ctx)
	if err != nil {
		return nil, err
	}

	n := Node{ID: uuid.New().String(), ParentID: e.id, Name: name, Kind: int(kind)}
	err = db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Node{}).Where("id = ?", e.id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return resource.ErrNotFound
		}
		if err := tx.Model(&Node{}).Where("parent_id = ? AND name = ?", e.id, name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return resource.ErrExists
		}
		if err := tx.Create(&n).Error; err != nil {
			if isUniqueConstraintError(err) {
				return resource.ErrExists
			}
			return err
		}
		return touch(tx, e.id)
	})
	if err != nil {
		return nil, fmt.Errorf("create %q: %w", name, err)
	}
	return &entry{s: e.s, id: n.ID, kind: kind}, nil
}

// touch advances a container's modification time.
func touch(tx *gorm.DB, id string) error {
	return tx.Model(&Node{}).Where("id = ?", id).Update("updated_at", tx.NowFunc()).Error
}

func (e *entry) DeleteChild(ctx context.Context, name string) error {
	if err := e.kindErr(resource.KindFolder); err != nil {
		return err
	}
	db, err := e.s.conn(ctx)
	if err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var n Node
		if err := tx.Select("id").Where("parent_id = ? AND name = ?", e.id, name).First(&n).Error; err != nil {
			return convertNotFoundError(err)
		}

		// Collect the subtree breadth first, then delete it in one statement.
		ids := []string{n.ID}
		frontier := []string{n.ID}
		for len(frontier) > 0 {
			var next []string
			if err := tx.Model(&Node{}).Where("parent_id IN ?", frontier).Pluck("id", &next).Error; err != nil {
				return err
			}
			ids = append(ids, next...)
			frontier = next
		}
		if err := tx.Where("id IN ?", ids).Delete(&Node{}).Error; err != nil {
			return err
		}
		return touch(tx, e.id)
	})
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	return nil
}

func (e *entry) List(ctx context.Context) ([]string, error) {
	if err := e.kindErr(resource.KindFolder); err != nil {
		return nil, err
	}
	db, err := e.s.conn(ctx)
	if err != nil {
		return nil, err
	}
	names := []string{}
	if err := db.Model(&Node{}).Where("parent_id = ?", e.id).Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	// Byte order, independent of the database collation.
	slices.Sort(names)
	return names, nil
}
