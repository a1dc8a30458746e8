package badger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/nkhine/itools/pkg/resource"
)

type entry struct {
	s    *Store
	p    string
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

func (e *entry) Read(ctx context.Context) ([]byte, error) {
	if err := e.kindErr(resource.KindFile); err != nil {
		return nil, err
	}

	var data []byte
	err := e.s.view(ctx, func(txn *badgerdb.Txn) error {
		if _, err := getRecord(txn, e.p); err != nil {
			return err
		}
		item, err := txn.Get(keyData(e.p))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			data = []byte{}
			return nil
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return data, nil
}

func (e *entry) writeData(ctx context.Context, fn func(old []byte) []byte) error {
	if err := e.kindErr(resource.KindFile); err != nil {
		return err
	}

	return e.s.update(ctx, func(txn *badgerdb.Txn) error {
		rec, err := getRecord(txn, e.p)
		if err != nil {
			return err
		}

		var old []byte
		item, err := txn.Get(keyData(e.p))
		switch {
		case err == nil:
			if old, err = item.ValueCopy(nil); err != nil {
				return err
			}
		case !errors.Is(err, badgerdb.ErrKeyNotFound):
			return err
		}

		if err := txn.Set(keyData(e.p), fn(old)); err != nil {
			return err
		}
		rec.MTime = e.s.now().UnixNano()
		return putRecord(txn, e.p, rec)
	})
}

func (e *entry) Write(ctx context.Context, data []byte) error {
	data = slices.Clone(data)
	if err := e.writeData(ctx, func([]byte) []byte { return data }); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (e *entry) Append(ctx context.Context, data []byte) error {
	err := e.writeData(ctx, func(old []byte) []byte { return append(old, data...) })
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}
	return nil
}

func (e *entry) ModTime(ctx context.Context) (time.Time, bool, error) {
	var mtime time.Time
	err := e.s.view(ctx, func(txn *badgerdb.Txn) error {
		rec, err := getRecord(txn, e.p)
		if err != nil {
			return err
		}
		mtime = rec.modTime()
		return nil
	})
	if err != nil {
		return time.Time{}, false, err
	}
	return mtime, true, nil
}

func (e *entry) Tag(ctx context.Context) (string, error) {
	var tag string
	err := e.s.view(ctx, func(txn *badgerdb.Txn) error {
		rec, err := getRecord(txn, e.p)
		if err != nil {
			return err
		}
		tag = rec.Tag
		return nil
	})
	return tag, err
}

func (e *entry) SetTag(ctx context.Context, tag string) error {
	return e.s.update(ctx, func(txn *badgerdb.Txn) error {
		rec, err := getRecord(txn, e.p)
		if err != nil {
			return err
		}
		rec.Tag = tag
		return putRecord(txn, e.p, rec)
	})
}

func (e *entry) Child(ctx context.Context, name string) (resource.Resource, error) {
	if err := e.kindErr(resource.KindFolder); err != nil {
		return nil, err
	}
	if err := resource.ValidateName(name); err != nil {
		return nil, fmt.Errorf("child %q: %w", name, resource.ErrNotFound)
	}

	p := childPath(e.p, name)
	var kind resource.Kind
	err := e.s.view(ctx, func(txn *badgerdb.Txn) error {
		rec, err := getRecord(txn, p)
		if err != nil {
			return err
		}
		kind = rec.Kind
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("child: %w", err)
	}
	return &entry{s: e.s, p: p, kind: kind}, nil
}

func (e *entry) Create(ctx context.Context, name string, kind resource.Kind) (resource.Resource, error) {
	if err := resource.ValidateName(name); err != nil {
		return nil, fmt.Errorf("create %q: %w", name, err)
	}
	if err := e.kindErr(resource.KindFolder); err != nil {
		return nil, err
	}

	p := childPath(e.p, name)
	err := e.s.update(ctx, func(txn *badgerdb.Txn) error {
		parent, err := getRecord(txn, e.p)
		if err != nil {
			return err
		}
		if _, err := txn.Get(keyNode(p)); err == nil {
			return fmt.Errorf("%q: %w", p, resource.ErrExists)
		} else if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}

		now := e.s.now().UnixNano()
		if err := putRecord(txn, p, &record{Kind: kind, MTime: now}); err != nil {
			return err
		}
		if err := txn.Set(keyChild(e.p, name), nil); err != nil {
			return err
		}
		parent.MTime = now
		return putRecord(txn, e.p, parent)
	})
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	return &entry{s: e.s, p: p, kind: kind}, nil
}

func (e *entry) DeleteChild(ctx context.Context, name string) error {
	if err := e.kindErr(resource.KindFolder); err != nil {
		return err
	}
	if err := resource.ValidateName(name); err != nil {
		return fmt.Errorf("delete %q: %w", name, resource.ErrNotFound)
	}

	p := childPath(e.p, name)
	err := e.s.update(ctx, func(txn *badgerdb.Txn) error {
		parent, err := getRecord(txn, e.p)
		if err != nil {
			return err
		}
		if _, err := getRecord(txn, p); err != nil {
			return err
		}

		for _, k := range [][]byte{keyNode(p), keyData(p), keyChild(e.p, name)} {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		// Subtree: records, bytes and index entries of every descendant.
		below := descendantPrefix(p)
		prefixes := [][]byte{
			[]byte(prefixNode + below),
			[]byte(prefixData + below),
			keyChildPrefix(p),
			[]byte(prefixChild + below),
		}
		for _, prefix := range prefixes {
			if err := deletePrefix(txn, prefix); err != nil {
				return err
			}
		}

		parent.MTime = e.s.now().UnixNano()
		return putRecord(txn, e.p, parent)
	})
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

func (e *entry) List(ctx context.Context) ([]string, error) {
	if err := e.kindErr(resource.KindFolder); err != nil {
		return nil, err
	}

	var names []string
	err := e.s.view(ctx, func(txn *badgerdb.Txn) error {
		if _, err := getRecord(txn, e.p); err != nil {
			return err
		}

		prefix := keyChildPrefix(e.p)
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		names = []string{}
		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return names, nil
}
