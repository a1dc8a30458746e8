//go:build property
// +build property

package handler_test

import (
	"bytes"
	"context"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/nkhine/itools/pkg/handler"
	"github.com/nkhine/itools/pkg/resource"
	"github.com/nkhine/itools/pkg/resource/memory"
	"github.com/nkhine/itools/pkg/resource/resourcetest"
)

func TestOverlayProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	ctx := context.Background()

	// Property: a staged child resolves to the staged node until saved
	properties.Property("set then get returns the staged node", prop.ForAll(
		func(name string, stored bool) bool {
			st := memory.New()
			root := handler.NewSession().OpenFolder(st.Root())
			if stored {
				if _, err := st.Root().Create(ctx, name, resource.KindFile); err != nil {
					return false
				}
				if err := root.DelHandler(ctx, name); err != nil {
					return false
				}
			}

			h := handler.NewFile(nil)
			if err := root.SetHandler(ctx, name, h); err != nil {
				return false
			}
			got, err := root.GetHandler(ctx, name)
			return err == nil && got == h
		},
		gen.Identifier(),
		gen.Bool(),
	))

	// Property: the last staged node wins over an intervening removal
	properties.Property("set del set resolves to the second node", prop.ForAll(
		func(name string) bool {
			root := handler.NewSession().OpenFolder(memory.New().Root())
			h1, h2 := handler.NewFile(nil), handler.NewFile(nil)

			if root.SetHandler(ctx, name, h1) != nil ||
				root.DelHandler(ctx, name) != nil ||
				root.SetHandler(ctx, name, h2) != nil {
				return false
			}
			got, err := root.GetHandler(ctx, name)
			return err == nil && got == h2
		},
		gen.Identifier(),
	))

	// Property: a second save without edits performs no store mutations
	properties.Property("save is idempotent", prop.ForAll(
		func(seeded, added []string, drop int) bool {
			st := memory.New()
			for _, name := range seeded {
				if _, err := st.Root().Create(ctx, name, resource.KindFile); err != nil {
					return true // duplicate generated name
				}
			}

			ctr := &resourcetest.Counter{}
			root := handler.NewSession().OpenFolder(resourcetest.Wrap(st.Root(), ctr))
			if len(seeded) > 0 {
				if err := root.DelHandler(ctx, seeded[drop%len(seeded)]); err != nil {
					return false
				}
			}
			for _, name := range added {
				if ok, _ := root.Has(ctx, name); ok {
					continue
				}
				if err := root.SetHandler(ctx, name, handler.NewFile(nil)); err != nil {
					return false
				}
			}

			if err := root.Save(ctx); err != nil {
				return false
			}
			ctr.Reset()
			if err := root.Save(ctx); err != nil {
				return false
			}
			if ctr.Snapshot().Mutations() != 0 {
				return false
			}

			want, err := root.Names(ctx)
			if err != nil {
				return false
			}
			got, err := st.Root().List(ctx)
			return err == nil && slices.Equal(want, got)
		},
		gen.SliceOfN(4, gen.Identifier()),
		gen.SliceOfN(4, gen.Identifier()),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}

func TestOpaqueRoundTripProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(97531)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// Property: Load(Serialize(s)) is equal to s
	properties.Property("opaque round trip", prop.ForAll(
		func(data []byte) bool {
			s := &handler.Blob{Data: data}
			out, err := s.Serialize()
			if err != nil {
				return false
			}
			back, err := handler.Opaque.Load(out)
			if err != nil {
				return false
			}
			return bytes.Equal(back.(*handler.Blob).Data, data)
		},
		gen.SliceOf(gen.UInt8()),
	))

	// Property: a clone shares no memory with its source
	properties.Property("clone is deep", prop.ForAll(
		func(data []byte) bool {
			if len(data) == 0 {
				return true
			}
			s := &handler.Blob{Data: slices.Clone(data)}
			c := s.Clone().(*handler.Blob)
			c.Data[0]++
			return bytes.Equal(s.Data, data)
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}
