package webapi

import (
	"context"

	"github.com/xkilldash9x/webbind/pkg/interop"
)

const storageNS = "StorageAPI"

// StorageArea selects localStorage or sessionStorage.
type StorageArea string

const (
	StorageLocal   StorageArea = "local"
	StorageSession StorageArea = "session"
)

// Storage wraps one Web Storage area.
type Storage struct {
	inv  interop.Invoker
	area StorageArea
}

// Area reports which storage area s wraps.
func (s *Storage) Area() StorageArea { return s.area }

func (s *Storage) Length(ctx context.Context) (int, error) {
	return interop.Call[int](ctx, s.inv, interop.Identifier(storageNS, "getLength"), s.area)
}

// Key returns the name of the nth key; ok is false when index is out of range.
func (s *Storage) Key(ctx context.Context, index int) (string, bool, error) {
	return interop.CallOptional[string](ctx, s.inv, interop.Identifier(storageNS, "key"), s.area, index)
}

// GetItem returns the stored value; ok is false when key is not set.
func (s *Storage) GetItem(ctx context.Context, key string) (string, bool, error) {
	return interop.CallOptional[string](ctx, s.inv, interop.Identifier(storageNS, "getItem"), s.area, key)
}

func (s *Storage) SetItem(ctx context.Context, key, value string) error {
	return interop.CallVoid(ctx, s.inv, interop.Identifier(storageNS, "setItem"), s.area, key, value)
}

func (s *Storage) RemoveItem(ctx context.Context, key string) error {
	return interop.CallVoid(ctx, s.inv, interop.Identifier(storageNS, "removeItem"), s.area, key)
}

func (s *Storage) Clear(ctx context.Context) error {
	return interop.CallVoid(ctx, s.inv, interop.Identifier(storageNS, "clear"), s.area)
}
