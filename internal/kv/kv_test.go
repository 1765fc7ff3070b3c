package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type rec struct {
	Name string `json:"name"`
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"memory": NewMemory(),
		"file":   NewFile(filepath.Join(t.TempDir(), "fixoo", "storage.json")),
	}
}

func TestStore_GetSetRemove(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := s.Get(ctx, "missing")
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, s.Set(ctx, "k", []byte(`{"name":"a"}`)))
			v, ok, err := s.Get(ctx, "k")
			require.NoError(t, err)
			require.True(t, ok)
			require.JSONEq(t, `{"name":"a"}`, string(v))

			require.NoError(t, s.Remove(ctx, "k"))
			require.NoError(t, s.Remove(ctx, "k"), "removing an absent key is not an error")
			_, ok, err = s.Get(ctx, "k")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestStore_ApplyBatch(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Set(ctx, "old", []byte(`1`)))

			put, err := PutJSON("new", rec{Name: "b"})
			require.NoError(t, err)
			require.NoError(t, s.Apply(ctx, put, Delete("old")))

			var got rec
			ok, err := GetJSON(ctx, s, "new", &got)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "b", got.Name)

			_, ok, err = s.Get(ctx, "old")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestGetJSON_Corrupt(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	s.data["k"] = []byte(`{not json`)

	var got rec
	ok, err := GetJSON(ctx, s, "k", &got)
	require.Error(t, err)
	require.False(t, ok)
}

func TestMemory_CopiesValues(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	val := []byte(`"abc"`)
	require.NoError(t, s.Set(ctx, "k", val))
	val[1] = 'z'

	got, _, _ := s.Get(ctx, "k")
	require.Equal(t, `"abc"`, string(got))
	got[1] = 'q'
	again, _, _ := s.Get(ctx, "k")
	require.Equal(t, `"abc"`, string(again))
	require.Equal(t, 1, s.Keys())
}

func TestFile_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, NewFile(path), "fixoo_current_user", rec{Name: "x"}))

	var got rec
	ok, err := GetJSON(ctx, NewFile(path), "fixoo_current_user", &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "x", got.Name)

	st, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), st.Mode().Perm())
}

func TestStore_RejectsNonJSON(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.ErrorIs(t, s.Set(ctx, "k", []byte("plain-token")), ErrNotJSON)

			err := s.Apply(ctx, Put("a", []byte(`1`)), Put("b", []byte("plain")))
			require.ErrorIs(t, err, ErrNotJSON)
			_, ok, err := s.Get(ctx, "a")
			require.NoError(t, err)
			require.False(t, ok, "a rejected batch writes nothing")

			require.NoError(t, s.Set(ctx, "k", []byte(`"plain-token"`)))
		})
	}
}

func TestFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	_, _, err := NewFile(path).Get(context.Background(), "k")
	require.Error(t, err)
}
